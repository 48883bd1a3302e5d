package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentwerk/workshop-planner/internal/service"
	"github.com/talentwerk/workshop-planner/pkg/response"
)

// ExportHandler serves schedule downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// TimetableCSV godoc
// @Summary Download the timetable as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/timetable.csv [get]
func (h *ExportHandler) TimetableCSV(c *gin.Context) {
	payload, err := h.service.TimetableCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="timetable.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// TimetablePDF godoc
// @Summary Download the timetable as PDF
// @Tags Exports
// @Produce application/pdf
// @Success 200 {file} file
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/timetable.pdf [get]
func (h *ExportHandler) TimetablePDF(c *gin.Context) {
	payload, err := h.service.TimetablePDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="timetable.pdf"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

// AssignmentsCSV godoc
// @Summary Download every student assignment as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/assignments.csv [get]
func (h *ExportHandler) AssignmentsCSV(c *gin.Context) {
	payload, err := h.service.AssignmentsCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="assignments.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// AttendancePDF godoc
// @Summary Download per-session attendance sheets as PDF
// @Tags Exports
// @Produce application/pdf
// @Success 200 {file} file
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/attendance.pdf [get]
func (h *ExportHandler) AttendancePDF(c *gin.Context) {
	payload, err := h.service.AttendancePDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="attendance.pdf"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

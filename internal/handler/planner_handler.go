package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentwerk/workshop-planner/internal/service"
	"github.com/talentwerk/workshop-planner/pkg/response"
)

// PlannerHandler wires the assignment engine endpoints.
type PlannerHandler struct {
	service *service.PlannerService
}

// NewPlannerHandler creates a new handler.
func NewPlannerHandler(svc *service.PlannerService) *PlannerHandler {
	return &PlannerHandler{service: svc}
}

// Run godoc
// @Summary Run the full assignment pipeline
// @Description Computes demand, builds the timetable and assigns every student, replacing the stored schedule
// @Tags Planner
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /planner/run [post]
func (h *PlannerHandler) Run(c *gin.Context) {
	summary, err := h.service.RunFullAssignment(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Resolve godoc
// @Summary Repair conflicting or incomplete student schedules
// @Tags Planner
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /planner/resolve [post]
func (h *PlannerHandler) Resolve(c *gin.Context) {
	summary, err := h.service.ResolveConflicts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Verify godoc
// @Summary Verify stored schedules without mutating them
// @Tags Planner
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /planner/verify [get]
func (h *PlannerHandler) Verify(c *gin.Context) {
	result, err := h.service.VerifySchedules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Demands godoc
// @Summary List per-event demand counts
// @Tags Planner
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /planner/demands [get]
func (h *PlannerHandler) Demands(c *gin.Context) {
	demands, err := h.service.Demands(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demands, nil)
}

// Timetable godoc
// @Summary Show the generated session grid
// @Tags Planner
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /planner/timetable [get]
func (h *PlannerHandler) Timetable(c *gin.Context) {
	entries, err := h.service.Timetable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

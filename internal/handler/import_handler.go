package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/talentwerk/workshop-planner/internal/dto"
	"github.com/talentwerk/workshop-planner/internal/models"
	"github.com/talentwerk/workshop-planner/internal/service"
	appErrors "github.com/talentwerk/workshop-planner/pkg/errors"
	"github.com/talentwerk/workshop-planner/pkg/response"
)

// ImportHandler wires the catalogue, room and choice import endpoints.
type ImportHandler struct {
	service *service.ImportService
}

// NewImportHandler creates a new handler.
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// ListEvents godoc
// @Summary List workshop events
// @Tags Imports
// @Produce json
// @Param company query string false "Filter by company"
// @Param search query string false "Search company or subject"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events [get]
func (h *ImportHandler) ListEvents(c *gin.Context) {
	filter := models.EventFilter{
		Company:   c.Query("company"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	events, pagination, err := h.service.ListEvents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// CreateEvent godoc
// @Summary Create one workshop event
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /events [post]
func (h *ImportHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.service.CreateEvent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// ImportEvents godoc
// @Summary Import the workshop catalogue
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body dto.BulkCreateEventsRequest true "Events payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /events/import [post]
func (h *ImportHandler) ImportEvents(c *gin.Context) {
	var req dto.BulkCreateEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid events payload"))
		return
	}

	count, err := h.service.ImportEvents(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"imported": count})
}

// ListRooms godoc
// @Summary List rooms
// @Tags Imports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rooms [get]
func (h *ImportHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// CreateRoom godoc
// @Summary Create one room
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /rooms [post]
func (h *ImportHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}

	room, err := h.service.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// ImportRooms godoc
// @Summary Import the room list
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body dto.BulkCreateRoomsRequest true "Rooms payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /rooms/import [post]
func (h *ImportHandler) ImportRooms(c *gin.Context) {
	var req dto.BulkCreateRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rooms payload"))
		return
	}

	count, err := h.service.ImportRooms(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"imported": count})
}

// ListChoices godoc
// @Summary List student choices in import order
// @Tags Imports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /choices [get]
func (h *ImportHandler) ListChoices(c *gin.Context) {
	choices, err := h.service.ListChoices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, choices, nil)
}

// CreateChoice godoc
// @Summary Create one student choice row
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body dto.CreateChoiceRequest true "Choice payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /choices [post]
func (h *ImportHandler) CreateChoice(c *gin.Context) {
	var req dto.CreateChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid choice payload"))
		return
	}

	choice, err := h.service.CreateChoice(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, choice)
}

// ImportChoices godoc
// @Summary Import the student population
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body dto.BulkCreateChoicesRequest true "Choices payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /choices/import [post]
func (h *ImportHandler) ImportChoices(c *gin.Context) {
	var req dto.BulkCreateChoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid choices payload"))
		return
	}

	count, err := h.service.ImportChoices(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"imported": count})
}

// ListTimeSlots godoc
// @Summary List the five time slots of the workshop day
// @Tags Imports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /timeslots [get]
func (h *ImportHandler) ListTimeSlots(c *gin.Context) {
	slots, err := h.service.ListTimeSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

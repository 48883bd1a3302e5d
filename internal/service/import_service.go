package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/talentwerk/workshop-planner/internal/dto"
	"github.com/talentwerk/workshop-planner/internal/models"
	appErrors "github.com/talentwerk/workshop-planner/pkg/errors"
)

type importEventRepo interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id int64) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	BulkCreate(ctx context.Context, events []models.Event) error
}

type importRoomRepo interface {
	ListAll(ctx context.Context) ([]models.Room, error)
	FindByName(ctx context.Context, name string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	BulkCreate(ctx context.Context, rooms []models.Room) error
}

type importChoiceRepo interface {
	ListAll(ctx context.Context) ([]models.Choice, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, choice *models.Choice) error
	BulkCreate(ctx context.Context, choices []models.Choice) error
}

type importSlotRepo interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
	SeedDefaults(ctx context.Context) error
}

// ImportService loads the planner's three input data sets: the workshop
// catalogue, the room list and the student choices. All three are imported
// before a run and treated as read-only afterwards.
type ImportService struct {
	events    importEventRepo
	rooms     importRoomRepo
	choices   importChoiceRepo
	slots     importSlotRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewImportService constructs an ImportService instance.
func NewImportService(events importEventRepo, rooms importRoomRepo, choices importChoiceRepo, slots importSlotRepo, validate *validator.Validate, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ImportService{events: events, rooms: rooms, choices: choices, slots: slots, validator: validate, logger: logger}
}

// ListEvents returns the workshop catalogue page described by the filter.
func (s *ImportService) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// CreateEvent stores one workshop event.
func (s *ImportService) CreateEvent(ctx context.Context, req dto.CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if existing, err := s.events.FindByID(ctx, req.ID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("event %d already exists", req.ID))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check event")
	}

	event := eventFromRequest(req)
	if err := s.events.Create(ctx, &event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return &event, nil
}

// ImportEvents loads a full workshop catalogue in one transaction.
func (s *ImportService) ImportEvents(ctx context.Context, req dto.BulkCreateEventsRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid events payload")
	}
	if dup, ok := firstDuplicate(lo.Map(req.Events, func(e dto.CreateEventRequest, _ int) string { return fmt.Sprintf("%d", e.ID) })); ok {
		return 0, appErrors.Clone(appErrors.ErrValidation, "duplicate event id "+dup+" in payload")
	}

	events := lo.Map(req.Events, func(e dto.CreateEventRequest, _ int) models.Event { return eventFromRequest(e) })
	if err := s.events.BulkCreate(ctx, events); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import events")
	}
	s.logger.Info("imported workshop catalogue", zap.Int("events", len(events)))
	return len(events), nil
}

// ListRooms returns all rooms.
func (s *ImportService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// CreateRoom stores one room.
func (s *ImportService) CreateRoom(ctx context.Context, req dto.CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	if existing, err := s.rooms.FindByName(ctx, req.Name); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %q already exists", req.Name))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room")
	}

	room := models.Room{Name: req.Name, Capacity: req.Capacity}
	if err := s.rooms.Create(ctx, &room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return &room, nil
}

// ImportRooms loads the room list in one transaction.
func (s *ImportService) ImportRooms(ctx context.Context, req dto.BulkCreateRoomsRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rooms payload")
	}
	if dup, ok := firstDuplicate(lo.Map(req.Rooms, func(r dto.CreateRoomRequest, _ int) string { return r.Name })); ok {
		return 0, appErrors.Clone(appErrors.ErrValidation, "duplicate room "+dup+" in payload")
	}

	rooms := lo.Map(req.Rooms, func(r dto.CreateRoomRequest, _ int) models.Room {
		return models.Room{Name: r.Name, Capacity: r.Capacity}
	})
	if err := s.rooms.BulkCreate(ctx, rooms); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import rooms")
	}
	s.logger.Info("imported room list", zap.Int("rooms", len(rooms)))
	return len(rooms), nil
}

// ListChoices returns every imported choice row in import order.
func (s *ImportService) ListChoices(ctx context.Context) ([]models.Choice, error) {
	choices, err := s.choices.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list choices")
	}
	return choices, nil
}

// CreateChoice stores one student's wishes, appended after the imported set.
func (s *ImportService) CreateChoice(ctx context.Context, req dto.CreateChoiceRequest) (*models.Choice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid choice payload")
	}
	choice := choiceFromRequest(req)
	if err := s.choices.Create(ctx, &choice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create choice")
	}
	return &choice, nil
}

// ImportChoices loads the student population in one transaction. Payload
// order is preserved; it later decides ties between equal preferences.
func (s *ImportService) ImportChoices(ctx context.Context, req dto.BulkCreateChoicesRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid choices payload")
	}
	if dup, ok := firstDuplicate(lo.Map(req.Choices, func(c dto.CreateChoiceRequest, _ int) string {
		return models.StudentRef{FirstName: c.FirstName, LastName: c.LastName, ClassRef: c.ClassRef}.Key()
	})); ok {
		return 0, appErrors.Clone(appErrors.ErrValidation, "duplicate student "+dup+" in payload")
	}

	choices := lo.Map(req.Choices, func(c dto.CreateChoiceRequest, _ int) models.Choice { return choiceFromRequest(c) })
	if err := s.choices.BulkCreate(ctx, choices); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import choices")
	}
	s.logger.Info("imported student choices", zap.Int("students", len(choices)))
	return len(choices), nil
}

// ListTimeSlots returns the fixed five-slot day.
func (s *ImportService) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	return slots, nil
}

// SeedTimeSlots inserts the default slots when the table is empty.
func (s *ImportService) SeedTimeSlots(ctx context.Context) error {
	if err := s.slots.SeedDefaults(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed time slots")
	}
	return nil
}

func eventFromRequest(req dto.CreateEventRequest) models.Event {
	return models.Event{
		ID:              req.ID,
		Company:         req.Company,
		Subject:         req.Subject,
		MaxParticipants: req.MaxParticipants,
		MinParticipants: req.MinParticipants,
		EarliestStart:   req.EarliestStart,
	}
}

func choiceFromRequest(req dto.CreateChoiceRequest) models.Choice {
	return models.Choice{
		ClassRef:  req.ClassRef,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Choice1:   req.Choice1,
		Choice2:   req.Choice2,
		Choice3:   req.Choice3,
		Choice4:   req.Choice4,
		Choice5:   req.Choice5,
		Choice6:   req.Choice6,
	}
}

func firstDuplicate(keys []string) (string, bool) {
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			return key, true
		}
		seen[key] = true
	}
	return "", false
}

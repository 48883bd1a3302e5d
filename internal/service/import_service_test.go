package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentwerk/workshop-planner/internal/dto"
	"github.com/talentwerk/workshop-planner/internal/models"
	appErrors "github.com/talentwerk/workshop-planner/pkg/errors"
)

type stubCatalogueRepo struct {
	existing map[int64]models.Event
	created  []models.Event
	bulk     []models.Event
}

func (s *stubCatalogueRepo) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var out []models.Event
	for _, e := range s.existing {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (s *stubCatalogueRepo) FindByID(ctx context.Context, id int64) (*models.Event, error) {
	if e, ok := s.existing[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubCatalogueRepo) Create(ctx context.Context, event *models.Event) error {
	s.created = append(s.created, *event)
	return nil
}

func (s *stubCatalogueRepo) BulkCreate(ctx context.Context, events []models.Event) error {
	s.bulk = events
	return nil
}

type stubRoomListRepo struct {
	existing map[string]models.Room
	bulk     []models.Room
}

func (s *stubRoomListRepo) ListAll(ctx context.Context) ([]models.Room, error) { return nil, nil }

func (s *stubRoomListRepo) FindByName(ctx context.Context, name string) (*models.Room, error) {
	if r, ok := s.existing[name]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubRoomListRepo) Create(ctx context.Context, room *models.Room) error { return nil }

func (s *stubRoomListRepo) BulkCreate(ctx context.Context, rooms []models.Room) error {
	s.bulk = rooms
	return nil
}

type stubWishesRepo struct {
	bulk []models.Choice
}

func (s *stubWishesRepo) ListAll(ctx context.Context) ([]models.Choice, error) { return nil, nil }
func (s *stubWishesRepo) Count(ctx context.Context) (int, error)              { return len(s.bulk), nil }
func (s *stubWishesRepo) Create(ctx context.Context, choice *models.Choice) error {
	choice.ID = 1
	return nil
}
func (s *stubWishesRepo) BulkCreate(ctx context.Context, choices []models.Choice) error {
	s.bulk = choices
	return nil
}

type stubDayRepo struct{ seeded bool }

func (s *stubDayRepo) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	return models.DefaultTimeSlots(), nil
}
func (s *stubDayRepo) SeedDefaults(ctx context.Context) error {
	s.seeded = true
	return nil
}

func newImportServiceFixture() (*ImportService, *stubCatalogueRepo, *stubRoomListRepo, *stubWishesRepo, *stubDayRepo) {
	events := &stubCatalogueRepo{existing: map[int64]models.Event{}}
	rooms := &stubRoomListRepo{existing: map[string]models.Room{}}
	choices := &stubWishesRepo{}
	slots := &stubDayRepo{}
	return NewImportService(events, rooms, choices, slots, nil, nil), events, rooms, choices, slots
}

func TestImportServiceCreateEventRejectsDuplicateID(t *testing.T) {
	svc, events, _, _, _ := newImportServiceFixture()
	events.existing[7] = models.Event{ID: 7, Company: "Acme"}

	_, err := svc.CreateEvent(context.Background(), dto.CreateEventRequest{ID: 7, Company: "Globex", MaxParticipants: 5})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestImportServiceCreateEventValidates(t *testing.T) {
	svc, _, _, _, _ := newImportServiceFixture()

	_, err := svc.CreateEvent(context.Background(), dto.CreateEventRequest{ID: 1, Company: "Acme"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportServiceImportEvents(t *testing.T) {
	svc, events, _, _, _ := newImportServiceFixture()

	count, err := svc.ImportEvents(context.Background(), dto.BulkCreateEventsRequest{Events: []dto.CreateEventRequest{
		{ID: 1, Company: "Acme", MaxParticipants: 20},
		{ID: 2, Company: "Globex", MaxParticipants: 15},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, events.bulk, 2)
}

func TestImportServiceImportEventsRejectsDuplicateIDs(t *testing.T) {
	svc, _, _, _, _ := newImportServiceFixture()

	_, err := svc.ImportEvents(context.Background(), dto.BulkCreateEventsRequest{Events: []dto.CreateEventRequest{
		{ID: 1, Company: "Acme", MaxParticipants: 20},
		{ID: 1, Company: "Globex", MaxParticipants: 15},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportServiceImportRoomsRejectsDuplicateNames(t *testing.T) {
	svc, _, _, _, _ := newImportServiceFixture()

	_, err := svc.ImportRooms(context.Background(), dto.BulkCreateRoomsRequest{Rooms: []dto.CreateRoomRequest{
		{Name: "Aula", Capacity: 100},
		{Name: "Aula", Capacity: 50},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportServiceImportChoicesKeepsOrderAndRejectsDuplicates(t *testing.T) {
	svc, _, _, choices, _ := newImportServiceFixture()

	count, err := svc.ImportChoices(context.Background(), dto.BulkCreateChoicesRequest{Choices: []dto.CreateChoiceRequest{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1"},
		{ClassRef: "9a", FirstName: "Alan", LastName: "Turing", Choice1: "2"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, choices.bulk, 2)
	assert.Equal(t, "Ada", choices.bulk[0].FirstName, "payload order survives into storage")

	_, err = svc.ImportChoices(context.Background(), dto.BulkCreateChoicesRequest{Choices: []dto.CreateChoiceRequest{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1"},
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "2"},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportServiceSeedTimeSlots(t *testing.T) {
	svc, _, _, _, slots := newImportServiceFixture()

	require.NoError(t, svc.SeedTimeSlots(context.Background()))
	assert.True(t, slots.seeded)
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentwerk/workshop-planner/internal/models"
)

func TestTimetableServiceBuildBindsRoomsByDemand(t *testing.T) {
	svc := NewTimetableService(nil)
	events := []models.Event{
		{ID: 1, Company: "Acme", MaxParticipants: 20},
		{ID: 2, Company: "Globex", MaxParticipants: 20},
	}
	rooms := []models.Room{
		{Name: "Aula", Capacity: 100},
		{Name: "R12", Capacity: 25},
	}
	counts := map[int64]int{1: 2, 2: 4}

	sessions, diags := svc.Build(events, rooms, models.DefaultTimeSlots(), counts)
	assert.Empty(t, diags)
	require.Len(t, sessions, 6)

	roomsByEvent := map[int64]map[string]bool{}
	slotsByEvent := map[int64]map[string]bool{}
	for _, session := range sessions {
		if roomsByEvent[session.EventID] == nil {
			roomsByEvent[session.EventID] = map[string]bool{}
			slotsByEvent[session.EventID] = map[string]bool{}
		}
		roomsByEvent[session.EventID][session.RoomName] = true
		assert.False(t, slotsByEvent[session.EventID][session.Slot], "one session per event per slot")
		slotsByEvent[session.EventID][session.Slot] = true
	}

	// The event with the most sessions gets the biggest room.
	assert.Equal(t, map[string]bool{"Aula": true}, roomsByEvent[2])
	assert.Equal(t, map[string]bool{"R12": true}, roomsByEvent[1])
}

func TestTimetableServiceBuildNeverDoubleBooksARoom(t *testing.T) {
	svc := NewTimetableService(nil)
	events := []models.Event{
		{ID: 1, Company: "Acme", MaxParticipants: 10},
		{ID: 2, Company: "Globex", MaxParticipants: 10},
		{ID: 3, Company: "Initech", MaxParticipants: 10},
	}
	rooms := []models.Room{
		{Name: "Aula", Capacity: 50},
		{Name: "R12", Capacity: 30},
		{Name: "R07", Capacity: 20},
	}
	counts := map[int64]int{1: 3, 2: 3, 3: 3}

	sessions, diags := svc.Build(events, rooms, models.DefaultTimeSlots(), counts)
	assert.Empty(t, diags)

	seen := map[string]bool{}
	for _, session := range sessions {
		key := session.RoomName + "@" + session.Slot
		assert.False(t, seen[key], "room %s double-booked in slot %s", session.RoomName, session.Slot)
		seen[key] = true
	}
}

func TestTimetableServiceBuildReportsRoomShortage(t *testing.T) {
	svc := NewTimetableService(nil)
	events := []models.Event{
		{ID: 1, Company: "Acme", MaxParticipants: 10},
		{ID: 2, Company: "Globex", MaxParticipants: 10},
	}
	rooms := []models.Room{{Name: "Aula", Capacity: 50}}
	counts := map[int64]int{1: 2, 2: 1}

	sessions, diags := svc.Build(events, rooms, models.DefaultTimeSlots(), counts)
	require.Len(t, diags, 1)
	assert.Equal(t, models.DiagnosticNoRoomForEvent, diags[0].Kind)
	assert.Equal(t, int64(2), diags[0].EventID)

	for _, session := range sessions {
		assert.Equal(t, int64(1), session.EventID)
	}
}

func TestTimetableServiceBuildTruncatesBeyondDayLength(t *testing.T) {
	svc := NewTimetableService(nil)
	events := []models.Event{{ID: 1, Company: "Acme", MaxParticipants: 2}}
	rooms := []models.Room{{Name: "R12", Capacity: 30}}
	counts := map[int64]int{1: 7}

	sessions, diags := svc.Build(events, rooms, models.DefaultTimeSlots(), counts)
	assert.Len(t, sessions, len(models.SlotLabels))
	require.Len(t, diags, 1)
	assert.Equal(t, models.DiagnosticSessionsTruncated, diags[0].Kind)
}

func TestTimetableServiceBuildSkipsZeroDemandEvents(t *testing.T) {
	svc := NewTimetableService(nil)
	events := []models.Event{
		{ID: 1, Company: "Acme", MaxParticipants: 10},
		{ID: 2, Company: "Globex", MaxParticipants: 10},
	}
	rooms := []models.Room{{Name: "Aula", Capacity: 50}}
	counts := map[int64]int{1: 0, 2: 1}

	sessions, diags := svc.Build(events, rooms, models.DefaultTimeSlots(), counts)
	assert.Empty(t, diags, "the zero-demand event must not consume the only room")
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(2), sessions[0].EventID)
}

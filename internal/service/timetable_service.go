package service

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/talentwerk/workshop-planner/internal/models"
)

// TimetableService places each workshop's required sessions into concrete
// (room, time slot) pairs across the five-slot day.
type TimetableService struct {
	logger *zap.Logger
}

// NewTimetableService constructs the timetable builder.
func NewTimetableService(logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{logger: logger}
}

// Build maps session counts onto the room/slot grid. Events needing rooms
// are sorted by descending session count and handed rooms round-robin, so
// high-demand workshops land in distinct rooms first. An event keeps its one
// room for all of its sessions across different slots. Per slot, an event
// gets at most one session and a room is never double-booked. Events beyond
// the room supply, and sessions beyond the day's slots, are reported rather
// than silently dropped.
func (s *TimetableService) Build(events []models.Event, rooms []models.Room, slots []models.TimeSlot, sessionCounts map[int64]int) ([]models.EventSession, []models.Diagnostic) {
	needy := lo.Filter(events, func(e models.Event, _ int) bool { return sessionCounts[e.ID] > 0 })
	sort.SliceStable(needy, func(i, j int) bool {
		ci, cj := sessionCounts[needy[i].ID], sessionCounts[needy[j].ID]
		if ci != cj {
			return ci > cj
		}
		return needy[i].ID < needy[j].ID
	})

	var diagnostics []models.Diagnostic

	binding := make(map[int64]string, len(needy))
	for i, event := range needy {
		if i >= len(rooms) {
			diagnostics = append(diagnostics, models.Diagnostic{
				Kind:    models.DiagnosticNoRoomForEvent,
				Message: fmt.Sprintf("no room left for event %d (%s), %d sessions unplaced", event.ID, event.Company, sessionCounts[event.ID]),
				EventID: event.ID,
			})
			s.logger.Warn("event without room", zap.Int64("event_id", event.ID), zap.String("company", event.Company))
			continue
		}
		binding[event.ID] = rooms[i].Name
	}

	remaining := make(map[int64]int, len(needy))
	for _, event := range needy {
		remaining[event.ID] = sessionCounts[event.ID]
	}

	var sessions []models.EventSession
	for _, slot := range slots {
		usedRooms := make(map[string]bool, len(rooms))
		for _, event := range needy {
			room, bound := binding[event.ID]
			if !bound || remaining[event.ID] == 0 {
				continue
			}
			if usedRooms[room] {
				continue
			}
			sessions = append(sessions, models.EventSession{
				EventID:  event.ID,
				RoomName: room,
				Slot:     slot.Slot,
			})
			usedRooms[room] = true
			remaining[event.ID]--
		}
	}

	for _, event := range needy {
		if _, bound := binding[event.ID]; !bound {
			continue
		}
		if remaining[event.ID] > 0 {
			diagnostics = append(diagnostics, models.Diagnostic{
				Kind:    models.DiagnosticSessionsTruncated,
				Message: fmt.Sprintf("event %d (%s) needs %d more sessions than the day can hold", event.ID, event.Company, remaining[event.ID]),
				EventID: event.ID,
			})
		}
	}

	return sessions, diagnostics
}

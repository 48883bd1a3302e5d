package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/talentwerk/workshop-planner/internal/models"
	appErrors "github.com/talentwerk/workshop-planner/pkg/errors"
	"github.com/talentwerk/workshop-planner/pkg/export"
)

// ExportService renders the persisted schedule into downloadable documents:
// the timetable grid, the full assignment list and per-session attendance
// sheets for the day of the event.
type ExportService struct {
	events      plannerEventRepo
	rooms       plannerRoomRepo
	slots       plannerSlotRepo
	sessions    plannerSessionRepo
	assignments plannerAssignmentRepo

	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs the export surface over the persisted schedule.
func NewExportService(
	events plannerEventRepo,
	rooms plannerRoomRepo,
	slots plannerSlotRepo,
	sessions plannerSessionRepo,
	assignments plannerAssignmentRepo,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		events:      events,
		rooms:       rooms,
		slots:       slots,
		sessions:    sessions,
		assignments: assignments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

type exportData struct {
	events      []models.Event
	rooms       []models.Room
	slots       []models.TimeSlot
	sessions    []models.EventSession
	assignments []models.StudentAssignment
}

func (s *ExportService) load(ctx context.Context) (*exportData, error) {
	events, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	if len(sessions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no schedule has been generated yet")
	}
	return &exportData{events: events, rooms: rooms, slots: slots, sessions: sessions, assignments: assignments}, nil
}

// TimetableCSV renders the session grid as CSV.
func (s *ExportService) TimetableCSV(ctx context.Context) ([]byte, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.csv.Render(s.timetableDataset(data))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable csv")
	}
	return out, nil
}

// TimetablePDF renders the session grid as a one-table PDF.
func (s *ExportService) TimetablePDF(ctx context.Context) ([]byte, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.pdf.Render(s.timetableDataset(data), "Workshop Timetable")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
	}
	return out, nil
}

// AssignmentsCSV renders every student assignment row as CSV, ordered by
// class and name so class teachers can hand out schedules.
func (s *ExportService) AssignmentsCSV(ctx context.Context) ([]byte, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	eventsByID := lo.SliceToMap(data.events, func(e models.Event) (int64, models.Event) { return e.ID, e })

	headers := []string{"Class", "Last Name", "First Name", "Slot", "Room", "Event", "Company", "Choice"}
	rows := make([]map[string]string, 0, len(data.assignments))
	for _, row := range data.assignments {
		event := eventsByID[row.EventID]
		slot, room := "", ""
		if row.Resolved() {
			slot, room = *row.Slot, *row.RoomName
		}
		choice := strconv.Itoa(row.ChoiceNo)
		if row.ChoiceNo == 0 {
			choice = "assigned"
		}
		rows = append(rows, map[string]string{
			"Class":      row.ClassRef,
			"Last Name":  row.LastName,
			"First Name": row.FirstName,
			"Slot":       slot,
			"Room":       room,
			"Event":      strconv.FormatInt(row.EventID, 10),
			"Company":    event.Company,
			"Choice":     choice,
		})
	}

	out, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render assignments csv")
	}
	return out, nil
}

// AttendancePDF renders one attendance sheet per session, each on its own
// page, for the room supervisors.
func (s *ExportService) AttendancePDF(ctx context.Context) ([]byte, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	eventsByID := lo.SliceToMap(data.events, func(e models.Event) (int64, models.Event) { return e.ID, e })
	slotsByLabel := lo.SliceToMap(data.slots, func(t models.TimeSlot) (string, models.TimeSlot) { return t.Slot, t })

	bySession := make(map[string][]models.StudentAssignment)
	for _, row := range data.assignments {
		if !row.Resolved() {
			continue
		}
		bySession[occKey(*row.RoomName, *row.Slot)] = append(bySession[occKey(*row.RoomName, *row.Slot)], row)
	}

	ordered := make([]models.EventSession, len(data.sessions))
	copy(ordered, data.sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Slot != ordered[j].Slot {
			return ordered[i].Slot < ordered[j].Slot
		}
		return ordered[i].RoomName < ordered[j].RoomName
	})

	headers := []string{"No", "Class", "Last Name", "First Name", "Signature"}
	sections := make([]export.Dataset, 0, len(ordered))
	titles := make([]string, 0, len(ordered))
	for _, session := range ordered {
		attendees := bySession[occKey(session.RoomName, session.Slot)]
		sort.SliceStable(attendees, func(i, j int) bool {
			if attendees[i].ClassRef != attendees[j].ClassRef {
				return attendees[i].ClassRef < attendees[j].ClassRef
			}
			if attendees[i].LastName != attendees[j].LastName {
				return attendees[i].LastName < attendees[j].LastName
			}
			return attendees[i].FirstName < attendees[j].FirstName
		})

		rows := make([]map[string]string, 0, len(attendees))
		for i, attendee := range attendees {
			rows = append(rows, map[string]string{
				"No":         strconv.Itoa(i + 1),
				"Class":      attendee.ClassRef,
				"Last Name":  attendee.LastName,
				"First Name": attendee.FirstName,
				"Signature":  "",
			})
		}
		sections = append(sections, export.Dataset{Headers: headers, Rows: rows})

		event := eventsByID[session.EventID]
		slot := slotsByLabel[session.Slot]
		titles = append(titles, fmt.Sprintf("Slot %s (%s-%s) / %s / %s", session.Slot, slot.StartTime, slot.EndTime, session.RoomName, event.Company))
	}

	out, err := s.pdf.RenderSections(sections, titles)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance pdf")
	}
	return out, nil
}

func (s *ExportService) timetableDataset(data *exportData) export.Dataset {
	entries := buildTimetableEntries(data.events, data.rooms, data.slots, data.sessions, data.assignments)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Slot != entries[j].Slot {
			return entries[i].Slot < entries[j].Slot
		}
		return entries[i].RoomName < entries[j].RoomName
	})

	headers := []string{"Slot", "Start", "End", "Room", "Event", "Company", "Subject", "Headcount", "Capacity"}
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{
			"Slot":      entry.Slot,
			"Start":     entry.StartTime,
			"End":       entry.EndTime,
			"Room":      entry.RoomName,
			"Event":     strconv.FormatInt(entry.EventID, 10),
			"Company":   entry.Company,
			"Subject":   entry.Subject,
			"Headcount": strconv.Itoa(entry.Headcount),
			"Capacity":  strconv.Itoa(entry.Capacity),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

package service

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/talentwerk/workshop-planner/internal/models"
)

// ConflictService repairs students left without a complete, non-conflicting
// five-slot schedule after the initial pass: double-bookings, over-filled
// sessions and missing slots.
type ConflictService struct {
	logger *zap.Logger
}

// NewConflictService constructs the conflict resolver.
func NewConflictService(logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{logger: logger}
}

// ResolveOutcome collects the mutations and reports of one repair pass.
type ResolveOutcome struct {
	Updated     []models.StudentAssignment
	Created     []models.StudentAssignment
	Repaired    int
	Diagnostics []models.Diagnostic
}

// Resolve rebuilds occupancy state from the persisted rows and repairs every
// student schedule it can. Per broken row three strategies are tried in
// order, first success wins: another slot of the same event, freeing a slot
// by moving a less-preferred existing assignment, and finally any other
// event with a free seat (recorded as a forced placement, choice 0).
// Students the three strategies cannot place are reported and left alone.
// The caller persists Updated and Created in one transaction.
func (s *ConflictService) Resolve(
	events []models.Event,
	rooms []models.Room,
	sessions []models.EventSession,
	choices []models.Choice,
	assignments []models.StudentAssignment,
) ResolveOutcome {
	grid := newOccupancyGrid(events, rooms, sessions)

	rows := make([]models.StudentAssignment, len(assignments))
	copy(rows, assignments)

	byStudent := make(map[string][]*models.StudentAssignment, len(choices))
	heldEvents := make(map[string]map[int64]bool, len(choices))
	for i := range rows {
		key := rows[i].Student().Key()
		byStudent[key] = append(byStudent[key], &rows[i])
		if heldEvents[key] == nil {
			heldEvents[key] = make(map[int64]bool, len(models.SlotLabels))
		}
		heldEvents[key][rows[i].EventID] = true
	}

	dirty := make(map[*models.StudentAssignment]bool)

	// Rebuild occupancy. Rows that would double-book their student or
	// overfill a session are unbound here and queued for repair.
	for i := range rows {
		row := &rows[i]
		if !row.Resolved() {
			continue
		}
		student := row.Student()
		overCapacity := grid.headcount[occKey(*row.RoomName, *row.Slot)] >= grid.capacityAt(row.EventID, *row.RoomName)
		if grid.holds(student, *row.Slot) || overCapacity {
			row.Slot = nil
			row.RoomName = nil
			dirty[row] = true
			continue
		}
		grid.occupy(student, *row.RoomName, *row.Slot)
	}

	sortedEvents := make([]models.Event, len(events))
	copy(sortedEvents, events)
	sort.SliceStable(sortedEvents, func(i, j int) bool { return sortedEvents[i].ID < sortedEvents[j].ID })

	outcome := ResolveOutcome{}

	// Students are visited in import order so re-runs are deterministic.
	for _, choice := range choices {
		student := choice.Student()
		studentRows := byStudent[student.Key()]
		held := heldEvents[student.Key()]
		if held == nil {
			held = make(map[int64]bool, len(models.SlotLabels))
			heldEvents[student.Key()] = held
		}

		for _, row := range studentRows {
			if row.Resolved() {
				continue
			}
			if s.repairRow(grid, sortedEvents, student, row, studentRows, held, dirty) {
				dirty[row] = true
				outcome.Repaired++
				continue
			}
			outcome.Diagnostics = append(outcome.Diagnostics, models.Diagnostic{
				Kind:    models.DiagnosticUnresolvedStudent,
				Message: fmt.Sprintf("no session found for %s, event %d", student.String(), row.EventID),
				EventID: row.EventID,
				Student: &student,
			})
			s.logger.Warn("student left unresolved",
				zap.String("student", student.String()),
				zap.Int64("event_id", row.EventID))
		}

		// Top up students holding fewer rows than the day has slots.
		for len(studentRows)+len(pendingCreatedFor(outcome.Created, student)) < len(models.SlotLabels) {
			created, ok := s.forcePlacement(grid, sortedEvents, student, held)
			if !ok {
				outcome.Diagnostics = append(outcome.Diagnostics, models.Diagnostic{
					Kind:    models.DiagnosticUnresolvedStudent,
					Message: fmt.Sprintf("%s is missing a slot and no event has a free seat", student.String()),
					Student: &student,
				})
				break
			}
			outcome.Created = append(outcome.Created, created)
			outcome.Repaired++
		}
	}

	for row := range dirty {
		outcome.Updated = append(outcome.Updated, *row)
	}
	sort.SliceStable(outcome.Updated, func(i, j int) bool { return outcome.Updated[i].ID < outcome.Updated[j].ID })

	return outcome
}

// repairRow applies the three repair strategies to one unresolved row.
func (s *ConflictService) repairRow(
	grid *occupancyGrid,
	events []models.Event,
	student models.StudentRef,
	row *models.StudentAssignment,
	studentRows []*models.StudentAssignment,
	held map[int64]bool,
	dirty map[*models.StudentAssignment]bool,
) bool {
	// Strategy 1: same event, different slot.
	if session, ok := grid.firstOpenSession(student, row.EventID, ""); ok {
		grid.bind(row, session)
		return true
	}

	// Strategy 2: evict a less-preferred assignment from one of the
	// student's occupied slots, provided both moves work out.
	candidates := lo.Filter(studentRows, func(r *models.StudentAssignment, _ int) bool {
		return r != row && r.Resolved()
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return evictionRank(*candidates[i]) > evictionRank(*candidates[j])
	})
	for _, cand := range candidates {
		prevRoom, prevSlot := *cand.RoomName, *cand.Slot
		grid.unbind(cand)

		session, ok := grid.firstOpenSession(student, row.EventID, prevSlot)
		if !ok {
			grid.rebind(cand, prevRoom, prevSlot)
			continue
		}
		grid.bind(row, session)

		if moved, ok := grid.firstOpenSession(student, cand.EventID, ""); ok {
			grid.bind(cand, moved)
			dirty[cand] = true
			return true
		}

		grid.unbind(row)
		grid.rebind(cand, prevRoom, prevSlot)
	}

	// Strategy 3: any event the student does not already attend, marked as
	// forced.
	for _, event := range events {
		if held[event.ID] {
			continue
		}
		if session, ok := grid.firstOpenSession(student, event.ID, ""); ok {
			delete(held, row.EventID)
			row.EventID = event.ID
			row.ChoiceNo = 0
			held[event.ID] = true
			grid.bind(row, session)
			return true
		}
	}

	return false
}

// forcePlacement creates a fresh forced assignment for a student missing a
// slot entirely.
func (s *ConflictService) forcePlacement(grid *occupancyGrid, events []models.Event, student models.StudentRef, held map[int64]bool) (models.StudentAssignment, bool) {
	for _, event := range events {
		if held[event.ID] {
			continue
		}
		session, ok := grid.firstOpenSession(student, event.ID, "")
		if !ok {
			continue
		}
		row := models.StudentAssignment{
			ClassRef:  student.ClassRef,
			FirstName: student.FirstName,
			LastName:  student.LastName,
			EventID:   event.ID,
			ChoiceNo:  0,
		}
		held[event.ID] = true
		grid.bind(&row, session)
		return row, true
	}
	return models.StudentAssignment{}, false
}

// evictionRank orders a student's assignments by how readily they may be
// moved: forced placements first, then the least preferred choices.
func evictionRank(row models.StudentAssignment) int {
	if row.ChoiceNo == 0 {
		return models.ChoiceCount + 1
	}
	return row.ChoiceNo
}

func pendingCreatedFor(created []models.StudentAssignment, student models.StudentRef) []models.StudentAssignment {
	return lo.Filter(created, func(r models.StudentAssignment, _ int) bool {
		return r.Student() == student
	})
}

// Verify checks every student schedule against the completeness rules:
// exactly one assignment per slot, no duplicates, no unbound rooms. It is a
// read-only diagnostic; calling it twice on unchanged state yields the same
// list.
func (s *ConflictService) Verify(choices []models.Choice, assignments []models.StudentAssignment) []models.ScheduleViolation {
	byStudent := lo.GroupBy(assignments, func(a models.StudentAssignment) string { return a.Student().Key() })

	var violations []models.ScheduleViolation
	for _, choice := range choices {
		student := choice.Student()
		rows := byStudent[student.Key()]

		seen := make(map[string]bool, len(models.SlotLabels))
		resolved := 0
		for _, row := range rows {
			if !row.Resolved() {
				violations = append(violations, models.ScheduleViolation{
					Student: student,
					Kind:    models.ViolationUnboundRoom,
					Detail:  fmt.Sprintf("event %d has no room or slot", row.EventID),
				})
				continue
			}
			if seen[*row.Slot] {
				violations = append(violations, models.ScheduleViolation{
					Student: student,
					Kind:    models.ViolationDuplicateSlot,
					Detail:  fmt.Sprintf("slot %s is assigned twice", *row.Slot),
				})
				continue
			}
			seen[*row.Slot] = true
			resolved++
		}
		if resolved < len(models.SlotLabels) {
			violations = append(violations, models.ScheduleViolation{
				Student: student,
				Kind:    models.ViolationMissingSlots,
				Detail:  fmt.Sprintf("%d of %d slots filled", resolved, len(models.SlotLabels)),
			})
		}
	}
	return violations
}

// RecomputeDemands derives per-event headcounts from the final assignment
// rows so reporting reflects the actual schedule, not the raw wishes.
func (s *ConflictService) RecomputeDemands(events []models.Event, assignments []models.StudentAssignment) []models.WorkshopDemand {
	counts := make(map[int64]int, len(events))
	for _, row := range assignments {
		if row.Resolved() {
			counts[row.EventID]++
		}
	}
	return lo.Map(events, func(e models.Event, _ int) models.WorkshopDemand {
		return models.WorkshopDemand{EventID: e.ID, Company: e.Company, Demand: counts[e.ID]}
	})
}

package service

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/talentwerk/workshop-planner/internal/models"
)

// PlacementService performs the initial greedy, preference-ordered
// assignment of students to workshops and reconciles the raw pairs against
// the built session grid.
type PlacementService struct {
	logger *zap.Logger
}

// NewPlacementService constructs the initial assignment engine.
func NewPlacementService(logger *zap.Logger) *PlacementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{logger: logger}
}

// Assign walks the choice rows strictly by priority: one pass over all
// students for the first choice, then one pass per fallback priority 2..6.
// An event accepts students until its participant limit is reached; input
// order is the only tie-break. Students never get the same event twice, and
// never more events than there are time slots in the day. Students whose
// choices are exhausted end up short; closing that gap is the conflict
// resolver's job.
func (s *PlacementService) Assign(events []models.Event, choices []models.Choice) ([]models.StudentAssignment, []models.Diagnostic) {
	limits := lo.SliceToMap(events, func(e models.Event) (int64, int) { return e.ID, e.MaxParticipants })

	occupancy := make(map[int64]int, len(events))
	held := make(map[string]map[int64]bool, len(choices))
	perStudent := make(map[string]int, len(choices))

	var assignments []models.StudentAssignment
	var diagnostics []models.Diagnostic

	place := func(choice models.Choice, eventID int64, priority int) {
		student := choice.Student()
		assignments = append(assignments, models.StudentAssignment{
			ClassRef:  student.ClassRef,
			FirstName: student.FirstName,
			LastName:  student.LastName,
			EventID:   eventID,
			ChoiceNo:  priority,
		})
		occupancy[eventID]++
		if held[student.Key()] == nil {
			held[student.Key()] = make(map[int64]bool, models.ChoiceCount)
		}
		held[student.Key()][eventID] = true
		perStudent[student.Key()]++
	}

	resolve := func(choice models.Choice, priority int) (int64, bool) {
		raw := choice.ChoiceAt(priority)
		if raw == "" {
			return 0, false
		}
		id, ok := parseEventRef(raw)
		if !ok {
			return 0, false
		}
		if _, known := limits[id]; !known {
			student := choice.Student()
			diagnostics = append(diagnostics, models.Diagnostic{
				Kind:    models.DiagnosticInvalidChoice,
				Message: fmt.Sprintf("choice %d of %s references unknown event %d", priority, student.String(), id),
				EventID: id,
				Student: &student,
			})
			return 0, false
		}
		return id, true
	}

	// First-choice pass.
	for _, choice := range choices {
		id, ok := resolve(choice, 1)
		if !ok {
			continue
		}
		if occupancy[id] >= limits[id] {
			continue
		}
		place(choice, id, 1)
	}

	// Fallback passes, priorities 2..6 in order.
	for priority := 2; priority <= models.ChoiceCount; priority++ {
		for _, choice := range choices {
			student := choice.Student()
			if perStudent[student.Key()] >= len(models.SlotLabels) {
				continue
			}
			id, ok := resolve(choice, priority)
			if !ok {
				continue
			}
			if held[student.Key()][id] {
				continue
			}
			if occupancy[id] >= limits[id] {
				continue
			}
			place(choice, id, priority)
		}
	}

	return assignments, diagnostics
}

// Reconcile binds raw (student, event) assignments to concrete sessions of
// the built grid, filling in slot and room. A row stays unresolved when the
// event has no session with a free seat at a slot the student does not
// already hold. Returns the number of rows bound.
func (s *PlacementService) Reconcile(assignments []models.StudentAssignment, sessions []models.EventSession, events []models.Event, rooms []models.Room) int {
	grid := newOccupancyGrid(events, rooms, sessions)

	bound := 0
	for i := range assignments {
		row := &assignments[i]
		if row.Resolved() {
			grid.occupy(row.Student(), *row.RoomName, *row.Slot)
			continue
		}
		if session, ok := grid.firstOpenSession(row.Student(), row.EventID, ""); ok {
			grid.bind(row, session)
			bound++
		}
	}
	return bound
}

// occupancyGrid tracks per-(room, slot) headcount and the slots each student
// already holds. It is rebuilt for every run and owned by exactly one phase
// at a time; nothing here is safe for concurrent use.
type occupancyGrid struct {
	sessionsByEvent map[int64][]models.EventSession
	roomCaps        map[string]int
	eventCaps       map[int64]int
	headcount       map[string]int
	studentSlots    map[string]map[string]bool
}

func occKey(room, slot string) string {
	return room + "@" + slot
}

func newOccupancyGrid(events []models.Event, rooms []models.Room, sessions []models.EventSession) *occupancyGrid {
	grid := &occupancyGrid{
		sessionsByEvent: lo.GroupBy(sessions, func(s models.EventSession) int64 { return s.EventID }),
		roomCaps:        lo.SliceToMap(rooms, func(r models.Room) (string, int) { return r.Name, r.Capacity }),
		eventCaps:       lo.SliceToMap(events, func(e models.Event) (int64, int) { return e.ID, e.MaxParticipants }),
		headcount:       make(map[string]int),
		studentSlots:    make(map[string]map[string]bool),
	}
	// Larger rooms first so repairs prefer sessions with the most headroom.
	for id := range grid.sessionsByEvent {
		list := grid.sessionsByEvent[id]
		sort.SliceStable(list, func(i, j int) bool {
			ci, cj := grid.roomCaps[list[i].RoomName], grid.roomCaps[list[j].RoomName]
			if ci != cj {
				return ci > cj
			}
			return list[i].Slot < list[j].Slot
		})
		grid.sessionsByEvent[id] = list
	}
	return grid
}

// sessionCapacity caps one session by both its room and the event's
// participant limit.
func (g *occupancyGrid) sessionCapacity(session models.EventSession) int {
	return g.capacityAt(session.EventID, session.RoomName)
}

func (g *occupancyGrid) capacityAt(eventID int64, room string) int {
	capacity := g.roomCaps[room]
	if limit, ok := g.eventCaps[eventID]; ok && limit < capacity {
		capacity = limit
	}
	return capacity
}

func (g *occupancyGrid) occupy(student models.StudentRef, room, slot string) {
	g.headcount[occKey(room, slot)]++
	if g.studentSlots[student.Key()] == nil {
		g.studentSlots[student.Key()] = make(map[string]bool, len(models.SlotLabels))
	}
	g.studentSlots[student.Key()][slot] = true
}

func (g *occupancyGrid) release(student models.StudentRef, room, slot string) {
	key := occKey(room, slot)
	if g.headcount[key] > 0 {
		g.headcount[key]--
	}
	if slots := g.studentSlots[student.Key()]; slots != nil {
		delete(slots, slot)
	}
}

func (g *occupancyGrid) holds(student models.StudentRef, slot string) bool {
	return g.studentSlots[student.Key()][slot]
}

// firstOpenSession returns the first session of the event with a free seat
// at a slot the student does not hold. A non-empty wantSlot restricts the
// search to that slot.
func (g *occupancyGrid) firstOpenSession(student models.StudentRef, eventID int64, wantSlot string) (models.EventSession, bool) {
	for _, session := range g.sessionsByEvent[eventID] {
		if wantSlot != "" && session.Slot != wantSlot {
			continue
		}
		if g.holds(student, session.Slot) {
			continue
		}
		if g.headcount[occKey(session.RoomName, session.Slot)] >= g.sessionCapacity(session) {
			continue
		}
		return session, true
	}
	return models.EventSession{}, false
}

func (g *occupancyGrid) bind(row *models.StudentAssignment, session models.EventSession) {
	slot := session.Slot
	room := session.RoomName
	row.Slot = &slot
	row.RoomName = &room
	g.occupy(row.Student(), room, slot)
}

func (g *occupancyGrid) unbind(row *models.StudentAssignment) {
	if !row.Resolved() {
		return
	}
	g.release(row.Student(), *row.RoomName, *row.Slot)
	row.Slot = nil
	row.RoomName = nil
}

// rebind restores a previously released binding, used to roll back a failed
// eviction swap.
func (g *occupancyGrid) rebind(row *models.StudentAssignment, room, slot string) {
	row.Slot = &slot
	row.RoomName = &room
	g.occupy(row.Student(), room, slot)
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentwerk/workshop-planner/internal/models"
)

func strPtr(s string) *string { return &s }

func TestConflictServiceResolveMovesDoubleBookingToFreeSlot(t *testing.T) {
	svc := NewConflictService(nil)
	events := []models.Event{
		{ID: 1, Company: "Acme", MaxParticipants: 5},
		{ID: 2, Company: "Globex", MaxParticipants: 5},
	}
	rooms := []models.Room{{Name: "R1", Capacity: 30}, {Name: "R2", Capacity: 30}}
	sessions := []models.EventSession{
		{ID: "s1", EventID: 1, RoomName: "R1", Slot: "A"},
		{ID: "s2", EventID: 2, RoomName: "R2", Slot: "A"},
		{ID: "s3", EventID: 2, RoomName: "R2", Slot: "B"},
	}
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1", Choice2: "2"},
	}
	assignments := []models.StudentAssignment{
		{ID: "a1", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 1, Slot: strPtr("A"), RoomName: strPtr("R1"), ChoiceNo: 1},
		{ID: "a2", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 2, Slot: strPtr("A"), RoomName: strPtr("R2"), ChoiceNo: 2},
	}

	outcome := svc.Resolve(events, rooms, sessions, choices, assignments)
	require.NotEmpty(t, outcome.Updated)

	moved, found := findUpdated(outcome.Updated, "a2")
	require.True(t, found)
	require.True(t, moved.Resolved())
	assert.Equal(t, "B", *moved.Slot)
	assert.Equal(t, 2, moved.ChoiceNo, "a slot move keeps the original preference")

	// The first row kept its seat.
	_, firstTouched := findUpdated(outcome.Updated, "a1")
	assert.False(t, firstTouched)
}

func TestConflictServiceResolveUnbindsOverfilledSession(t *testing.T) {
	svc := NewConflictService(nil)
	events := []models.Event{{ID: 1, Company: "Acme", MaxParticipants: 1}}
	rooms := []models.Room{{Name: "R1", Capacity: 30}}
	sessions := []models.EventSession{
		{ID: "s1", EventID: 1, RoomName: "R1", Slot: "A"},
		{ID: "s2", EventID: 1, RoomName: "R1", Slot: "B"},
	}
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1"},
		{ClassRef: "9a", FirstName: "Alan", LastName: "Turing", Choice1: "1"},
	}
	assignments := []models.StudentAssignment{
		{ID: "a1", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 1, Slot: strPtr("A"), RoomName: strPtr("R1"), ChoiceNo: 1},
		{ID: "a2", ClassRef: "9a", FirstName: "Alan", LastName: "Turing", EventID: 1, Slot: strPtr("A"), RoomName: strPtr("R1"), ChoiceNo: 1},
	}

	outcome := svc.Resolve(events, rooms, sessions, choices, assignments)

	moved, found := findUpdated(outcome.Updated, "a2")
	require.True(t, found)
	require.True(t, moved.Resolved())
	assert.Equal(t, "B", *moved.Slot, "the overflow row moves to the event's other session")
}

func TestConflictServiceResolveEvictsLessPreferredAssignment(t *testing.T) {
	svc := NewConflictService(nil)
	events := []models.Event{
		{ID: 1, Company: "Acme", MaxParticipants: 10},
		{ID: 2, Company: "Globex", MaxParticipants: 10},
	}
	rooms := []models.Room{{Name: "R1", Capacity: 30}, {Name: "R2", Capacity: 30}}
	// Event 1 runs only in slot A, which the student spends at event 2.
	// Event 2 has a free alternative in slot B.
	sessions := []models.EventSession{
		{ID: "s1", EventID: 1, RoomName: "R1", Slot: "A"},
		{ID: "s2", EventID: 2, RoomName: "R2", Slot: "A"},
		{ID: "s3", EventID: 2, RoomName: "R2", Slot: "B"},
	}
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1", Choice2: "2"},
	}
	assignments := []models.StudentAssignment{
		{ID: "a1", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 2, Slot: strPtr("A"), RoomName: strPtr("R2"), ChoiceNo: 2},
		{ID: "a2", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 1, ChoiceNo: 1},
	}

	outcome := svc.Resolve(events, rooms, sessions, choices, assignments)

	repaired, found := findUpdated(outcome.Updated, "a2")
	require.True(t, found)
	require.True(t, repaired.Resolved())
	assert.Equal(t, "A", *repaired.Slot)
	assert.Equal(t, int64(1), repaired.EventID)

	evicted, found := findUpdated(outcome.Updated, "a1")
	require.True(t, found)
	require.True(t, evicted.Resolved())
	assert.Equal(t, "B", *evicted.Slot, "the evicted assignment lands in the event's other session")
}

func TestConflictServiceResolveForcesPlacementsUpToFiveSlots(t *testing.T) {
	svc := NewConflictService(nil)
	events := []models.Event{
		{ID: 1, Company: "A", MaxParticipants: 10},
		{ID: 2, Company: "B", MaxParticipants: 10},
		{ID: 3, Company: "C", MaxParticipants: 10},
		{ID: 4, Company: "D", MaxParticipants: 10},
		{ID: 5, Company: "E", MaxParticipants: 10},
	}
	rooms := []models.Room{{Name: "R1", Capacity: 30}}
	sessions := []models.EventSession{
		{ID: "s1", EventID: 1, RoomName: "R1", Slot: "A"},
		{ID: "s2", EventID: 2, RoomName: "R1", Slot: "B"},
		{ID: "s3", EventID: 3, RoomName: "R1", Slot: "C"},
		{ID: "s4", EventID: 4, RoomName: "R1", Slot: "D"},
		{ID: "s5", EventID: 5, RoomName: "R1", Slot: "E"},
	}
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1"},
	}
	assignments := []models.StudentAssignment{
		{ID: "a1", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 1, Slot: strPtr("A"), RoomName: strPtr("R1"), ChoiceNo: 1},
	}

	outcome := svc.Resolve(events, rooms, sessions, choices, assignments)

	require.Len(t, outcome.Created, 4, "four forced rows fill the remaining slots")
	seenSlots := map[string]bool{"A": true}
	seenEvents := map[int64]bool{1: true}
	for _, created := range outcome.Created {
		require.True(t, created.Resolved())
		assert.Equal(t, 0, created.ChoiceNo, "forced placements carry choice 0")
		assert.False(t, seenSlots[*created.Slot], "each forced row takes a new slot")
		assert.False(t, seenEvents[created.EventID], "forced rows never repeat an event")
		seenSlots[*created.Slot] = true
		seenEvents[created.EventID] = true
	}
	assert.Empty(t, outcome.Diagnostics)
}

func TestConflictServiceResolveBuildsFullScheduleFromNothing(t *testing.T) {
	svc := NewConflictService(nil)
	events := []models.Event{
		{ID: 1, Company: "A", MaxParticipants: 10},
		{ID: 2, Company: "B", MaxParticipants: 10},
		{ID: 3, Company: "C", MaxParticipants: 10},
		{ID: 4, Company: "D", MaxParticipants: 10},
		{ID: 5, Company: "E", MaxParticipants: 10},
	}
	rooms := []models.Room{{Name: "R1", Capacity: 30}}
	sessions := []models.EventSession{
		{ID: "s1", EventID: 1, RoomName: "R1", Slot: "A"},
		{ID: "s2", EventID: 2, RoomName: "R1", Slot: "B"},
		{ID: "s3", EventID: 3, RoomName: "R1", Slot: "C"},
		{ID: "s4", EventID: 4, RoomName: "R1", Slot: "D"},
		{ID: "s5", EventID: 5, RoomName: "R1", Slot: "E"},
	}
	// Every wish points at an event that does not exist, so the student
	// enters the resolver with no assignment rows at all.
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "99", Choice2: "98"},
	}

	outcome := svc.Resolve(events, rooms, sessions, choices, nil)

	assert.Empty(t, outcome.Updated)
	require.Len(t, outcome.Created, 5, "a full five-slot schedule is built from forced rows")
	assert.Equal(t, 5, outcome.Repaired)
	assert.Empty(t, outcome.Diagnostics)

	seenSlots := map[string]bool{}
	seenEvents := map[int64]bool{}
	for _, created := range outcome.Created {
		require.True(t, created.Resolved())
		assert.Equal(t, 0, created.ChoiceNo)
		assert.Equal(t, "Ada", created.FirstName)
		assert.False(t, seenSlots[*created.Slot])
		assert.False(t, seenEvents[created.EventID])
		seenSlots[*created.Slot] = true
		seenEvents[created.EventID] = true
	}
}

func TestConflictServiceResolveReportsUnplaceableStudents(t *testing.T) {
	svc := NewConflictService(nil)
	events := []models.Event{{ID: 1, Company: "Acme", MaxParticipants: 1}}
	rooms := []models.Room{{Name: "R1", Capacity: 30}}
	sessions := []models.EventSession{{ID: "s1", EventID: 1, RoomName: "R1", Slot: "A"}}
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1"},
		{ClassRef: "9a", FirstName: "Alan", LastName: "Turing", Choice1: "1"},
	}
	assignments := []models.StudentAssignment{
		{ID: "a1", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 1, Slot: strPtr("A"), RoomName: strPtr("R1"), ChoiceNo: 1},
		{ID: "a2", ClassRef: "9a", FirstName: "Alan", LastName: "Turing", EventID: 1, ChoiceNo: 1},
	}

	outcome := svc.Resolve(events, rooms, sessions, choices, assignments)

	kinds := map[string]int{}
	for _, d := range outcome.Diagnostics {
		kinds[d.Kind]++
	}
	assert.Greater(t, kinds[models.DiagnosticUnresolvedStudent], 0)

	still, found := findUpdated(outcome.Updated, "a2")
	if found {
		assert.False(t, still.Resolved(), "an unplaceable row stays unresolved")
	}
}

func TestConflictServiceVerify(t *testing.T) {
	svc := NewConflictService(nil)
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace"},
		{ClassRef: "9a", FirstName: "Alan", LastName: "Turing"},
	}
	assignments := []models.StudentAssignment{
		// Ada: complete five-slot schedule.
		{ID: "a1", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 1, Slot: strPtr("A"), RoomName: strPtr("R1")},
		{ID: "a2", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 2, Slot: strPtr("B"), RoomName: strPtr("R1")},
		{ID: "a3", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 3, Slot: strPtr("C"), RoomName: strPtr("R1")},
		{ID: "a4", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 4, Slot: strPtr("D"), RoomName: strPtr("R1")},
		{ID: "a5", ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 5, Slot: strPtr("E"), RoomName: strPtr("R1")},
		// Alan: duplicate slot, one unbound row, short of five.
		{ID: "b1", ClassRef: "9a", FirstName: "Alan", LastName: "Turing", EventID: 1, Slot: strPtr("A"), RoomName: strPtr("R1")},
		{ID: "b2", ClassRef: "9a", FirstName: "Alan", LastName: "Turing", EventID: 2, Slot: strPtr("A"), RoomName: strPtr("R2")},
		{ID: "b3", ClassRef: "9a", FirstName: "Alan", LastName: "Turing", EventID: 3},
	}

	violations := svc.Verify(choices, assignments)

	kinds := map[string]int{}
	for _, v := range violations {
		assert.Equal(t, "Alan", v.Student.FirstName)
		kinds[v.Kind]++
	}
	assert.Equal(t, 1, kinds[models.ViolationDuplicateSlot])
	assert.Equal(t, 1, kinds[models.ViolationUnboundRoom])
	assert.Equal(t, 1, kinds[models.ViolationMissingSlots])

	// Read-only: a second pass over unchanged data reports the same list.
	assert.Equal(t, violations, svc.Verify(choices, assignments))
}

func TestConflictServiceRecomputeDemands(t *testing.T) {
	svc := NewConflictService(nil)
	events := []models.Event{
		{ID: 1, Company: "Acme"},
		{ID: 2, Company: "Globex"},
	}
	assignments := []models.StudentAssignment{
		{ID: "a1", EventID: 1, Slot: strPtr("A"), RoomName: strPtr("R1")},
		{ID: "a2", EventID: 1, Slot: strPtr("B"), RoomName: strPtr("R1")},
		{ID: "a3", EventID: 2},
	}

	demands := svc.RecomputeDemands(events, assignments)
	require.Len(t, demands, 2)
	assert.Equal(t, 2, demands[0].Demand)
	assert.Equal(t, 0, demands[1].Demand, "unresolved rows do not count as headcount")
}

func findUpdated(updated []models.StudentAssignment, id string) (models.StudentAssignment, bool) {
	for _, row := range updated {
		if row.ID == id {
			return row, true
		}
	}
	return models.StudentAssignment{}, false
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentwerk/workshop-planner/internal/models"
)

func TestPlacementServiceAssignHonoursFirstChoiceAndCapacity(t *testing.T) {
	svc := NewPlacementService(nil)
	events := []models.Event{
		{ID: 1, Company: "Acme", MaxParticipants: 2},
		{ID: 2, Company: "Globex", MaxParticipants: 10},
	}
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1", Choice2: "2"},
		{ClassRef: "9a", FirstName: "Alan", LastName: "Turing", Choice1: "1", Choice2: "2"},
		{ClassRef: "9b", FirstName: "Grace", LastName: "Hopper", Choice1: "1", Choice2: "2"},
	}

	assignments, diags := svc.Assign(events, choices)
	assert.Empty(t, diags)

	got := map[string][]models.StudentAssignment{}
	for _, a := range assignments {
		got[a.Student().Key()] = append(got[a.Student().Key()], a)
	}

	// The first two students in input order win the contested seats.
	ada := got[models.StudentRef{FirstName: "Ada", LastName: "Lovelace", ClassRef: "9a"}.Key()]
	grace := got[models.StudentRef{FirstName: "Grace", LastName: "Hopper", ClassRef: "9b"}.Key()]
	require.NotEmpty(t, ada)
	assert.Equal(t, int64(1), ada[0].EventID)
	assert.Equal(t, 1, ada[0].ChoiceNo)

	require.NotEmpty(t, grace)
	assert.Equal(t, int64(2), grace[0].EventID, "third first-chooser falls through to the second choice")
	assert.Equal(t, 2, grace[0].ChoiceNo)
}

func TestPlacementServiceAssignNeverRepeatsAnEventPerStudent(t *testing.T) {
	svc := NewPlacementService(nil)
	events := []models.Event{{ID: 1, Company: "Acme", MaxParticipants: 10}}
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "1", Choice2: "1", Choice3: "1"},
	}

	assignments, diags := svc.Assign(events, choices)
	assert.Empty(t, diags)
	assert.Len(t, assignments, 1)
}

func TestPlacementServiceAssignCapsAtSlotCount(t *testing.T) {
	svc := NewPlacementService(nil)
	events := []models.Event{
		{ID: 1, Company: "A", MaxParticipants: 10},
		{ID: 2, Company: "B", MaxParticipants: 10},
		{ID: 3, Company: "C", MaxParticipants: 10},
		{ID: 4, Company: "D", MaxParticipants: 10},
		{ID: 5, Company: "E", MaxParticipants: 10},
		{ID: 6, Company: "F", MaxParticipants: 10},
	}
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace",
			Choice1: "1", Choice2: "2", Choice3: "3", Choice4: "4", Choice5: "5", Choice6: "6"},
	}

	assignments, _ := svc.Assign(events, choices)
	assert.Len(t, assignments, len(models.SlotLabels), "six wishes but only five slots in the day")
}

func TestPlacementServiceAssignReportsUnknownEvents(t *testing.T) {
	svc := NewPlacementService(nil)
	events := []models.Event{{ID: 1, Company: "Acme", MaxParticipants: 10}}
	choices := []models.Choice{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", Choice1: "42"},
	}

	assignments, diags := svc.Assign(events, choices)
	assert.Empty(t, assignments)
	require.Len(t, diags, 1)
	assert.Equal(t, models.DiagnosticInvalidChoice, diags[0].Kind)
	assert.Equal(t, int64(42), diags[0].EventID)
}

func TestPlacementServiceReconcileBindsRowsToSessions(t *testing.T) {
	svc := NewPlacementService(nil)
	events := []models.Event{{ID: 1, Company: "Acme", MaxParticipants: 2}}
	rooms := []models.Room{{Name: "R12", Capacity: 30}}
	sessions := []models.EventSession{
		{ID: "s1", EventID: 1, RoomName: "R12", Slot: "A"},
		{ID: "s2", EventID: 1, RoomName: "R12", Slot: "B"},
	}
	assignments := []models.StudentAssignment{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 1, ChoiceNo: 1},
		{ClassRef: "9a", FirstName: "Alan", LastName: "Turing", EventID: 1, ChoiceNo: 1},
		{ClassRef: "9b", FirstName: "Grace", LastName: "Hopper", EventID: 1, ChoiceNo: 2},
	}

	bound := svc.Reconcile(assignments, sessions, events, rooms)
	assert.Equal(t, 3, bound)

	// Event capacity 2 caps each session even though the room holds 30.
	headcount := map[string]int{}
	for _, row := range assignments {
		require.True(t, row.Resolved())
		headcount[*row.Slot]++
		assert.Equal(t, "R12", *row.RoomName)
	}
	assert.LessOrEqual(t, headcount["A"], 2)
	assert.LessOrEqual(t, headcount["B"], 2)
}

func TestPlacementServiceReconcileLeavesOverflowUnresolved(t *testing.T) {
	svc := NewPlacementService(nil)
	events := []models.Event{{ID: 1, Company: "Acme", MaxParticipants: 1}}
	rooms := []models.Room{{Name: "R12", Capacity: 30}}
	sessions := []models.EventSession{{ID: "s1", EventID: 1, RoomName: "R12", Slot: "A"}}
	assignments := []models.StudentAssignment{
		{ClassRef: "9a", FirstName: "Ada", LastName: "Lovelace", EventID: 1, ChoiceNo: 1},
		{ClassRef: "9a", FirstName: "Alan", LastName: "Turing", EventID: 1, ChoiceNo: 1},
	}

	bound := svc.Reconcile(assignments, sessions, events, rooms)
	assert.Equal(t, 1, bound)
	assert.True(t, assignments[0].Resolved())
	assert.False(t, assignments[1].Resolved())
}

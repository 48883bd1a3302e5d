package models

// TimeSlot is one of the five fixed slots of the workshop day. Slots are
// seeded once at startup and never mutated during a run.
type TimeSlot struct {
	Slot      string `db:"slot" json:"slot"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// SlotLabels enumerates the five slot labels in chronological order.
var SlotLabels = []string{"A", "B", "C", "D", "E"}

// DefaultTimeSlots returns the seed rows for the fixed five-slot day.
func DefaultTimeSlots() []TimeSlot {
	return []TimeSlot{
		{Slot: "A", StartTime: "08:30", EndTime: "09:30"},
		{Slot: "B", StartTime: "09:45", EndTime: "10:45"},
		{Slot: "C", StartTime: "11:00", EndTime: "12:00"},
		{Slot: "D", StartTime: "12:45", EndTime: "13:45"},
		{Slot: "E", StartTime: "14:00", EndTime: "15:00"},
	}
}

package models

import "time"

// WorkshopDemand is the derived per-event demand count. Recomputed and
// overwritten on every run; after conflict resolution it reflects the final
// schedule rather than the raw preference counts.
type WorkshopDemand struct {
	EventID int64  `db:"event_id" json:"event_id"`
	Company string `db:"company" json:"company"`
	Demand  int    `db:"demand" json:"demand"`
}

// EventSession is one concrete schedulable occurrence of a workshop: an
// event placed in a room at a time slot.
type EventSession struct {
	ID        string    `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	RoomName  string    `db:"room_name" json:"room_name"`
	Slot      string    `db:"slot" json:"slot"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentAssignment is the central mutable record of the engine: one student
// placed into one event, bound to a room and slot once the timetable is
// reconciled. Slot and RoomName are null while the row is unresolved.
// ChoiceNo is 0 for forced placements that did not come from the student's
// stated preferences.
type StudentAssignment struct {
	ID        string    `db:"id" json:"id"`
	ClassRef  string    `db:"class_ref" json:"class_ref"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	EventID   int64     `db:"event_id" json:"event_id"`
	Slot      *string   `db:"slot" json:"slot,omitempty"`
	RoomName  *string   `db:"room_name" json:"room_name,omitempty"`
	ChoiceNo  int       `db:"choice_no" json:"choice_no"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Student returns the composite identity of the assignment row.
func (a StudentAssignment) Student() StudentRef {
	return StudentRef{FirstName: a.FirstName, LastName: a.LastName, ClassRef: a.ClassRef}
}

// Resolved reports whether the row is bound to a concrete session.
func (a StudentAssignment) Resolved() bool {
	return a.Slot != nil && *a.Slot != "" && a.RoomName != nil && *a.RoomName != ""
}

// Diagnostic kinds accumulated by the engine phases.
const (
	DiagnosticInvalidChoice     = "INVALID_CHOICE"
	DiagnosticNoRoomForEvent    = "NO_ROOM_FOR_EVENT"
	DiagnosticSessionsTruncated = "SESSIONS_TRUNCATED"
	DiagnosticUnresolvedStudent = "UNRESOLVED_STUDENT"
)

// Diagnostic is a non-fatal condition reported by an engine phase. Data
// quality and capacity problems never abort a run; they accumulate here.
type Diagnostic struct {
	Kind    string      `json:"kind"`
	Message string      `json:"message"`
	EventID int64       `json:"event_id,omitempty"`
	Student *StudentRef `json:"student,omitempty"`
}

// Violation kinds reported by schedule verification.
const (
	ViolationMissingSlots  = "MISSING_SLOTS"
	ViolationDuplicateSlot = "DUPLICATE_SLOT"
	ViolationUnboundRoom   = "UNBOUND_ROOM"
)

// ScheduleViolation describes one student schedule defect found by the
// read-only verification pass.
type ScheduleViolation struct {
	Student StudentRef `json:"student"`
	Kind    string     `json:"kind"`
	Detail  string     `json:"detail"`
}

// RunSummary reports the outcome of a full planning run or a conflict
// resolution pass.
type RunSummary struct {
	Students           int          `json:"students"`
	Events             int          `json:"events"`
	SessionsPlanned    int          `json:"sessions_planned"`
	AssignmentsCreated int          `json:"assignments_created"`
	AssignmentsForced  int          `json:"assignments_forced"`
	StudentsRepaired   int          `json:"students_repaired"`
	Unresolved         int          `json:"unresolved"`
	Diagnostics        []Diagnostic `json:"diagnostics,omitempty"`
	FinishedAt         time.Time    `json:"finished_at"`
}

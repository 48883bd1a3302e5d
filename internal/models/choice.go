package models

import (
	"strings"
	"time"
)

// ChoiceCount is the number of ranked preferences each student submits.
const ChoiceCount = 6

// Choice holds one student's ranked workshop preferences as imported. The
// choice fields are free text; an embedded numeric token references an event
// id. Students carry no surrogate id in the source data, so the composite
// (first name, last name, class) is the student identity throughout.
type Choice struct {
	ID        int64     `db:"id" json:"id"`
	ClassRef  string    `db:"class_ref" json:"class_ref"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Choice1   string    `db:"choice1" json:"choice1"`
	Choice2   string    `db:"choice2" json:"choice2"`
	Choice3   string    `db:"choice3" json:"choice3"`
	Choice4   string    `db:"choice4" json:"choice4"`
	Choice5   string    `db:"choice5" json:"choice5"`
	Choice6   string    `db:"choice6" json:"choice6"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Student returns the composite identity of the choice row.
func (c Choice) Student() StudentRef {
	return StudentRef{FirstName: c.FirstName, LastName: c.LastName, ClassRef: c.ClassRef}
}

// ChoiceAt returns the raw choice text for priority 1..6.
func (c Choice) ChoiceAt(priority int) string {
	switch priority {
	case 1:
		return c.Choice1
	case 2:
		return c.Choice2
	case 3:
		return c.Choice3
	case 4:
		return c.Choice4
	case 5:
		return c.Choice5
	case 6:
		return c.Choice6
	}
	return ""
}

// StudentRef is the composite student identity used across assignments.
type StudentRef struct {
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	ClassRef  string `db:"class_ref" json:"class_ref"`
}

// Key returns a stable map key for the student identity.
func (s StudentRef) Key() string {
	return strings.Join([]string{s.FirstName, s.LastName, s.ClassRef}, "|")
}

// String renders the identity for diagnostics.
func (s StudentRef) String() string {
	return s.FirstName + " " + s.LastName + " (" + s.ClassRef + ")"
}

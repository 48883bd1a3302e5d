package models

import "time"

// Event represents a company-run workshop offered on the workshop day.
// Events are imported once per planning run and treated as read-only input.
type Event struct {
	ID              int64     `db:"id" json:"id"`
	Company         string    `db:"company" json:"company"`
	Subject         string    `db:"subject" json:"subject"`
	MaxParticipants int       `db:"max_participants" json:"max_participants"`
	MinParticipants int       `db:"min_participants" json:"min_participants"`
	EarliestStart   string    `db:"earliest_start" json:"earliest_start"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// EventFilter describes query params for listing events.
type EventFilter struct {
	Company   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package models

import "time"

// Room is a physical room available for workshop sessions. The name acts as
// the unique key.
type Room struct {
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

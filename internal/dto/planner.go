package dto

import "github.com/talentwerk/workshop-planner/internal/models"

// TimetableEntry is one session of the built grid enriched for display.
type TimetableEntry struct {
	Slot      string `json:"slot"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	RoomName  string `json:"room_name"`
	EventID   int64  `json:"event_id"`
	Company   string `json:"company"`
	Subject   string `json:"subject"`
	Headcount int    `json:"headcount"`
	Capacity  int    `json:"capacity"`
}

// VerifyResponse wraps the violation list of a verification pass.
type VerifyResponse struct {
	Violations []models.ScheduleViolation `json:"violations"`
	Checked    int                        `json:"checked"`
}

package dto

// CreateEventRequest is the import payload for one workshop event.
type CreateEventRequest struct {
	ID              int64  `json:"id" validate:"required,gt=0"`
	Company         string `json:"company" validate:"required"`
	Subject         string `json:"subject"`
	MaxParticipants int    `json:"max_participants" validate:"required,gt=0"`
	MinParticipants int    `json:"min_participants" validate:"gte=0"`
	EarliestStart   string `json:"earliest_start"`
}

// BulkCreateEventsRequest imports a full workshop catalogue.
type BulkCreateEventsRequest struct {
	Events []CreateEventRequest `json:"events" validate:"required,min=1,dive"`
}

// CreateRoomRequest is the import payload for one room.
type CreateRoomRequest struct {
	Name     string `json:"name" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}

// BulkCreateRoomsRequest imports the room list.
type BulkCreateRoomsRequest struct {
	Rooms []CreateRoomRequest `json:"rooms" validate:"required,min=1,dive"`
}

// CreateChoiceRequest is the import payload for one student's wishes. The
// choice fields stay free text; event references are parsed by the engine.
type CreateChoiceRequest struct {
	ClassRef  string `json:"class_ref" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Choice1   string `json:"choice1"`
	Choice2   string `json:"choice2"`
	Choice3   string `json:"choice3"`
	Choice4   string `json:"choice4"`
	Choice5   string `json:"choice5"`
	Choice6   string `json:"choice6"`
}

// BulkCreateChoicesRequest imports the student population in file order.
type BulkCreateChoicesRequest struct {
	Choices []CreateChoiceRequest `json:"choices" validate:"required,min=1,dive"`
}

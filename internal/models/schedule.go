package models

import (
	"time"

	"github.com/google/uuid"
)

// RequirementLevel says how important filling a slot is.
type RequirementLevel string

const (
	RequirementRequired  RequirementLevel = "required"
	RequirementPreferred RequirementLevel = "preferred"
	RequirementOptional  RequirementLevel = "optional"
)

// Valid reports whether l is one of the known requirement levels.
func (l RequirementLevel) Valid() bool {
	switch l {
	case RequirementRequired, RequirementPreferred, RequirementOptional:
		return true
	}
	return false
}

// Schedule is one calendar month of events.
type Schedule struct {
	ID        uuid.UUID `json:"id"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Notes     *string   `json:"notes,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event is a single occurrence within a schedule.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	ScheduleID  uuid.UUID  `json:"schedule_id"`
	TeamID      *uuid.UUID `json:"team_id"`
	EventTypeID uuid.UUID  `json:"event_type_id"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	Title       string     `json:"title"`
	Notes       *string    `json:"notes,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventAssignment is one slot: an (event, role) pair with an optional assigned user.
type EventAssignment struct {
	ID               uuid.UUID        `json:"id"`
	EventID          uuid.UUID        `json:"event_id"`
	RoleID           uuid.UUID        `json:"role_id"`
	AssignedUserID   *uuid.UUID       `json:"assigned_user_id"`
	IsApplicable     bool             `json:"is_applicable"`
	RequirementLevel RequirementLevel `json:"requirement_level"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewSlot returns the default assignment row created for each active role when an event is created.
func NewSlot(eventID, roleID uuid.UUID) EventAssignment {
	return EventAssignment{
		EventID:          eventID,
		RoleID:           roleID,
		IsApplicable:     true,
		RequirementLevel: RequirementRequired,
		IsActive:         true,
	}
}

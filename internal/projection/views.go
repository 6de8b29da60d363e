package projection

import (
	"time"

	"github.com/google/uuid"

	"github.com/media-rota/backend/internal/models"
)

// AssignmentView is one slot of an event.
type AssignmentView struct {
	ID                      uuid.UUID               `json:"id"`
	EventID                 uuid.UUID               `json:"event_id"`
	RoleID                  uuid.UUID               `json:"role_id"`
	AssignedUserID          *uuid.UUID              `json:"assigned_user_id"`
	IsApplicable            bool                    `json:"is_applicable"`
	RequirementLevel        models.RequirementLevel `json:"requirement_level"`
	IsActive                bool                    `json:"is_active"`
	RoleName                string                  `json:"role_name"`
	RoleOrder               int                     `json:"role_order"`
	RoleCode                string                  `json:"role_code"`
	UserFirstName           *string                 `json:"user_first_name"`
	UserLastName            *string                 `json:"user_last_name"`
	ProficiencyName         *string                 `json:"proficiency_name"`
	ProficiencyRank         *int                    `json:"proficiency_rank"`
	ProficiencyIsAssignable *bool                   `json:"proficiency_is_assignable"`
	ProficiencyCode         *string                 `json:"proficiency_code"`
}

// EventView is an event with its schedule, team, type and slots.
type EventView struct {
	ID            uuid.UUID        `json:"id"`
	ScheduleID    uuid.UUID        `json:"schedule_id"`
	TeamID        *uuid.UUID       `json:"team_id"`
	EventTypeID   uuid.UUID        `json:"event_type_id"`
	StartsAt      time.Time        `json:"starts_at"`
	EndsAt        time.Time        `json:"ends_at"`
	Title         string           `json:"title"`
	Notes         *string          `json:"notes"`
	IsActive      bool             `json:"is_active"`
	ScheduleMonth int              `json:"schedule_month"`
	ScheduleYear  int              `json:"schedule_year"`
	ScheduleNotes *string          `json:"schedule_notes"`
	TeamName      *string          `json:"team_name"`
	TeamCode      *string          `json:"team_code"`
	EventTypeName string           `json:"event_type_name"`
	EventTypeCode string           `json:"event_type_code"`
	Assignments   []AssignmentView `json:"assignments"`
}

// UnavailableUserView is the part of an unavailable user the grid shows.
type UnavailableUserView struct {
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// GridEventView is an event row of the schedule grid.
type GridEventView struct {
	EventView
	UnavailableUsers []UnavailableUserView `json:"unavailable_users"`
}

// GridView is one month's events, their slots and who is unavailable for each.
type GridView struct {
	ID       uuid.UUID       `json:"id"`
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Notes    *string         `json:"notes"`
	IsActive bool            `json:"is_active"`
	Events   []GridEventView `json:"events"`
}

// UserRoleView is a user-role row annotated with role, proficiency and user fields.
type UserRoleView struct {
	ID                      uuid.UUID  `json:"id"`
	UserID                  uuid.UUID  `json:"user_id"`
	RoleID                  uuid.UUID  `json:"role_id"`
	ProficiencyLevelID      *uuid.UUID `json:"proficiency_level_id"`
	IsActive                bool       `json:"is_active"`
	UserFirstName           string     `json:"user_first_name"`
	UserLastName            string     `json:"user_last_name"`
	RoleName                string     `json:"role_name"`
	RoleDescription         *string    `json:"role_description"`
	RoleOrder               int        `json:"role_order"`
	RoleCode                string     `json:"role_code"`
	RoleIsActive            bool       `json:"role_is_active"`
	ProficiencyName         *string    `json:"proficiency_name"`
	ProficiencyRank         *int       `json:"proficiency_rank"`
	ProficiencyIsAssignable *bool      `json:"proficiency_is_assignable"`
	ProficiencyIsActive     *bool      `json:"proficiency_is_active"`
	ProficiencyCode         *string    `json:"proficiency_code"`
}

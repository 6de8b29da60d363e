// Package projection builds the nested read views the API returns from fully loaded
// aggregates. Builders never touch the store; loaders in the resource packages fetch
// everything a view needs up front.
package projection

import (
	"github.com/media-rota/backend/internal/models"
)

// UserRoleLevel is a user-role row with its proficiency level, nil when the row has none.
type UserRoleLevel struct {
	UserRole models.UserRole
	Level    *models.ProficiencyLevel
}

// AssignedUser is a user filling a slot together with every role the user holds.
type AssignedUser struct {
	User  models.User
	Roles []UserRoleLevel
}

// AssignmentAggregate is a slot with its role and optional assigned user.
type AssignmentAggregate struct {
	Assignment models.EventAssignment
	Role       models.Role
	User       *AssignedUser
}

// EventAggregate is an event with everything the event view embeds.
type EventAggregate struct {
	Event       models.Event
	Schedule    models.Schedule
	Team        *models.Team
	EventType   models.EventType
	Assignments []AssignmentAggregate
}

// UserRoleAggregate is a user-role row joined with its user, role and level.
type UserRoleAggregate struct {
	UserRole models.UserRole
	User     models.User
	Role     models.Role
	Level    *models.ProficiencyLevel
}

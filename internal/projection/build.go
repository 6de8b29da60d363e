package projection

import (
	"sort"

	"github.com/google/uuid"

	"github.com/media-rota/backend/internal/availability"
	"github.com/media-rota/backend/internal/models"
)

// Event builds the event-with-assignments view. Slots are ordered by role display order, then role code.
func Event(agg EventAggregate) EventView {
	e := agg.Event
	v := EventView{
		ID:            e.ID,
		ScheduleID:    e.ScheduleID,
		TeamID:        e.TeamID,
		EventTypeID:   e.EventTypeID,
		StartsAt:      e.StartsAt,
		EndsAt:        e.EndsAt,
		Title:         e.Title,
		Notes:         e.Notes,
		IsActive:      e.IsActive,
		ScheduleMonth: agg.Schedule.Month,
		ScheduleYear:  agg.Schedule.Year,
		ScheduleNotes: agg.Schedule.Notes,
		EventTypeName: agg.EventType.Name,
		EventTypeCode: agg.EventType.Code,
		Assignments:   Assignments(agg.Assignments),
	}
	if agg.Team != nil {
		v.TeamName = ptr(agg.Team.Name)
		v.TeamCode = ptr(agg.Team.Code)
	}
	return v
}

// Assignments builds slot views in role display order.
func Assignments(aggs []AssignmentAggregate) []AssignmentView {
	out := make([]AssignmentView, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, Assignment(a))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RoleOrder != out[j].RoleOrder {
			return out[i].RoleOrder < out[j].RoleOrder
		}
		return out[i].RoleCode < out[j].RoleCode
	})
	return out
}

// Assignment builds one slot view. Proficiency fields are set only when the assigned user
// holds a user-role for the slot's role and that row has a level.
func Assignment(a AssignmentAggregate) AssignmentView {
	s := a.Assignment
	v := AssignmentView{
		ID:               s.ID,
		EventID:          s.EventID,
		RoleID:           s.RoleID,
		AssignedUserID:   s.AssignedUserID,
		IsApplicable:     s.IsApplicable,
		RequirementLevel: s.RequirementLevel,
		IsActive:         s.IsActive,
		RoleName:         a.Role.Name,
		RoleOrder:        a.Role.DisplayOrder,
		RoleCode:         a.Role.Code,
	}
	if a.User == nil {
		return v
	}
	v.UserFirstName = ptr(a.User.User.FirstName)
	v.UserLastName = ptr(a.User.User.LastName)
	if level := levelForRole(a.User.Roles, s.RoleID); level != nil {
		v.ProficiencyName = ptr(level.Name)
		v.ProficiencyRank = ptr(level.Rank)
		v.ProficiencyIsAssignable = ptr(level.IsAssignable)
		v.ProficiencyCode = ptr(level.Code)
	}
	return v
}

func levelForRole(roles []UserRoleLevel, roleID uuid.UUID) *models.ProficiencyLevel {
	for _, r := range roles {
		if r.UserRole.RoleID == roleID {
			return r.Level
		}
	}
	return nil
}

// Grid builds the schedule grid. unavailable may cover a wider window than any single event;
// each event keeps only the periods overlapping its own [starts_at, ends_at).
// Events are ordered by start time, then id.
func Grid(schedule models.Schedule, events []EventAggregate, unavailable []availability.UnavailableUser) GridView {
	sorted := append([]EventAggregate(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Event, sorted[j].Event
		if !a.StartsAt.Equal(b.StartsAt) {
			return a.StartsAt.Before(b.StartsAt)
		}
		return a.ID.String() < b.ID.String()
	})

	v := GridView{
		ID:       schedule.ID,
		Month:    schedule.Month,
		Year:     schedule.Year,
		Notes:    schedule.Notes,
		IsActive: schedule.IsActive,
		Events:   make([]GridEventView, 0, len(sorted)),
	}
	for _, agg := range sorted {
		v.Events = append(v.Events, GridEventView{
			EventView:        Event(agg),
			UnavailableUsers: UnavailableUsers(availability.ForEvent(unavailable, agg.Event)),
		})
	}
	return v
}

// UnavailableUsers reduces overlap results to user names.
func UnavailableUsers(entries []availability.UnavailableUser) []UnavailableUserView {
	out := make([]UnavailableUserView, 0, len(entries))
	for _, e := range entries {
		out = append(out, UnavailableUserView{
			UserID:    e.User.ID,
			FirstName: e.User.FirstName,
			LastName:  e.User.LastName,
		})
	}
	return out
}

// UserRole builds one user-role view.
func UserRole(a UserRoleAggregate) UserRoleView {
	ur := a.UserRole
	v := UserRoleView{
		ID:                 ur.ID,
		UserID:             ur.UserID,
		RoleID:             ur.RoleID,
		ProficiencyLevelID: ur.ProficiencyLevelID,
		IsActive:           ur.IsActive,
		UserFirstName:      a.User.FirstName,
		UserLastName:       a.User.LastName,
		RoleName:           a.Role.Name,
		RoleDescription:    a.Role.Description,
		RoleOrder:          a.Role.DisplayOrder,
		RoleCode:           a.Role.Code,
		RoleIsActive:       a.Role.IsActive,
	}
	if a.Level != nil {
		v.ProficiencyName = ptr(a.Level.Name)
		v.ProficiencyRank = ptr(a.Level.Rank)
		v.ProficiencyIsAssignable = ptr(a.Level.IsAssignable)
		v.ProficiencyIsActive = ptr(a.Level.IsActive)
		v.ProficiencyCode = ptr(a.Level.Code)
	}
	return v
}

// UserRoles builds user-role views, keeping the input order.
func UserRoles(aggs []UserRoleAggregate) []UserRoleView {
	out := make([]UserRoleView, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, UserRole(a))
	}
	return out
}

func ptr[T any](v T) *T { return &v }

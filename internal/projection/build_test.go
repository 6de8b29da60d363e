package projection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/media-rota/backend/internal/availability"
	"github.com/media-rota/backend/internal/models"
)

var (
	schedule = models.Schedule{ID: uuid.New(), Month: 6, Year: 2024, IsActive: true}
	service  = models.EventType{ID: uuid.New(), Name: "Service", Code: "service"}
	camera   = models.Role{ID: uuid.New(), Name: "Camera", Code: "cam", DisplayOrder: 2, IsActive: true}
	sound    = models.Role{ID: uuid.New(), Name: "Sound", Code: "snd", DisplayOrder: 1, IsActive: true}
	lyrics   = models.Role{ID: uuid.New(), Name: "Lyrics", Code: "lyr", DisplayOrder: 3, IsActive: true}
	capable  = models.ProficiencyLevel{ID: uuid.New(), Name: "Capable", Code: "capable", Rank: 2, IsAssignable: true, IsActive: true}
)

func event(start time.Time) models.Event {
	return models.Event{
		ID:          uuid.New(),
		ScheduleID:  schedule.ID,
		EventTypeID: service.ID,
		StartsAt:    start,
		EndsAt:      start.Add(2 * time.Hour),
		Title:       "Sunday service",
		IsActive:    true,
	}
}

func slots(e models.Event, roles ...models.Role) []AssignmentAggregate {
	out := make([]AssignmentAggregate, 0, len(roles))
	for _, r := range roles {
		a := models.NewSlot(e.ID, r.ID)
		a.ID = uuid.New()
		out = append(out, AssignmentAggregate{Assignment: a, Role: r})
	}
	return out
}

func TestEvent_WithoutTeamOrAssignedUsers(t *testing.T) {
	e := event(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	v := Event(EventAggregate{Event: e, Schedule: schedule, EventType: service, Assignments: slots(e, camera, sound)})

	assert.Nil(t, v.TeamID)
	assert.Nil(t, v.TeamName)
	assert.Nil(t, v.TeamCode)
	assert.Equal(t, 6, v.ScheduleMonth)
	assert.Equal(t, 2024, v.ScheduleYear)
	assert.Equal(t, "Service", v.EventTypeName)
	assert.Equal(t, "service", v.EventTypeCode)

	require.Len(t, v.Assignments, 2)
	assert.Equal(t, "Sound", v.Assignments[0].RoleName, "ordered by role display order")
	assert.Equal(t, "Camera", v.Assignments[1].RoleName)
	for _, a := range v.Assignments {
		assert.Nil(t, a.AssignedUserID)
		assert.Nil(t, a.UserFirstName)
		assert.Nil(t, a.UserLastName)
		assert.Nil(t, a.ProficiencyName)
		assert.Nil(t, a.ProficiencyRank)
	}
}

func TestEvent_WithTeam(t *testing.T) {
	e := event(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	team := models.Team{ID: uuid.New(), Name: "Youth", Code: "youth"}
	e.TeamID = &team.ID

	v := Event(EventAggregate{Event: e, Schedule: schedule, EventType: service, Team: &team})

	require.NotNil(t, v.TeamName)
	assert.Equal(t, "Youth", *v.TeamName)
	assert.Equal(t, "youth", *v.TeamCode)
	assert.NotNil(t, v.Assignments)
	assert.Empty(t, v.Assignments)
}

func TestAssignment_ProficiencyOnlyForMatchingRole(t *testing.T) {
	e := event(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	user := models.User{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace"}
	holder := &AssignedUser{
		User: user,
		Roles: []UserRoleLevel{
			{UserRole: models.UserRole{UserID: user.ID, RoleID: camera.ID, ProficiencyLevelID: &capable.ID}, Level: &capable},
		},
	}

	aggs := slots(e, camera, sound)
	for i := range aggs {
		aggs[i].Assignment.AssignedUserID = &user.ID
		aggs[i].User = holder
	}

	cam := Assignment(aggs[0])
	require.NotNil(t, cam.UserFirstName)
	assert.Equal(t, "Ada", *cam.UserFirstName)
	assert.Equal(t, "Lovelace", *cam.UserLastName)
	require.NotNil(t, cam.ProficiencyName)
	assert.Equal(t, "Capable", *cam.ProficiencyName)
	assert.Equal(t, 2, *cam.ProficiencyRank)
	assert.True(t, *cam.ProficiencyIsAssignable)
	assert.Equal(t, "capable", *cam.ProficiencyCode)

	snd := Assignment(aggs[1])
	require.NotNil(t, snd.UserFirstName, "user fields are set even without a matching user role")
	assert.Nil(t, snd.ProficiencyName)
	assert.Nil(t, snd.ProficiencyRank)
	assert.Nil(t, snd.ProficiencyIsAssignable)
	assert.Nil(t, snd.ProficiencyCode)
}

func TestAssignment_UserRoleWithoutLevel(t *testing.T) {
	e := event(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	user := models.User{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace"}
	agg := slots(e, camera)[0]
	agg.Assignment.AssignedUserID = &user.ID
	agg.User = &AssignedUser{User: user, Roles: []UserRoleLevel{{UserRole: models.UserRole{RoleID: camera.ID}}}}

	v := Assignment(agg)
	assert.NotNil(t, v.UserFirstName)
	assert.Nil(t, v.ProficiencyName)
}

func TestGrid_TwoEventsThreeSlotsOneUnavailable(t *testing.T) {
	first := event(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	second := event(time.Date(2024, 6, 9, 9, 0, 0, 0, time.UTC))
	away := models.User{ID: uuid.New(), FirstName: "Grace", LastName: "Hopper"}
	unavailable := []availability.UnavailableUser{{
		Period: models.UserUnavailablePeriod{ID: uuid.New(), UserID: away.ID, StartsAt: first.StartsAt.Add(-time.Hour), EndsAt: first.EndsAt},
		User:   away,
	}, {
		// touches the second event's start only
		Period: models.UserUnavailablePeriod{ID: uuid.New(), UserID: away.ID, StartsAt: second.StartsAt.Add(-time.Hour), EndsAt: second.StartsAt},
		User:   away,
	}}

	// second listed first to check ordering
	grid := Grid(schedule, []EventAggregate{
		{Event: second, Schedule: schedule, EventType: service, Assignments: slots(second, camera, sound, lyrics)},
		{Event: first, Schedule: schedule, EventType: service, Assignments: slots(first, camera, sound, lyrics)},
	}, unavailable)

	assert.Equal(t, schedule.ID, grid.ID)
	require.Len(t, grid.Events, 2)
	assert.Equal(t, first.ID, grid.Events[0].ID)
	assert.Equal(t, second.ID, grid.Events[1].ID)
	assert.Len(t, grid.Events[0].Assignments, 3)
	assert.Len(t, grid.Events[1].Assignments, 3)

	require.Len(t, grid.Events[0].UnavailableUsers, 1)
	assert.Equal(t, UnavailableUserView{UserID: away.ID, FirstName: "Grace", LastName: "Hopper"}, grid.Events[0].UnavailableUsers[0])
	assert.Empty(t, grid.Events[1].UnavailableUsers)
}

func TestGrid_JSONShape(t *testing.T) {
	e := event(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	grid := Grid(schedule, []EventAggregate{{Event: e, Schedule: schedule, EventType: service}}, nil)

	raw, err := json.Marshal(grid)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	events := decoded["events"].([]any)
	require.Len(t, events, 1)
	row := events[0].(map[string]any)
	assert.Equal(t, "Sunday service", row["title"], "event fields are flattened into the grid row")
	assert.Equal(t, []any{}, row["unavailable_users"])
	assert.Equal(t, []any{}, row["assignments"])
	assert.Contains(t, row, "team_name")
	assert.Nil(t, row["team_name"])
}

func TestUserRoles(t *testing.T) {
	user := models.User{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace"}
	desc := "Runs the main camera"
	cam := camera
	cam.Description = &desc

	views := UserRoles([]UserRoleAggregate{
		{UserRole: models.UserRole{ID: uuid.New(), UserID: user.ID, RoleID: cam.ID, ProficiencyLevelID: &capable.ID, IsActive: true}, User: user, Role: cam, Level: &capable},
		{UserRole: models.UserRole{ID: uuid.New(), UserID: user.ID, RoleID: sound.ID}, User: user, Role: sound},
	})

	require.Len(t, views, 2)
	assert.Equal(t, "Camera", views[0].RoleName)
	assert.Equal(t, &desc, views[0].RoleDescription)
	assert.Equal(t, "Ada", views[0].UserFirstName)
	require.NotNil(t, views[0].ProficiencyIsActive)
	assert.True(t, *views[0].ProficiencyIsActive)
	assert.Equal(t, "capable", *views[0].ProficiencyCode)

	assert.Nil(t, views[1].ProficiencyLevelID)
	assert.Nil(t, views[1].ProficiencyName)
	assert.Nil(t, views[1].ProficiencyRank)
}

package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/patch"
	"github.com/media-rota/backend/internal/projection"
)

type stubStore struct {
	list []projection.EventAggregate
}

func (s *stubStore) GetAggregate(_ context.Context, id uuid.UUID) (*projection.EventAggregate, error) {
	for i := range s.list {
		if s.list[i].Event.ID == id {
			agg := s.list[i]
			return &agg, nil
		}
	}
	return nil, apperr.NotFound("event")
}

func (s *stubStore) ListAggregatesForSchedule(_ context.Context, scheduleID uuid.UUID) ([]projection.EventAggregate, error) {
	out := make([]projection.EventAggregate, 0)
	for _, a := range s.list {
		if a.Event.ScheduleID == scheduleID {
			out = append(out, a)
		}
	}
	return out, nil
}

type stubAssignments struct {
	byEvent map[uuid.UUID][]projection.AssignmentAggregate
	calls   int
}

func (s *stubAssignments) ForEvents(context.Context, []uuid.UUID) (map[uuid.UUID][]projection.AssignmentAggregate, error) {
	s.calls++
	return s.byEvent, nil
}

func eventIn(scheduleID uuid.UUID) projection.EventAggregate {
	return projection.EventAggregate{Event: models.Event{ID: uuid.New(), ScheduleID: scheduleID, Title: "Sunday"}}
}

func TestLoader_ForScheduleLoadsSlotsInOneCall(t *testing.T) {
	scheduleID := uuid.New()
	a, b := eventIn(scheduleID), eventIn(scheduleID)
	slot := projection.AssignmentAggregate{Assignment: models.NewSlot(a.Event.ID, uuid.New())}
	assignments := &stubAssignments{byEvent: map[uuid.UUID][]projection.AssignmentAggregate{a.Event.ID: {slot}}}
	store := &stubStore{list: []projection.EventAggregate{a, b, eventIn(uuid.New())}}

	list, err := NewLoader(store, assignments).ForSchedule(context.Background(), scheduleID)
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, 1, assignments.calls)
	assert.Len(t, list[0].Assignments, 1)
	assert.Empty(t, list[1].Assignments)
}

func TestLoader_ForScheduleWithoutEventsSkipsSlots(t *testing.T) {
	assignments := &stubAssignments{}

	list, err := NewLoader(&stubStore{}, assignments).ForSchedule(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, assignments.calls)
}

func TestLoader_GetUnknownEvent(t *testing.T) {
	_, err := NewLoader(&stubStore{}, &stubAssignments{}).Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPatchRequest_ApplyTo(t *testing.T) {
	team := uuid.New()
	notes := "bring batteries"
	e := models.Event{TeamID: &team, Notes: &notes, Title: "Sunday", IsActive: true}

	var req PatchRequest
	body := `{"team_id": null, "title": "  Evening  ", "starts_at": "2026-03-01T18:00:00+02:00"}`
	require.NoError(t, patch.Decode(strings.NewReader(body), &req))
	require.NoError(t, req.ApplyTo(&e))

	assert.Nil(t, e.TeamID)
	assert.Equal(t, "Evening", e.Title)
	assert.Equal(t, time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC), e.StartsAt)
	assert.Equal(t, &notes, e.Notes)
	assert.True(t, e.IsActive)
}

func TestPatchRequest_RejectsNullTitle(t *testing.T) {
	var req PatchRequest
	require.NoError(t, patch.Decode(strings.NewReader(`{"title": null}`), &req))
	assert.Error(t, req.ApplyTo(&models.Event{Title: "Sunday"}))
}

func TestPatchRequest_ScheduleIsImmutable(t *testing.T) {
	var req PatchRequest
	assert.Error(t, patch.Decode(strings.NewReader(`{"schedule_id": "`+uuid.NewString()+`"}`), &req))
}

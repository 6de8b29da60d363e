package schedules

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/availability"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/projection"
)

type stubSchedules struct {
	schedule *models.Schedule
}

func (s *stubSchedules) GetByID(_ context.Context, id uuid.UUID) (*models.Schedule, error) {
	if s.schedule == nil || s.schedule.ID != id {
		return nil, apperr.NotFound("schedule")
	}
	return s.schedule, nil
}

type stubEvents struct {
	events []projection.EventAggregate
	calls  int
	// loaded runs after the events are read, standing in for a concurrent write.
	loaded func()
}

func (s *stubEvents) ForSchedule(context.Context, uuid.UUID) ([]projection.EventAggregate, error) {
	s.calls++
	out := append([]projection.EventAggregate(nil), s.events...)
	if s.loaded != nil {
		s.loaded()
	}
	return out, nil
}

type stubWindow struct {
	entries    []availability.UnavailableUser
	calls      int
	start, end time.Time
}

func (s *stubWindow) ListOverlapping(_ context.Context, start, end time.Time) ([]availability.UnavailableUser, error) {
	s.calls++
	s.start, s.end = start, end
	return s.entries, nil
}

type cacheKey struct {
	gen int64
	id  uuid.UUID
}

type memoryCache struct {
	gen   int64
	views map[cacheKey]projection.GridView
}

func newMemoryCache() *memoryCache {
	return &memoryCache{views: map[cacheKey]projection.GridView{}}
}

func (m *memoryCache) Get(_ context.Context, id uuid.UUID) (*projection.GridView, int64, bool) {
	v, ok := m.views[cacheKey{m.gen, id}]
	if !ok {
		return nil, m.gen, false
	}
	return &v, m.gen, true
}

func (m *memoryCache) Set(_ context.Context, gen int64, id uuid.UUID, view projection.GridView) {
	m.views[cacheKey{gen, id}] = view
}

func (m *memoryCache) invalidate() { m.gen++ }

func event(start time.Time, hours int) projection.EventAggregate {
	return projection.EventAggregate{Event: models.Event{
		ID:       uuid.New(),
		StartsAt: start,
		EndsAt:   start.Add(time.Duration(hours) * time.Hour),
		Title:    "Service",
	}}
}

func TestGridService_LoadsOneWindowAcrossEvents(t *testing.T) {
	schedule := &models.Schedule{ID: uuid.New(), Month: 3, Year: 2025, IsActive: true}
	sunday := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	first := event(sunday, 2)
	second := event(sunday.Add(7*24*time.Hour), 3)

	away := availability.UnavailableUser{
		Period: models.UserUnavailablePeriod{ID: uuid.New(), StartsAt: sunday.Add(-time.Hour), EndsAt: sunday.Add(time.Hour)},
		User:   models.User{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace"},
	}
	events := &stubEvents{events: []projection.EventAggregate{second, first}}
	window := &stubWindow{entries: []availability.UnavailableUser{away}}

	svc := NewGridService(&stubSchedules{schedule: schedule}, events, window, nil)
	view, err := svc.Get(context.Background(), schedule.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, window.calls)
	assert.Equal(t, first.Event.StartsAt, window.start)
	assert.Equal(t, second.Event.EndsAt, window.end)

	require.Len(t, view.Events, 2)
	assert.Equal(t, first.Event.ID, view.Events[0].ID)
	require.Len(t, view.Events[0].UnavailableUsers, 1)
	assert.Equal(t, "Ada", view.Events[0].UnavailableUsers[0].FirstName)
	assert.Empty(t, view.Events[1].UnavailableUsers)
}

func TestGridService_NoEventsSkipsWindow(t *testing.T) {
	schedule := &models.Schedule{ID: uuid.New(), Month: 4, Year: 2025}
	window := &stubWindow{}

	svc := NewGridService(&stubSchedules{schedule: schedule}, &stubEvents{}, window, nil)
	view, err := svc.Build(context.Background(), schedule.ID)
	require.NoError(t, err)

	assert.Zero(t, window.calls)
	assert.NotNil(t, view.Events)
	assert.Empty(t, view.Events)
}

func TestGridService_UnknownSchedule(t *testing.T) {
	svc := NewGridService(&stubSchedules{}, &stubEvents{}, &stubWindow{}, nil)

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGridService_ServesFromCache(t *testing.T) {
	schedule := &models.Schedule{ID: uuid.New(), Month: 5, Year: 2025}
	events := &stubEvents{events: []projection.EventAggregate{event(time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC), 2)}}
	cache := newMemoryCache()

	svc := NewGridService(&stubSchedules{schedule: schedule}, events, &stubWindow{}, cache)
	first, err := svc.Get(context.Background(), schedule.ID)
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), schedule.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, events.calls)
	assert.Equal(t, first, second)
}

func TestGridService_WriteDuringBuildIsNotCached(t *testing.T) {
	schedule := &models.Schedule{ID: uuid.New(), Month: 6, Year: 2025}
	sunday := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cache := newMemoryCache()
	events := &stubEvents{events: []projection.EventAggregate{event(sunday, 2)}}
	events.loaded = func() {
		events.events = append(events.events, event(sunday.Add(7*24*time.Hour), 2))
		cache.invalidate()
		events.loaded = nil
	}

	svc := NewGridService(&stubSchedules{schedule: schedule}, events, &stubWindow{}, cache)
	first, err := svc.Get(context.Background(), schedule.ID)
	require.NoError(t, err)
	assert.Len(t, first.Events, 1)

	second, err := svc.Get(context.Background(), schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, events.calls)
	assert.Len(t, second.Events, 2)
}

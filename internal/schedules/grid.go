package schedules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/media-rota/backend/internal/availability"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/projection"
)

// ScheduleGetter loads a schedule by id.
type ScheduleGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error)
}

// EventLoader loads a schedule's events with their slots.
type EventLoader interface {
	ForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]projection.EventAggregate, error)
}

// UnavailabilityWindow lists the unavailable periods overlapping [start, end).
type UnavailabilityWindow interface {
	ListOverlapping(ctx context.Context, start, end time.Time) ([]availability.UnavailableUser, error)
}

// GridCache stores built grids. A disabled cache never hits. Get reports the cache
// generation it read; Set must be given that generation, not a fresh one.
type GridCache interface {
	Get(ctx context.Context, scheduleID uuid.UUID) (view *projection.GridView, gen int64, ok bool)
	Set(ctx context.Context, gen int64, scheduleID uuid.UUID, view projection.GridView)
}

// GridService builds the schedule grid with three store reads: the schedule, its events
// with slots, and one unavailability window spanning every event.
type GridService struct {
	schedules   ScheduleGetter
	events      EventLoader
	unavailable UnavailabilityWindow
	cache       GridCache
}

// NewGridService creates a GridService. cache may be nil.
func NewGridService(schedules ScheduleGetter, events EventLoader, unavailable UnavailabilityWindow, cache GridCache) *GridService {
	return &GridService{schedules: schedules, events: events, unavailable: unavailable, cache: cache}
}

// Get returns the cached grid when present, otherwise builds and caches it.
func (s *GridService) Get(ctx context.Context, scheduleID uuid.UUID) (projection.GridView, error) {
	gen := int64(-1)
	if s.cache != nil {
		cached, g, ok := s.cache.Get(ctx, scheduleID)
		if ok {
			return *cached, nil
		}
		gen = g
	}
	view, err := s.Build(ctx, scheduleID)
	if err != nil {
		return projection.GridView{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, gen, scheduleID, view)
	}
	return view, nil
}

// Build reads the store and assembles the grid.
func (s *GridService) Build(ctx context.Context, scheduleID uuid.UUID) (projection.GridView, error) {
	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return projection.GridView{}, err
	}
	events, err := s.events.ForSchedule(ctx, scheduleID)
	if err != nil {
		return projection.GridView{}, fmt.Errorf("load events: %w", err)
	}
	var unavailable []availability.UnavailableUser
	if start, end, ok := span(events); ok {
		unavailable, err = s.unavailable.ListOverlapping(ctx, start, end)
		if err != nil {
			return projection.GridView{}, fmt.Errorf("load unavailability: %w", err)
		}
	}
	return projection.Grid(*schedule, events, unavailable), nil
}

// span returns the earliest start and latest end across events.
func span(events []projection.EventAggregate) (start, end time.Time, ok bool) {
	for i, agg := range events {
		if i == 0 || agg.Event.StartsAt.Before(start) {
			start = agg.Event.StartsAt
		}
		if i == 0 || agg.Event.EndsAt.After(end) {
			end = agg.Event.EndsAt
		}
	}
	return start, end, len(events) > 0
}

package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/media-rota/backend/internal/projection"
)

// AggregateStore loads events joined with schedule, team and type.
type AggregateStore interface {
	GetAggregate(ctx context.Context, id uuid.UUID) (*projection.EventAggregate, error)
	ListAggregatesForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]projection.EventAggregate, error)
}

// AssignmentLoader loads fully populated slots for many events at once.
type AssignmentLoader interface {
	ForEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]projection.AssignmentAggregate, error)
}

// Loader builds complete event aggregates with a fixed number of queries.
type Loader struct {
	store       AggregateStore
	assignments AssignmentLoader
}

// NewLoader creates an event Loader.
func NewLoader(store AggregateStore, assignments AssignmentLoader) *Loader {
	return &Loader{store: store, assignments: assignments}
}

// Get returns one event with everything the event view needs.
func (l *Loader) Get(ctx context.Context, id uuid.UUID) (*projection.EventAggregate, error) {
	agg, err := l.store.GetAggregate(ctx, id)
	if err != nil {
		return nil, err
	}
	list := []projection.EventAggregate{*agg}
	if err := l.attach(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ForSchedule returns every event of a schedule with its slots.
func (l *Loader) ForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]projection.EventAggregate, error) {
	list, err := l.store.ListAggregatesForSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := l.attach(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (l *Loader) attach(ctx context.Context, list []projection.EventAggregate) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(list))
	for i := range list {
		ids[i] = list[i].Event.ID
	}
	byEvent, err := l.assignments.ForEvents(ctx, ids)
	if err != nil {
		return err
	}
	for i := range list {
		list[i].Assignments = byEvent[list[i].Event.ID]
	}
	return nil
}

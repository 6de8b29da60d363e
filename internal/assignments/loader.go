package assignments

import (
	"context"

	"github.com/google/uuid"

	"github.com/media-rota/backend/internal/projection"
)

// LevelLoader returns each user's roles with proficiency levels.
type LevelLoader interface {
	LevelsForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]projection.UserRoleLevel, error)
}

// AggregateStore is the read side of Repository the Loader needs.
type AggregateStore interface {
	ListAggregates(ctx context.Context, eventIDs []uuid.UUID) ([]projection.AssignmentAggregate, error)
}

// Loader assembles fully populated slot aggregates in two queries regardless of event count:
// one for slots with roles and users, one for the assigned users' roles.
type Loader struct {
	store  AggregateStore
	levels LevelLoader
}

// NewLoader creates a Loader.
func NewLoader(store AggregateStore, levels LevelLoader) *Loader {
	return &Loader{store: store, levels: levels}
}

// ForEvents returns slot aggregates grouped by event id. Events without slots are absent from the map.
func (l *Loader) ForEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]projection.AssignmentAggregate, error) {
	aggs, err := l.store.ListAggregates(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	if err := l.Attach(ctx, aggs); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]projection.AssignmentAggregate, len(eventIDs))
	for _, a := range aggs {
		out[a.Assignment.EventID] = append(out[a.Assignment.EventID], a)
	}
	return out, nil
}

// Attach fills in the assigned users' roles on aggs in place.
func (l *Loader) Attach(ctx context.Context, aggs []projection.AssignmentAggregate) error {
	seen := make(map[uuid.UUID]bool)
	userIDs := make([]uuid.UUID, 0)
	for _, a := range aggs {
		if a.User != nil && !seen[a.User.User.ID] {
			seen[a.User.User.ID] = true
			userIDs = append(userIDs, a.User.User.ID)
		}
	}
	if len(userIDs) == 0 {
		return nil
	}
	levels, err := l.levels.LevelsForUsers(ctx, userIDs)
	if err != nil {
		return err
	}
	for i := range aggs {
		if aggs[i].User != nil {
			aggs[i].User.Roles = levels[aggs[i].User.User.ID]
		}
	}
	return nil
}

package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/projection"
	"github.com/media-rota/backend/pkg/database"
)

const columns = `e.id, e.schedule_id, e.team_id, e.event_type_id, e.starts_at, e.ends_at, e.title, e.notes, e.is_active, e.created_at, e.updated_at`

const aggregateSelect = `SELECT ` + columns + `,
		s.id, s.month, s.year, s.notes, s.is_active, s.created_at, s.updated_at,
		et.id, et.name, et.code, et.is_active, et.created_at, et.updated_at,
		t.id, t.name, t.code, t.is_active, t.created_at, t.updated_at
	FROM events e
	INNER JOIN schedules s ON s.id = e.schedule_id
	INNER JOIN event_types et ON et.id = e.event_type_id
	LEFT JOIN teams t ON t.id = e.team_id`

// Repository handles events persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

// Create inserts an event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (schedule_id, team_id, event_type_id, starts_at, ends_at, title, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.db(ctx).QueryRow(ctx, q, e.ScheduleID, e.TeamID, e.EventTypeID, e.StartsAt, e.EndsAt, e.Title, e.Notes, e.IsActive).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return apperr.FromDB(err, "event")
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "event")
	}
	return e, nil
}

// GetForUpdate returns an event by ID and locks the row.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM events e WHERE e.id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "event")
	}
	return e, nil
}

// List returns events ordered by start then id. A non-nil scheduleID restricts to one schedule.
func (r *Repository) List(ctx context.Context, scheduleID *uuid.UUID) ([]models.Event, error) {
	q := `SELECT ` + columns + ` FROM events e`
	var args []any
	if scheduleID != nil {
		q += ` WHERE e.schedule_id = $1`
		args = append(args, *scheduleID)
	}
	rows, err := r.db(ctx).Query(ctx, q+` ORDER BY e.starts_at, e.id`, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "event")
	}
	defer rows.Close()

	list := make([]models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "event")
		}
		list = append(list, *e)
	}
	return list, apperr.FromDB(rows.Err(), "event")
}

// Update writes the mutable columns of e. The schedule is fixed after creation.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events
		SET team_id = $1, event_type_id = $2, starts_at = $3, ends_at = $4, title = $5, notes = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, e.TeamID, e.EventTypeID, e.StartsAt, e.EndsAt, e.Title, e.Notes, e.IsActive, e.ID).
		Scan(&e.UpdatedAt)
	return apperr.FromDB(err, "event")
}

// Delete removes an event. Its slots cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "event")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("event")
	}
	return nil
}

// GetAggregate returns an event with schedule, team and type. Assignments are left empty.
func (r *Repository) GetAggregate(ctx context.Context, id uuid.UUID) (*projection.EventAggregate, error) {
	list, err := r.queryAggregates(ctx, aggregateSelect+` WHERE e.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperr.NotFound("event")
	}
	return &list[0], nil
}

// ListAggregatesForSchedule returns a schedule's events with schedule, team and type, ordered by start then id.
func (r *Repository) ListAggregatesForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]projection.EventAggregate, error) {
	return r.queryAggregates(ctx, aggregateSelect+`
	WHERE e.schedule_id = $1
	ORDER BY e.starts_at, e.id`, scheduleID)
}

func (r *Repository) queryAggregates(ctx context.Context, q string, args ...any) ([]projection.EventAggregate, error) {
	rows, err := r.db(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "event")
	}
	defer rows.Close()

	list := make([]projection.EventAggregate, 0)
	for rows.Next() {
		var agg projection.EventAggregate
		var team nullTeam
		e, s, et := &agg.Event, &agg.Schedule, &agg.EventType
		dest := []any{
			&e.ID, &e.ScheduleID, &e.TeamID, &e.EventTypeID, &e.StartsAt, &e.EndsAt, &e.Title, &e.Notes, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
			&s.ID, &s.Month, &s.Year, &s.Notes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
			&et.ID, &et.Name, &et.Code, &et.IsActive, &et.CreatedAt, &et.UpdatedAt,
			&team.id, &team.name, &team.code, &team.isActive, &team.createdAt, &team.updatedAt,
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, apperr.FromDB(err, "event")
		}
		agg.Team = team.team()
		list = append(list, agg)
	}
	return list, apperr.FromDB(rows.Err(), "event")
}

type nullTeam struct {
	id         *uuid.UUID
	name, code *string
	isActive   *bool
	createdAt  *time.Time
	updatedAt  *time.Time
}

func (n *nullTeam) team() *models.Team {
	if n.id == nil {
		return nil
	}
	return &models.Team{
		ID:        *n.id,
		Name:      *n.name,
		Code:      *n.code,
		IsActive:  *n.isActive,
		CreatedAt: *n.createdAt,
		UpdatedAt: *n.updatedAt,
	}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	if err := row.Scan(&e.ID, &e.ScheduleID, &e.TeamID, &e.EventTypeID, &e.StartsAt, &e.EndsAt, &e.Title, &e.Notes, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

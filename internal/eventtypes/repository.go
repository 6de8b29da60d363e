package eventtypes

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/pkg/database"
)

const columns = `id, name, code, is_active, created_at, updated_at`

// Repository handles event_types persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event type repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

// Create inserts an event type.
func (r *Repository) Create(ctx context.Context, t *models.EventType) error {
	const q = `INSERT INTO event_types (name, code, is_active) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	err := r.db(ctx).QueryRow(ctx, q, t.Name, t.Code, t.IsActive).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return apperr.FromDB(err, "event type")
}

// GetByID returns an event type by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EventType, error) {
	t, err := scanEventType(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM event_types WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "event type")
	}
	return t, nil
}

// GetForUpdate returns an event type by ID and locks the row.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.EventType, error) {
	t, err := scanEventType(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM event_types WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "event type")
	}
	return t, nil
}

// List returns all event types ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.EventType, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+columns+` FROM event_types ORDER BY name, code`)
	if err != nil {
		return nil, apperr.FromDB(err, "event type")
	}
	defer rows.Close()

	list := make([]models.EventType, 0)
	for rows.Next() {
		t, err := scanEventType(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "event type")
		}
		list = append(list, *t)
	}
	return list, apperr.FromDB(rows.Err(), "event type")
}

// Update writes the mutable columns of t.
func (r *Repository) Update(ctx context.Context, t *models.EventType) error {
	const q = `UPDATE event_types SET name = $1, code = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, t.Name, t.Code, t.IsActive, t.ID).Scan(&t.UpdatedAt)
	return apperr.FromDB(err, "event type")
}

// Delete removes an event type. Types still referenced by events are rejected by the foreign key.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM event_types WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "event type")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("event type")
	}
	return nil
}

func scanEventType(row pgx.Row) (*models.EventType, error) {
	var t models.EventType
	if err := row.Scan(&t.ID, &t.Name, &t.Code, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

package schedules

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/pkg/database"
)

const columns = `id, month, year, notes, is_active, created_at, updated_at`

// ListFilter narrows List by exact month and/or year.
type ListFilter struct {
	Year  *int
	Month *int
}

// Repository handles schedules persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a schedule repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

// Create inserts a schedule.
func (r *Repository) Create(ctx context.Context, s *models.Schedule) error {
	const q = `INSERT INTO schedules (month, year, notes, is_active) VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	err := r.db(ctx).QueryRow(ctx, q, s.Month, s.Year, s.Notes, s.IsActive).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return apperr.FromDB(err, "schedule")
}

// GetByID returns a schedule by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	s, err := scanSchedule(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM schedules WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "schedule")
	}
	return s, nil
}

// GetForUpdate returns a schedule by ID and locks the row.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	s, err := scanSchedule(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM schedules WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "schedule")
	}
	return s, nil
}

// List returns schedules matching f, newest month first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Schedule, error) {
	var conds []string
	var args []any
	if f.Year != nil {
		args = append(args, *f.Year)
		conds = append(conds, "year = $"+strconv.Itoa(len(args)))
	}
	if f.Month != nil {
		args = append(args, *f.Month)
		conds = append(conds, "month = $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + columns + ` FROM schedules`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := r.db(ctx).Query(ctx, q+" ORDER BY year DESC, month DESC, id", args...)
	if err != nil {
		return nil, apperr.FromDB(err, "schedule")
	}
	defer rows.Close()

	list := make([]models.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "schedule")
		}
		list = append(list, *s)
	}
	return list, apperr.FromDB(rows.Err(), "schedule")
}

// Update writes the mutable columns of s.
func (r *Repository) Update(ctx context.Context, s *models.Schedule) error {
	const q = `UPDATE schedules SET month = $1, year = $2, notes = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, s.Month, s.Year, s.Notes, s.IsActive, s.ID).Scan(&s.UpdatedAt)
	return apperr.FromDB(err, "schedule")
}

// Delete removes a schedule. Its events and their slots cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "schedule")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("schedule")
	}
	return nil
}

func scanSchedule(row pgx.Row) (*models.Schedule, error) {
	var s models.Schedule
	if err := row.Scan(&s.ID, &s.Month, &s.Year, &s.Notes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

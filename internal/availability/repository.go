package availability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/pkg/database"
)

const periodColumns = `p.id, p.user_id, p.starts_at, p.ends_at, p.reason, p.created_at, p.updated_at`

const overlapSelect = `SELECT ` + periodColumns + `,
		u.id, u.first_name, u.last_name, u.email, u.phone, u.is_active, u.created_at, u.updated_at
	FROM user_unavailable_periods p
	INNER JOIN users u ON u.id = p.user_id`

// Repository handles user_unavailable_periods persistence and overlap queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an availability repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

// ListFilter narrows ListPeriods. From/To select periods overlapping [From, To).
type ListFilter struct {
	UserID *uuid.UUID
	From   *time.Time
	To     *time.Time
}

// Create inserts an unavailability period.
func (r *Repository) Create(ctx context.Context, p *models.UserUnavailablePeriod) error {
	const q = `INSERT INTO user_unavailable_periods (user_id, starts_at, ends_at, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.db(ctx).QueryRow(ctx, q, p.UserID, p.StartsAt, p.EndsAt, p.Reason).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return apperr.FromDB(err, "unavailable period")
}

// GetByID returns a period by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserUnavailablePeriod, error) {
	const q = `SELECT ` + periodColumns + ` FROM user_unavailable_periods p WHERE p.id = $1`
	p, err := scanPeriod(r.db(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return nil, apperr.FromDB(err, "unavailable period")
	}
	return p, nil
}

// GetForUpdate returns a period by ID and locks the row for the rest of the transaction.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.UserUnavailablePeriod, error) {
	const q = `SELECT ` + periodColumns + ` FROM user_unavailable_periods p WHERE p.id = $1 FOR UPDATE`
	p, err := scanPeriod(r.db(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return nil, apperr.FromDB(err, "unavailable period")
	}
	return p, nil
}

// List returns periods matching the filter, ordered by start.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.UserUnavailablePeriod, error) {
	var conds []string
	var args []any
	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, "p.user_id = $"+strconv.Itoa(len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, "p.starts_at < $"+strconv.Itoa(len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, "p.ends_at > $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + periodColumns + ` FROM user_unavailable_periods p`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := r.db(ctx).Query(ctx, q+" ORDER BY p.starts_at, p.id", args...)
	if err != nil {
		return nil, apperr.FromDB(err, "unavailable period")
	}
	defer rows.Close()

	list := make([]models.UserUnavailablePeriod, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "unavailable period")
		}
		list = append(list, *p)
	}
	return list, apperr.FromDB(rows.Err(), "unavailable period")
}

// Update writes the mutable columns of p.
func (r *Repository) Update(ctx context.Context, p *models.UserUnavailablePeriod) error {
	const q = `UPDATE user_unavailable_periods SET starts_at = $1, ends_at = $2, reason = $3, updated_at = NOW()
		WHERE id = $4 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, p.StartsAt, p.EndsAt, p.Reason, p.ID).Scan(&p.UpdatedAt)
	return apperr.FromDB(err, "unavailable period")
}

// Delete removes a period by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM user_unavailable_periods WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "unavailable period")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("unavailable period")
	}
	return nil
}

// UnavailableUsersForEvent returns every period overlapping the event's window, with its user.
// The event is assumed to exist; an unknown id yields an empty list.
func (r *Repository) UnavailableUsersForEvent(ctx context.Context, eventID uuid.UUID) ([]UnavailableUser, error) {
	const q = overlapSelect + `
	INNER JOIN events e ON e.id = $1
	WHERE p.starts_at < e.ends_at AND p.ends_at > e.starts_at`
	list, err := r.queryUnavailable(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	Sort(list)
	return list, nil
}

// ListOverlapping returns every period overlapping [start, end), with its user.
// The grid builder loads one window per schedule and splits it per event with ForEvent.
func (r *Repository) ListOverlapping(ctx context.Context, start, end time.Time) ([]UnavailableUser, error) {
	const q = overlapSelect + `
	WHERE p.starts_at < $2 AND p.ends_at > $1`
	return r.queryUnavailable(ctx, q, start, end)
}

func (r *Repository) queryUnavailable(ctx context.Context, q string, args ...any) ([]UnavailableUser, error) {
	rows, err := r.db(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "unavailable period")
	}
	defer rows.Close()

	list := make([]UnavailableUser, 0)
	for rows.Next() {
		var e UnavailableUser
		p, u := &e.Period, &e.User
		if err := rows.Scan(&p.ID, &p.UserID, &p.StartsAt, &p.EndsAt, &p.Reason, &p.CreatedAt, &p.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, apperr.FromDB(err, "unavailable period")
		}
		list = append(list, e)
	}
	return list, apperr.FromDB(rows.Err(), "unavailable period")
}

func scanPeriod(row pgx.Row) (*models.UserUnavailablePeriod, error) {
	var p models.UserUnavailablePeriod
	if err := row.Scan(&p.ID, &p.UserID, &p.StartsAt, &p.EndsAt, &p.Reason, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

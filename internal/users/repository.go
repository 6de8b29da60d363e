package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/pkg/database"
)

const columns = `id, first_name, last_name, email, phone, is_active, created_at, updated_at`

// Repository handles users persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

// Create inserts a user.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (first_name, last_name, email, phone, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db(ctx).QueryRow(ctx, q, u.FirstName, u.LastName, u.Email, u.Phone, u.IsActive).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return apperr.FromDB(err, "user")
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return u, nil
}

// GetForUpdate returns a user by ID and locks the row.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return u, nil
}

// List returns users ordered by last then first name. activeOnly restricts to active users.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.User, error) {
	q := `SELECT ` + columns + ` FROM users`
	if activeOnly {
		q += ` WHERE is_active`
	}
	rows, err := r.db(ctx).Query(ctx, q+` ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	defer rows.Close()

	list := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "user")
		}
		list = append(list, *u)
	}
	return list, apperr.FromDB(rows.Err(), "user")
}

// ListIDs returns every user id, active or not.
func (r *Repository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT id FROM users ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	return ids, apperr.FromDB(err, "user")
}

// Update writes the mutable columns of u.
func (r *Repository) Update(ctx context.Context, u *models.User) error {
	const q = `UPDATE users SET first_name = $1, last_name = $2, email = $3, phone = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, u.FirstName, u.LastName, u.Email, u.Phone, u.IsActive, u.ID).Scan(&u.UpdatedAt)
	return apperr.FromDB(err, "user")
}

// Delete removes a user. Roles, memberships and unavailability cascade; slots are left unassigned.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

package roles

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/pkg/database"
)

const columns = `id, name, description, code, display_order, is_active, created_at, updated_at`

// Repository handles roles persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a role repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

// Create inserts a role.
func (r *Repository) Create(ctx context.Context, ro *models.Role) error {
	const q = `INSERT INTO roles (name, description, code, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db(ctx).QueryRow(ctx, q, ro.Name, ro.Description, ro.Code, ro.DisplayOrder, ro.IsActive).
		Scan(&ro.ID, &ro.CreatedAt, &ro.UpdatedAt)
	return apperr.FromDB(err, "role")
}

// GetByID returns a role by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	ro, err := scanRole(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "role")
	}
	return ro, nil
}

// GetForUpdate returns a role by ID and locks the row.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	ro, err := scanRole(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM roles WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "role")
	}
	return ro, nil
}

// List returns roles in display order. activeOnly restricts to active roles.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Role, error) {
	q := `SELECT ` + columns + ` FROM roles`
	if activeOnly {
		q += ` WHERE is_active`
	}
	rows, err := r.db(ctx).Query(ctx, q+` ORDER BY display_order, code`)
	if err != nil {
		return nil, apperr.FromDB(err, "role")
	}
	defer rows.Close()

	list := make([]models.Role, 0)
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "role")
		}
		list = append(list, *ro)
	}
	return list, apperr.FromDB(rows.Err(), "role")
}

// ListIDs returns role ids in display order. activeOnly restricts to active roles.
func (r *Repository) ListIDs(ctx context.Context, activeOnly bool) ([]uuid.UUID, error) {
	q := `SELECT id FROM roles`
	if activeOnly {
		q += ` WHERE is_active`
	}
	rows, err := r.db(ctx).Query(ctx, q+` ORDER BY display_order, code`)
	if err != nil {
		return nil, apperr.FromDB(err, "role")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	return ids, apperr.FromDB(err, "role")
}

// Update writes the mutable columns of ro.
func (r *Repository) Update(ctx context.Context, ro *models.Role) error {
	const q = `UPDATE roles SET name = $1, description = $2, code = $3, display_order = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, ro.Name, ro.Description, ro.Code, ro.DisplayOrder, ro.IsActive, ro.ID).
		Scan(&ro.UpdatedAt)
	return apperr.FromDB(err, "role")
}

// Delete removes a role. Its slots and user-role rows cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "role")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("role")
	}
	return nil
}

func scanRole(row pgx.Row) (*models.Role, error) {
	var ro models.Role
	if err := row.Scan(&ro.ID, &ro.Name, &ro.Description, &ro.Code, &ro.DisplayOrder, &ro.IsActive, &ro.CreatedAt, &ro.UpdatedAt); err != nil {
		return nil, err
	}
	return &ro, nil
}

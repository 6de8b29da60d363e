package proficiency

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/pkg/database"
)

const columns = `id, name, code, rank, is_assignable, is_active, created_at, updated_at`

// Repository handles proficiency_levels persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a proficiency level repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

// Create inserts a proficiency level.
func (r *Repository) Create(ctx context.Context, l *models.ProficiencyLevel) error {
	const q = `INSERT INTO proficiency_levels (name, code, rank, is_assignable, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db(ctx).QueryRow(ctx, q, l.Name, l.Code, l.Rank, l.IsAssignable, l.IsActive).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return apperr.FromDB(err, "proficiency level")
}

// GetByID returns a proficiency level by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProficiencyLevel, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM proficiency_levels WHERE id = $1`, id)
}

// GetForUpdate returns a proficiency level by ID and locks the row.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.ProficiencyLevel, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM proficiency_levels WHERE id = $1 FOR UPDATE`, id)
}

// GetByCode returns the proficiency level with the given code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.ProficiencyLevel, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM proficiency_levels WHERE code = $1`, code)
}

func (r *Repository) getOne(ctx context.Context, q string, arg any) (*models.ProficiencyLevel, error) {
	l, err := scanLevel(r.db(ctx).QueryRow(ctx, q, arg))
	if err != nil {
		return nil, apperr.FromDB(err, "proficiency level")
	}
	return l, nil
}

// List returns all proficiency levels ordered by rank.
func (r *Repository) List(ctx context.Context) ([]models.ProficiencyLevel, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+columns+` FROM proficiency_levels ORDER BY rank, code`)
	if err != nil {
		return nil, apperr.FromDB(err, "proficiency level")
	}
	defer rows.Close()

	list := make([]models.ProficiencyLevel, 0)
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "proficiency level")
		}
		list = append(list, *l)
	}
	return list, apperr.FromDB(rows.Err(), "proficiency level")
}

// Update writes the mutable columns of l.
func (r *Repository) Update(ctx context.Context, l *models.ProficiencyLevel) error {
	const q = `UPDATE proficiency_levels SET name = $1, code = $2, rank = $3, is_assignable = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, l.Name, l.Code, l.Rank, l.IsAssignable, l.IsActive, l.ID).Scan(&l.UpdatedAt)
	return apperr.FromDB(err, "proficiency level")
}

// Delete removes a proficiency level by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM proficiency_levels WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "proficiency level")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("proficiency level")
	}
	return nil
}

func scanLevel(row pgx.Row) (*models.ProficiencyLevel, error) {
	var l models.ProficiencyLevel
	if err := row.Scan(&l.ID, &l.Name, &l.Code, &l.Rank, &l.IsAssignable, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

package userroles

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

const userRoleColumns = `ur.id, ur.user_id, ur.role_id, ur.proficiency_level_id, ur.is_active, ur.created_at, ur.updated_at`

const levelColumns = `pl.id, pl.name, pl.code, pl.rank, pl.is_assignable, pl.is_active, pl.created_at, pl.updated_at`

const aggregateSelect = `SELECT ` + userRoleColumns + `,
		u.id, u.first_name, u.last_name, u.email, u.phone, u.is_active, u.created_at, u.updated_at,
		r.id, r.name, r.description, r.code, r.display_order, r.is_active, r.created_at, r.updated_at,
		` + levelColumns + `
	FROM user_roles ur
	INNER JOIN users u ON u.id = ur.user_id
	INNER JOIN roles r ON r.id = ur.role_id
	LEFT JOIN proficiency_levels pl ON pl.id = ur.proficiency_level_id`

// Repository handles user_roles persistence and the joined user-role loaders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user-role repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

const insertQuery = `INSERT INTO user_roles (user_id, role_id, proficiency_level_id, is_active)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at`

// Create inserts one user-role row.
func (r *Repository) Create(ctx context.Context, ur *models.UserRole) error {
	err := r.db(ctx).QueryRow(ctx, insertQuery, ur.UserID, ur.RoleID, ur.ProficiencyLevelID, ur.IsActive).
		Scan(&ur.ID, &ur.CreatedAt, &ur.UpdatedAt)
	return apperr.FromDB(err, "user role")
}

// CreateMany inserts rows in one batch, filling ids and timestamps in place.
func (r *Repository) CreateMany(ctx context.Context, rows []models.UserRole) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ur := range rows {
		batch.Queue(insertQuery, ur.UserID, ur.RoleID, ur.ProficiencyLevelID, ur.IsActive)
	}
	br := r.db(ctx).SendBatch(ctx, batch)
	for i := range rows {
		if err := br.QueryRow().Scan(&rows[i].ID, &rows[i].CreatedAt, &rows[i].UpdatedAt); err != nil {
			_ = br.Close()
			return apperr.FromDB(err, "user role")
		}
	}
	return apperr.FromDB(br.Close(), "user role")
}

// GetByID returns a user-role row by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserRole, error) {
	const q = `SELECT ` + userRoleColumns + ` FROM user_roles ur WHERE ur.id = $1`
	ur, err := scanUserRole(r.db(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return nil, apperr.FromDB(err, "user role")
	}
	return ur, nil
}

// GetForUpdate returns a user-role row by ID and locks it.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.UserRole, error) {
	const q = `SELECT ` + userRoleColumns + ` FROM user_roles ur WHERE ur.id = $1 FOR UPDATE`
	ur, err := scanUserRole(r.db(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return nil, apperr.FromDB(err, "user role")
	}
	return ur, nil
}

// Update writes the mutable columns of ur.
func (r *Repository) Update(ctx context.Context, ur *models.UserRole) error {
	const q = `UPDATE user_roles SET proficiency_level_id = $1, is_active = $2, updated_at = NOW()
		WHERE id = $3 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, ur.ProficiencyLevelID, ur.IsActive, ur.ID).Scan(&ur.UpdatedAt)
	return apperr.FromDB(err, "user role")
}

// Delete removes a user-role row by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM user_roles WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "user role")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user role")
	}
	return nil
}

// GetAggregate returns one user-role row joined with its user, role and level.
func (r *Repository) GetAggregate(ctx context.Context, id uuid.UUID) (*projection.UserRoleAggregate, error) {
	list, err := r.queryAggregates(ctx, aggregateSelect+` WHERE ur.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperr.NotFound("user role")
	}
	return &list[0], nil
}

// ListForUser returns a user's roles ordered by role display order, then role code.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]projection.UserRoleAggregate, error) {
	return r.queryAggregates(ctx, aggregateSelect+`
	WHERE ur.user_id = $1
	ORDER BY r.display_order, r.code`, userID)
}

// ListForRole returns the users holding a role ordered by last then first name.
func (r *Repository) ListForRole(ctx context.Context, roleID uuid.UUID) ([]projection.UserRoleAggregate, error) {
	return r.queryAggregates(ctx, aggregateSelect+`
	WHERE ur.role_id = $1
	ORDER BY u.last_name, u.first_name, u.id`, roleID)
}

// LevelsForUsers returns every user-role row with its level for the given users, keyed by user id.
func (r *Repository) LevelsForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]projection.UserRoleLevel, error) {
	out := make(map[uuid.UUID][]projection.UserRoleLevel, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	const q = `SELECT ` + userRoleColumns + `, ` + levelColumns + `
		FROM user_roles ur
		LEFT JOIN proficiency_levels pl ON pl.id = ur.proficiency_level_id
		WHERE ur.user_id = ANY($1)`
	rows, err := r.db(ctx).Query(ctx, q, userIDs)
	if err != nil {
		return nil, apperr.FromDB(err, "user role")
	}
	defer rows.Close()

	for rows.Next() {
		var e projection.UserRoleLevel
		var lvl nullLevel
		ur := &e.UserRole
		dest := append([]any{&ur.ID, &ur.UserID, &ur.RoleID, &ur.ProficiencyLevelID, &ur.IsActive, &ur.CreatedAt, &ur.UpdatedAt}, lvl.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, apperr.FromDB(err, "user role")
		}
		e.Level = lvl.level()
		out[ur.UserID] = append(out[ur.UserID], e)
	}
	return out, apperr.FromDB(rows.Err(), "user role")
}

func (r *Repository) queryAggregates(ctx context.Context, q string, args ...any) ([]projection.UserRoleAggregate, error) {
	rows, err := r.db(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "user role")
	}
	defer rows.Close()

	list := make([]projection.UserRoleAggregate, 0)
	for rows.Next() {
		var a projection.UserRoleAggregate
		var lvl nullLevel
		ur, u, ro := &a.UserRole, &a.User, &a.Role
		dest := []any{
			&ur.ID, &ur.UserID, &ur.RoleID, &ur.ProficiencyLevelID, &ur.IsActive, &ur.CreatedAt, &ur.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
			&ro.ID, &ro.Name, &ro.Description, &ro.Code, &ro.DisplayOrder, &ro.IsActive, &ro.CreatedAt, &ro.UpdatedAt,
		}
		if err := rows.Scan(append(dest, lvl.dest()...)...); err != nil {
			return nil, apperr.FromDB(err, "user role")
		}
		a.Level = lvl.level()
		list = append(list, a)
	}
	return list, apperr.FromDB(rows.Err(), "user role")
}

// nullLevel receives the LEFT JOINed proficiency_levels columns.
type nullLevel struct {
	id           *uuid.UUID
	name, code   *string
	rank         *int
	isAssignable *bool
	isActive     *bool
	createdAt    *time.Time
	updatedAt    *time.Time
}

func (n *nullLevel) dest() []any {
	return []any{&n.id, &n.name, &n.code, &n.rank, &n.isAssignable, &n.isActive, &n.createdAt, &n.updatedAt}
}

func (n *nullLevel) level() *models.ProficiencyLevel {
	if n.id == nil {
		return nil
	}
	return &models.ProficiencyLevel{
		ID:           *n.id,
		Name:         *n.name,
		Code:         *n.code,
		Rank:         *n.rank,
		IsAssignable: *n.isAssignable,
		IsActive:     *n.isActive,
		CreatedAt:    *n.createdAt,
		UpdatedAt:    *n.updatedAt,
	}
}

func scanUserRole(row pgx.Row) (*models.UserRole, error) {
	var ur models.UserRole
	if err := row.Scan(&ur.ID, &ur.UserID, &ur.RoleID, &ur.ProficiencyLevelID, &ur.IsActive, &ur.CreatedAt, &ur.UpdatedAt); err != nil {
		return nil, err
	}
	return &ur, nil
}

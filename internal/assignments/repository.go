package assignments

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/projection"
	"github.com/media-rota/backend/pkg/database"
)

const columns = `a.id, a.event_id, a.role_id, a.assigned_user_id, a.is_applicable, a.requirement_level, a.is_active, a.created_at, a.updated_at`

const aggregateSelect = `SELECT ` + columns + `,
		r.id, r.name, r.description, r.code, r.display_order, r.is_active, r.created_at, r.updated_at,
		u.id, u.first_name, u.last_name, u.email, u.phone, u.is_active, u.created_at, u.updated_at
	FROM event_assignments a
	INNER JOIN roles r ON r.id = a.role_id
	LEFT JOIN users u ON u.id = a.assigned_user_id`

const insertQuery = `INSERT INTO event_assignments (event_id, role_id, assigned_user_id, is_applicable, requirement_level, is_active)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at`

// Repository handles event_assignments persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an assignment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

// Create inserts one slot.
func (r *Repository) Create(ctx context.Context, a *models.EventAssignment) error {
	err := r.db(ctx).QueryRow(ctx, insertQuery, a.EventID, a.RoleID, a.AssignedUserID, a.IsApplicable, a.RequirementLevel, a.IsActive).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return apperr.FromDB(err, "assignment")
}

// CreateMany inserts slots in one batch, filling ids and timestamps in place.
func (r *Repository) CreateMany(ctx context.Context, slots []models.EventAssignment) error {
	if len(slots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, a := range slots {
		batch.Queue(insertQuery, a.EventID, a.RoleID, a.AssignedUserID, a.IsApplicable, a.RequirementLevel, a.IsActive)
	}
	br := r.db(ctx).SendBatch(ctx, batch)
	for i := range slots {
		if err := br.QueryRow().Scan(&slots[i].ID, &slots[i].CreatedAt, &slots[i].UpdatedAt); err != nil {
			_ = br.Close()
			return apperr.FromDB(err, "assignment")
		}
	}
	return apperr.FromDB(br.Close(), "assignment")
}

// GetByID returns a slot by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EventAssignment, error) {
	a, err := scanAssignment(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM event_assignments a WHERE a.id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "assignment")
	}
	return a, nil
}

// GetForUpdate returns a slot by ID and locks the row.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.EventAssignment, error) {
	a, err := scanAssignment(r.db(ctx).QueryRow(ctx, `SELECT `+columns+` FROM event_assignments a WHERE a.id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "assignment")
	}
	return a, nil
}

// Update writes the mutable columns of a.
func (r *Repository) Update(ctx context.Context, a *models.EventAssignment) error {
	const q = `UPDATE event_assignments
		SET assigned_user_id = $1, is_applicable = $2, requirement_level = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, a.AssignedUserID, a.IsApplicable, a.RequirementLevel, a.IsActive, a.ID).Scan(&a.UpdatedAt)
	return apperr.FromDB(err, "assignment")
}

// Delete removes a slot by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM event_assignments WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "assignment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("assignment")
	}
	return nil
}

// ListAggregates returns slots with role and assigned user for the given events.
// Assigned users come back without their roles; the Loader fills those in.
func (r *Repository) ListAggregates(ctx context.Context, eventIDs []uuid.UUID) ([]projection.AssignmentAggregate, error) {
	if len(eventIDs) == 0 {
		return []projection.AssignmentAggregate{}, nil
	}
	return r.queryAggregates(ctx, aggregateSelect+` WHERE a.event_id = ANY($1)`, eventIDs)
}

// GetAggregate returns one slot with role and assigned user.
func (r *Repository) GetAggregate(ctx context.Context, id uuid.UUID) (*projection.AssignmentAggregate, error) {
	list, err := r.queryAggregates(ctx, aggregateSelect+` WHERE a.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperr.NotFound("assignment")
	}
	return &list[0], nil
}

func (r *Repository) queryAggregates(ctx context.Context, q string, args ...any) ([]projection.AssignmentAggregate, error) {
	rows, err := r.db(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "assignment")
	}
	defer rows.Close()

	list := make([]projection.AssignmentAggregate, 0)
	for rows.Next() {
		var agg projection.AssignmentAggregate
		var u nullUser
		a, ro := &agg.Assignment, &agg.Role
		dest := []any{
			&a.ID, &a.EventID, &a.RoleID, &a.AssignedUserID, &a.IsApplicable, &a.RequirementLevel, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
			&ro.ID, &ro.Name, &ro.Description, &ro.Code, &ro.DisplayOrder, &ro.IsActive, &ro.CreatedAt, &ro.UpdatedAt,
		}
		if err := rows.Scan(append(dest, u.dest()...)...); err != nil {
			return nil, apperr.FromDB(err, "assignment")
		}
		if user := u.user(); user != nil {
			agg.User = &projection.AssignedUser{User: *user}
		}
		list = append(list, agg)
	}
	return list, apperr.FromDB(rows.Err(), "assignment")
}

func scanAssignment(row pgx.Row) (*models.EventAssignment, error) {
	var a models.EventAssignment
	if err := row.Scan(&a.ID, &a.EventID, &a.RoleID, &a.AssignedUserID, &a.IsApplicable, &a.RequirementLevel, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

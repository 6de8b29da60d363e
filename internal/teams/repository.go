package teams

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/pkg/database"
)

const (
	teamColumns   = `id, name, code, is_active, created_at, updated_at`
	memberColumns = `tu.id, tu.team_id, tu.user_id, tu.is_active, tu.created_at, tu.updated_at`
)

// Member is a team membership with the member's user record.
type Member struct {
	models.TeamUser
	User models.User `json:"user"`
}

// Repository handles teams and team_users persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a team repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.pool)
}

// Create inserts a team.
func (r *Repository) Create(ctx context.Context, t *models.Team) error {
	const q = `INSERT INTO teams (name, code, is_active) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	err := r.db(ctx).QueryRow(ctx, q, t.Name, t.Code, t.IsActive).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return apperr.FromDB(err, "team")
}

// GetByID returns a team by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	t, err := scanTeam(r.db(ctx).QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "team")
	}
	return t, nil
}

// GetForUpdate returns a team by ID and locks the row.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	t, err := scanTeam(r.db(ctx).QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "team")
	}
	return t, nil
}

// List returns all teams ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name, code`)
	if err != nil {
		return nil, apperr.FromDB(err, "team")
	}
	defer rows.Close()

	list := make([]models.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "team")
		}
		list = append(list, *t)
	}
	return list, apperr.FromDB(rows.Err(), "team")
}

// Update writes the mutable columns of t.
func (r *Repository) Update(ctx context.Context, t *models.Team) error {
	const q = `UPDATE teams SET name = $1, code = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, t.Name, t.Code, t.IsActive, t.ID).Scan(&t.UpdatedAt)
	return apperr.FromDB(err, "team")
}

// Delete removes a team. Memberships cascade; events keep running without a team.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "team")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("team")
	}
	return nil
}

// AddMember inserts a team membership.
func (r *Repository) AddMember(ctx context.Context, m *models.TeamUser) error {
	const q = `INSERT INTO team_users (team_id, user_id, is_active) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	err := r.db(ctx).QueryRow(ctx, q, m.TeamID, m.UserID, m.IsActive).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return apperr.FromDB(err, "team user")
}

// GetMember returns a membership by ID.
func (r *Repository) GetMember(ctx context.Context, id uuid.UUID) (*models.TeamUser, error) {
	const q = `SELECT ` + memberColumns + ` FROM team_users tu WHERE tu.id = $1`
	m, err := scanMember(r.db(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return nil, apperr.FromDB(err, "team user")
	}
	return m, nil
}

// GetMemberForUpdate returns a membership by ID and locks the row.
func (r *Repository) GetMemberForUpdate(ctx context.Context, id uuid.UUID) (*models.TeamUser, error) {
	const q = `SELECT ` + memberColumns + ` FROM team_users tu WHERE tu.id = $1 FOR UPDATE`
	m, err := scanMember(r.db(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return nil, apperr.FromDB(err, "team user")
	}
	return m, nil
}

// UpdateMember writes the mutable columns of m.
func (r *Repository) UpdateMember(ctx context.Context, m *models.TeamUser) error {
	const q = `UPDATE team_users SET is_active = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`
	err := r.db(ctx).QueryRow(ctx, q, m.IsActive, m.ID).Scan(&m.UpdatedAt)
	return apperr.FromDB(err, "team user")
}

// DeleteMember removes a membership by ID.
func (r *Repository) DeleteMember(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM team_users WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "team user")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("team user")
	}
	return nil
}

// ListMembers returns a team's memberships with users, ordered by last then first name.
func (r *Repository) ListMembers(ctx context.Context, teamID uuid.UUID) ([]Member, error) {
	const q = `SELECT ` + memberColumns + `,
			u.id, u.first_name, u.last_name, u.email, u.phone, u.is_active, u.created_at, u.updated_at
		FROM team_users tu
		INNER JOIN users u ON u.id = tu.user_id
		WHERE tu.team_id = $1
		ORDER BY u.last_name, u.first_name, u.id`
	rows, err := r.db(ctx).Query(ctx, q, teamID)
	if err != nil {
		return nil, apperr.FromDB(err, "team member")
	}
	defer rows.Close()

	list := make([]Member, 0)
	for rows.Next() {
		var m Member
		tu, u := &m.TeamUser, &m.User
		if err := rows.Scan(&tu.ID, &tu.TeamID, &tu.UserID, &tu.IsActive, &tu.CreatedAt, &tu.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, apperr.FromDB(err, "team member")
		}
		list = append(list, m)
	}
	return list, apperr.FromDB(rows.Err(), "team member")
}

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	if err := row.Scan(&t.ID, &t.Name, &t.Code, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanMember(row pgx.Row) (*models.TeamUser, error) {
	var m models.TeamUser
	if err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

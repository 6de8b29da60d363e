// Package provision creates the rows implied by new entities: one assignment slot per active
// role for a new event, and one user-role row per counterpart for a new user or role.
// It runs only at creation time; later activation changes do not add or remove rows.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
)

// RoleLister lists role ids. activeOnly restricts to roles with is_active = true.
type RoleLister interface {
	ListIDs(ctx context.Context, activeOnly bool) ([]uuid.UUID, error)
}

// UserLister lists every user id, active or not.
type UserLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ProficiencyLookup resolves a proficiency level by code. A missing code is an apperr NotFound.
type ProficiencyLookup interface {
	GetByCode(ctx context.Context, code string) (*models.ProficiencyLevel, error)
}

// SlotWriter inserts event assignment rows, filling in their ids and timestamps.
type SlotWriter interface {
	CreateMany(ctx context.Context, slots []models.EventAssignment) error
}

// UserRoleWriter inserts user-role rows, filling in their ids and timestamps.
type UserRoleWriter interface {
	CreateMany(ctx context.Context, rows []models.UserRole) error
}

// Provisioner performs the creation-time fan-out. Callers run it inside the same
// transaction as the parent insert so a failure leaves no partial rows.
type Provisioner struct {
	roles       RoleLister
	users       UserLister
	levels      ProficiencyLookup
	slots       SlotWriter
	userRoles   UserRoleWriter
	defaultCode string
	logger      *zap.Logger
}

// New creates a Provisioner. defaultCode is the proficiency level code given to provisioned user roles.
func New(roles RoleLister, users UserLister, levels ProficiencyLookup, slots SlotWriter, userRoles UserRoleWriter, defaultCode string, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{
		roles:       roles,
		users:       users,
		levels:      levels,
		slots:       slots,
		userRoles:   userRoles,
		defaultCode: defaultCode,
		logger:      logger,
	}
}

// EventSlots creates one required, unassigned slot per currently active role.
func (p *Provisioner) EventSlots(ctx context.Context, eventID uuid.UUID) ([]models.EventAssignment, error) {
	roleIDs, err := p.roles.ListIDs(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list active roles: %w", err)
	}
	slots := make([]models.EventAssignment, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		slots = append(slots, models.NewSlot(eventID, roleID))
	}
	if len(slots) == 0 {
		return slots, nil
	}
	if err := p.slots.CreateMany(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// RolesForUser creates a user-role row for every role, active or not.
func (p *Provisioner) RolesForUser(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	roleIDs, err := p.roles.ListIDs(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return p.createUserRoles(ctx, len(roleIDs), func(i int) (uuid.UUID, uuid.UUID) {
		return userID, roleIDs[i]
	})
}

// UsersForRole creates a user-role row for every user, active or not.
func (p *Provisioner) UsersForRole(ctx context.Context, roleID uuid.UUID) ([]models.UserRole, error) {
	userIDs, err := p.users.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return p.createUserRoles(ctx, len(userIDs), func(i int) (uuid.UUID, uuid.UUID) {
		return userIDs[i], roleID
	})
}

func (p *Provisioner) createUserRoles(ctx context.Context, n int, pair func(i int) (userID, roleID uuid.UUID)) ([]models.UserRole, error) {
	rows := make([]models.UserRole, 0, n)
	if n == 0 {
		return rows, nil
	}
	levelID, err := p.DefaultLevelID(ctx)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		userID, roleID := pair(i)
		rows = append(rows, models.UserRole{
			UserID:             userID,
			RoleID:             roleID,
			ProficiencyLevelID: levelID,
			IsActive:           true,
		})
	}
	if err := p.userRoles.CreateMany(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DefaultLevelID resolves the default proficiency level. A missing level is not an error:
// it is logged as degraded and nil is returned so rows get a null proficiency.
func (p *Provisioner) DefaultLevelID(ctx context.Context) (*uuid.UUID, error) {
	level, err := p.levels.GetByCode(ctx, p.defaultCode)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			p.logger.Warn("provisioning user roles without proficiency level",
				zap.String("code", p.defaultCode),
				zap.Error(apperr.ErrDegradedDefault),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("lookup default proficiency level: %w", err)
	}
	id := level.ID
	return &id, nil
}

package provision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/media-rota/backend/internal/apperr"
	"github.com/media-rota/backend/internal/models"
)

type roleStub struct {
	active   []uuid.UUID
	inactive []uuid.UUID
	err      error
}

func (s *roleStub) ListIDs(ctx context.Context, activeOnly bool) ([]uuid.UUID, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := append([]uuid.UUID(nil), s.active...)
	if !activeOnly {
		out = append(out, s.inactive...)
	}
	return out, nil
}

type userStub struct {
	ids []uuid.UUID
}

func (s *userStub) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.ids, nil
}

type levelStub struct {
	levels map[string]models.ProficiencyLevel
	err    error
}

func (s *levelStub) GetByCode(ctx context.Context, code string) (*models.ProficiencyLevel, error) {
	if s.err != nil {
		return nil, s.err
	}
	l, ok := s.levels[code]
	if !ok {
		return nil, apperr.NotFound("proficiency level")
	}
	return &l, nil
}

type slotStub struct {
	created []models.EventAssignment
	err     error
}

func (s *slotStub) CreateMany(ctx context.Context, slots []models.EventAssignment) error {
	if s.err != nil {
		return s.err
	}
	for i := range slots {
		slots[i].ID = uuid.New()
		slots[i].CreatedAt = time.Now()
	}
	s.created = append(s.created, slots...)
	return nil
}

type userRoleStub struct {
	created []models.UserRole
	calls   int
}

func (s *userRoleStub) CreateMany(ctx context.Context, rows []models.UserRole) error {
	s.calls++
	for i := range rows {
		rows[i].ID = uuid.New()
	}
	s.created = append(s.created, rows...)
	return nil
}

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

var untrained = models.ProficiencyLevel{ID: uuid.New(), Name: "Untrained", Code: "untrained"}

func newProvisioner(roles *roleStub, users *userStub, levels *levelStub, slots *slotStub, userRoles *userRoleStub, logger *zap.Logger) *Provisioner {
	return New(roles, users, levels, slots, userRoles, "untrained", logger)
}

func TestEventSlots_OnePerActiveRole(t *testing.T) {
	roles := &roleStub{active: ids(3), inactive: ids(2)}
	slots := &slotStub{}
	p := newProvisioner(roles, &userStub{}, &levelStub{}, slots, &userRoleStub{}, nil)
	eventID := uuid.New()

	got, err := p.EventSlots(context.Background(), eventID)
	require.NoError(t, err)

	require.Len(t, got, 3)
	require.Len(t, slots.created, 3)
	seen := map[uuid.UUID]bool{}
	for i, s := range got {
		assert.NotEqual(t, uuid.Nil, s.ID)
		assert.Equal(t, eventID, s.EventID)
		assert.Equal(t, roles.active[i], s.RoleID)
		assert.Nil(t, s.AssignedUserID)
		assert.Equal(t, models.RequirementRequired, s.RequirementLevel)
		assert.True(t, s.IsApplicable)
		assert.True(t, s.IsActive)
		seen[s.RoleID] = true
	}
	for _, inactive := range roles.inactive {
		assert.False(t, seen[inactive], "inactive role must not get a slot")
	}
}

func TestEventSlots_NoActiveRoles(t *testing.T) {
	slots := &slotStub{err: errors.New("must not be called")}
	p := newProvisioner(&roleStub{inactive: ids(2)}, &userStub{}, &levelStub{}, slots, &userRoleStub{}, nil)

	got, err := p.EventSlots(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEventSlots_WriteFailurePropagates(t *testing.T) {
	conflict := apperr.FromDB(errors.New("boom"), "event assignment")
	slots := &slotStub{err: conflict}
	p := newProvisioner(&roleStub{active: ids(2)}, &userStub{}, &levelStub{}, slots, &userRoleStub{}, nil)

	_, err := p.EventSlots(context.Background(), uuid.New())
	assert.ErrorIs(t, err, conflict)
}

func TestRolesForUser_EveryRoleWithDefaultLevel(t *testing.T) {
	roles := &roleStub{active: ids(2), inactive: ids(1)}
	userRoles := &userRoleStub{}
	levels := &levelStub{levels: map[string]models.ProficiencyLevel{"untrained": untrained}}
	p := newProvisioner(roles, &userStub{}, levels, &slotStub{}, userRoles, nil)
	userID := uuid.New()

	got, err := p.RolesForUser(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, 1, userRoles.calls)
	for _, ur := range got {
		assert.Equal(t, userID, ur.UserID)
		require.NotNil(t, ur.ProficiencyLevelID)
		assert.Equal(t, untrained.ID, *ur.ProficiencyLevelID)
		assert.True(t, ur.IsActive)
	}
}

func TestRolesForUser_MissingDefaultLevelDegrades(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	userRoles := &userRoleStub{}
	p := newProvisioner(&roleStub{active: ids(2), inactive: ids(2)}, &userStub{}, &levelStub{}, &slotStub{}, userRoles, zap.New(core))

	got, err := p.RolesForUser(context.Background(), uuid.New())
	require.NoError(t, err)

	require.Len(t, got, 4)
	for _, ur := range got {
		assert.Nil(t, ur.ProficiencyLevelID)
	}
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "untrained", logs.All()[0].ContextMap()["code"])
}

func TestRolesForUser_LookupFailureIsFatal(t *testing.T) {
	levels := &levelStub{err: errors.New("connection reset")}
	userRoles := &userRoleStub{}
	p := newProvisioner(&roleStub{active: ids(1)}, &userStub{}, levels, &slotStub{}, userRoles, nil)

	_, err := p.RolesForUser(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Zero(t, userRoles.calls)
}

func TestUsersForRole_EveryUser(t *testing.T) {
	users := &userStub{ids: ids(4)}
	userRoles := &userRoleStub{}
	levels := &levelStub{levels: map[string]models.ProficiencyLevel{"untrained": untrained}}
	p := newProvisioner(&roleStub{}, users, levels, &slotStub{}, userRoles, nil)
	roleID := uuid.New()

	got, err := p.UsersForRole(context.Background(), roleID)
	require.NoError(t, err)

	require.Len(t, got, 4)
	for i, ur := range got {
		assert.Equal(t, users.ids[i], ur.UserID)
		assert.Equal(t, roleID, ur.RoleID)
	}
}

func TestUsersForRole_NoUsersSkipsLookup(t *testing.T) {
	levels := &levelStub{err: errors.New("must not be called")}
	userRoles := &userRoleStub{}
	p := newProvisioner(&roleStub{}, &userStub{}, levels, &slotStub{}, userRoles, nil)

	got, err := p.UsersForRole(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, userRoles.calls)
}

package userroles

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/patch"
	"github.com/media-rota/backend/internal/projection"
	"github.com/media-rota/backend/pkg/database"
	"github.com/media-rota/backend/pkg/response"
)

// DefaultLevel resolves the proficiency level given to user roles created without one.
type DefaultLevel interface {
	DefaultLevelID(ctx context.Context) (*uuid.UUID, error)
}

// UserLookup checks that a user exists.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RoleLookup checks that a role exists.
type RoleLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
}

// CreateRequest is the body for POST /user-roles.
type CreateRequest struct {
	UserID             uuid.UUID  `json:"user_id" binding:"required"`
	RoleID             uuid.UUID  `json:"role_id" binding:"required"`
	ProficiencyLevelID *uuid.UUID `json:"proficiency_level_id"`
	IsActive           *bool      `json:"is_active"`
}

// PatchRequest is the body for PATCH /user-roles/:id. User and role are fixed.
type PatchRequest struct {
	ProficiencyLevelID patch.Field[uuid.UUID] `json:"proficiency_level_id"`
	IsActive           patch.Field[bool]      `json:"is_active"`
}

// ApplyTo applies the present fields to ur.
func (r PatchRequest) ApplyTo(ur *models.UserRole) error {
	r.ProficiencyLevelID.ApplyNullable(&ur.ProficiencyLevelID)
	return r.IsActive.Apply("is_active", &ur.IsActive)
}

// Handler handles user-role HTTP endpoints.
type Handler struct {
	repo     *Repository
	users    UserLookup
	roles    RoleLookup
	defaults DefaultLevel
	tx       database.Transactor
	logger   *zap.Logger
}

// NewHandler creates a user-role handler.
func NewHandler(repo *Repository, users UserLookup, roles RoleLookup, defaults DefaultLevel, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, users: users, roles: roles, defaults: defaults, tx: tx, logger: logger}
}

// Create handles POST /user-roles. A second row for the same user and role is a conflict.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	ur := &models.UserRole{
		UserID:             req.UserID,
		RoleID:             req.RoleID,
		ProficiencyLevelID: req.ProficiencyLevelID,
		IsActive:           req.IsActive == nil || *req.IsActive,
	}
	if ur.ProficiencyLevelID == nil {
		levelID, err := h.defaults.DefaultLevelID(ctx)
		if err != nil {
			response.Error(c, h.logger, err)
			return
		}
		ur.ProficiencyLevelID = levelID
	}
	if err := h.repo.Create(ctx, ur); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.respondAggregate(c, ur.ID, true)
}

// GetByID handles GET /user-roles/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user role id")
		return
	}
	h.respondAggregate(c, id, false)
}

// ListForUser handles GET /users/:id/roles.
func (h *Handler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.users.GetByID(ctx, userID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.repo.ListForUser(ctx, userID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, projection.UserRoles(list))
}

// ListForRole handles GET /roles/:id/users.
func (h *Handler) ListForRole(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.roles.GetByID(ctx, roleID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.repo.ListForRole(ctx, roleID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, projection.UserRoles(list))
}

// Update handles PATCH /user-roles/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user role id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	err = h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		ur, err := h.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.ApplyTo(ur); err != nil {
			return err
		}
		return h.repo.Update(ctx, ur)
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.respondAggregate(c, id, false)
}

// Delete handles DELETE /user-roles/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user role id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) respondAggregate(c *gin.Context, id uuid.UUID, created bool) {
	agg, err := h.repo.GetAggregate(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if created {
		response.Created(c, projection.UserRole(*agg))
		return
	}
	response.OK(c, projection.UserRole(*agg))
}

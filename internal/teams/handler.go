package teams

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/patch"
	"github.com/media-rota/backend/pkg/database"
	"github.com/media-rota/backend/pkg/response"
)

// CreateRequest is the body for POST /teams.
type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

// PatchRequest is the body for PATCH /teams/:id.
type PatchRequest struct {
	Name     patch.Field[string] `json:"name"`
	Code     patch.Field[string] `json:"code"`
	IsActive patch.Field[bool]   `json:"is_active"`
}

// ApplyTo applies the present fields to t.
func (r PatchRequest) ApplyTo(t *models.Team) error {
	if err := r.Name.Apply("name", &t.Name); err != nil {
		return err
	}
	if err := r.Code.Apply("code", &t.Code); err != nil {
		return err
	}
	if err := r.IsActive.Apply("is_active", &t.IsActive); err != nil {
		return err
	}
	t.Code = strings.ToLower(strings.TrimSpace(t.Code))
	return nil
}

// AddMemberRequest is the body for POST /team-users.
type AddMemberRequest struct {
	TeamID   uuid.UUID `json:"team_id" binding:"required"`
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	IsActive *bool     `json:"is_active"`
}

// MemberPatchRequest is the body for PATCH /team-users/:id. Team and user are fixed.
type MemberPatchRequest struct {
	IsActive patch.Field[bool] `json:"is_active"`
}

// Handler handles team and membership HTTP endpoints.
type Handler struct {
	repo   *Repository
	tx     database.Transactor
	logger *zap.Logger
}

// NewHandler creates a team handler.
func NewHandler(repo *Repository, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, tx: tx, logger: logger}
}

// Create handles POST /teams.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t := &models.Team{
		Name:     strings.TrimSpace(req.Name),
		Code:     strings.ToLower(strings.TrimSpace(req.Code)),
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, t)
}

// GetByID handles GET /teams/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, t)
}

// List handles GET /teams.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /teams/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var updated *models.Team
	err = h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		t, err := h.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.ApplyTo(t); err != nil {
			return err
		}
		if err := h.repo.Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /teams/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

// ListMembers handles GET /teams/:id/users.
func (h *Handler) ListMembers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.repo.GetByID(ctx, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.repo.ListMembers(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// AddMember handles POST /team-users.
func (h *Handler) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m := &models.TeamUser{
		TeamID:   req.TeamID,
		UserID:   req.UserID,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := h.repo.AddMember(c.Request.Context(), m); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, m)
}

// GetMember handles GET /team-users/:id.
func (h *Handler) GetMember(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team user id")
		return
	}
	m, err := h.repo.GetMember(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, m)
}

// UpdateMember handles PATCH /team-users/:id.
func (h *Handler) UpdateMember(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team user id")
		return
	}
	var req MemberPatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var updated *models.TeamUser
	err = h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		m, err := h.repo.GetMemberForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.IsActive.Apply("is_active", &m.IsActive); err != nil {
			return err
		}
		if err := h.repo.UpdateMember(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, updated)
}

// DeleteMember handles DELETE /team-users/:id.
func (h *Handler) DeleteMember(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team user id")
		return
	}
	if err := h.repo.DeleteMember(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

package proficiency

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

// CreateRequest is the body for POST /proficiency-levels.
type CreateRequest struct {
	Name         string `json:"name" binding:"required"`
	Code         string `json:"code" binding:"required"`
	Rank         int    `json:"rank"`
	IsAssignable bool   `json:"is_assignable"`
	IsActive     *bool  `json:"is_active"`
}

// PatchRequest is the body for PATCH /proficiency-levels/:id.
type PatchRequest struct {
	Name         patch.Field[string] `json:"name"`
	Code         patch.Field[string] `json:"code"`
	Rank         patch.Field[int]    `json:"rank"`
	IsAssignable patch.Field[bool]   `json:"is_assignable"`
	IsActive     patch.Field[bool]   `json:"is_active"`
}

// ApplyTo applies the present fields to l.
func (r PatchRequest) ApplyTo(l *models.ProficiencyLevel) error {
	if err := r.Name.Apply("name", &l.Name); err != nil {
		return err
	}
	if err := r.Code.Apply("code", &l.Code); err != nil {
		return err
	}
	if err := r.Rank.Apply("rank", &l.Rank); err != nil {
		return err
	}
	if err := r.IsAssignable.Apply("is_assignable", &l.IsAssignable); err != nil {
		return err
	}
	if err := r.IsActive.Apply("is_active", &l.IsActive); err != nil {
		return err
	}
	l.Code = strings.ToLower(strings.TrimSpace(l.Code))
	return nil
}

// Handler handles proficiency level HTTP endpoints.
type Handler struct {
	repo   *Repository
	tx     database.Transactor
	logger *zap.Logger
}

// NewHandler creates a proficiency level handler.
func NewHandler(repo *Repository, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, tx: tx, logger: logger}
}

// Create handles POST /proficiency-levels.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l := &models.ProficiencyLevel{
		Name:         strings.TrimSpace(req.Name),
		Code:         strings.ToLower(strings.TrimSpace(req.Code)),
		Rank:         req.Rank,
		IsAssignable: req.IsAssignable,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if err := h.repo.Create(c.Request.Context(), l); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, l)
}

// GetByID handles GET /proficiency-levels/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proficiency level id")
		return
	}
	l, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, l)
}

// List handles GET /proficiency-levels.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /proficiency-levels/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proficiency level id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var updated *models.ProficiencyLevel
	err = h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		l, err := h.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.ApplyTo(l); err != nil {
			return err
		}
		if err := h.repo.Update(ctx, l); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /proficiency-levels/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proficiency level id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

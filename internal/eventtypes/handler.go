package eventtypes

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

// CreateRequest is the body for POST /event-types.
type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

// PatchRequest is the body for PATCH /event-types/:id.
type PatchRequest struct {
	Name     patch.Field[string] `json:"name"`
	Code     patch.Field[string] `json:"code"`
	IsActive patch.Field[bool]   `json:"is_active"`
}

// ApplyTo applies the present fields to t.
func (r PatchRequest) ApplyTo(t *models.EventType) error {
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

// Handler handles event type HTTP endpoints.
type Handler struct {
	repo   *Repository
	tx     database.Transactor
	logger *zap.Logger
}

// NewHandler creates an event type handler.
func NewHandler(repo *Repository, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, tx: tx, logger: logger}
}

// Create handles POST /event-types.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t := &models.EventType{
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

// GetByID handles GET /event-types/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event type id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, t)
}

// List handles GET /event-types.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /event-types/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event type id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var updated *models.EventType
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

// Delete handles DELETE /event-types/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event type id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

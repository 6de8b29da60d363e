package availability

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/patch"
	"github.com/media-rota/backend/pkg/database"
	"github.com/media-rota/backend/pkg/response"
)

// UserLookup resolves users so per-user listings can answer 404 for unknown ids.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CreateRequest is the body for POST /unavailable-periods.
type CreateRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`
	Reason   *string   `json:"reason"`
}

// PatchRequest is the body for PATCH /unavailable-periods/:id. The owning user is fixed.
type PatchRequest struct {
	StartsAt patch.Field[time.Time] `json:"starts_at"`
	EndsAt   patch.Field[time.Time] `json:"ends_at"`
	Reason   patch.Field[string]    `json:"reason"`
}

// ApplyTo applies the present fields to p.
func (r PatchRequest) ApplyTo(p *models.UserUnavailablePeriod) error {
	if err := r.StartsAt.Apply("starts_at", &p.StartsAt); err != nil {
		return err
	}
	if err := r.EndsAt.Apply("ends_at", &p.EndsAt); err != nil {
		return err
	}
	r.Reason.ApplyNullable(&p.Reason)
	return nil
}

// Handler handles unavailability HTTP endpoints.
type Handler struct {
	repo   *Repository
	users  UserLookup
	tx     database.Transactor
	logger *zap.Logger
}

// NewHandler creates an availability handler.
func NewHandler(repo *Repository, users UserLookup, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, users: users, tx: tx, logger: logger}
}

// Create handles POST /unavailable-periods.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := &models.UserUnavailablePeriod{
		UserID:   req.UserID,
		StartsAt: req.StartsAt.UTC(),
		EndsAt:   req.EndsAt.UTC(),
		Reason:   req.Reason,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, p)
}

// GetByID handles GET /unavailable-periods/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid unavailable period id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, p)
}

// List handles GET /unavailable-periods. Optional query: user_id, from, to (RFC3339).
func (h *Handler) List(c *gin.Context) {
	var f ListFilter
	if s := c.Query("user_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		f.UserID = &id
	}
	var ok bool
	if f.From, ok = parseTimeQuery(c, "from"); !ok {
		return
	}
	if f.To, ok = parseTimeQuery(c, "to"); !ok {
		return
	}
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// ListByUser handles GET /users/:id/unavailability.
func (h *Handler) ListByUser(c *gin.Context) {
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
	list, err := h.repo.List(ctx, ListFilter{UserID: &userID})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /unavailable-periods/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid unavailable period id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var updated *models.UserUnavailablePeriod
	err = h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		p, err := h.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.ApplyTo(p); err != nil {
			return err
		}
		p.StartsAt, p.EndsAt = p.StartsAt.UTC(), p.EndsAt.UTC()
		if err := h.repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /unavailable-periods/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid unavailable period id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

// parseTimeQuery reads an optional RFC3339 query parameter. It writes a 400 and returns false on bad input.
func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	s := c.Query(key)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		response.BadRequest(c, "invalid "+key+": expected RFC3339")
		return nil, false
	}
	return &t, true
}

package schedules

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/patch"
	"github.com/media-rota/backend/pkg/database"
	"github.com/media-rota/backend/pkg/response"
)

// CreateRequest is the body for POST /schedules.
type CreateRequest struct {
	Month    int     `json:"month"`
	Year     int     `json:"year" binding:"required"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"is_active"`
}

// PatchRequest is the body for PATCH /schedules/:id.
type PatchRequest struct {
	Month    patch.Field[int]    `json:"month"`
	Year     patch.Field[int]    `json:"year"`
	Notes    patch.Field[string] `json:"notes"`
	IsActive patch.Field[bool]   `json:"is_active"`
}

// ApplyTo applies the present fields to s.
func (r PatchRequest) ApplyTo(s *models.Schedule) error {
	if err := r.Month.Apply("month", &s.Month); err != nil {
		return err
	}
	if err := r.Year.Apply("year", &s.Year); err != nil {
		return err
	}
	r.Notes.ApplyNullable(&s.Notes)
	return r.IsActive.Apply("is_active", &s.IsActive)
}

// Handler handles schedule HTTP endpoints.
type Handler struct {
	repo   *Repository
	grid   *GridService
	tx     database.Transactor
	logger *zap.Logger
}

// NewHandler creates a schedule handler.
func NewHandler(repo *Repository, grid *GridService, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, grid: grid, tx: tx, logger: logger}
}

// Create handles POST /schedules.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s := &models.Schedule{
		Month:    req.Month,
		Year:     req.Year,
		Notes:    req.Notes,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, s)
}

// GetByID handles GET /schedules/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid schedule id")
		return
	}
	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, s)
}

// List handles GET /schedules. Optional query: year, month.
func (h *Handler) List(c *gin.Context) {
	var f ListFilter
	for key, dst := range map[string]**int{"year": &f.Year, "month": &f.Month} {
		s := c.Query(key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			response.BadRequest(c, "invalid "+key)
			return
		}
		*dst = &n
	}
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /schedules/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid schedule id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var updated *models.Schedule
	err = h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		s, err := h.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.ApplyTo(s); err != nil {
			return err
		}
		if err := h.repo.Update(ctx, s); err != nil {
			return err
		}
		updated = s
		return nil
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /schedules/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid schedule id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

// Grid handles GET /schedules/:id/grid.
func (h *Handler) Grid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid schedule id")
		return
	}
	view, err := h.grid.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, view)
}

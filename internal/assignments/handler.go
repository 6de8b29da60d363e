package assignments

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

// EventLookup checks that an event exists.
type EventLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// CreateRequest is the body for POST /assignments. It adds a slot the provisioner did not,
// for example for a role activated after the event was created.
type CreateRequest struct {
	EventID          uuid.UUID               `json:"event_id" binding:"required"`
	RoleID           uuid.UUID               `json:"role_id" binding:"required"`
	AssignedUserID   *uuid.UUID              `json:"assigned_user_id"`
	IsApplicable     *bool                   `json:"is_applicable"`
	RequirementLevel models.RequirementLevel `json:"requirement_level"`
	IsActive         *bool                   `json:"is_active"`
}

// PatchRequest is the body for PATCH /assignments/:id. Event and role are fixed.
type PatchRequest struct {
	AssignedUserID   patch.Field[uuid.UUID]               `json:"assigned_user_id"`
	IsApplicable     patch.Field[bool]                    `json:"is_applicable"`
	RequirementLevel patch.Field[models.RequirementLevel] `json:"requirement_level"`
	IsActive         patch.Field[bool]                    `json:"is_active"`
}

// ApplyTo applies the present fields to a. An explicit null assigned_user_id unassigns the slot.
func (r PatchRequest) ApplyTo(a *models.EventAssignment) error {
	r.AssignedUserID.ApplyNullable(&a.AssignedUserID)
	if err := r.IsApplicable.Apply("is_applicable", &a.IsApplicable); err != nil {
		return err
	}
	if err := r.RequirementLevel.Apply("requirement_level", &a.RequirementLevel); err != nil {
		return err
	}
	return r.IsActive.Apply("is_active", &a.IsActive)
}

// Handler handles assignment HTTP endpoints.
type Handler struct {
	repo   *Repository
	loader *Loader
	events EventLookup
	tx     database.Transactor
	logger *zap.Logger
}

// NewHandler creates an assignment handler.
func NewHandler(repo *Repository, loader *Loader, events EventLookup, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, loader: loader, events: events, tx: tx, logger: logger}
}

// Create handles POST /assignments.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	a := models.NewSlot(req.EventID, req.RoleID)
	a.AssignedUserID = req.AssignedUserID
	if req.IsApplicable != nil {
		a.IsApplicable = *req.IsApplicable
	}
	if req.RequirementLevel != "" {
		a.RequirementLevel = req.RequirementLevel
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if err := h.repo.Create(c.Request.Context(), &a); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	view, err := h.view(c.Request.Context(), a.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, view)
}

// GetByID handles GET /assignments/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid assignment id")
		return
	}
	view, err := h.view(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, view)
}

// ListForEvent handles GET /events/:id/assignments.
func (h *Handler) ListForEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.events.GetByID(ctx, eventID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	byEvent, err := h.loader.ForEvents(ctx, []uuid.UUID{eventID})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, projection.Assignments(byEvent[eventID]))
}

// Update handles PATCH /assignments/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid assignment id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()
	err = h.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := h.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.ApplyTo(a); err != nil {
			return err
		}
		return h.repo.Update(ctx, a)
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	view, err := h.view(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, view)
}

// Delete handles DELETE /assignments/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid assignment id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) view(ctx context.Context, id uuid.UUID) (projection.AssignmentView, error) {
	agg, err := h.repo.GetAggregate(ctx, id)
	if err != nil {
		return projection.AssignmentView{}, err
	}
	aggs := []projection.AssignmentAggregate{*agg}
	if err := h.loader.Attach(ctx, aggs); err != nil {
		return projection.AssignmentView{}, err
	}
	return projection.Assignment(aggs[0]), nil
}

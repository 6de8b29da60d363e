package events

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/media-rota/backend/internal/availability"
	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/patch"
	"github.com/media-rota/backend/internal/projection"
	"github.com/media-rota/backend/pkg/database"
	"github.com/media-rota/backend/pkg/response"
)

// SlotProvisioner creates the assignment slots for a new event.
type SlotProvisioner interface {
	EventSlots(ctx context.Context, eventID uuid.UUID) ([]models.EventAssignment, error)
}

// UnavailabilityFinder returns the users unavailable for an event.
type UnavailabilityFinder interface {
	UnavailableUsersForEvent(ctx context.Context, eventID uuid.UUID) ([]availability.UnavailableUser, error)
}

// ScheduleLookup checks that a schedule exists.
type ScheduleLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error)
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	ScheduleID  uuid.UUID  `json:"schedule_id" binding:"required"`
	TeamID      *uuid.UUID `json:"team_id"`
	EventTypeID uuid.UUID  `json:"event_type_id" binding:"required"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      time.Time  `json:"ends_at" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Notes       *string    `json:"notes"`
	IsActive    *bool      `json:"is_active"`
}

// PatchRequest is the body for PATCH /events/:id. The schedule is fixed.
type PatchRequest struct {
	TeamID      patch.Field[uuid.UUID] `json:"team_id"`
	EventTypeID patch.Field[uuid.UUID] `json:"event_type_id"`
	StartsAt    patch.Field[time.Time] `json:"starts_at"`
	EndsAt      patch.Field[time.Time] `json:"ends_at"`
	Title       patch.Field[string]    `json:"title"`
	Notes       patch.Field[string]    `json:"notes"`
	IsActive    patch.Field[bool]      `json:"is_active"`
}

// ApplyTo applies the present fields to e.
func (r PatchRequest) ApplyTo(e *models.Event) error {
	r.TeamID.ApplyNullable(&e.TeamID)
	if err := r.EventTypeID.Apply("event_type_id", &e.EventTypeID); err != nil {
		return err
	}
	if err := r.StartsAt.Apply("starts_at", &e.StartsAt); err != nil {
		return err
	}
	if err := r.EndsAt.Apply("ends_at", &e.EndsAt); err != nil {
		return err
	}
	if err := r.Title.Apply("title", &e.Title); err != nil {
		return err
	}
	r.Notes.ApplyNullable(&e.Notes)
	if err := r.IsActive.Apply("is_active", &e.IsActive); err != nil {
		return err
	}
	e.StartsAt, e.EndsAt = e.StartsAt.UTC(), e.EndsAt.UTC()
	e.Title = strings.TrimSpace(e.Title)
	return nil
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo        *Repository
	loader      *Loader
	schedules   ScheduleLookup
	provisioner SlotProvisioner
	unavailable UnavailabilityFinder
	tx          database.Transactor
	logger      *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(repo *Repository, loader *Loader, schedules ScheduleLookup, provisioner SlotProvisioner, unavailable UnavailabilityFinder, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{
		repo:        repo,
		loader:      loader,
		schedules:   schedules,
		provisioner: provisioner,
		unavailable: unavailable,
		tx:          tx,
		logger:      logger,
	}
}

// Create handles POST /events. One slot per active role is created in the same transaction.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e := &models.Event{
		ScheduleID:  req.ScheduleID,
		TeamID:      req.TeamID,
		EventTypeID: req.EventTypeID,
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		Title:       strings.TrimSpace(req.Title),
		Notes:       req.Notes,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	ctx := c.Request.Context()
	err := h.tx.InTx(ctx, func(ctx context.Context) error {
		if err := h.repo.Create(ctx, e); err != nil {
			return err
		}
		_, err := h.provisioner.EventSlots(ctx, e.ID)
		return err
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	agg, err := h.loader.Get(ctx, e.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, projection.Event(*agg))
}

// GetByID handles GET /events/:id and returns the event with its assignments.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	agg, err := h.loader.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, projection.Event(*agg))
}

// List handles GET /events. Optional query: schedule_id.
func (h *Handler) List(c *gin.Context) {
	var scheduleID *uuid.UUID
	if s := c.Query("schedule_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid schedule_id")
			return
		}
		scheduleID = &id
	}
	list, err := h.repo.List(c.Request.Context(), scheduleID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// ListForSchedule handles GET /schedules/:id/events.
func (h *Handler) ListForSchedule(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid schedule id")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.schedules.GetByID(ctx, scheduleID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	aggs, err := h.loader.ForSchedule(ctx, scheduleID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	views := make([]projection.EventView, 0, len(aggs))
	for _, agg := range aggs {
		views = append(views, projection.Event(agg))
	}
	response.OK(c, views)
}

// UnavailableUsers handles GET /events/:id/unavailable-users.
func (h *Handler) UnavailableUsers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.repo.GetByID(ctx, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.unavailable.UnavailableUsersForEvent(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, projection.UnavailableUsers(list))
}

// Update handles PATCH /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()
	err = h.tx.InTx(ctx, func(ctx context.Context) error {
		e, err := h.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.ApplyTo(e); err != nil {
			return err
		}
		return h.repo.Update(ctx, e)
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	agg, err := h.loader.Get(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, projection.Event(*agg))
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

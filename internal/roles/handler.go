package roles

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/media-rota/backend/internal/models"
	"github.com/media-rota/backend/internal/patch"
	"github.com/media-rota/backend/pkg/database"
	"github.com/media-rota/backend/pkg/response"
)

// Provisioner creates the user-role rows a new role implies.
type Provisioner interface {
	UsersForRole(ctx context.Context, roleID uuid.UUID) ([]models.UserRole, error)
}

// CreateRequest is the body for POST /roles.
type CreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Code        string  `json:"code" binding:"required"`
	Order       int     `json:"order"`
	IsActive    *bool   `json:"is_active"`
}

// PatchRequest is the body for PATCH /roles/:id.
type PatchRequest struct {
	Name        patch.Field[string] `json:"name"`
	Description patch.Field[string] `json:"description"`
	Code        patch.Field[string] `json:"code"`
	Order       patch.Field[int]    `json:"order"`
	IsActive    patch.Field[bool]   `json:"is_active"`
}

// ApplyTo applies the present fields to ro.
func (r PatchRequest) ApplyTo(ro *models.Role) error {
	if err := r.Name.Apply("name", &ro.Name); err != nil {
		return err
	}
	r.Description.ApplyNullable(&ro.Description)
	if err := r.Code.Apply("code", &ro.Code); err != nil {
		return err
	}
	if err := r.Order.Apply("order", &ro.DisplayOrder); err != nil {
		return err
	}
	if err := r.IsActive.Apply("is_active", &ro.IsActive); err != nil {
		return err
	}
	ro.Code = strings.ToLower(strings.TrimSpace(ro.Code))
	return nil
}

// Handler handles role HTTP endpoints.
type Handler struct {
	repo        *Repository
	provisioner Provisioner
	tx          database.Transactor
	logger      *zap.Logger
}

// NewHandler creates a role handler.
func NewHandler(repo *Repository, provisioner Provisioner, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, provisioner: provisioner, tx: tx, logger: logger}
}

// Create handles POST /roles. Every existing user gets a user-role row for the new role
// in the same transaction.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ro := &models.Role{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Code:         strings.ToLower(strings.TrimSpace(req.Code)),
		DisplayOrder: req.Order,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	err := h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		if err := h.repo.Create(ctx, ro); err != nil {
			return err
		}
		_, err := h.provisioner.UsersForRole(ctx, ro.ID)
		return err
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, ro)
}

// GetByID handles GET /roles/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	ro, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, ro)
}

// List handles GET /roles. Optional query: active=true.
func (h *Handler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	list, err := h.repo.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /roles/:id. Changing is_active does not add or remove existing slots.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var updated *models.Role
	err = h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		ro, err := h.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.ApplyTo(ro); err != nil {
			return err
		}
		if err := h.repo.Update(ctx, ro); err != nil {
			return err
		}
		updated = ro
		return nil
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /roles/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

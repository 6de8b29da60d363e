package users

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

// Provisioner creates the user-role rows a new user implies.
type Provisioner interface {
	RolesForUser(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error)
}

// CreateRequest is the body for POST /users.
type CreateRequest struct {
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	IsActive  *bool   `json:"is_active"`
}

// PatchRequest is the body for PATCH /users/:id.
type PatchRequest struct {
	FirstName patch.Field[string] `json:"first_name"`
	LastName  patch.Field[string] `json:"last_name"`
	Email     patch.Field[string] `json:"email"`
	Phone     patch.Field[string] `json:"phone"`
	IsActive  patch.Field[bool]   `json:"is_active"`
}

// ApplyTo applies the present fields to u.
func (r PatchRequest) ApplyTo(u *models.User) error {
	if err := r.FirstName.Apply("first_name", &u.FirstName); err != nil {
		return err
	}
	if err := r.LastName.Apply("last_name", &u.LastName); err != nil {
		return err
	}
	r.Email.ApplyNullable(&u.Email)
	r.Phone.ApplyNullable(&u.Phone)
	if err := r.IsActive.Apply("is_active", &u.IsActive); err != nil {
		return err
	}
	u.Email = normalizeEmail(u.Email)
	return nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}

// Handler handles user HTTP endpoints.
type Handler struct {
	repo        *Repository
	provisioner Provisioner
	tx          database.Transactor
	logger      *zap.Logger
}

// NewHandler creates a user handler.
func NewHandler(repo *Repository, provisioner Provisioner, tx database.Transactor, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, provisioner: provisioner, tx: tx, logger: logger}
}

// Create handles POST /users. The new user gets a user-role row for every role
// in the same transaction.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u := &models.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     normalizeEmail(req.Email),
		Phone:     req.Phone,
		IsActive:  req.IsActive == nil || *req.IsActive,
	}
	err := h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		if err := h.repo.Create(ctx, u); err != nil {
			return err
		}
		_, err := h.provisioner.RolesForUser(ctx, u.ID)
		return err
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, u)
}

// GetByID handles GET /users/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	u, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, u)
}

// List handles GET /users. Optional query: active=true.
func (h *Handler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	list, err := h.repo.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /users/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req PatchRequest
	if err := patch.Decode(c.Request.Body, &req); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var updated *models.User
	err = h.tx.InTx(c.Request.Context(), func(ctx context.Context) error {
		u, err := h.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.ApplyTo(u); err != nil {
			return err
		}
		if err := h.repo.Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /users/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

package assignments

import (
	"time"

	"github.com/google/uuid"

	"github.com/media-rota/backend/internal/models"
)

// nullUser receives the LEFT JOINed users columns of an unassigned slot.
type nullUser struct {
	id                  *uuid.UUID
	firstName, lastName *string
	email, phone        *string
	isActive            *bool
	createdAt           *time.Time
	updatedAt           *time.Time
}

func (n *nullUser) dest() []any {
	return []any{&n.id, &n.firstName, &n.lastName, &n.email, &n.phone, &n.isActive, &n.createdAt, &n.updatedAt}
}

func (n *nullUser) user() *models.User {
	if n.id == nil {
		return nil
	}
	return &models.User{
		ID:        *n.id,
		FirstName: *n.firstName,
		LastName:  *n.lastName,
		Email:     n.email,
		Phone:     n.phone,
		IsActive:  *n.isActive,
		CreatedAt: *n.createdAt,
		UpdatedAt: *n.updatedAt,
	}
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category labels transactions, budgets and recurring transactions.
// System categories have no owner, are visible to every user and cannot be
// modified or deleted through the API.
type Category struct {
	ID          int32      `json:"id"`
	UserID      *uuid.UUID `json:"userId,omitempty"` // nil for system categories
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Color       *string    `json:"color,omitempty"`
	Icon        *string    `json:"icon,omitempty"`
	IsSystem    bool       `json:"isSystem"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CategoryRepository defines the interface for category persistence operations.
// GetByID resolves categories owned by the user as well as system categories.
type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(userID uuid.UUID, id int32) (*Category, error)
	ListForUser(userID uuid.UUID) ([]*Category, error)
	Update(category *Category) (*Category, error)
	Delete(userID uuid.UUID, id int32) error
	NameExists(userID uuid.UUID, name string, excludeID *int32) (bool, error)
}

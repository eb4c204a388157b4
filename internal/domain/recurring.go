package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// ValidFrequency reports whether f is one of the supported frequencies
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringTransaction is a template from which concrete transactions are
// generated. LastGeneratedAt is the generation cursor: occurrences strictly
// after it and up to "now" are due.
type RecurringTransaction struct {
	ID              int32           `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	CategoryID      int32           `json:"categoryId"`
	CategoryName    string          `json:"categoryName,omitempty"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type"`
	Frequency       Frequency       `json:"frequency"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         *time.Time      `json:"endDate,omitempty"`
	LastGeneratedAt *time.Time      `json:"lastGeneratedAt,omitempty"`
	IsActive        bool            `json:"isActive"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// RecurringRepository defines the interface for recurring transaction persistence
type RecurringRepository interface {
	Create(rt *RecurringTransaction) (*RecurringTransaction, error)
	GetByID(userID uuid.UUID, id int32) (*RecurringTransaction, error)
	ListByUser(userID uuid.UUID, activeOnly *bool) ([]*RecurringTransaction, error)
	Update(rt *RecurringTransaction) (*RecurringTransaction, error)
	Delete(userID uuid.UUID, id int32) error
}

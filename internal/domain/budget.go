package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetStatus classifies how much of a budget has been consumed
type BudgetStatus string

const (
	BudgetStatusUnder       BudgetStatus = "under_budget"
	BudgetStatusApproaching BudgetStatus = "approaching"
	BudgetStatusExceeded    BudgetStatus = "exceeded"
)

var (
	budgetApproachingThreshold = decimal.NewFromInt(80)
	budgetExceededThreshold    = decimal.NewFromInt(100)
)

// BudgetStatusFor maps a percentage-used value to a status:
// under 80 is under_budget, 80 to under 100 is approaching, 100 and above is exceeded.
func BudgetStatusFor(percentageUsed decimal.Decimal) BudgetStatus {
	switch {
	case percentageUsed.GreaterThanOrEqual(budgetExceededThreshold):
		return BudgetStatusExceeded
	case percentageUsed.GreaterThanOrEqual(budgetApproachingThreshold):
		return BudgetStatusApproaching
	default:
		return BudgetStatusUnder
	}
}

// Budget is a monthly spending cap for one category.
// At most one budget exists per (user, category, month, year).
type Budget struct {
	ID           int32           `json:"id"`
	UserID       uuid.UUID       `json:"userId"`
	CategoryID   int32           `json:"categoryId"`
	CategoryName string          `json:"categoryName,omitempty"` // populated by joins, read-only
	Amount       decimal.Decimal `json:"amount"`
	Month        int32           `json:"month"`
	Year         int32           `json:"year"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// BudgetWithSpending is a budget enriched with actual spending for its month
type BudgetWithSpending struct {
	*Budget
	SpentAmount     decimal.Decimal `json:"spentAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	PercentageUsed  decimal.Decimal `json:"percentageUsed"`
	Status          BudgetStatus    `json:"status"`
}

// BudgetRepository defines the interface for budget persistence operations
type BudgetRepository interface {
	Create(budget *Budget) (*Budget, error)
	GetByID(userID uuid.UUID, id int32) (*Budget, error)
	ListByMonth(userID uuid.UUID, month, year int32) ([]*Budget, error)
	Update(budget *Budget) (*Budget, error)
	Delete(userID uuid.UUID, id int32) error
	Exists(userID uuid.UUID, categoryID int32, month, year int32, excludeID *int32) (bool, error)
}

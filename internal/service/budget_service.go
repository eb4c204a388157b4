package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/util"
	"github.com/smartexpense/smartexpense-backend/internal/websocket"
)

var oneHundred = decimal.NewFromInt(100)

// BudgetService handles monthly budget business logic
type BudgetService struct {
	budgetRepo      domain.BudgetRepository
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	clock           domain.Clock
	publisher       websocket.EventPublisher
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	budgetRepo domain.BudgetRepository,
	transactionRepo domain.TransactionRepository,
	categoryRepo domain.CategoryRepository,
	clock domain.Clock,
	publisher websocket.EventPublisher,
) *BudgetService {
	return &BudgetService{
		budgetRepo:      budgetRepo,
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		clock:           clock,
		publisher:       publisher,
	}
}

// CreateBudgetInput holds the input for creating a budget
type CreateBudgetInput struct {
	CategoryID int32
	Amount     decimal.Decimal
	Month      int32
	Year       int32
}

// CreateBudget creates a new monthly budget. Only one budget may exist per
// category and month, and budgets cannot be created for months already past.
func (s *BudgetService) CreateBudget(userID uuid.UUID, input CreateBudgetInput) (*domain.Budget, error) {
	if err := validateMonthYear(input.Month, input.Year); err != nil {
		return nil, err
	}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if err := validateCategory(s.categoryRepo, userID, input.CategoryID); err != nil {
		return nil, err
	}

	if util.IsHistoricalMonth(int(input.Year), int(input.Month), s.clock.Now()) {
		return nil, domain.ErrBudgetInPast
	}

	exists, err := s.budgetRepo.Exists(userID, input.CategoryID, input.Month, input.Year, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrBudgetExists
	}

	budget := &domain.Budget{
		UserID:     userID,
		CategoryID: input.CategoryID,
		Amount:     input.Amount,
		Month:      input.Month,
		Year:       input.Year,
	}

	created, err := s.budgetRepo.Create(budget)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.BudgetCreated(created))
	return created, nil
}

// GetBudgets retrieves the user's budgets for a month, each enriched with the
// actual spending recorded against its category
func (s *BudgetService) GetBudgets(userID uuid.UUID, month, year int32) ([]*domain.BudgetWithSpending, error) {
	if err := validateMonthYear(month, year); err != nil {
		return nil, err
	}

	budgets, err := s.budgetRepo.ListByMonth(userID, month, year)
	if err != nil {
		return nil, err
	}

	enriched := make([]*domain.BudgetWithSpending, 0, len(budgets))
	for _, budget := range budgets {
		spent, err := s.spentForBudget(userID, budget)
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, enrichBudget(budget, spent))
	}
	return enriched, nil
}

// GetBudgetByID retrieves a single budget enriched with actual spending
func (s *BudgetService) GetBudgetByID(userID uuid.UUID, id int32) (*domain.BudgetWithSpending, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	spent, err := s.spentForBudget(userID, budget)
	if err != nil {
		return nil, err
	}
	return enrichBudget(budget, spent), nil
}

// UpdateBudgetInput holds the input for updating a budget
type UpdateBudgetInput struct {
	Amount decimal.Decimal
}

// UpdateBudget changes the amount of an existing budget
func (s *BudgetService) UpdateBudget(userID uuid.UUID, id int32, input UpdateBudgetInput) (*domain.Budget, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	existing, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	existing.Amount = input.Amount

	updated, err := s.budgetRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.BudgetUpdated(updated))
	return updated, nil
}

// DeleteBudget deletes a budget
func (s *BudgetService) DeleteBudget(userID uuid.UUID, id int32) error {
	existing, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.budgetRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.BudgetDeleted(existing))
	return nil
}

// GetBudgetSummary aggregates all of the user's budgets for a month
func (s *BudgetService) GetBudgetSummary(userID uuid.UUID, month, year int32) (*domain.BudgetSummary, error) {
	budgets, err := s.GetBudgets(userID, month, year)
	if err != nil {
		return nil, err
	}

	summary := &domain.BudgetSummary{
		Month:          month,
		Year:           year,
		TotalBudget:    decimal.Zero,
		TotalSpent:     decimal.Zero,
		TotalRemaining: decimal.Zero,
		BudgetCount:    len(budgets),
	}
	for _, b := range budgets {
		summary.TotalBudget = summary.TotalBudget.Add(b.Amount)
		summary.TotalSpent = summary.TotalSpent.Add(b.SpentAmount)
		switch b.Status {
		case domain.BudgetStatusExceeded:
			summary.ExceededCount++
		case domain.BudgetStatusApproaching:
			summary.ApproachingCount++
		}
	}
	summary.TotalRemaining = summary.TotalBudget.Sub(summary.TotalSpent)

	return summary, nil
}

// spentForBudget sums the user's expenses in the budget's category over the
// budget's month
func (s *BudgetService) spentForBudget(userID uuid.UUID, budget *domain.Budget) (decimal.Decimal, error) {
	start, end := util.MonthSpan(int(budget.Year), time.Month(budget.Month))
	expense := domain.TransactionTypeExpense
	categoryID := budget.CategoryID

	transactions, err := s.transactionRepo.ListByDateRange(userID, start, end, &expense, &categoryID)
	if err != nil {
		return decimal.Zero, err
	}

	spent := decimal.Zero
	for _, tx := range transactions {
		spent = spent.Add(tx.Amount)
	}
	return spent, nil
}

func enrichBudget(budget *domain.Budget, spent decimal.Decimal) *domain.BudgetWithSpending {
	percentage := decimal.Zero
	if budget.Amount.GreaterThan(decimal.Zero) {
		percentage = spent.Div(budget.Amount).Mul(oneHundred).Round(2)
	}

	return &domain.BudgetWithSpending{
		Budget:          budget,
		SpentAmount:     spent,
		RemainingAmount: budget.Amount.Sub(spent),
		PercentageUsed:  percentage,
		Status:          domain.BudgetStatusFor(percentage),
	}
}

func validateMonthYear(month, year int32) error {
	if month < 1 || month > 12 {
		return domain.ErrInvalidMonth
	}
	if year < domain.MinBudgetYear || year > domain.MaxBudgetYear {
		return domain.ErrInvalidYear
	}
	return nil
}

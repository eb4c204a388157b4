package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/util"
	"github.com/smartexpense/smartexpense-backend/internal/websocket"
)

// TransactionService handles transaction-related business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	clock           domain.Clock
	publisher       websocket.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	transactionRepo domain.TransactionRepository,
	categoryRepo domain.CategoryRepository,
	clock domain.Clock,
	publisher websocket.EventPublisher,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		clock:           clock,
		publisher:       publisher,
	}
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	CategoryID      int32
	Description     string
	Amount          decimal.Decimal
	Type            domain.TransactionType
	TransactionDate *time.Time
	Notes           *string
}

// CreateTransaction creates a new transaction with validation. A nil
// transaction date defaults to today; future dates are rejected.
func (s *TransactionService) CreateTransaction(userID uuid.UUID, input CreateTransactionInput) (*domain.Transaction, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.ErrDescriptionRequired
	}
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if input.Type != domain.TransactionTypeIncome && input.Type != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}

	if input.Notes != nil && len(*input.Notes) > domain.MaxNotesLength {
		return nil, domain.ErrNotesTooLong
	}

	if err := validateCategory(s.categoryRepo, userID, input.CategoryID); err != nil {
		return nil, err
	}

	today := util.DateOnly(s.clock.Now())
	date := today
	if input.TransactionDate != nil {
		date = util.DateOnly(*input.TransactionDate)
		if date.After(today) {
			return nil, domain.ErrFutureTransactionDate
		}
	}

	tx := &domain.Transaction{
		UserID:          userID,
		CategoryID:      input.CategoryID,
		Description:     description,
		Amount:          input.Amount,
		Type:            input.Type,
		TransactionDate: date,
		Notes:           input.Notes,
	}

	created, err := s.transactionRepo.Create(tx)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("transaction_id", created.ID).
		Str("type", string(created.Type)).
		Msg("Transaction created")

	s.publisher.Publish(userID, websocket.TransactionCreated(created))
	return created, nil
}

// GetTransactions retrieves a filtered, paginated page of the user's transactions
func (s *TransactionService) GetTransactions(userID uuid.UUID, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters == nil {
		filters = &domain.TransactionFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = domain.DefaultPageSize
	}
	if filters.PageSize > domain.MaxPageSize {
		filters.PageSize = domain.MaxPageSize
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}

	return s.transactionRepo.GetByUser(userID, filters)
}

// GetTransactionByID retrieves a single transaction
func (s *TransactionService) GetTransactionByID(userID uuid.UUID, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(userID, id)
}

// GetRecentTransactions retrieves the user's newest transactions
func (s *TransactionService) GetRecentTransactions(userID uuid.UUID, limit int32) ([]*domain.Transaction, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	return s.transactionRepo.ListRecent(userID, limit)
}

// UpdateTransactionInput holds the input for updating a transaction
type UpdateTransactionInput struct {
	CategoryID      int32
	Description     string
	Amount          decimal.Decimal
	Type            domain.TransactionType
	TransactionDate time.Time
	Notes           *string
}

// UpdateTransaction updates an existing transaction with validation
func (s *TransactionService) UpdateTransaction(userID uuid.UUID, id int32, input UpdateTransactionInput) (*domain.Transaction, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.ErrDescriptionRequired
	}
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if input.Type != domain.TransactionTypeIncome && input.Type != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}

	if input.Notes != nil && len(*input.Notes) > domain.MaxNotesLength {
		return nil, domain.ErrNotesTooLong
	}

	if err := validateCategory(s.categoryRepo, userID, input.CategoryID); err != nil {
		return nil, err
	}

	date := util.DateOnly(input.TransactionDate)
	if date.After(util.DateOnly(s.clock.Now())) {
		return nil, domain.ErrFutureTransactionDate
	}

	existing, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	existing.CategoryID = input.CategoryID
	existing.Description = description
	existing.Amount = input.Amount
	existing.Type = input.Type
	existing.TransactionDate = date
	existing.Notes = input.Notes

	updated, err := s.transactionRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.TransactionUpdated(updated))
	return updated, nil
}

// DeleteTransaction deletes a transaction
func (s *TransactionService) DeleteTransaction(userID uuid.UUID, id int32) error {
	existing, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.transactionRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.TransactionDeleted(existing))
	return nil
}

// GetSummary aggregates the user's transactions over [start, end] inclusive
func (s *TransactionService) GetSummary(userID uuid.UUID, start, end time.Time) (*domain.TransactionSummary, error) {
	start = util.DateOnly(start)
	end = util.DateOnly(end)
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}

	transactions, err := s.transactionRepo.ListByDateRange(userID, start, end, nil, nil)
	if err != nil {
		return nil, err
	}

	summary := &domain.TransactionSummary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, tx := range transactions {
		switch tx.Type {
		case domain.TransactionTypeIncome:
			summary.TotalIncome = summary.TotalIncome.Add(tx.Amount)
		case domain.TransactionTypeExpense:
			summary.TotalExpense = summary.TotalExpense.Add(tx.Amount)
		}
	}
	summary.NetBalance = summary.TotalIncome.Sub(summary.TotalExpense)
	summary.TransactionCount = len(transactions)

	return summary, nil
}

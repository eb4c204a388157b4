package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction is a single ledger entry. SourceRecurringID links entries that
// were materialized from a recurring transaction; together with the
// transaction date it forms the duplicate-generation guard.
type Transaction struct {
	ID                int32           `json:"id"`
	UserID            uuid.UUID       `json:"userId"`
	CategoryID        int32           `json:"categoryId"`
	CategoryName      string          `json:"categoryName,omitempty"` // populated by joins, read-only
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Type              TransactionType `json:"type"`
	TransactionDate   time.Time       `json:"transactionDate"`
	Notes             *string         `json:"notes,omitempty"`
	SourceRecurringID *int32          `json:"sourceRecurringId,omitempty"`
	ReceiptPath       *string         `json:"receiptPath,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type TransactionFilters struct {
	CategoryID *int32
	Type       *TransactionType
	StartDate  *time.Time
	EndDate    *time.Time
	Search     *string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	SortBy     string
	SortDesc   bool
	Page       int32
	PageSize   int32
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

// TransactionSummary aggregates a user's transactions over a window
type TransactionSummary struct {
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpense     decimal.Decimal `json:"totalExpense"`
	NetBalance       decimal.Decimal `json:"netBalance"`
	TransactionCount int             `json:"transactionCount"`
}

// TransactionRepository defines the interface for transaction persistence.
// ListByDateRange returns every matching row unpaginated; it backs the
// analytics rollups, which aggregate in memory.
type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	GetByID(userID uuid.UUID, id int32) (*Transaction, error)
	GetByUser(userID uuid.UUID, filters *TransactionFilters) (*PaginatedTransactions, error)
	ListByDateRange(userID uuid.UUID, start, end time.Time, txType *TransactionType, categoryID *int32) ([]*Transaction, error)
	ListRecent(userID uuid.UUID, limit int32) ([]*Transaction, error)
	Update(transaction *Transaction) (*Transaction, error)
	Delete(userID uuid.UUID, id int32) error
	ExistsForRecurring(userID uuid.UUID, recurringID int32, date time.Time) (bool, error)
}

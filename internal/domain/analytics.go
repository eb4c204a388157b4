package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialOverview summarizes a user's finances over a date range
type FinancialOverview struct {
	StartDate               time.Time          `json:"startDate"`
	EndDate                 time.Time          `json:"endDate"`
	TotalIncome             decimal.Decimal    `json:"totalIncome"`
	TotalExpense            decimal.Decimal    `json:"totalExpense"`
	NetBalance              decimal.Decimal    `json:"netBalance"`
	SavingsRate             decimal.Decimal    `json:"savingsRate"`
	AverageDailyIncome      decimal.Decimal    `json:"averageDailyIncome"`
	AverageDailyExpense     decimal.Decimal    `json:"averageDailyExpense"`
	IncomeTransactionCount  int                `json:"incomeTransactionCount"`
	ExpenseTransactionCount int                `json:"expenseTransactionCount"`
	TopExpenseCategories    []*CategorySummary `json:"topExpenseCategories"`
	TopIncomeCategories     []*CategorySummary `json:"topIncomeCategories"`
	DailyTrend              []*TrendPoint      `json:"dailyTrend"`
}

// TrendPoint is one bucket in a time-bucketed trend series
type TrendPoint struct {
	Date             time.Time       `json:"date"`
	Period           string          `json:"period"`
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpense     decimal.Decimal `json:"totalExpense"`
	NetBalance       decimal.Decimal `json:"netBalance"`
	TransactionCount int             `json:"transactionCount"`
}

// CategorySummary is a per-category aggregate over a date range
type CategorySummary struct {
	CategoryID         int32           `json:"categoryId"`
	CategoryName       string          `json:"categoryName"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	TransactionCount   int             `json:"transactionCount"`
	Percentage         decimal.Decimal `json:"percentage"`
	AverageTransaction decimal.Decimal `json:"averageTransaction"`
}

// MonthlyComparisonEntry is one month in a month-over-month comparison,
// with percent changes relative to the preceding month in the series
type MonthlyComparisonEntry struct {
	Month         int32           `json:"month"`
	Year          int32           `json:"year"`
	Label         string          `json:"label"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpense  decimal.Decimal `json:"totalExpense"`
	NetBalance    decimal.Decimal `json:"netBalance"`
	IncomeChange  decimal.Decimal `json:"incomeChange"`
	ExpenseChange decimal.Decimal `json:"expenseChange"`
}

// BudgetPerformanceEntry scores one budget against actual spending.
// IsOnTrack is only populated when the queried month is the current month;
// pacing against the wall clock is meaningless for past or future months.
type BudgetPerformanceEntry struct {
	BudgetID       int32           `json:"budgetId"`
	CategoryID     int32           `json:"categoryId"`
	CategoryName   string          `json:"categoryName"`
	BudgetAmount   decimal.Decimal `json:"budgetAmount"`
	ActualSpent    decimal.Decimal `json:"actualSpent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed decimal.Decimal `json:"percentageUsed"`
	Status         BudgetStatus    `json:"status"`
	IsOnTrack      *bool           `json:"isOnTrack,omitempty"`
}

// BudgetSummary aggregates all budgets for one month
type BudgetSummary struct {
	Month            int32           `json:"month"`
	Year             int32           `json:"year"`
	TotalBudget      decimal.Decimal `json:"totalBudget"`
	TotalSpent       decimal.Decimal `json:"totalSpent"`
	TotalRemaining   decimal.Decimal `json:"totalRemaining"`
	BudgetCount      int             `json:"budgetCount"`
	ExceededCount    int             `json:"exceededCount"`
	ApproachingCount int             `json:"approachingCount"`
}

// GeneratedTransaction reports one transaction materialized from a recurring rule
type GeneratedTransaction struct {
	RecurringID     int32           `json:"recurringId"`
	TransactionID   int32           `json:"transactionId"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type"`
	TransactionDate time.Time       `json:"transactionDate"`
}

// GenerationResult is the outcome of a generation run
type GenerationResult struct {
	TransactionsGenerated int                     `json:"transactionsGenerated"`
	Generated             []*GeneratedTransaction `json:"generated"`
}

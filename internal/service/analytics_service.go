package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/util"
)

// Trend granularities accepted by GetTrend
const (
	GranularityDaily   = "daily"
	GranularityWeekly  = "weekly"
	GranularityMonthly = "monthly"
)

// DefaultTopCategoriesCount is how many categories GetTopCategories returns
// when no count is given
const DefaultTopCategoriesCount = 5

// DefaultComparisonMonths is how many months GetMonthlyComparison covers when
// no count is given
const DefaultComparisonMonths = 6

// AnalyticsService computes rollups over the user's transactions and budgets.
// Everything aggregates in memory from unpaginated date-range queries.
type AnalyticsService struct {
	transactionRepo domain.TransactionRepository
	budgetRepo      domain.BudgetRepository
	clock           domain.Clock
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	transactionRepo domain.TransactionRepository,
	budgetRepo domain.BudgetRepository,
	clock domain.Clock,
) *AnalyticsService {
	return &AnalyticsService{
		transactionRepo: transactionRepo,
		budgetRepo:      budgetRepo,
		clock:           clock,
	}
}

// GetOverview computes the full financial overview for [start, end]
func (s *AnalyticsService) GetOverview(userID uuid.UUID, start, end time.Time) (*domain.FinancialOverview, error) {
	start = util.DateOnly(start)
	end = util.DateOnly(end)
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}

	transactions, err := s.transactionRepo.ListByDateRange(userID, start, end, nil, nil)
	if err != nil {
		return nil, err
	}

	overview := &domain.FinancialOverview{
		StartDate:    start,
		EndDate:      end,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, tx := range transactions {
		switch tx.Type {
		case domain.TransactionTypeIncome:
			overview.TotalIncome = overview.TotalIncome.Add(tx.Amount)
			overview.IncomeTransactionCount++
		case domain.TransactionTypeExpense:
			overview.TotalExpense = overview.TotalExpense.Add(tx.Amount)
			overview.ExpenseTransactionCount++
		}
	}
	overview.NetBalance = overview.TotalIncome.Sub(overview.TotalExpense)
	overview.SavingsRate = savingsRate(overview.TotalIncome, overview.TotalExpense)

	days := decimal.NewFromInt(int64(util.DaysBetweenInclusive(start, end)))
	overview.AverageDailyIncome = overview.TotalIncome.Div(days).Round(2)
	overview.AverageDailyExpense = overview.TotalExpense.Div(days).Round(2)

	overview.TopExpenseCategories = topOf(categorySummaries(transactions, domain.TransactionTypeExpense), DefaultTopCategoriesCount)
	overview.TopIncomeCategories = topOf(categorySummaries(transactions, domain.TransactionTypeIncome), DefaultTopCategoriesCount)
	overview.DailyTrend = bucketTrend(transactions, start, end, GranularityDaily)

	return overview, nil
}

// GetTrend returns a time-bucketed income/expense series over [start, end].
// Buckets with no transactions are present with zero totals.
func (s *AnalyticsService) GetTrend(userID uuid.UUID, start, end time.Time, granularity string) ([]*domain.TrendPoint, error) {
	start = util.DateOnly(start)
	end = util.DateOnly(end)
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}

	// Anything other than daily or weekly buckets monthly
	switch granularity {
	case GranularityDaily, GranularityWeekly:
	default:
		granularity = GranularityMonthly
	}

	transactions, err := s.transactionRepo.ListByDateRange(userID, start, end, nil, nil)
	if err != nil {
		return nil, err
	}

	return bucketTrend(transactions, start, end, granularity), nil
}

// GetCategoryBreakdown aggregates transactions of one type per category over
// [start, end], largest first, with each category's share of the total
func (s *AnalyticsService) GetCategoryBreakdown(userID uuid.UUID, start, end time.Time, txType domain.TransactionType) ([]*domain.CategorySummary, error) {
	start = util.DateOnly(start)
	end = util.DateOnly(end)
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}
	if txType != domain.TransactionTypeIncome && txType != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}

	transactions, err := s.transactionRepo.ListByDateRange(userID, start, end, &txType, nil)
	if err != nil {
		return nil, err
	}

	return categorySummaries(transactions, txType), nil
}

// GetTopCategories returns the highest-total categories of one type over
// [start, end]. A count below 1 falls back to the default.
func (s *AnalyticsService) GetTopCategories(userID uuid.UUID, start, end time.Time, txType domain.TransactionType, count int) ([]*domain.CategorySummary, error) {
	if count < 1 {
		count = DefaultTopCategoriesCount
	}

	summaries, err := s.GetCategoryBreakdown(userID, start, end, txType)
	if err != nil {
		return nil, err
	}
	return topOf(summaries, count), nil
}

// GetMonthlyComparison returns per-month totals for the last n months ending
// with the current month, oldest first, with month-over-month percent changes
func (s *AnalyticsService) GetMonthlyComparison(userID uuid.UUID, months int) ([]*domain.MonthlyComparisonEntry, error) {
	if months < 1 {
		months = DefaultComparisonMonths
	}

	now := s.clock.Now()
	entries := make([]*domain.MonthlyComparisonEntry, 0, months)

	year, month := now.Year(), int(now.Month())
	for i := 0; i < months-1; i++ {
		year, month = util.PreviousMonth(year, month)
	}

	for i := 0; i < months; i++ {
		start, end := util.MonthSpan(year, time.Month(month))
		transactions, err := s.transactionRepo.ListByDateRange(userID, start, end, nil, nil)
		if err != nil {
			return nil, err
		}

		entry := &domain.MonthlyComparisonEntry{
			Month:        int32(month),
			Year:         int32(year),
			Label:        start.Format("Jan 2006"),
			TotalIncome:  decimal.Zero,
			TotalExpense: decimal.Zero,
		}
		for _, tx := range transactions {
			switch tx.Type {
			case domain.TransactionTypeIncome:
				entry.TotalIncome = entry.TotalIncome.Add(tx.Amount)
			case domain.TransactionTypeExpense:
				entry.TotalExpense = entry.TotalExpense.Add(tx.Amount)
			}
		}
		entry.NetBalance = entry.TotalIncome.Sub(entry.TotalExpense)

		if i > 0 {
			prev := entries[i-1]
			entry.IncomeChange = percentChange(prev.TotalIncome, entry.TotalIncome)
			entry.ExpenseChange = percentChange(prev.TotalExpense, entry.TotalExpense)
		} else {
			entry.IncomeChange = decimal.Zero
			entry.ExpenseChange = decimal.Zero
		}

		entries = append(entries, entry)
		if month == 12 {
			year, month = year+1, 1
		} else {
			month++
		}
	}

	return entries, nil
}

// GetBudgetPerformance scores every budget of the given month against actual
// spending, most-consumed first. Pacing (IsOnTrack) is only computed when the
// queried month is the current month.
func (s *AnalyticsService) GetBudgetPerformance(userID uuid.UUID, month, year int32) ([]*domain.BudgetPerformanceEntry, error) {
	if err := validateMonthYear(month, year); err != nil {
		return nil, err
	}

	budgets, err := s.budgetRepo.ListByMonth(userID, month, year)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	currentMonth := util.IsCurrentMonth(int(year), int(month), now)

	var expectedPct decimal.Decimal
	if currentMonth {
		daysInMonth := util.DaysInMonth(int(year), time.Month(month))
		expectedPct = decimal.NewFromInt(int64(now.Day())).
			Div(decimal.NewFromInt(int64(daysInMonth))).
			Mul(oneHundred)
	}

	start, end := util.MonthSpan(int(year), time.Month(month))
	expense := domain.TransactionTypeExpense

	entries := make([]*domain.BudgetPerformanceEntry, 0, len(budgets))
	for _, budget := range budgets {
		categoryID := budget.CategoryID
		transactions, err := s.transactionRepo.ListByDateRange(userID, start, end, &expense, &categoryID)
		if err != nil {
			return nil, err
		}

		spent := decimal.Zero
		for _, tx := range transactions {
			spent = spent.Add(tx.Amount)
		}

		percentage := decimal.Zero
		if budget.Amount.GreaterThan(decimal.Zero) {
			percentage = spent.Div(budget.Amount).Mul(oneHundred).Round(2)
		}

		entry := &domain.BudgetPerformanceEntry{
			BudgetID:       budget.ID,
			CategoryID:     budget.CategoryID,
			CategoryName:   budget.CategoryName,
			BudgetAmount:   budget.Amount,
			ActualSpent:    spent,
			Remaining:      budget.Amount.Sub(spent),
			PercentageUsed: percentage,
			Status:         domain.BudgetStatusFor(percentage),
		}
		if currentMonth {
			onTrack := percentage.LessThanOrEqual(expectedPct)
			entry.IsOnTrack = &onTrack
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PercentageUsed.GreaterThan(entries[j].PercentageUsed)
	})

	return entries, nil
}

// savingsRate is the net share of income kept, as a percentage. Without
// income there is nothing to save, so the rate is zero.
func savingsRate(income, expense decimal.Decimal) decimal.Decimal {
	if income.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return income.Sub(expense).Div(income).Mul(oneHundred).Round(2)
}

// percentChange is the relative change from previous to current, as a
// percentage. A zero baseline yields zero rather than a division error.
func percentChange(previous, current decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(oneHundred).Round(2)
}

// categorySummaries aggregates transactions of one type per category,
// largest total first, with each category's share of the grand total
func categorySummaries(transactions []*domain.Transaction, txType domain.TransactionType) []*domain.CategorySummary {
	byCategory := make(map[int32]*domain.CategorySummary)
	total := decimal.Zero

	for _, tx := range transactions {
		if tx.Type != txType {
			continue
		}
		summary, ok := byCategory[tx.CategoryID]
		if !ok {
			summary = &domain.CategorySummary{
				CategoryID:   tx.CategoryID,
				CategoryName: tx.CategoryName,
				TotalAmount:  decimal.Zero,
			}
			byCategory[tx.CategoryID] = summary
		}
		summary.TotalAmount = summary.TotalAmount.Add(tx.Amount)
		summary.TransactionCount++
		total = total.Add(tx.Amount)
	}

	summaries := make([]*domain.CategorySummary, 0, len(byCategory))
	for _, summary := range byCategory {
		if total.GreaterThan(decimal.Zero) {
			summary.Percentage = summary.TotalAmount.Div(total).Mul(oneHundred).Round(2)
		}
		summary.AverageTransaction = summary.TotalAmount.
			Div(decimal.NewFromInt(int64(summary.TransactionCount))).Round(2)
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].TotalAmount.GreaterThan(summaries[j].TotalAmount)
	})

	return summaries
}

func topOf(summaries []*domain.CategorySummary, count int) []*domain.CategorySummary {
	if len(summaries) > count {
		return summaries[:count]
	}
	return summaries
}

// bucketTrend folds transactions into fixed time buckets covering [start, end].
// Every bucket appears in the result even when empty.
func bucketTrend(transactions []*domain.Transaction, start, end time.Time, granularity string) []*domain.TrendPoint {
	var points []*domain.TrendPoint

	switch granularity {
	case GranularityWeekly:
		week := 1
		for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 7) {
			points = append(points, &domain.TrendPoint{
				Date:         cursor,
				Period:       fmt.Sprintf("Week %d", week),
				TotalIncome:  decimal.Zero,
				TotalExpense: decimal.Zero,
			})
			week++
		}
	case GranularityMonthly:
		for cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
			date := cursor
			if date.Before(start) {
				date = start
			}
			points = append(points, &domain.TrendPoint{
				Date:         date,
				Period:       cursor.Format("Jan 2006"),
				TotalIncome:  decimal.Zero,
				TotalExpense: decimal.Zero,
			})
		}
	default:
		for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
			points = append(points, &domain.TrendPoint{
				Date:         cursor,
				Period:       cursor.Format("2006-01-02"),
				TotalIncome:  decimal.Zero,
				TotalExpense: decimal.Zero,
			})
		}
	}

	for _, tx := range transactions {
		point := bucketFor(points, tx.TransactionDate)
		if point == nil {
			continue
		}
		switch tx.Type {
		case domain.TransactionTypeIncome:
			point.TotalIncome = point.TotalIncome.Add(tx.Amount)
		case domain.TransactionTypeExpense:
			point.TotalExpense = point.TotalExpense.Add(tx.Amount)
		}
		point.TransactionCount++
	}

	for _, point := range points {
		point.NetBalance = point.TotalIncome.Sub(point.TotalExpense)
	}

	return points
}

// bucketFor locates the bucket a transaction date falls into: the last bucket
// whose start is not after the date
func bucketFor(points []*domain.TrendPoint, date time.Time) *domain.TrendPoint {
	date = util.DateOnly(date)
	for i := len(points) - 1; i >= 0; i-- {
		if !points[i].Date.After(date) {
			return points[i]
		}
	}
	return nil
}

package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/middleware"
	"github.com/smartexpense/smartexpense-backend/internal/service"
)

// AnalyticsHandler handles analytics and reporting HTTP requests
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// CategorySummaryResponse is a per-category aggregate in API responses
type CategorySummaryResponse struct {
	CategoryID         int32  `json:"categoryId"`
	CategoryName       string `json:"categoryName"`
	TotalAmount        string `json:"totalAmount"`
	TransactionCount   int    `json:"transactionCount"`
	Percentage         string `json:"percentage"`
	AverageTransaction string `json:"averageTransaction"`
}

// TrendPointResponse is one bucket in a trend series
type TrendPointResponse struct {
	Date             string `json:"date"`
	Period           string `json:"period"`
	TotalIncome      string `json:"totalIncome"`
	TotalExpense     string `json:"totalExpense"`
	NetBalance       string `json:"netBalance"`
	TransactionCount int    `json:"transactionCount"`
}

// OverviewResponse summarizes a user's finances over a date range
type OverviewResponse struct {
	StartDate               string                    `json:"startDate"`
	EndDate                 string                    `json:"endDate"`
	TotalIncome             string                    `json:"totalIncome"`
	TotalExpense            string                    `json:"totalExpense"`
	NetBalance              string                    `json:"netBalance"`
	SavingsRate             string                    `json:"savingsRate"`
	AverageDailyIncome      string                    `json:"averageDailyIncome"`
	AverageDailyExpense     string                    `json:"averageDailyExpense"`
	IncomeTransactionCount  int                       `json:"incomeTransactionCount"`
	ExpenseTransactionCount int                       `json:"expenseTransactionCount"`
	TopExpenseCategories    []CategorySummaryResponse `json:"topExpenseCategories"`
	TopIncomeCategories     []CategorySummaryResponse `json:"topIncomeCategories"`
	DailyTrend              []TrendPointResponse      `json:"dailyTrend"`
}

// MonthlyComparisonResponse is one month in a month-over-month comparison
type MonthlyComparisonResponse struct {
	Month         int32  `json:"month"`
	Year          int32  `json:"year"`
	Label         string `json:"label"`
	TotalIncome   string `json:"totalIncome"`
	TotalExpense  string `json:"totalExpense"`
	NetBalance    string `json:"netBalance"`
	IncomeChange  string `json:"incomeChange"`
	ExpenseChange string `json:"expenseChange"`
}

// BudgetPerformanceResponse scores one budget against actual spending
type BudgetPerformanceResponse struct {
	BudgetID       int32  `json:"budgetId"`
	CategoryID     int32  `json:"categoryId"`
	CategoryName   string `json:"categoryName"`
	BudgetAmount   string `json:"budgetAmount"`
	ActualSpent    string `json:"actualSpent"`
	Remaining      string `json:"remaining"`
	PercentageUsed string `json:"percentageUsed"`
	Status         string `json:"status"`
	IsOnTrack      *bool  `json:"isOnTrack,omitempty"`
}

// GetOverview handles GET /api/v1/analytics/overview?startDate=&endDate=
func (h *AnalyticsHandler) GetOverview(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	overview, err := h.analyticsService.GetOverview(userID, start, end)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return NewValidationError(c, "endDate must not be before startDate", nil)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get overview")
		return NewInternalError(c, "Failed to get overview")
	}

	return c.JSON(http.StatusOK, OverviewResponse{
		StartDate:               overview.StartDate.Format("2006-01-02"),
		EndDate:                 overview.EndDate.Format("2006-01-02"),
		TotalIncome:             overview.TotalIncome.StringFixed(2),
		TotalExpense:            overview.TotalExpense.StringFixed(2),
		NetBalance:              overview.NetBalance.StringFixed(2),
		SavingsRate:             overview.SavingsRate.StringFixed(2),
		AverageDailyIncome:      overview.AverageDailyIncome.StringFixed(2),
		AverageDailyExpense:     overview.AverageDailyExpense.StringFixed(2),
		IncomeTransactionCount:  overview.IncomeTransactionCount,
		ExpenseTransactionCount: overview.ExpenseTransactionCount,
		TopExpenseCategories:    toCategorySummaryResponses(overview.TopExpenseCategories),
		TopIncomeCategories:     toCategorySummaryResponses(overview.TopIncomeCategories),
		DailyTrend:              toTrendPointResponses(overview.DailyTrend),
	})
}

// GetTrend handles GET /api/v1/analytics/trend?startDate=&endDate=&granularity=
func (h *AnalyticsHandler) GetTrend(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	trend, err := h.analyticsService.GetTrend(userID, start, end, c.QueryParam("granularity"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return NewValidationError(c, "endDate must not be before startDate", nil)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get trend")
		return NewInternalError(c, "Failed to get trend")
	}

	return c.JSON(http.StatusOK, toTrendPointResponses(trend))
}

// GetCategoryBreakdown handles GET /api/v1/analytics/categories?startDate=&endDate=&type=
func (h *AnalyticsHandler) GetCategoryBreakdown(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	txType := domain.TransactionType(c.QueryParam("type"))
	if txType == "" {
		txType = domain.TransactionTypeExpense
	}

	breakdown, err := h.analyticsService.GetCategoryBreakdown(userID, start, end, txType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return NewValidationError(c, "endDate must not be before startDate", nil)
		}
		if errors.Is(err, domain.ErrInvalidTransactionType) {
			return NewValidationError(c, "Invalid type (must be 'income' or 'expense')", nil)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get category breakdown")
		return NewInternalError(c, "Failed to get category breakdown")
	}

	return c.JSON(http.StatusOK, toCategorySummaryResponses(breakdown))
}

// GetTopCategories handles GET /api/v1/analytics/top-categories?startDate=&endDate=&type=&count=
func (h *AnalyticsHandler) GetTopCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	txType := domain.TransactionType(c.QueryParam("type"))
	if txType == "" {
		txType = domain.TransactionTypeExpense
	}

	var count int32
	if countStr := c.QueryParam("count"); countStr != "" {
		if _, err := parseIntParam(countStr, &count); err != nil {
			return NewValidationError(c, "Invalid count", nil)
		}
	}

	top, err := h.analyticsService.GetTopCategories(userID, start, end, txType, int(count))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return NewValidationError(c, "endDate must not be before startDate", nil)
		}
		if errors.Is(err, domain.ErrInvalidTransactionType) {
			return NewValidationError(c, "Invalid type (must be 'income' or 'expense')", nil)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get top categories")
		return NewInternalError(c, "Failed to get top categories")
	}

	return c.JSON(http.StatusOK, toCategorySummaryResponses(top))
}

// GetMonthlyComparison handles GET /api/v1/analytics/monthly-comparison?months=
func (h *AnalyticsHandler) GetMonthlyComparison(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var months int32
	if monthsStr := c.QueryParam("months"); monthsStr != "" {
		if _, err := parseIntParam(monthsStr, &months); err != nil {
			return NewValidationError(c, "Invalid months", nil)
		}
	}

	comparison, err := h.analyticsService.GetMonthlyComparison(userID, int(months))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get monthly comparison")
		return NewInternalError(c, "Failed to get monthly comparison")
	}

	response := make([]MonthlyComparisonResponse, len(comparison))
	for i, entry := range comparison {
		response[i] = MonthlyComparisonResponse{
			Month:         entry.Month,
			Year:          entry.Year,
			Label:         entry.Label,
			TotalIncome:   entry.TotalIncome.StringFixed(2),
			TotalExpense:  entry.TotalExpense.StringFixed(2),
			NetBalance:    entry.NetBalance.StringFixed(2),
			IncomeChange:  entry.IncomeChange.StringFixed(2),
			ExpenseChange: entry.ExpenseChange.StringFixed(2),
		}
	}
	return c.JSON(http.StatusOK, response)
}

// GetBudgetPerformance handles GET /api/v1/analytics/budget-performance?month=&year=
func (h *AnalyticsHandler) GetBudgetPerformance(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	month, year, err := parseMonthYear(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	performance, err := h.analyticsService.GetBudgetPerformance(userID, month, year)
	if err != nil {
		if mapped := mapBudgetError(c, err); mapped != nil {
			return mapped
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get budget performance")
		return NewInternalError(c, "Failed to get budget performance")
	}

	response := make([]BudgetPerformanceResponse, len(performance))
	for i, entry := range performance {
		response[i] = BudgetPerformanceResponse{
			BudgetID:       entry.BudgetID,
			CategoryID:     entry.CategoryID,
			CategoryName:   entry.CategoryName,
			BudgetAmount:   entry.BudgetAmount.StringFixed(2),
			ActualSpent:    entry.ActualSpent.StringFixed(2),
			Remaining:      entry.Remaining.StringFixed(2),
			PercentageUsed: entry.PercentageUsed.StringFixed(2),
			Status:         string(entry.Status),
			IsOnTrack:      entry.IsOnTrack,
		}
	}
	return c.JSON(http.StatusOK, response)
}

func toCategorySummaryResponses(summaries []*domain.CategorySummary) []CategorySummaryResponse {
	response := make([]CategorySummaryResponse, len(summaries))
	for i, s := range summaries {
		response[i] = CategorySummaryResponse{
			CategoryID:         s.CategoryID,
			CategoryName:       s.CategoryName,
			TotalAmount:        s.TotalAmount.StringFixed(2),
			TransactionCount:   s.TransactionCount,
			Percentage:         s.Percentage.StringFixed(2),
			AverageTransaction: s.AverageTransaction.StringFixed(2),
		}
	}
	return response
}

func toTrendPointResponses(points []*domain.TrendPoint) []TrendPointResponse {
	response := make([]TrendPointResponse, len(points))
	for i, p := range points {
		response[i] = TrendPointResponse{
			Date:             p.Date.Format("2006-01-02"),
			Period:           p.Period,
			TotalIncome:      p.TotalIncome.StringFixed(2),
			TotalExpense:     p.TotalExpense.StringFixed(2),
			NetBalance:       p.NetBalance.StringFixed(2),
			TransactionCount: p.TransactionCount,
		}
	}
	return response
}

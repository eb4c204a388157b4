package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/service"
	"github.com/smartexpense/smartexpense-backend/internal/testutil"
)

type analyticsTestEnv struct {
	e               *echo.Echo
	transactionRepo *testutil.MockTransactionRepository
	budgetRepo      *testutil.MockBudgetRepository
	handler         *AnalyticsHandler
	userID          uuid.UUID
}

func setupAnalyticsTest(t *testing.T) *analyticsTestEnv {
	t.Helper()
	transactionRepo := testutil.NewMockTransactionRepository()
	budgetRepo := testutil.NewMockBudgetRepository()
	analyticsService := service.NewAnalyticsService(
		transactionRepo,
		budgetRepo,
		testutil.NewMockClock(testNow),
	)

	return &analyticsTestEnv{
		e:               echo.New(),
		transactionRepo: transactionRepo,
		budgetRepo:      budgetRepo,
		handler:         NewAnalyticsHandler(analyticsService),
		userID:          uuid.New(),
	}
}

func (env *analyticsTestEnv) addTransaction(categoryID int32, categoryName, amount string, txType domain.TransactionType, date time.Time) {
	env.transactionRepo.AddTransaction(&domain.Transaction{
		ID:              env.transactionRepo.NextID,
		UserID:          env.userID,
		CategoryID:      categoryID,
		CategoryName:    categoryName,
		Description:     categoryName,
		Amount:          decimal.RequireFromString(amount),
		Type:            txType,
		TransactionDate: date,
	})
}

func TestGetOverview_Success(t *testing.T) {
	env := setupAnalyticsTest(t)

	env.addTransaction(1, "Salary", "3000.00", domain.TransactionTypeIncome, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	env.addTransaction(2, "Rent", "1200.00", domain.TransactionTypeExpense, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	env.addTransaction(3, "Groceries", "300.00", domain.TransactionTypeExpense, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/overview?startDate=2025-06-01&endDate=2025-06-30", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetOverview(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response OverviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.TotalIncome != "3000.00" {
		t.Errorf("Expected income '3000.00', got %s", response.TotalIncome)
	}
	if response.TotalExpense != "1500.00" {
		t.Errorf("Expected expense '1500.00', got %s", response.TotalExpense)
	}
	if response.SavingsRate != "50.00" {
		t.Errorf("Expected savings rate '50.00', got %s", response.SavingsRate)
	}
	if len(response.DailyTrend) != 30 {
		t.Errorf("Expected 30 daily buckets for June, got %d", len(response.DailyTrend))
	}
	if len(response.TopExpenseCategories) != 2 {
		t.Errorf("Expected 2 expense categories, got %d", len(response.TopExpenseCategories))
	}
	if len(response.TopExpenseCategories) > 0 && response.TopExpenseCategories[0].CategoryName != "Rent" {
		t.Errorf("Expected largest expense category 'Rent', got %s", response.TopExpenseCategories[0].CategoryName)
	}
}

func TestGetOverview_MissingDates(t *testing.T) {
	env := setupAnalyticsTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/overview", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetOverview(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetTrend_MonthlyBuckets(t *testing.T) {
	env := setupAnalyticsTest(t)

	env.addTransaction(1, "Salary", "3000.00", domain.TransactionTypeIncome, time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC))
	env.addTransaction(2, "Rent", "1200.00", domain.TransactionTypeExpense, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trend?startDate=2025-04-01&endDate=2025-06-30&granularity=monthly", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetTrend(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []TrendPointResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 3 {
		t.Fatalf("Expected 3 monthly buckets, got %d", len(response))
	}
	if response[0].TotalIncome != "3000.00" {
		t.Errorf("Expected April income '3000.00', got %s", response[0].TotalIncome)
	}
	if response[1].TotalExpense != "1200.00" {
		t.Errorf("Expected May expense '1200.00', got %s", response[1].TotalExpense)
	}
	if response[2].TransactionCount != 0 {
		t.Errorf("Expected empty June bucket, got %d transactions", response[2].TransactionCount)
	}
}

func TestGetTrend_UnknownGranularityFallsBackToMonthly(t *testing.T) {
	env := setupAnalyticsTest(t)

	env.addTransaction(1, "Rent", "1200.00", domain.TransactionTypeExpense, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trend?startDate=2025-04-01&endDate=2025-06-30&granularity=hourly", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetTrend(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response []TrendPointResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 3 {
		t.Fatalf("Expected 3 monthly buckets, got %d", len(response))
	}
	if response[1].TotalExpense != "1200.00" {
		t.Errorf("Expected May expense '1200.00', got %s", response[1].TotalExpense)
	}
}

func TestGetCategoryBreakdown_Percentages(t *testing.T) {
	env := setupAnalyticsTest(t)

	env.addTransaction(1, "Rent", "750.00", domain.TransactionTypeExpense, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	env.addTransaction(2, "Groceries", "250.00", domain.TransactionTypeExpense, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	env.addTransaction(3, "Salary", "3000.00", domain.TransactionTypeIncome, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/categories?startDate=2025-06-01&endDate=2025-06-30&type=expense", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetCategoryBreakdown(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []CategorySummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 2 {
		t.Fatalf("Expected 2 expense categories, got %d", len(response))
	}
	if response[0].CategoryName != "Rent" || response[0].Percentage != "75.00" {
		t.Errorf("Expected Rent at 75.00%%, got %s at %s", response[0].CategoryName, response[0].Percentage)
	}
	if response[1].CategoryName != "Groceries" || response[1].Percentage != "25.00" {
		t.Errorf("Expected Groceries at 25.00%%, got %s at %s", response[1].CategoryName, response[1].Percentage)
	}
}

func TestGetTopCategories_Count(t *testing.T) {
	env := setupAnalyticsTest(t)

	env.addTransaction(1, "Rent", "750.00", domain.TransactionTypeExpense, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	env.addTransaction(2, "Groceries", "250.00", domain.TransactionTypeExpense, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/top-categories?startDate=2025-06-01&endDate=2025-06-30&count=1", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetTopCategories(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []CategorySummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 1 {
		t.Fatalf("Expected 1 category, got %d", len(response))
	}
	if response[0].CategoryName != "Rent" {
		t.Errorf("Expected 'Rent', got %s", response[0].CategoryName)
	}
}

func TestGetMonthlyComparison_Changes(t *testing.T) {
	env := setupAnalyticsTest(t)

	env.addTransaction(1, "Rent", "1000.00", domain.TransactionTypeExpense, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC))
	env.addTransaction(1, "Rent", "1200.00", domain.TransactionTypeExpense, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/monthly-comparison?months=2", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetMonthlyComparison(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []MonthlyComparisonResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 2 {
		t.Fatalf("Expected 2 months, got %d", len(response))
	}
	if response[0].Month != 5 || response[1].Month != 6 {
		t.Errorf("Expected May then June, got %d then %d", response[0].Month, response[1].Month)
	}
	// 1000 -> 1200 is a 20% increase
	if response[1].ExpenseChange != "20.00" {
		t.Errorf("Expected expense change '20.00', got %s", response[1].ExpenseChange)
	}
}

func TestGetBudgetPerformance_CurrentMonth(t *testing.T) {
	env := setupAnalyticsTest(t)

	env.budgetRepo.AddBudget(&domain.Budget{
		ID:           1,
		UserID:       env.userID,
		CategoryID:   1,
		CategoryName: "Groceries",
		Amount:       decimal.RequireFromString("500.00"),
		Month:        6,
		Year:         2025,
	})
	env.addTransaction(1, "Groceries", "100.00", domain.TransactionTypeExpense, time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/budget-performance?month=6&year=2025", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetBudgetPerformance(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []BudgetPerformanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(response))
	}
	if response[0].PercentageUsed != "20.00" {
		t.Errorf("Expected percentage '20.00', got %s", response[0].PercentageUsed)
	}
	// 20% used on day 15 of 30 (50% elapsed) is on track
	if response[0].IsOnTrack == nil || !*response[0].IsOnTrack {
		t.Errorf("Expected IsOnTrack true, got %v", response[0].IsOnTrack)
	}
}

func TestGetBudgetPerformance_PastMonthNoPacing(t *testing.T) {
	env := setupAnalyticsTest(t)

	env.budgetRepo.AddBudget(&domain.Budget{
		ID:           1,
		UserID:       env.userID,
		CategoryID:   1,
		CategoryName: "Groceries",
		Amount:       decimal.RequireFromString("500.00"),
		Month:        4,
		Year:         2025,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/budget-performance?month=4&year=2025", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetBudgetPerformance(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []BudgetPerformanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(response))
	}
	if response[0].IsOnTrack != nil {
		t.Errorf("Expected no pacing for a past month, got %v", *response[0].IsOnTrack)
	}
}

func TestGetBudgetPerformance_InvalidMonth(t *testing.T) {
	env := setupAnalyticsTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/budget-performance?month=13&year=2025", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetBudgetPerformance(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

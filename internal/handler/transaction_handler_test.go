package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/service"
	"github.com/smartexpense/smartexpense-backend/internal/testutil"
	"github.com/smartexpense/smartexpense-backend/internal/websocket"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type transactionTestEnv struct {
	e               *echo.Echo
	transactionRepo *testutil.MockTransactionRepository
	categoryRepo    *testutil.MockCategoryRepository
	handler         *TransactionHandler
	userID          uuid.UUID
}

func setupTransactionTest(t *testing.T) *transactionTestEnv {
	t.Helper()
	userID := uuid.New()
	transactionRepo := testutil.NewMockTransactionRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryRepo.AddCategory(&domain.Category{
		ID:       1,
		UserID:   &userID,
		Name:     "Groceries",
		IsActive: true,
	})

	transactionService := service.NewTransactionService(
		transactionRepo,
		categoryRepo,
		testutil.NewMockClock(testNow),
		&websocket.NoOpPublisher{},
	)

	return &transactionTestEnv{
		e:               echo.New(),
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		handler:         NewTransactionHandler(transactionService),
		userID:          userID,
	}
}

func (env *transactionTestEnv) addTransaction(desc string, amount string, txType domain.TransactionType, date time.Time) *domain.Transaction {
	tx := &domain.Transaction{
		UserID:          env.userID,
		CategoryID:      1,
		Description:     desc,
		Amount:          decimal.RequireFromString(amount),
		Type:            txType,
		TransactionDate: date,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
	created, _ := env.transactionRepo.Create(tx)
	return created
}

func TestCreateTransaction_Success(t *testing.T) {
	env := setupTransactionTest(t)

	body := `{"categoryId":1,"description":"Weekly shop","amount":"42.50","type":"expense","date":"2025-06-14"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Amount != "42.50" {
		t.Errorf("Expected amount '42.50', got %s", response.Amount)
	}
	if response.TransactionDate != "2025-06-14" {
		t.Errorf("Expected date '2025-06-14', got %s", response.TransactionDate)
	}
}

func TestCreateTransaction_InvalidAmount(t *testing.T) {
	env := setupTransactionTest(t)

	body := `{"categoryId":1,"description":"Bad","amount":"not-a-number","type":"expense"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateTransaction_FutureDate(t *testing.T) {
	env := setupTransactionTest(t)

	body := `{"categoryId":1,"description":"Time travel","amount":"10.00","type":"expense","date":"2025-06-16"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problemDetails ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problemDetails); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(problemDetails.Errors) == 0 || problemDetails.Errors[0].Field != "date" {
		t.Errorf("Expected validation error on 'date', got %+v", problemDetails.Errors)
	}
}

func TestCreateTransaction_UnknownCategory(t *testing.T) {
	env := setupTransactionTest(t)

	body := `{"categoryId":99,"description":"Orphan","amount":"10.00","type":"expense"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetTransactions_Pagination(t *testing.T) {
	env := setupTransactionTest(t)

	for i := 0; i < 25; i++ {
		env.addTransaction("Tx", "10.00", domain.TransactionTypeExpense, testNow.AddDate(0, 0, -i))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?page=2&pageSize=10", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response PaginatedTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.TotalItems != 25 {
		t.Errorf("Expected 25 total items, got %d", response.TotalItems)
	}
	if response.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", response.TotalPages)
	}
	if len(response.Data) != 10 {
		t.Errorf("Expected 10 items on page 2, got %d", len(response.Data))
	}
}

func TestGetTransactions_TypeFilter(t *testing.T) {
	env := setupTransactionTest(t)

	env.addTransaction("Salary", "3000.00", domain.TransactionTypeIncome, testNow.AddDate(0, 0, -1))
	env.addTransaction("Rent", "1200.00", domain.TransactionTypeExpense, testNow.AddDate(0, 0, -2))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?type=income", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response PaginatedTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response.Data) != 1 {
		t.Fatalf("Expected 1 income transaction, got %d", len(response.Data))
	}
	if response.Data[0].Description != "Salary" {
		t.Errorf("Expected 'Salary', got %s", response.Data[0].Description)
	}
}

func TestGetTransactions_InvalidType(t *testing.T) {
	env := setupTransactionTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?type=transfer", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetTransaction_NotFound(t *testing.T) {
	env := setupTransactionTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/99", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	setupUserContext(c, env.userID)

	if err := env.handler.GetTransaction(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetTransaction_OtherUsersTransaction(t *testing.T) {
	env := setupTransactionTest(t)

	tx := env.addTransaction("Mine", "10.00", domain.TransactionTypeExpense, testNow.AddDate(0, 0, -1))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/1", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, uuid.New()) // different user

	if err := env.handler.GetTransaction(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for other user's transaction %d, got %d", tx.ID, rec.Code)
	}
}

func TestGetSummary_Success(t *testing.T) {
	env := setupTransactionTest(t)

	env.addTransaction("Salary", "3000.00", domain.TransactionTypeIncome, testNow.AddDate(0, 0, -5))
	env.addTransaction("Rent", "1200.00", domain.TransactionTypeExpense, testNow.AddDate(0, 0, -3))
	env.addTransaction("Food", "300.00", domain.TransactionTypeExpense, testNow.AddDate(0, 0, -1))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/summary?startDate=2025-06-01&endDate=2025-06-30", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response TransactionSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.TotalIncome != "3000.00" {
		t.Errorf("Expected income '3000.00', got %s", response.TotalIncome)
	}
	if response.TotalExpense != "1500.00" {
		t.Errorf("Expected expense '1500.00', got %s", response.TotalExpense)
	}
	if response.NetBalance != "1500.00" {
		t.Errorf("Expected net '1500.00', got %s", response.NetBalance)
	}
	if response.TransactionCount != 3 {
		t.Errorf("Expected 3 transactions, got %d", response.TransactionCount)
	}
}

func TestGetSummary_MissingDates(t *testing.T) {
	env := setupTransactionTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/summary", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetSummary(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateTransaction_Success(t *testing.T) {
	env := setupTransactionTest(t)

	tx := env.addTransaction("Old desc", "10.00", domain.TransactionTypeExpense, testNow.AddDate(0, 0, -1))

	body := `{"categoryId":1,"description":"New desc","amount":"20.00","type":"expense","date":"2025-06-14"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/transactions/1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.UpdateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.ID != tx.ID {
		t.Errorf("Expected ID %d, got %d", tx.ID, response.ID)
	}
	if response.Description != "New desc" {
		t.Errorf("Expected description 'New desc', got %s", response.Description)
	}
	if response.Amount != "20.00" {
		t.Errorf("Expected amount '20.00', got %s", response.Amount)
	}
}

func TestDeleteTransaction_Success(t *testing.T) {
	env := setupTransactionTest(t)

	env.addTransaction("Doomed", "10.00", domain.TransactionTypeExpense, testNow.AddDate(0, 0, -1))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/transactions/1", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.DeleteTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}

	if len(env.transactionRepo.Transactions) != 0 {
		t.Errorf("Expected transaction to be removed from repository")
	}
}

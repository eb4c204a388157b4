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

type recurringTestEnv struct {
	e               *echo.Echo
	recurringRepo   *testutil.MockRecurringRepository
	transactionRepo *testutil.MockTransactionRepository
	handler         *RecurringHandler
	userID          uuid.UUID
}

func setupRecurringTest(t *testing.T) *recurringTestEnv {
	t.Helper()
	userID := uuid.New()
	recurringRepo := testutil.NewMockRecurringRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryRepo.AddCategory(&domain.Category{
		ID:       1,
		UserID:   &userID,
		Name:     "Bills",
		IsActive: true,
	})

	recurringService := service.NewRecurringService(
		recurringRepo,
		transactionRepo,
		categoryRepo,
		testutil.NewMockClock(testNow),
		&websocket.NoOpPublisher{},
	)

	return &recurringTestEnv{
		e:               echo.New(),
		recurringRepo:   recurringRepo,
		transactionRepo: transactionRepo,
		handler:         NewRecurringHandler(recurringService),
		userID:          userID,
	}
}

func (env *recurringTestEnv) addRecurring(frequency domain.Frequency, startDate time.Time, active bool) *domain.RecurringTransaction {
	rt := &domain.RecurringTransaction{
		UserID:      env.userID,
		CategoryID:  1,
		Description: "Rent",
		Amount:      decimal.RequireFromString("1200.00"),
		Type:        domain.TransactionTypeExpense,
		Frequency:   frequency,
		StartDate:   startDate,
		IsActive:    active,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	created, _ := env.recurringRepo.Create(rt)
	return created
}

func TestCreateRecurring_Success(t *testing.T) {
	env := setupRecurringTest(t)

	body := `{"categoryId":1,"description":"Rent","amount":"1200.00","type":"expense","frequency":"monthly","startDate":"2025-06-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recurring", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.CreateRecurring(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response RecurringResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Frequency != "monthly" {
		t.Errorf("Expected frequency 'monthly', got %s", response.Frequency)
	}
	if !response.IsActive {
		t.Error("Expected new rule to be active")
	}
	if response.NextDueDate == nil {
		t.Error("Expected nextDueDate to be populated")
	}
}

func TestCreateRecurring_InvalidFrequency(t *testing.T) {
	env := setupRecurringTest(t)

	body := `{"categoryId":1,"description":"Rent","amount":"1200.00","type":"expense","frequency":"fortnightly","startDate":"2025-06-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recurring", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.CreateRecurring(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problemDetails ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problemDetails); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(problemDetails.Errors) == 0 || problemDetails.Errors[0].Field != "frequency" {
		t.Errorf("Expected validation error on 'frequency', got %+v", problemDetails.Errors)
	}
}

func TestCreateRecurring_EndBeforeStart(t *testing.T) {
	env := setupRecurringTest(t)

	body := `{"categoryId":1,"description":"Rent","amount":"1200.00","type":"expense","frequency":"monthly","startDate":"2025-06-01","endDate":"2025-05-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recurring", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.CreateRecurring(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetRecurring_ActiveFilter(t *testing.T) {
	env := setupRecurringTest(t)

	env.addRecurring(domain.FrequencyMonthly, testNow.AddDate(0, -1, 0), true)
	env.addRecurring(domain.FrequencyWeekly, testNow.AddDate(0, -1, 0), false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recurring?active=true", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GetRecurring(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []RecurringResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 1 {
		t.Fatalf("Expected 1 active rule, got %d", len(response))
	}
	if !response[0].IsActive {
		t.Error("Expected returned rule to be active")
	}
}

func TestToggleActive_Flips(t *testing.T) {
	env := setupRecurringTest(t)

	rt := env.addRecurring(domain.FrequencyMonthly, testNow.AddDate(0, -1, 0), true)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/recurring/1/toggle", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.ToggleActive(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response RecurringResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.ID != rt.ID {
		t.Errorf("Expected ID %d, got %d", rt.ID, response.ID)
	}
	if response.IsActive {
		t.Error("Expected rule to be deactivated after toggle")
	}
}

func TestGenerate_MaterializesDueOccurrences(t *testing.T) {
	env := setupRecurringTest(t)

	// Monthly rule starting three months back: four occurrences are due
	env.addRecurring(domain.FrequencyMonthly, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recurring/1/generate", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.Generate(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response GenerationResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.TransactionsGenerated != 4 {
		t.Errorf("Expected 4 generated transactions, got %d", response.TransactionsGenerated)
	}
	if len(env.transactionRepo.Transactions) != 4 {
		t.Errorf("Expected 4 transactions in repository, got %d", len(env.transactionRepo.Transactions))
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	env := setupRecurringTest(t)

	env.addRecurring(domain.FrequencyMonthly, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), true)

	run := func() GenerationResultResponse {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recurring/1/generate", nil)
		rec := httptest.NewRecorder()
		c := env.e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("1")
		setupUserContext(c, env.userID)

		if err := env.handler.Generate(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		var response GenerationResultResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		return response
	}

	first := run()
	if first.TransactionsGenerated != 2 {
		t.Errorf("Expected 2 generated on first run, got %d", first.TransactionsGenerated)
	}

	second := run()
	if second.TransactionsGenerated != 0 {
		t.Errorf("Expected 0 generated on second run, got %d", second.TransactionsGenerated)
	}
}

func TestGenerateAll_SkipsInactive(t *testing.T) {
	env := setupRecurringTest(t)

	env.addRecurring(domain.FrequencyMonthly, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), true)
	env.addRecurring(domain.FrequencyMonthly, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recurring/generate-all", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	setupUserContext(c, env.userID)

	if err := env.handler.GenerateAll(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response GenerationResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	// Only the active rule generates (start month + current month)
	if response.TransactionsGenerated != 2 {
		t.Errorf("Expected 2 generated transactions, got %d", response.TransactionsGenerated)
	}
	for _, tx := range env.transactionRepo.Transactions {
		if tx.SourceRecurringID == nil || *tx.SourceRecurringID != 1 {
			t.Errorf("Expected all generated transactions to come from rule 1, got %+v", tx.SourceRecurringID)
		}
	}
}

func TestDeleteRecurring_NotFound(t *testing.T) {
	env := setupRecurringTest(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/recurring/99", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	setupUserContext(c, env.userID)

	if err := env.handler.DeleteRecurring(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

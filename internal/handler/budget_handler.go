package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/middleware"
	"github.com/smartexpense/smartexpense-backend/internal/service"
)

// BudgetHandler handles budget-related HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// CreateBudgetRequest represents the create budget request body
type CreateBudgetRequest struct {
	CategoryID int32  `json:"categoryId"`
	Amount     string `json:"amount"`
	Month      int32  `json:"month"`
	Year       int32  `json:"year"`
}

// UpdateBudgetRequest represents the update budget request body
type UpdateBudgetRequest struct {
	Amount string `json:"amount"`
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID           int32  `json:"id"`
	CategoryID   int32  `json:"categoryId"`
	CategoryName string `json:"categoryName,omitempty"`
	Amount       string `json:"amount"`
	Month        int32  `json:"month"`
	Year         int32  `json:"year"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// BudgetWithSpendingResponse is a budget enriched with actual spending
type BudgetWithSpendingResponse struct {
	BudgetResponse
	SpentAmount     string `json:"spentAmount"`
	RemainingAmount string `json:"remainingAmount"`
	PercentageUsed  string `json:"percentageUsed"`
	Status          string `json:"status"`
}

// BudgetSummaryResponse aggregates all budgets for one month
type BudgetSummaryResponse struct {
	Month            int32  `json:"month"`
	Year             int32  `json:"year"`
	TotalBudget      string `json:"totalBudget"`
	TotalSpent       string `json:"totalSpent"`
	TotalRemaining   string `json:"totalRemaining"`
	BudgetCount      int    `json:"budgetCount"`
	ExceededCount    int    `json:"exceededCount"`
	ApproachingCount int    `json:"approachingCount"`
}

// CreateBudget handles POST /api/v1/budgets
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if req.CategoryID <= 0 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category ID is required"},
		})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	budget, err := h.budgetService.CreateBudget(userID, service.CreateBudgetInput{
		CategoryID: req.CategoryID,
		Amount:     amount,
		Month:      req.Month,
		Year:       req.Year,
	})
	if err != nil {
		if mapped := mapBudgetError(c, err); mapped != nil {
			return mapped
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create budget")
		return NewInternalError(c, "Failed to create budget")
	}

	log.Info().Str("user_id", userID.String()).Int32("budget_id", budget.ID).Int32("month", budget.Month).Int32("year", budget.Year).Msg("Budget created")
	return c.JSON(http.StatusCreated, toBudgetResponse(budget))
}

// GetBudgets handles GET /api/v1/budgets?month=&year=
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	month, year, err := parseMonthYear(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	budgets, err := h.budgetService.GetBudgets(userID, month, year)
	if err != nil {
		if mapped := mapBudgetError(c, err); mapped != nil {
			return mapped
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get budgets")
		return NewInternalError(c, "Failed to get budgets")
	}

	response := make([]BudgetWithSpendingResponse, len(budgets))
	for i, budget := range budgets {
		response[i] = toBudgetWithSpendingResponse(budget)
	}
	return c.JSON(http.StatusOK, response)
}

// GetBudget handles GET /api/v1/budgets/:id
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	budget, err := h.budgetService.GetBudgetByID(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("budget_id", id).Msg("Failed to get budget")
		return NewInternalError(c, "Failed to get budget")
	}

	return c.JSON(http.StatusOK, toBudgetWithSpendingResponse(budget))
}

// GetBudgetSummary handles GET /api/v1/budgets/summary?month=&year=
func (h *BudgetHandler) GetBudgetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	month, year, err := parseMonthYear(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	summary, err := h.budgetService.GetBudgetSummary(userID, month, year)
	if err != nil {
		if mapped := mapBudgetError(c, err); mapped != nil {
			return mapped
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get budget summary")
		return NewInternalError(c, "Failed to get budget summary")
	}

	return c.JSON(http.StatusOK, BudgetSummaryResponse{
		Month:            summary.Month,
		Year:             summary.Year,
		TotalBudget:      summary.TotalBudget.StringFixed(2),
		TotalSpent:       summary.TotalSpent.StringFixed(2),
		TotalRemaining:   summary.TotalRemaining.StringFixed(2),
		BudgetCount:      summary.BudgetCount,
		ExceededCount:    summary.ExceededCount,
		ApproachingCount: summary.ApproachingCount,
	})
}

// UpdateBudget handles PUT /api/v1/budgets/:id
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req UpdateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	budget, err := h.budgetService.UpdateBudget(userID, int32(id), service.UpdateBudgetInput{Amount: amount})
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		if mapped := mapBudgetError(c, err); mapped != nil {
			return mapped
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("budget_id", id).Msg("Failed to update budget")
		return NewInternalError(c, "Failed to update budget")
	}

	log.Info().Str("user_id", userID.String()).Int32("budget_id", budget.ID).Msg("Budget updated")
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// DeleteBudget handles DELETE /api/v1/budgets/:id
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := h.budgetService.DeleteBudget(userID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("budget_id", id).Msg("Failed to delete budget")
		return NewInternalError(c, "Failed to delete budget")
	}

	log.Info().Str("user_id", userID.String()).Int("budget_id", id).Msg("Budget deleted")
	return c.NoContent(http.StatusNoContent)
}

// parseMonthYear reads required month/year query parameters
func parseMonthYear(c echo.Context) (int32, int32, error) {
	monthStr := c.QueryParam("month")
	yearStr := c.QueryParam("year")
	if monthStr == "" || yearStr == "" {
		return 0, 0, errors.New("month and year are required")
	}

	var month, year int32
	if _, err := parseIntParam(monthStr, &month); err != nil {
		return 0, 0, errors.New("invalid month")
	}
	if _, err := parseIntParam(yearStr, &year); err != nil {
		return 0, 0, errors.New("invalid year")
	}
	return month, year, nil
}

func mapBudgetError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidMonth):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "month", Message: "Month must be between 1 and 12"},
		})
	case errors.Is(err, domain.ErrInvalidYear):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "year", Message: "Year must be between 2000 and 2100"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found"},
		})
	case errors.Is(err, domain.ErrCategoryInactive):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category is inactive"},
		})
	case errors.Is(err, domain.ErrBudgetInPast):
		return NewValidationError(c, "Cannot create a budget for a past month", nil)
	case errors.Is(err, domain.ErrBudgetExists):
		return NewConflictError(c, "A budget already exists for this category and month")
	}
	return nil
}

func toBudgetResponse(budget *domain.Budget) BudgetResponse {
	return BudgetResponse{
		ID:           budget.ID,
		CategoryID:   budget.CategoryID,
		CategoryName: budget.CategoryName,
		Amount:       budget.Amount.StringFixed(2),
		Month:        budget.Month,
		Year:         budget.Year,
		CreatedAt:    budget.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    budget.UpdatedAt.Format(time.RFC3339),
	}
}

func toBudgetWithSpendingResponse(budget *domain.BudgetWithSpending) BudgetWithSpendingResponse {
	return BudgetWithSpendingResponse{
		BudgetResponse:  toBudgetResponse(budget.Budget),
		SpentAmount:     budget.SpentAmount.StringFixed(2),
		RemainingAmount: budget.RemainingAmount.StringFixed(2),
		PercentageUsed:  budget.PercentageUsed.StringFixed(2),
		Status:          string(budget.Status),
	}
}

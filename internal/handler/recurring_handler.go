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

// RecurringHandler handles recurring transaction HTTP requests
type RecurringHandler struct {
	recurringService *service.RecurringService
}

// NewRecurringHandler creates a new RecurringHandler
func NewRecurringHandler(recurringService *service.RecurringService) *RecurringHandler {
	return &RecurringHandler{
		recurringService: recurringService,
	}
}

// CreateRecurringRequest represents the create recurring transaction request body
type CreateRecurringRequest struct {
	CategoryID  int32   `json:"categoryId"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Type        string  `json:"type"`
	Frequency   string  `json:"frequency"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// UpdateRecurringRequest represents the update recurring transaction request body
type UpdateRecurringRequest struct {
	CategoryID  int32   `json:"categoryId"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Type        string  `json:"type"`
	Frequency   string  `json:"frequency"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
	IsActive    bool    `json:"isActive"`
	Notes       *string `json:"notes,omitempty"`
}

// RecurringResponse represents a recurring transaction in API responses
type RecurringResponse struct {
	ID              int32   `json:"id"`
	CategoryID      int32   `json:"categoryId"`
	CategoryName    string  `json:"categoryName,omitempty"`
	Description     string  `json:"description"`
	Amount          string  `json:"amount"`
	Type            string  `json:"type"`
	Frequency       string  `json:"frequency"`
	StartDate       string  `json:"startDate"`
	EndDate         *string `json:"endDate,omitempty"`
	LastGeneratedAt *string `json:"lastGeneratedAt,omitempty"`
	NextDueDate     *string `json:"nextDueDate,omitempty"`
	IsActive        bool    `json:"isActive"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// GeneratedTransactionResponse reports one transaction materialized from a rule
type GeneratedTransactionResponse struct {
	RecurringID     int32  `json:"recurringId"`
	TransactionID   int32  `json:"transactionId"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	Type            string `json:"type"`
	TransactionDate string `json:"transactionDate"`
}

// GenerationResultResponse is the outcome of a generation run
type GenerationResultResponse struct {
	TransactionsGenerated int                            `json:"transactionsGenerated"`
	Generated             []GeneratedTransactionResponse `json:"generated"`
}

// CreateRecurring handles POST /api/v1/recurring
func (h *RecurringHandler) CreateRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateRecurringRequest
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

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid startDate", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return NewValidationError(c, "Invalid endDate", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	rt, err := h.recurringService.CreateRecurring(userID, service.CreateRecurringInput{
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      amount,
		Type:        domain.TransactionType(req.Type),
		Frequency:   domain.Frequency(req.Frequency),
		StartDate:   startDate,
		EndDate:     endDate,
		Notes:       req.Notes,
	})
	if err != nil {
		if mapped := mapRecurringError(c, err); mapped != nil {
			return mapped
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create recurring transaction")
		return NewInternalError(c, "Failed to create recurring transaction")
	}

	log.Info().Str("user_id", userID.String()).Int32("recurring_id", rt.ID).Str("frequency", string(rt.Frequency)).Msg("Recurring transaction created")
	return c.JSON(http.StatusCreated, h.toRecurringResponse(rt))
}

// GetRecurring handles GET /api/v1/recurring
func (h *RecurringHandler) GetRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var activeOnly *bool
	if activeStr := c.QueryParam("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return NewValidationError(c, "Invalid active (must be true or false)", nil)
		}
		activeOnly = &active
	}

	rules, err := h.recurringService.ListRecurring(userID, activeOnly)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list recurring transactions")
		return NewInternalError(c, "Failed to list recurring transactions")
	}

	response := make([]RecurringResponse, len(rules))
	for i, rt := range rules {
		response[i] = h.toRecurringResponse(rt)
	}
	return c.JSON(http.StatusOK, response)
}

// GetRecurringByID handles GET /api/v1/recurring/:id
func (h *RecurringHandler) GetRecurringByID(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid recurring transaction ID", nil)
	}

	rt, err := h.recurringService.GetRecurringByID(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecurringNotFound) {
			return NewNotFoundError(c, "Recurring transaction not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("recurring_id", id).Msg("Failed to get recurring transaction")
		return NewInternalError(c, "Failed to get recurring transaction")
	}

	return c.JSON(http.StatusOK, h.toRecurringResponse(rt))
}

// UpdateRecurring handles PUT /api/v1/recurring/:id
func (h *RecurringHandler) UpdateRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid recurring transaction ID", nil)
	}

	var req UpdateRecurringRequest
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

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid startDate", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return NewValidationError(c, "Invalid endDate", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	rt, err := h.recurringService.UpdateRecurring(userID, int32(id), service.UpdateRecurringInput{
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      amount,
		Type:        domain.TransactionType(req.Type),
		Frequency:   domain.Frequency(req.Frequency),
		StartDate:   startDate,
		EndDate:     endDate,
		IsActive:    req.IsActive,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecurringNotFound) {
			return NewNotFoundError(c, "Recurring transaction not found")
		}
		if mapped := mapRecurringError(c, err); mapped != nil {
			return mapped
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("recurring_id", id).Msg("Failed to update recurring transaction")
		return NewInternalError(c, "Failed to update recurring transaction")
	}

	log.Info().Str("user_id", userID.String()).Int32("recurring_id", rt.ID).Msg("Recurring transaction updated")
	return c.JSON(http.StatusOK, h.toRecurringResponse(rt))
}

// ToggleActive handles PATCH /api/v1/recurring/:id/toggle
func (h *RecurringHandler) ToggleActive(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid recurring transaction ID", nil)
	}

	rt, err := h.recurringService.ToggleActive(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecurringNotFound) {
			return NewNotFoundError(c, "Recurring transaction not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("recurring_id", id).Msg("Failed to toggle recurring transaction")
		return NewInternalError(c, "Failed to toggle recurring transaction")
	}

	log.Info().Str("user_id", userID.String()).Int32("recurring_id", rt.ID).Bool("is_active", rt.IsActive).Msg("Recurring transaction toggled")
	return c.JSON(http.StatusOK, h.toRecurringResponse(rt))
}

// DeleteRecurring handles DELETE /api/v1/recurring/:id
func (h *RecurringHandler) DeleteRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid recurring transaction ID", nil)
	}

	if err := h.recurringService.DeleteRecurring(userID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrRecurringNotFound) {
			return NewNotFoundError(c, "Recurring transaction not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("recurring_id", id).Msg("Failed to delete recurring transaction")
		return NewInternalError(c, "Failed to delete recurring transaction")
	}

	log.Info().Str("user_id", userID.String()).Int("recurring_id", id).Msg("Recurring transaction deleted")
	return c.NoContent(http.StatusNoContent)
}

// Generate handles POST /api/v1/recurring/:id/generate
func (h *RecurringHandler) Generate(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid recurring transaction ID", nil)
	}

	result, err := h.recurringService.GenerateDue(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecurringNotFound) {
			return NewNotFoundError(c, "Recurring transaction not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("recurring_id", id).Msg("Failed to generate transactions")
		return NewInternalError(c, "Failed to generate transactions")
	}

	return c.JSON(http.StatusOK, toGenerationResultResponse(result))
}

// GenerateAll handles POST /api/v1/recurring/generate-all
func (h *RecurringHandler) GenerateAll(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	result, err := h.recurringService.GenerateAllDue(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to generate transactions")
		return NewInternalError(c, "Failed to generate transactions")
	}

	log.Info().Str("user_id", userID.String()).Int("count", result.TransactionsGenerated).Msg("Generation run completed")
	return c.JSON(http.StatusOK, toGenerationResultResponse(result))
}

func mapRecurringError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrDescriptionRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description is required"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidTransactionType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense"},
		})
	case errors.Is(err, domain.ErrInvalidFrequency):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "frequency", Message: "Frequency must be one of: daily, weekly, monthly, yearly"},
		})
	case errors.Is(err, domain.ErrInvalidDateRange):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "endDate", Message: "End date must not be before start date"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found"},
		})
	case errors.Is(err, domain.ErrCategoryInactive):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category is inactive"},
		})
	}
	return nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (h *RecurringHandler) toRecurringResponse(rt *domain.RecurringTransaction) RecurringResponse {
	resp := RecurringResponse{
		ID:           rt.ID,
		CategoryID:   rt.CategoryID,
		CategoryName: rt.CategoryName,
		Description:  rt.Description,
		Amount:       rt.Amount.StringFixed(2),
		Type:         string(rt.Type),
		Frequency:    string(rt.Frequency),
		StartDate:    rt.StartDate.Format("2006-01-02"),
		IsActive:     rt.IsActive,
		Notes:        rt.Notes,
		CreatedAt:    rt.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    rt.UpdatedAt.Format(time.RFC3339),
	}
	if rt.EndDate != nil {
		endDate := rt.EndDate.Format("2006-01-02")
		resp.EndDate = &endDate
	}
	if rt.LastGeneratedAt != nil {
		last := rt.LastGeneratedAt.Format(time.RFC3339)
		resp.LastGeneratedAt = &last
	}
	if next := h.recurringService.NextDueDate(rt); next != nil {
		nextDue := next.Format("2006-01-02")
		resp.NextDueDate = &nextDue
	}
	return resp
}

func toGenerationResultResponse(result *domain.GenerationResult) GenerationResultResponse {
	resp := GenerationResultResponse{
		TransactionsGenerated: result.TransactionsGenerated,
		Generated:             make([]GeneratedTransactionResponse, len(result.Generated)),
	}
	for i, g := range result.Generated {
		resp.Generated[i] = GeneratedTransactionResponse{
			RecurringID:     g.RecurringID,
			TransactionID:   g.TransactionID,
			Description:     g.Description,
			Amount:          g.Amount.StringFixed(2),
			Type:            string(g.Type),
			TransactionDate: g.TransactionDate.Format("2006-01-02"),
		}
	}
	return resp
}

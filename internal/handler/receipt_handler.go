package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/middleware"
	"github.com/smartexpense/smartexpense-backend/internal/service"
)

// ReceiptHandler handles transaction receipt HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptURLResponse carries a presigned download URL
type ReceiptURLResponse struct {
	URL string `json:"url"`
}

// AttachReceipt handles POST /api/v1/transactions/:id/receipt
func (h *ReceiptHandler) AttachReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	// If storage isn't configured, don't attempt to process/upload (would panic on nil storage).
	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	tx, err := h.receiptService.AttachReceipt(c.Request().Context(), userID, int32(id), data, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return NewNotFoundError(c, "Transaction not found")
		case errors.Is(err, service.ErrReceiptTooLarge):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File too large. Maximum size is 5MB"},
			})
		case errors.Is(err, service.ErrInvalidReceiptFormat):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
			})
		case errors.Is(err, service.ErrReceiptTooSmall):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Image too small. Minimum 50x50 pixels"},
			})
		case errors.Is(err, service.ErrInvalidReceiptData):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid image data"},
			})
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Int("transaction_id", id).Msg("Failed to attach receipt")
			return NewInternalError(c, "Failed to attach receipt")
		}
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("transaction_id", tx.ID).
		Msg("Receipt attached")

	return c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

// GetReceiptURL handles GET /api/v1/transactions/:id/receipt
func (h *ReceiptHandler) GetReceiptURL(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt downloads are disabled (storage not configured)")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	url, err := h.receiptService.GetReceiptURL(c.Request().Context(), userID, int32(id))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return NewNotFoundError(c, "Transaction not found")
		case errors.Is(err, service.ErrNoReceipt):
			return NewNotFoundError(c, "Transaction has no receipt")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Int("transaction_id", id).Msg("Failed to get receipt URL")
			return NewInternalError(c, "Failed to get receipt URL")
		}
	}

	return c.JSON(http.StatusOK, ReceiptURLResponse{URL: url})
}

// RemoveReceipt handles DELETE /api/v1/transactions/:id/receipt
func (h *ReceiptHandler) RemoveReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt deletion is disabled (storage not configured)")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if _, err := h.receiptService.RemoveReceipt(c.Request().Context(), userID, int32(id)); err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return NewNotFoundError(c, "Transaction not found")
		case errors.Is(err, service.ErrNoReceipt):
			return NewNotFoundError(c, "Transaction has no receipt")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Int("transaction_id", id).Msg("Failed to remove receipt")
			return NewInternalError(c, "Failed to remove receipt")
		}
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("transaction_id", id).
		Msg("Receipt removed")

	return c.NoContent(http.StatusNoContent)
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/repository/storage"
)

const (
	MaxReceiptSize   = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth  = 50
	MinReceiptHeight = 50
	ReceiptMaxWidth  = 1200
	JPEGQuality      = 85

	// ReceiptURLExpiry is how long presigned receipt URLs stay valid
	ReceiptURLExpiry = 15 * time.Minute
)

var (
	ErrReceiptTooLarge          = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidReceiptFormat     = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrReceiptTooSmall          = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidReceiptData       = errors.New("invalid image data")
	ErrReceiptStorageNotEnabled = errors.New("receipt storage not configured")
	ErrNoReceipt                = errors.New("transaction has no receipt")
)

// allowedReceiptExtensions maps extensions to content types
var allowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptService attaches receipt images to transactions. Images are
// normalized to a single resized JPEG and stored in a private bucket.
type ReceiptService struct {
	storage         storage.ReceiptRepository
	transactionRepo domain.TransactionRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(storage storage.ReceiptRepository, transactionRepo domain.TransactionRepository) *ReceiptService {
	return &ReceiptService{
		storage:         storage,
		transactionRepo: transactionRepo,
	}
}

// IsEnabled indicates whether receipt storage is configured
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// AttachReceipt validates, normalizes and stores a receipt image for a
// transaction, replacing any previous receipt
func (s *ReceiptService) AttachReceipt(ctx context.Context, userID uuid.UUID, transactionID int32, data []byte, filename string) (*domain.Transaction, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotEnabled
	}

	tx, err := s.transactionRepo.GetByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	// Downscale wide images, keep the aspect ratio
	if img.Bounds().Dx() > ReceiptMaxWidth {
		img = imaging.Resize(img, ReceiptMaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	objectPath := storage.ReceiptObjectPath(userID, transactionID, ".jpg")
	storedPath, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len()))
	if err != nil {
		return nil, fmt.Errorf("failed to upload receipt: %w", err)
	}

	// Best-effort cleanup of the replaced receipt
	if tx.ReceiptPath != nil {
		if err := s.storage.Delete(ctx, *tx.ReceiptPath); err != nil {
			log.Warn().Err(err).Str("path", *tx.ReceiptPath).Msg("Failed to delete replaced receipt")
		}
	}

	tx.ReceiptPath = &storedPath
	return s.transactionRepo.Update(tx)
}

// GetReceiptURL returns a short-lived presigned URL for the transaction's receipt
func (s *ReceiptService) GetReceiptURL(ctx context.Context, userID uuid.UUID, transactionID int32) (string, error) {
	if !s.IsEnabled() {
		return "", ErrReceiptStorageNotEnabled
	}

	tx, err := s.transactionRepo.GetByID(userID, transactionID)
	if err != nil {
		return "", err
	}
	if tx.ReceiptPath == nil {
		return "", ErrNoReceipt
	}

	return s.storage.GeneratePresignedURL(ctx, *tx.ReceiptPath, ReceiptURLExpiry)
}

// RemoveReceipt deletes the transaction's receipt from storage and clears the link
func (s *ReceiptService) RemoveReceipt(ctx context.Context, userID uuid.UUID, transactionID int32) (*domain.Transaction, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotEnabled
	}

	tx, err := s.transactionRepo.GetByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.ReceiptPath == nil {
		return nil, ErrNoReceipt
	}

	if err := s.storage.Delete(ctx, *tx.ReceiptPath); err != nil {
		return nil, fmt.Errorf("failed to delete receipt: %w", err)
	}

	tx.ReceiptPath = nil
	return s.transactionRepo.Update(tx)
}

// validateAndDecode validates size, extension and dimensions, and returns the
// decoded image
func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedReceiptExtensions[ext]; !ok {
		return nil, ErrInvalidReceiptFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidReceiptData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrReceiptTooSmall
	}

	return img, nil
}

// ReceiptContentType returns the content type for a receipt filename
func ReceiptContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := allowedReceiptExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

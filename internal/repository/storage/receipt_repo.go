package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ReceiptRepository defines the interface for receipt object storage.
// Upload returns the object path; access goes through presigned URLs so the
// bucket stays private.
type ReceiptRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// ReceiptObjectPath creates a unique object path for a transaction receipt
func ReceiptObjectPath(userID uuid.UUID, transactionID int32, ext string) string {
	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	return path.Join(userID.String(), "receipts", fmt.Sprintf("%d", transactionID), filename)
}

package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/service"
	"github.com/smartexpense/smartexpense-backend/internal/testutil"
)

type receiptTestEnv struct {
	e               *echo.Echo
	storage         *testutil.MockReceiptRepository
	transactionRepo *testutil.MockTransactionRepository
	handler         *ReceiptHandler
	userID          uuid.UUID
}

func setupReceiptTest(t *testing.T) *receiptTestEnv {
	t.Helper()
	userID := uuid.New()
	storage := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	transactionRepo.AddTransaction(&domain.Transaction{
		ID:              1,
		UserID:          userID,
		CategoryID:      1,
		Description:     "Weekly shop",
		Amount:          decimal.RequireFromString("42.50"),
		Type:            domain.TransactionTypeExpense,
		TransactionDate: testNow.AddDate(0, 0, -1),
	})

	receiptService := service.NewReceiptService(storage, transactionRepo)

	return &receiptTestEnv{
		e:               echo.New(),
		storage:         storage,
		transactionRepo: transactionRepo,
		handler:         NewReceiptHandler(receiptService),
		userID:          userID,
	}
}

// createTestImageData creates a valid JPEG image for testing
func createTestImageData(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

// createMultipartForm creates a multipart form with file data
func createMultipartForm(fieldName, filename string, data []byte) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, _ := writer.CreateFormFile(fieldName, filename)
	part.Write(data)

	writer.Close()
	return body, writer.FormDataContentType()
}

func TestAttachReceipt_Success(t *testing.T) {
	env := setupReceiptTest(t)

	imageData := createTestImageData(100, 100)
	body, contentType := createMultipartForm("file", "receipt.jpg", imageData)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/1/receipt", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.AttachReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if !response.HasReceipt {
		t.Error("Expected hasReceipt to be true after upload")
	}
	if len(env.storage.Objects) != 1 {
		t.Errorf("Expected 1 stored object, got %d", len(env.storage.Objects))
	}
}

func TestAttachReceipt_NoFile(t *testing.T) {
	env := setupReceiptTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/1/receipt", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.AttachReceipt(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestAttachReceipt_TransactionNotFound(t *testing.T) {
	env := setupReceiptTest(t)

	imageData := createTestImageData(100, 100)
	body, contentType := createMultipartForm("file", "receipt.jpg", imageData)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/99/receipt", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	setupUserContext(c, env.userID)

	if err := env.handler.AttachReceipt(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestAttachReceipt_FileTooLarge(t *testing.T) {
	env := setupReceiptTest(t)

	largeData := make([]byte, 6*1024*1024)
	body, contentType := createMultipartForm("file", "receipt.jpg", largeData)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/1/receipt", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.AttachReceipt(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestAttachReceipt_TooSmall(t *testing.T) {
	env := setupReceiptTest(t)

	imageData := createTestImageData(20, 20)
	body, contentType := createMultipartForm("file", "receipt.jpg", imageData)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/1/receipt", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.AttachReceipt(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestAttachReceipt_InvalidFormat(t *testing.T) {
	env := setupReceiptTest(t)

	imageData := createTestImageData(100, 100)
	body, contentType := createMultipartForm("file", "receipt.gif", imageData)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/1/receipt", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.AttachReceipt(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestAttachReceipt_StorageNotConfigured(t *testing.T) {
	env := setupReceiptTest(t)
	env.handler = NewReceiptHandler(service.NewReceiptService(nil, env.transactionRepo))

	imageData := createTestImageData(100, 100)
	body, contentType := createMultipartForm("file", "receipt.jpg", imageData)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/1/receipt", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.AttachReceipt(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
}

func TestGetReceiptURL_Success(t *testing.T) {
	env := setupReceiptTest(t)

	receiptPath := "receipts/" + env.userID.String() + "/1.jpg"
	tx := env.transactionRepo.Transactions[1]
	tx.ReceiptPath = &receiptPath

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/1/receipt", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.GetReceiptURL(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response ReceiptURLResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.URL == "" {
		t.Error("Expected a presigned URL in the response")
	}
}

func TestGetReceiptURL_NoReceipt(t *testing.T) {
	env := setupReceiptTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/1/receipt", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.GetReceiptURL(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestRemoveReceipt_Success(t *testing.T) {
	env := setupReceiptTest(t)

	receiptPath := "receipts/" + env.userID.String() + "/1.jpg"
	env.storage.Objects[receiptPath] = []byte("data")
	tx := env.transactionRepo.Transactions[1]
	tx.ReceiptPath = &receiptPath

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/transactions/1/receipt", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.RemoveReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if len(env.storage.Objects) != 0 {
		t.Errorf("Expected stored object to be deleted")
	}
	if env.transactionRepo.Transactions[1].ReceiptPath != nil {
		t.Error("Expected receipt path to be cleared")
	}
}

func TestRemoveReceipt_NoReceipt(t *testing.T) {
	env := setupReceiptTest(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/transactions/1/receipt", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupUserContext(c, env.userID)

	if err := env.handler.RemoveReceipt(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/service"
	"github.com/smartexpense/smartexpense-backend/internal/testutil"
)

func setupProfileTest(t *testing.T) (*echo.Echo, *testutil.MockUserRepository, *ProfileHandler, *domain.User) {
	t.Helper()
	e := echo.New()
	userRepo := testutil.NewMockUserRepository()
	authService := service.NewAuthService(userRepo)
	handler := NewProfileHandler(authService)

	name := "Test User"
	user := &domain.User{
		ID:      uuid.New(),
		Auth0ID: "auth0|profile123",
		Email:   "profile@example.com",
		Name:    &name,
	}
	userRepo.AddUser(user)
	return e, userRepo, handler, user
}

func TestGetProfile_Success(t *testing.T) {
	e, _, handler, user := setupProfileTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupUserContext(c, user.ID)

	if err := handler.GetProfile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Email != "profile@example.com" {
		t.Errorf("Expected email 'profile@example.com', got %s", response.Email)
	}
}

func TestGetProfile_Unauthenticated(t *testing.T) {
	e, _, handler, _ := setupProfileTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.GetProfile(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestUpdateProfile_Success(t *testing.T) {
	e, _, handler, user := setupProfileTest(t)

	body := `{"name":"Renamed User","pictureUrl":"https://example.com/new.jpg"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupUserContext(c, user.ID)

	if err := handler.UpdateProfile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Name == nil || *response.Name != "Renamed User" {
		t.Errorf("Expected name 'Renamed User', got %v", response.Name)
	}
}

func TestUpdateProfile_EmptyName(t *testing.T) {
	e, _, handler, user := setupProfileTest(t)

	body := `{"name":"   "}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupUserContext(c, user.ID)

	if err := handler.UpdateProfile(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

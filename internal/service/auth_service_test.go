package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/testutil"
)

func TestAuthenticateUser_NewUser(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewAuthService(userRepo)

	auth0ID := "auth0|12345"
	email := "test@example.com"
	name := "Test User"

	result, err := service.AuthenticateUser(auth0ID, email, &name, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	if !result.IsNewUser {
		t.Error("Expected IsNewUser to be true for new user")
	}
	if result.User == nil {
		t.Fatal("Expected user, got nil")
	}
	if result.User.Auth0ID != auth0ID {
		t.Errorf("Expected auth0ID %s, got %s", auth0ID, result.User.Auth0ID)
	}
	if result.User.Email != email {
		t.Errorf("Expected email %s, got %s", email, result.User.Email)
	}
}

func TestAuthenticateUser_ExistingUser(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewAuthService(userRepo)

	auth0ID := "auth0|12345"
	existing := &domain.User{
		ID:      uuid.New(),
		Auth0ID: auth0ID,
		Email:   "test@example.com",
	}
	userRepo.AddUser(existing)

	result, err := service.AuthenticateUser(auth0ID, "test@example.com", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.IsNewUser {
		t.Error("Expected IsNewUser to be false for existing user")
	}
	if result.User.ID != existing.ID {
		t.Error("Expected the existing user to be returned")
	}
}

func TestGetUserByAuth0ID_NotFound(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewAuthService(userRepo)

	if _, err := service.GetUserByAuth0ID("auth0|missing"); err != domain.ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestGetUserIDByAuth0ID(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewAuthService(userRepo)

	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|12345", Email: "test@example.com"}
	userRepo.AddUser(user)

	id, err := service.GetUserIDByAuth0ID("auth0|12345")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if id != user.ID {
		t.Errorf("Expected %s, got %s", user.ID, id)
	}

	if _, err := service.GetUserIDByAuth0ID("auth0|missing"); err != domain.ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewAuthService(userRepo)

	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|12345", Email: "test@example.com"}
	userRepo.AddUser(user)

	name := "New Name"
	updated, err := service.UpdateProfile(user.ID, UpdateProfileInput{Name: &name})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Name == nil || *updated.Name != "New Name" {
		t.Error("Expected name to be updated")
	}
}

func TestUpdateProfile_UserNotFound(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewAuthService(userRepo)

	if _, err := service.UpdateProfile(uuid.New(), UpdateProfileInput{}); err != domain.ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

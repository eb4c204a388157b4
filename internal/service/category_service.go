package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/websocket"
)

// CategoryService handles category business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	publisher    websocket.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, publisher websocket.EventPublisher) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		publisher:    publisher,
	}
}

// CreateCategoryInput holds the input for creating a category
type CreateCategoryInput struct {
	Name        string
	Description *string
	Color       *string
	Icon        *string
}

// CreateCategory creates a new user-owned category. Names must be unique
// among the user's own categories, case-insensitively.
func (s *CategoryService) CreateCategory(userID uuid.UUID, input CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return nil, domain.ErrNameTooLong
	}

	taken, err := s.categoryRepo.NameExists(userID, name, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrCategoryNameTaken
	}

	category := &domain.Category{
		UserID:      &userID,
		Name:        name,
		Description: input.Description,
		Color:       input.Color,
		Icon:        input.Icon,
		IsSystem:    false,
		IsActive:    true,
	}

	created, err := s.categoryRepo.Create(category)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.CategoryCreated(created))
	return created, nil
}

// GetCategories retrieves the user's categories plus the system categories
func (s *CategoryService) GetCategories(userID uuid.UUID) ([]*domain.Category, error) {
	return s.categoryRepo.ListForUser(userID)
}

// GetCategoryByID retrieves a single category (owned or system)
func (s *CategoryService) GetCategoryByID(userID uuid.UUID, id int32) (*domain.Category, error) {
	return s.categoryRepo.GetByID(userID, id)
}

// UpdateCategoryInput holds the input for updating a category
type UpdateCategoryInput struct {
	Name        string
	Description *string
	Color       *string
	Icon        *string
	IsActive    bool
}

// UpdateCategory updates a user-owned category. System categories are read-only.
func (s *CategoryService) UpdateCategory(userID uuid.UUID, id int32, input UpdateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return nil, domain.ErrNameTooLong
	}

	existing, err := s.categoryRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if existing.IsSystem {
		return nil, domain.ErrSystemCategoryReadOnly
	}

	taken, err := s.categoryRepo.NameExists(userID, name, &id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrCategoryNameTaken
	}

	existing.Name = name
	existing.Description = input.Description
	existing.Color = input.Color
	existing.Icon = input.Icon
	existing.IsActive = input.IsActive

	updated, err := s.categoryRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.CategoryUpdated(updated))
	return updated, nil
}

// DeleteCategory deletes a user-owned category. System categories cannot be
// deleted.
func (s *CategoryService) DeleteCategory(userID uuid.UUID, id int32) error {
	existing, err := s.categoryRepo.GetByID(userID, id)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return domain.ErrSystemCategoryReadOnly
	}

	if err := s.categoryRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.CategoryDeleted(existing))
	return nil
}

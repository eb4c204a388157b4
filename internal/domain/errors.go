package domain

import "errors"

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInternalError       = errors.New("internal error")
	ErrUserNotFound        = errors.New("user not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrRecurringNotFound   = errors.New("recurring transaction not found")

	ErrDescriptionRequired    = errors.New("description is required")
	ErrDescriptionTooLong     = errors.New("description exceeds maximum length")
	ErrNameRequired           = errors.New("name is required")
	ErrNameTooLong            = errors.New("name exceeds maximum length")
	ErrNotesTooLong           = errors.New("notes exceed maximum length")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidDateRange       = errors.New("end date must not be before start date")
	ErrFutureTransactionDate  = errors.New("transaction date must not be in the future")
	ErrCategoryInactive       = errors.New("category is inactive")
	ErrSystemCategoryReadOnly = errors.New("system categories cannot be modified")
	ErrCategoryNameTaken      = errors.New("category name already in use")
	ErrInvalidMonth           = errors.New("month must be between 1 and 12")
	ErrInvalidYear            = errors.New("year is out of range")
	ErrBudgetExists           = errors.New("budget already exists for this category and month")
	ErrBudgetInPast           = errors.New("cannot create a budget for a past month")
)

// Validation constants
const (
	MaxDescriptionLength  = 255
	MaxCategoryNameLength = 100
	MaxNotesLength        = 1000
	MinBudgetYear         = 2000
	MaxBudgetYear         = 2100
)

package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/util"
	"github.com/smartexpense/smartexpense-backend/internal/websocket"
)

// autoGeneratedSuffix marks transactions materialized from a recurring transaction
const autoGeneratedSuffix = " (Auto-generated)"

// maxOccurrencesPerRun caps the number of dates produced in one generation run.
// Hitting it means the schedule data is anomalous (e.g. a daily rule untouched
// for years), not that the cap is a business rule.
const maxOccurrencesPerRun = 100

// RecurringService handles recurring transaction templates and the generation
// of concrete transactions from them
type RecurringService struct {
	recurringRepo   domain.RecurringRepository
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	clock           domain.Clock
	publisher       websocket.EventPublisher
}

// NewRecurringService creates a new RecurringService
func NewRecurringService(
	recurringRepo domain.RecurringRepository,
	transactionRepo domain.TransactionRepository,
	categoryRepo domain.CategoryRepository,
	clock domain.Clock,
	publisher websocket.EventPublisher,
) *RecurringService {
	return &RecurringService{
		recurringRepo:   recurringRepo,
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		clock:           clock,
		publisher:       publisher,
	}
}

// CreateRecurringInput holds the input for creating a recurring transaction
type CreateRecurringInput struct {
	CategoryID  int32
	Description string
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Frequency   domain.Frequency
	StartDate   time.Time
	EndDate     *time.Time
	Notes       *string
}

// CreateRecurring creates a new recurring transaction template
func (s *RecurringService) CreateRecurring(userID uuid.UUID, input CreateRecurringInput) (*domain.RecurringTransaction, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.ErrDescriptionRequired
	}
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if input.Type != domain.TransactionTypeIncome && input.Type != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}

	if !domain.ValidFrequency(input.Frequency) {
		return nil, domain.ErrInvalidFrequency
	}

	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}

	if err := validateCategory(s.categoryRepo, userID, input.CategoryID); err != nil {
		return nil, err
	}

	rt := &domain.RecurringTransaction{
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Description: description,
		Amount:      input.Amount,
		Type:        input.Type,
		Frequency:   input.Frequency,
		StartDate:   util.DateOnly(input.StartDate),
		EndDate:     dateOnlyPtr(input.EndDate),
		IsActive:    true,
		Notes:       input.Notes,
	}

	created, err := s.recurringRepo.Create(rt)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.RecurringCreated(created))
	return created, nil
}

// ListRecurring retrieves all recurring transactions for a user
func (s *RecurringService) ListRecurring(userID uuid.UUID, activeOnly *bool) ([]*domain.RecurringTransaction, error) {
	return s.recurringRepo.ListByUser(userID, activeOnly)
}

// GetRecurringByID retrieves a recurring transaction by ID
func (s *RecurringService) GetRecurringByID(userID uuid.UUID, id int32) (*domain.RecurringTransaction, error) {
	return s.recurringRepo.GetByID(userID, id)
}

// UpdateRecurringInput holds the input for updating a recurring transaction
type UpdateRecurringInput struct {
	CategoryID  int32
	Description string
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Frequency   domain.Frequency
	StartDate   time.Time
	EndDate     *time.Time
	IsActive    bool
	Notes       *string
}

// UpdateRecurring updates an existing recurring transaction
func (s *RecurringService) UpdateRecurring(userID uuid.UUID, id int32, input UpdateRecurringInput) (*domain.RecurringTransaction, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.ErrDescriptionRequired
	}
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if input.Type != domain.TransactionTypeIncome && input.Type != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}

	if !domain.ValidFrequency(input.Frequency) {
		return nil, domain.ErrInvalidFrequency
	}

	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}

	if err := validateCategory(s.categoryRepo, userID, input.CategoryID); err != nil {
		return nil, err
	}

	existing, err := s.recurringRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	existing.CategoryID = input.CategoryID
	existing.Description = description
	existing.Amount = input.Amount
	existing.Type = input.Type
	existing.Frequency = input.Frequency
	existing.StartDate = util.DateOnly(input.StartDate)
	existing.EndDate = dateOnlyPtr(input.EndDate)
	existing.IsActive = input.IsActive
	existing.Notes = input.Notes

	updated, err := s.recurringRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.RecurringUpdated(updated))
	return updated, nil
}

// ToggleActive flips the active flag of a recurring transaction
func (s *RecurringService) ToggleActive(userID uuid.UUID, id int32) (*domain.RecurringTransaction, error) {
	existing, err := s.recurringRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	existing.IsActive = !existing.IsActive

	updated, err := s.recurringRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, websocket.RecurringUpdated(updated))
	return updated, nil
}

// DeleteRecurring deletes a recurring transaction
func (s *RecurringService) DeleteRecurring(userID uuid.UUID, id int32) error {
	existing, err := s.recurringRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.recurringRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.RecurringDeleted(existing))
	return nil
}

// NextDueDate returns the first occurrence of the recurring transaction
// strictly after its generation cursor, or nil when the schedule has ended
func (s *RecurringService) NextDueDate(rt *domain.RecurringTransaction) *time.Time {
	cursor := rt.StartDate.AddDate(0, 0, -1)
	if rt.LastGeneratedAt != nil {
		cursor = util.DateOnly(*rt.LastGeneratedAt)
	}

	next := nextOccurrence(rt.StartDate, cursor, rt.Frequency)
	if rt.EndDate != nil && next.After(*rt.EndDate) {
		return nil
	}
	return &next
}

// GenerateDue materializes every due occurrence of one recurring transaction
// into concrete transactions, advances the generation cursor and returns what
// was created. Occurrences that already have a linked transaction on the same
// calendar date are skipped, so re-running is safe.
func (s *RecurringService) GenerateDue(userID uuid.UUID, id int32) (*domain.GenerationResult, error) {
	rt, err := s.recurringRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	return s.generate(userID, rt)
}

// GenerateAllDue runs generation for every active recurring transaction of the user
func (s *RecurringService) GenerateAllDue(userID uuid.UUID) (*domain.GenerationResult, error) {
	activeOnly := true
	rules, err := s.recurringRepo.ListByUser(userID, &activeOnly)
	if err != nil {
		return nil, err
	}

	total := &domain.GenerationResult{Generated: []*domain.GeneratedTransaction{}}
	for _, rt := range rules {
		result, err := s.generate(userID, rt)
		if err != nil {
			return nil, err
		}
		total.TransactionsGenerated += result.TransactionsGenerated
		total.Generated = append(total.Generated, result.Generated...)
	}
	return total, nil
}

func (s *RecurringService) generate(userID uuid.UUID, rt *domain.RecurringTransaction) (*domain.GenerationResult, error) {
	now := s.clock.Now()
	asOf := util.DateOnly(now)

	result := &domain.GenerationResult{Generated: []*domain.GeneratedTransaction{}}

	for _, due := range s.dueDates(rt, asOf) {
		exists, err := s.transactionRepo.ExistsForRecurring(userID, rt.ID, due)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		recurringID := rt.ID
		tx := &domain.Transaction{
			UserID:            userID,
			CategoryID:        rt.CategoryID,
			Description:       rt.Description + autoGeneratedSuffix,
			Amount:            rt.Amount,
			Type:              rt.Type,
			TransactionDate:   due,
			Notes:             rt.Notes,
			SourceRecurringID: &recurringID,
		}

		created, err := s.transactionRepo.Create(tx)
		if err != nil {
			return nil, err
		}

		result.Generated = append(result.Generated, &domain.GeneratedTransaction{
			RecurringID:     rt.ID,
			TransactionID:   created.ID,
			Description:     created.Description,
			Amount:          created.Amount,
			Type:            created.Type,
			TransactionDate: created.TransactionDate,
		})
	}
	result.TransactionsGenerated = len(result.Generated)

	// The cursor always advances to the run instant, even when nothing was
	// due, so the next run starts from here
	rt.LastGeneratedAt = &now
	if _, err := s.recurringRepo.Update(rt); err != nil {
		return nil, err
	}

	if result.TransactionsGenerated > 0 {
		log.Info().
			Str("user_id", userID.String()).
			Int32("recurring_id", rt.ID).
			Int("count", result.TransactionsGenerated).
			Msg("Generated transactions from recurring transaction")
		s.publisher.Publish(userID, websocket.RecurringGenerated(result))
	}

	return result, nil
}

// dueDates walks the schedule from the generation cursor and collects every
// occurrence due on or before asOf that falls within [StartDate, EndDate]
func (s *RecurringService) dueDates(rt *domain.RecurringTransaction, asOf time.Time) []time.Time {
	cursor := rt.StartDate.AddDate(0, 0, -1)
	if rt.LastGeneratedAt != nil {
		cursor = util.DateOnly(*rt.LastGeneratedAt)
	}

	var dates []time.Time
	for {
		cursor = nextOccurrence(rt.StartDate, cursor, rt.Frequency)
		if cursor.After(asOf) {
			break
		}
		if cursor.Before(rt.StartDate) {
			continue
		}
		if rt.EndDate != nil && cursor.After(*rt.EndDate) {
			break
		}

		dates = append(dates, cursor)
		if len(dates) >= maxOccurrencesPerRun {
			log.Warn().
				Int32("recurring_id", rt.ID).
				Str("frequency", string(rt.Frequency)).
				Time("as_of", asOf).
				Msg("Occurrence cap reached, stopping generation early")
			break
		}
	}
	return dates
}

// nextOccurrence advances the schedule one step. A cursor before the start
// date snaps to the start date, so the first occurrence is always the start
// itself. Month and year steps clamp the day to the target month's length.
func nextOccurrence(startDate, current time.Time, frequency domain.Frequency) time.Time {
	if current.Before(startDate) {
		return startDate
	}

	switch frequency {
	case domain.FrequencyDaily:
		return current.AddDate(0, 0, 1)
	case domain.FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case domain.FrequencyMonthly:
		return util.AddMonthsClamped(current, 1)
	case domain.FrequencyYearly:
		return util.AddMonthsClamped(current, 12)
	default:
		// Unknown frequencies are rejected at validation time; step daily so
		// a bad row can never wedge the loop
		return current.AddDate(0, 0, 1)
	}
}

// validateCategory checks that the category exists (owned or system) and is active
func validateCategory(categoryRepo domain.CategoryRepository, userID uuid.UUID, categoryID int32) error {
	category, err := categoryRepo.GetByID(userID, categoryID)
	if err != nil {
		return domain.ErrCategoryNotFound
	}
	if !category.IsActive {
		return domain.ErrCategoryInactive
	}
	return nil
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := util.DateOnly(*t)
	return &d
}

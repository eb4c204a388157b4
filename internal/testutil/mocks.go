package testutil

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
	"github.com/smartexpense/smartexpense-backend/internal/util"
	"github.com/smartexpense/smartexpense-backend/internal/websocket"
)

// MockClock is a Clock pinned to a fixed instant
type MockClock struct {
	NowTime time.Time
}

// NewMockClock creates a MockClock pinned to the given instant
func NewMockClock(now time.Time) *MockClock {
	return &MockClock{NowTime: now}
}

// Now returns the pinned instant
func (c *MockClock) Now() time.Time {
	return c.NowTime
}

// Advance moves the pinned instant forward
func (c *MockClock) Advance(d time.Duration) {
	c.NowTime = c.NowTime.Add(d)
}

// RecordedEvent is one event captured by RecordingPublisher
type RecordedEvent struct {
	UserID uuid.UUID
	Event  websocket.Event
}

// RecordingPublisher captures published events for assertions
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

// NewRecordingPublisher creates a new RecordingPublisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records the event
func (p *RecordingPublisher) Publish(userID uuid.UUID, event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, RecordedEvent{UserID: userID, Event: event})
}

// EventTypes returns the types of all recorded events in order
func (p *RecordingPublisher) EventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.Events))
	for i, e := range p.Events {
		types[i] = e.Event.Type
	}
	return types
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(auth0ID, email string, name, pictureURL *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// Create creates a new user
func (m *MockUserRepository) Create(user *domain.User) (*domain.User, error) {
	user.ID = uuid.New()
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// Update updates an existing user
func (m *MockUserRepository) Update(user *domain.User) (*domain.User, error) {
	if _, ok := m.ByID[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name, pictureURL)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
	}
	m.Users[auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[int32]*domain.Category
	NextID     int32
	CreateFn   func(category *domain.Category) (*domain.Category, error)
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int32]*domain.Category),
		NextID:     1,
	}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	if m.CreateFn != nil {
		return m.CreateFn(category)
	}
	category.ID = m.NextID
	m.NextID++
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category owned by the user or a system category
func (m *MockCategoryRepository) GetByID(userID uuid.UUID, id int32) (*domain.Category, error) {
	category, ok := m.Categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	if category.IsSystem {
		return category, nil
	}
	if category.UserID != nil && *category.UserID == userID {
		return category, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// ListForUser retrieves the user's categories plus system categories
func (m *MockCategoryRepository) ListForUser(userID uuid.UUID) ([]*domain.Category, error) {
	var categories []*domain.Category
	for _, c := range m.Categories {
		if c.IsSystem || (c.UserID != nil && *c.UserID == userID) {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

// Update updates an existing category
func (m *MockCategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	if _, ok := m.Categories[category.ID]; !ok {
		return nil, domain.ErrCategoryNotFound
	}
	m.Categories[category.ID] = category
	return category, nil
}

// Delete removes a user-owned category
func (m *MockCategoryRepository) Delete(userID uuid.UUID, id int32) error {
	category, ok := m.Categories[id]
	if !ok || category.IsSystem || category.UserID == nil || *category.UserID != userID {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	return nil
}

// NameExists reports whether the user already owns a category with the given name
func (m *MockCategoryRepository) NameExists(userID uuid.UUID, name string, excludeID *int32) (bool, error) {
	for _, c := range m.Categories {
		if c.IsSystem || c.UserID == nil || *c.UserID != userID {
			continue
		}
		if excludeID != nil && c.ID == *excludeID {
			continue
		}
		if strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	if category.ID >= m.NextID {
		m.NextID = category.ID + 1
	}
	m.Categories[category.ID] = category
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	NextID       int32
	CreateFn     func(transaction *domain.Transaction) (*domain.Transaction, error)
	ExistsFn     func(userID uuid.UUID, recurringID int32, date time.Time) (bool, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(transaction)
	}
	transaction.ID = m.NextID
	m.NextID++
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = time.Now()
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// GetByID retrieves a transaction by ID for a user
func (m *MockTransactionRepository) GetByID(userID uuid.UUID, id int32) (*domain.Transaction, error) {
	if t, ok := m.Transactions[id]; ok && t.UserID == userID {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetByUser retrieves transactions matching the filters, paginated
func (m *MockTransactionRepository) GetByUser(userID uuid.UUID, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	var matched []*domain.Transaction
	for _, t := range m.Transactions {
		if t.UserID != userID {
			continue
		}
		if filters.CategoryID != nil && t.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.Type != nil && t.Type != *filters.Type {
			continue
		}
		if filters.StartDate != nil && util.DateOnly(t.TransactionDate).Before(util.DateOnly(*filters.StartDate)) {
			continue
		}
		if filters.EndDate != nil && util.DateOnly(t.TransactionDate).After(util.DateOnly(*filters.EndDate)) {
			continue
		}
		if filters.Search != nil && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(*filters.Search)) {
			continue
		}
		if filters.MinAmount != nil && t.Amount.LessThan(*filters.MinAmount) {
			continue
		}
		if filters.MaxAmount != nil && t.Amount.GreaterThan(*filters.MaxAmount) {
			continue
		}
		matched = append(matched, t)
	}

	// Newest first, matching the repository default
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].TransactionDate.Equal(matched[j].TransactionDate) {
			return matched[i].TransactionDate.After(matched[j].TransactionDate)
		}
		return matched[i].ID > matched[j].ID
	})

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}

	totalItems := int64(len(matched))
	totalPages := int32((totalItems + int64(pageSize) - 1) / int64(pageSize))

	startIdx := int((page - 1) * pageSize)
	if startIdx > len(matched) {
		startIdx = len(matched)
	}
	endIdx := startIdx + int(pageSize)
	if endIdx > len(matched) {
		endIdx = len(matched)
	}

	return &domain.PaginatedTransactions{
		Data:       matched[startIdx:endIdx],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// ListByDateRange retrieves every transaction in the range, oldest first
func (m *MockTransactionRepository) ListByDateRange(userID uuid.UUID, start, end time.Time, txType *domain.TransactionType, categoryID *int32) ([]*domain.Transaction, error) {
	var matched []*domain.Transaction
	for _, t := range m.Transactions {
		if t.UserID != userID {
			continue
		}
		date := util.DateOnly(t.TransactionDate)
		if date.Before(util.DateOnly(start)) || date.After(util.DateOnly(end)) {
			continue
		}
		if txType != nil && t.Type != *txType {
			continue
		}
		if categoryID != nil && t.CategoryID != *categoryID {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].TransactionDate.Equal(matched[j].TransactionDate) {
			return matched[i].TransactionDate.Before(matched[j].TransactionDate)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

// ListRecent retrieves the most recent transactions
func (m *MockTransactionRepository) ListRecent(userID uuid.UUID, limit int32) ([]*domain.Transaction, error) {
	var matched []*domain.Transaction
	for _, t := range m.Transactions {
		if t.UserID == userID {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].TransactionDate.Equal(matched[j].TransactionDate) {
			return matched[i].TransactionDate.After(matched[j].TransactionDate)
		}
		return matched[i].ID > matched[j].ID
	})
	if int32(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Update updates an existing transaction
func (m *MockTransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	existing, ok := m.Transactions[transaction.ID]
	if !ok || existing.UserID != transaction.UserID {
		return nil, domain.ErrTransactionNotFound
	}
	transaction.UpdatedAt = time.Now()
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(userID uuid.UUID, id int32) error {
	if t, ok := m.Transactions[id]; ok && t.UserID == userID {
		delete(m.Transactions, id)
		return nil
	}
	return domain.ErrTransactionNotFound
}

// ExistsForRecurring reports whether a generated transaction already exists
// for the recurring transaction on the given calendar date
func (m *MockTransactionRepository) ExistsForRecurring(userID uuid.UUID, recurringID int32, date time.Time) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(userID, recurringID, date)
	}
	for _, t := range m.Transactions {
		if t.UserID != userID || t.SourceRecurringID == nil || *t.SourceRecurringID != recurringID {
			continue
		}
		if util.DateOnly(t.TransactionDate).Equal(util.DateOnly(date)) {
			return true, nil
		}
	}
	return false, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	if transaction.ID >= m.NextID {
		m.NextID = transaction.ID + 1
	}
	m.Transactions[transaction.ID] = transaction
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	Budgets  map[int32]*domain.Budget
	NextID   int32
	CreateFn func(budget *domain.Budget) (*domain.Budget, error)
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets: make(map[int32]*domain.Budget),
		NextID:  1,
	}
}

// Create creates a new budget
func (m *MockBudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	if m.CreateFn != nil {
		return m.CreateFn(budget)
	}
	budget.ID = m.NextID
	m.NextID++
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// GetByID retrieves a budget by ID for a user
func (m *MockBudgetRepository) GetByID(userID uuid.UUID, id int32) (*domain.Budget, error) {
	if b, ok := m.Budgets[id]; ok && b.UserID == userID {
		return b, nil
	}
	return nil, domain.ErrBudgetNotFound
}

// ListByMonth retrieves all budgets for a month
func (m *MockBudgetRepository) ListByMonth(userID uuid.UUID, month, year int32) ([]*domain.Budget, error) {
	var budgets []*domain.Budget
	for _, b := range m.Budgets {
		if b.UserID == userID && b.Month == month && b.Year == year {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].ID < budgets[j].ID })
	return budgets, nil
}

// Update updates an existing budget
func (m *MockBudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	existing, ok := m.Budgets[budget.ID]
	if !ok || existing.UserID != budget.UserID {
		return nil, domain.ErrBudgetNotFound
	}
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// Delete removes a budget
func (m *MockBudgetRepository) Delete(userID uuid.UUID, id int32) error {
	if b, ok := m.Budgets[id]; ok && b.UserID == userID {
		delete(m.Budgets, id)
		return nil
	}
	return domain.ErrBudgetNotFound
}

// Exists reports whether a budget exists for the category and month
func (m *MockBudgetRepository) Exists(userID uuid.UUID, categoryID int32, month, year int32, excludeID *int32) (bool, error) {
	for _, b := range m.Budgets {
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if b.UserID == userID && b.CategoryID == categoryID && b.Month == month && b.Year == year {
			return true, nil
		}
	}
	return false, nil
}

// AddBudget adds a budget to the mock repository (helper for tests)
func (m *MockBudgetRepository) AddBudget(budget *domain.Budget) {
	if budget.ID >= m.NextID {
		m.NextID = budget.ID + 1
	}
	m.Budgets[budget.ID] = budget
}

// MockRecurringRepository is a mock implementation of domain.RecurringRepository
type MockRecurringRepository struct {
	Recurring map[int32]*domain.RecurringTransaction
	NextID    int32
	UpdateFn  func(rt *domain.RecurringTransaction) (*domain.RecurringTransaction, error)
}

// NewMockRecurringRepository creates a new MockRecurringRepository
func NewMockRecurringRepository() *MockRecurringRepository {
	return &MockRecurringRepository{
		Recurring: make(map[int32]*domain.RecurringTransaction),
		NextID:    1,
	}
}

// Create creates a new recurring transaction
func (m *MockRecurringRepository) Create(rt *domain.RecurringTransaction) (*domain.RecurringTransaction, error) {
	rt.ID = m.NextID
	m.NextID++
	m.Recurring[rt.ID] = rt
	return rt, nil
}

// GetByID retrieves a recurring transaction by ID for a user
func (m *MockRecurringRepository) GetByID(userID uuid.UUID, id int32) (*domain.RecurringTransaction, error) {
	if rt, ok := m.Recurring[id]; ok && rt.UserID == userID {
		return rt, nil
	}
	return nil, domain.ErrRecurringNotFound
}

// ListByUser retrieves recurring transactions for a user
func (m *MockRecurringRepository) ListByUser(userID uuid.UUID, activeOnly *bool) ([]*domain.RecurringTransaction, error) {
	var result []*domain.RecurringTransaction
	for _, rt := range m.Recurring {
		if rt.UserID != userID {
			continue
		}
		if activeOnly != nil && *activeOnly && !rt.IsActive {
			continue
		}
		result = append(result, rt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update updates an existing recurring transaction
func (m *MockRecurringRepository) Update(rt *domain.RecurringTransaction) (*domain.RecurringTransaction, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(rt)
	}
	existing, ok := m.Recurring[rt.ID]
	if !ok || existing.UserID != rt.UserID {
		return nil, domain.ErrRecurringNotFound
	}
	m.Recurring[rt.ID] = rt
	return rt, nil
}

// Delete removes a recurring transaction
func (m *MockRecurringRepository) Delete(userID uuid.UUID, id int32) error {
	if rt, ok := m.Recurring[id]; ok && rt.UserID == userID {
		delete(m.Recurring, id)
		return nil
	}
	return domain.ErrRecurringNotFound
}

// AddRecurring adds a recurring transaction to the mock repository (helper for tests)
func (m *MockRecurringRepository) AddRecurring(rt *domain.RecurringTransaction) {
	if rt.ID >= m.NextID {
		m.NextID = rt.ID + 1
	}
	m.Recurring[rt.ID] = rt
}

// MockReceiptRepository is an in-memory implementation of storage.ReceiptRepository
type MockReceiptRepository struct {
	Objects  map[string][]byte
	UploadFn func(objectPath string, data []byte) (string, error)
}

// NewMockReceiptRepository creates a new MockReceiptRepository
func NewMockReceiptRepository() *MockReceiptRepository {
	return &MockReceiptRepository{
		Objects: make(map[string][]byte),
	}
}

// Upload stores the object in memory and returns its path
func (m *MockReceiptRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	if m.UploadFn != nil {
		return m.UploadFn(objectPath, buf)
	}
	m.Objects[objectPath] = buf
	return objectPath, nil
}

// Delete removes an object
func (m *MockReceiptRepository) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a deterministic fake URL for the object
func (m *MockReceiptRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + objectPath + "?signed=1", nil
}

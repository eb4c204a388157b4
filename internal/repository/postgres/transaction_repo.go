package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
)

// transactionColumns are selected with the category name joined in
var transactionColumns = []string{
	"t.id", "t.user_id", "t.category_id", "c.name", "t.description", "t.amount",
	"t.type", "t.transaction_date", "t.notes", "t.source_recurring_id",
	"t.receipt_path", "t.created_at", "t.updated_at",
}

// sortColumns whitelists user-supplied sort keys
var sortColumns = map[string]string{
	"date":        "t.transaction_date",
	"amount":      "t.amount",
	"description": "t.description",
	"created":     "t.created_at",
}

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create creates a new transaction
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := squirrel.Insert("transactions").
		Columns("user_id", "category_id", "description", "amount", "type",
			"transaction_date", "notes", "source_recurring_id", "receipt_path").
		Values(transaction.UserID, transaction.CategoryID, transaction.Description,
			amount, transaction.Type, transaction.TransactionDate, transaction.Notes,
			transaction.SourceRecurringID, transaction.ReceiptPath).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var id int32
	if err := r.pool.QueryRow(context.Background(), sql, args...).Scan(&id); err != nil {
		return nil, err
	}

	return r.GetByID(transaction.UserID, id)
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(userID uuid.UUID, id int32) (*domain.Transaction, error) {
	query := r.baseSelect().
		Where(squirrel.Eq{"t.id": id, "t.user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	transaction, err := r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrTransactionNotFound
	}
	return transaction, err
}

// GetByUser retrieves a filtered, paginated page of the user's transactions
func (r *TransactionRepository) GetByUser(userID uuid.UUID, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	ctx := context.Background()

	conditions := r.filterConditions(userID, filters)

	countQuery := squirrel.Select("count(*)").
		From("transactions t").
		Join("categories c ON c.id = t.category_id").
		Where(conditions).
		PlaceholderFormat(squirrel.Dollar)

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, err
	}

	var totalItems int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&totalItems); err != nil {
		return nil, err
	}

	orderBy := "t.transaction_date DESC, t.id DESC"
	if col, ok := sortColumns[filters.SortBy]; ok {
		direction := "ASC"
		if filters.SortDesc {
			direction = "DESC"
		}
		orderBy = fmt.Sprintf("%s %s, t.id DESC", col, direction)
	}

	offset := uint64(filters.Page-1) * uint64(filters.PageSize)
	query := r.baseSelect().
		Where(conditions).
		OrderBy(orderBy).
		Limit(uint64(filters.PageSize)).
		Offset(offset)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []*domain.Transaction{}
	for rows.Next() {
		transaction, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int32((totalItems + int64(filters.PageSize) - 1) / int64(filters.PageSize))

	return &domain.PaginatedTransactions{
		Data:       transactions,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// ListByDateRange returns every matching transaction in [start, end], oldest
// first, without pagination. It backs the analytics rollups.
func (r *TransactionRepository) ListByDateRange(userID uuid.UUID, start, end time.Time, txType *domain.TransactionType, categoryID *int32) ([]*domain.Transaction, error) {
	query := r.baseSelect().
		Where(squirrel.Eq{"t.user_id": userID}).
		Where(squirrel.GtOrEq{"t.transaction_date": start}).
		Where(squirrel.LtOrEq{"t.transaction_date": end}).
		OrderBy("t.transaction_date ASC", "t.id ASC")
	if txType != nil {
		query = query.Where(squirrel.Eq{"t.type": *txType})
	}
	if categoryID != nil {
		query = query.Where(squirrel.Eq{"t.category_id": *categoryID})
	}

	return r.list(query)
}

// ListRecent retrieves the user's newest transactions
func (r *TransactionRepository) ListRecent(userID uuid.UUID, limit int32) ([]*domain.Transaction, error) {
	query := r.baseSelect().
		Where(squirrel.Eq{"t.user_id": userID}).
		OrderBy("t.transaction_date DESC", "t.id DESC").
		Limit(uint64(limit))

	return r.list(query)
}

// Update updates an existing transaction
func (r *TransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := squirrel.Update("transactions").
		Set("category_id", transaction.CategoryID).
		Set("description", transaction.Description).
		Set("amount", amount).
		Set("type", transaction.Type).
		Set("transaction_date", transaction.TransactionDate).
		Set("notes", transaction.Notes).
		Set("receipt_path", transaction.ReceiptPath).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": transaction.ID, "user_id": transaction.UserID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	tag, err := r.pool.Exec(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTransactionNotFound
	}

	return r.GetByID(transaction.UserID, transaction.ID)
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(userID uuid.UUID, id int32) error {
	query := squirrel.Delete("transactions").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(context.Background(), sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// ExistsForRecurring reports whether a transaction generated from the given
// recurring transaction already exists on the given calendar date. This is the
// duplicate guard for generation runs.
func (r *TransactionRepository) ExistsForRecurring(userID uuid.UUID, recurringID int32, date time.Time) (bool, error) {
	query := squirrel.Select("1").
		From("transactions").
		Where(squirrel.Eq{
			"user_id":             userID,
			"source_recurring_id": recurringID,
			"transaction_date":    date,
		}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.pool.QueryRow(context.Background(), sql, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *TransactionRepository) baseSelect() squirrel.SelectBuilder {
	return squirrel.Select(transactionColumns...).
		From("transactions t").
		Join("categories c ON c.id = t.category_id").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *TransactionRepository) filterConditions(userID uuid.UUID, filters *domain.TransactionFilters) squirrel.And {
	conditions := squirrel.And{squirrel.Eq{"t.user_id": userID}}

	if filters.CategoryID != nil {
		conditions = append(conditions, squirrel.Eq{"t.category_id": *filters.CategoryID})
	}
	if filters.Type != nil {
		conditions = append(conditions, squirrel.Eq{"t.type": *filters.Type})
	}
	if filters.StartDate != nil {
		conditions = append(conditions, squirrel.GtOrEq{"t.transaction_date": *filters.StartDate})
	}
	if filters.EndDate != nil {
		conditions = append(conditions, squirrel.LtOrEq{"t.transaction_date": *filters.EndDate})
	}
	if filters.Search != nil && *filters.Search != "" {
		pattern := "%" + *filters.Search + "%"
		conditions = append(conditions, squirrel.Or{
			squirrel.ILike{"t.description": pattern},
			squirrel.ILike{"t.notes": pattern},
		})
	}
	if filters.MinAmount != nil {
		conditions = append(conditions, squirrel.GtOrEq{"t.amount": filters.MinAmount.String()})
	}
	if filters.MaxAmount != nil {
		conditions = append(conditions, squirrel.LtOrEq{"t.amount": filters.MaxAmount.String()})
	}

	return conditions
}

func (r *TransactionRepository) list(query squirrel.SelectBuilder) ([]*domain.Transaction, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		transaction, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) scanRow(row pgx.Row) (*domain.Transaction, error) {
	var transaction domain.Transaction
	var amount pgtype.Numeric
	err := row.Scan(
		&transaction.ID, &transaction.UserID, &transaction.CategoryID,
		&transaction.CategoryName, &transaction.Description, &amount,
		&transaction.Type, &transaction.TransactionDate, &transaction.Notes,
		&transaction.SourceRecurringID, &transaction.ReceiptPath,
		&transaction.CreatedAt, &transaction.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	transaction.Amount = pgNumericToDecimal(amount)
	return &transaction, nil
}

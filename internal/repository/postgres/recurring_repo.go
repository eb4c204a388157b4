package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
)

var recurringColumns = []string{
	"r.id", "r.user_id", "r.category_id", "c.name", "r.description", "r.amount",
	"r.type", "r.frequency", "r.start_date", "r.end_date", "r.last_generated_at",
	"r.is_active", "r.notes", "r.created_at", "r.updated_at",
}

// RecurringRepository implements domain.RecurringRepository using PostgreSQL
type RecurringRepository struct {
	pool *pgxpool.Pool
}

// NewRecurringRepository creates a new RecurringRepository
func NewRecurringRepository(pool *pgxpool.Pool) *RecurringRepository {
	return &RecurringRepository{pool: pool}
}

// Create creates a new recurring transaction
func (r *RecurringRepository) Create(rt *domain.RecurringTransaction) (*domain.RecurringTransaction, error) {
	amount, err := decimalToPgNumeric(rt.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := squirrel.Insert("recurring_transactions").
		Columns("user_id", "category_id", "description", "amount", "type",
			"frequency", "start_date", "end_date", "is_active", "notes").
		Values(rt.UserID, rt.CategoryID, rt.Description, amount, rt.Type,
			rt.Frequency, rt.StartDate, rt.EndDate, rt.IsActive, rt.Notes).
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

	return r.GetByID(rt.UserID, id)
}

// GetByID retrieves a recurring transaction by ID
func (r *RecurringRepository) GetByID(userID uuid.UUID, id int32) (*domain.RecurringTransaction, error) {
	query := r.baseSelect().
		Where(squirrel.Eq{"r.id": id, "r.user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rt, err := r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrRecurringNotFound
	}
	return rt, err
}

// ListByUser retrieves the user's recurring transactions, optionally only
// the active ones
func (r *RecurringRepository) ListByUser(userID uuid.UUID, activeOnly *bool) ([]*domain.RecurringTransaction, error) {
	query := r.baseSelect().
		Where(squirrel.Eq{"r.user_id": userID}).
		OrderBy("r.id ASC")
	if activeOnly != nil && *activeOnly {
		query = query.Where(squirrel.Eq{"r.is_active": true})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.RecurringTransaction
	for rows.Next() {
		rt, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rt)
	}
	return result, rows.Err()
}

// Update updates an existing recurring transaction
func (r *RecurringRepository) Update(rt *domain.RecurringTransaction) (*domain.RecurringTransaction, error) {
	amount, err := decimalToPgNumeric(rt.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := squirrel.Update("recurring_transactions").
		Set("category_id", rt.CategoryID).
		Set("description", rt.Description).
		Set("amount", amount).
		Set("type", rt.Type).
		Set("frequency", rt.Frequency).
		Set("start_date", rt.StartDate).
		Set("end_date", rt.EndDate).
		Set("last_generated_at", rt.LastGeneratedAt).
		Set("is_active", rt.IsActive).
		Set("notes", rt.Notes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": rt.ID, "user_id": rt.UserID}).
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
		return nil, domain.ErrRecurringNotFound
	}

	return r.GetByID(rt.UserID, rt.ID)
}

// Delete removes a recurring transaction. Transactions generated from it keep
// their source link.
func (r *RecurringRepository) Delete(userID uuid.UUID, id int32) error {
	query := squirrel.Delete("recurring_transactions").
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
		return domain.ErrRecurringNotFound
	}
	return nil
}

func (r *RecurringRepository) baseSelect() squirrel.SelectBuilder {
	return squirrel.Select(recurringColumns...).
		From("recurring_transactions r").
		Join("categories c ON c.id = r.category_id").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *RecurringRepository) scanRow(row pgx.Row) (*domain.RecurringTransaction, error) {
	var rt domain.RecurringTransaction
	var amount pgtype.Numeric
	err := row.Scan(
		&rt.ID, &rt.UserID, &rt.CategoryID, &rt.CategoryName, &rt.Description,
		&amount, &rt.Type, &rt.Frequency, &rt.StartDate, &rt.EndDate,
		&rt.LastGeneratedAt, &rt.IsActive, &rt.Notes, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rt.Amount = pgNumericToDecimal(amount)
	return &rt, nil
}

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

var budgetColumns = []string{
	"b.id", "b.user_id", "b.category_id", "c.name", "b.amount", "b.month",
	"b.year", "b.created_at", "b.updated_at",
}

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

// Create creates a new budget
func (r *BudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := squirrel.Insert("budgets").
		Columns("user_id", "category_id", "amount", "month", "year").
		Values(budget.UserID, budget.CategoryID, amount, budget.Month, budget.Year).
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

	return r.GetByID(budget.UserID, id)
}

// GetByID retrieves a budget by ID
func (r *BudgetRepository) GetByID(userID uuid.UUID, id int32) (*domain.Budget, error) {
	query := r.baseSelect().
		Where(squirrel.Eq{"b.id": id, "b.user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	budget, err := r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrBudgetNotFound
	}
	return budget, err
}

// ListByMonth retrieves all budgets of the user for a month
func (r *BudgetRepository) ListByMonth(userID uuid.UUID, month, year int32) ([]*domain.Budget, error) {
	query := r.baseSelect().
		Where(squirrel.Eq{"b.user_id": userID, "b.month": month, "b.year": year}).
		OrderBy("c.name ASC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []*domain.Budget
	for rows.Next() {
		budget, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

// Update updates an existing budget
func (r *BudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	query := squirrel.Update("budgets").
		Set("amount", amount).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": budget.ID, "user_id": budget.UserID}).
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
		return nil, domain.ErrBudgetNotFound
	}

	return r.GetByID(budget.UserID, budget.ID)
}

// Delete removes a budget
func (r *BudgetRepository) Delete(userID uuid.UUID, id int32) error {
	query := squirrel.Delete("budgets").
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
		return domain.ErrBudgetNotFound
	}
	return nil
}

// Exists reports whether the user already has a budget for the category and month
func (r *BudgetRepository) Exists(userID uuid.UUID, categoryID int32, month, year int32, excludeID *int32) (bool, error) {
	query := squirrel.Select("1").
		From("budgets").
		Where(squirrel.Eq{
			"user_id":     userID,
			"category_id": categoryID,
			"month":       month,
			"year":        year,
		}).
		PlaceholderFormat(squirrel.Dollar)
	if excludeID != nil {
		query = query.Where(squirrel.NotEq{"id": *excludeID})
	}

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

func (r *BudgetRepository) baseSelect() squirrel.SelectBuilder {
	return squirrel.Select(budgetColumns...).
		From("budgets b").
		Join("categories c ON c.id = b.category_id").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *BudgetRepository) scanRow(row pgx.Row) (*domain.Budget, error) {
	var budget domain.Budget
	var amount pgtype.Numeric
	err := row.Scan(
		&budget.ID, &budget.UserID, &budget.CategoryID, &budget.CategoryName,
		&amount, &budget.Month, &budget.Year, &budget.CreatedAt, &budget.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	budget.Amount = pgNumericToDecimal(amount)
	return &budget, nil
}

package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
)

var categoryColumns = []string{"id", "user_id", "name", "description", "color", "icon", "is_system", "is_active", "created_at", "updated_at"}

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create creates a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	query := squirrel.Insert("categories").
		Columns("user_id", "name", "description", "color", "icon", "is_system", "is_active").
		Values(category.UserID, category.Name, category.Description, category.Color, category.Icon, category.IsSystem, category.IsActive).
		Suffix("RETURNING " + columnList(categoryColumns)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
}

// GetByID retrieves a category owned by the user or a system category
func (r *CategoryRepository) GetByID(userID uuid.UUID, id int32) (*domain.Category, error) {
	query := squirrel.Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Or{
			squirrel.Eq{"user_id": userID},
			squirrel.Eq{"is_system": true},
		}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	category, err := r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrCategoryNotFound
	}
	return category, err
}

// ListForUser retrieves the user's categories plus the system categories
func (r *CategoryRepository) ListForUser(userID uuid.UUID) ([]*domain.Category, error) {
	query := squirrel.Select(categoryColumns...).
		From("categories").
		Where(squirrel.Or{
			squirrel.Eq{"user_id": userID},
			squirrel.Eq{"is_system": true},
		}).
		OrderBy("is_system DESC", "name ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// Update updates a user-owned category
func (r *CategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	query := squirrel.Update("categories").
		Set("name", category.Name).
		Set("description", category.Description).
		Set("color", category.Color).
		Set("icon", category.Icon).
		Set("is_active", category.IsActive).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": category.ID, "is_system": false}).
		Suffix("RETURNING " + columnList(categoryColumns)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	updated, err := r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrCategoryNotFound
	}
	return updated, err
}

// Delete removes a user-owned category
func (r *CategoryRepository) Delete(userID uuid.UUID, id int32) error {
	query := squirrel.Delete("categories").
		Where(squirrel.Eq{"id": id, "user_id": userID, "is_system": false}).
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
		return domain.ErrCategoryNotFound
	}
	return nil
}

// NameExists reports whether the user already owns a category with the given
// name, case-insensitively
func (r *CategoryRepository) NameExists(userID uuid.UUID, name string, excludeID *int32) (bool, error) {
	query := squirrel.Select("1").
		From("categories").
		Where(squirrel.Eq{"user_id": userID, "is_system": false}).
		Where(squirrel.Expr("lower(name) = lower(?)", name)).
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

func (r *CategoryRepository) scanRow(row pgx.Row) (*domain.Category, error) {
	var category domain.Category
	err := row.Scan(
		&category.ID, &category.UserID, &category.Name, &category.Description,
		&category.Color, &category.Icon, &category.IsSystem, &category.IsActive,
		&category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

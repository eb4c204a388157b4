package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartexpense/smartexpense-backend/internal/domain"
)

var userColumns = []string{"id", "auth0_id", "email", "name", "picture_url", "created_at", "updated_at"}

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by their UUID
func (r *UserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	query := squirrel.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(query)
}

// GetByAuth0ID retrieves a user by their Auth0 ID
func (r *UserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	query := squirrel.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"auth0_id": auth0ID}).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(query)
}

// Create creates a new user
func (r *UserRepository) Create(user *domain.User) (*domain.User, error) {
	query := squirrel.Insert("users").
		Columns("auth0_id", "email", "name", "picture_url").
		Values(user.Auth0ID, user.Email, user.Name, user.PictureURL).
		Suffix("RETURNING " + columnList(userColumns)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
}

// Update updates an existing user
func (r *UserRepository) Update(user *domain.User) (*domain.User, error) {
	query := squirrel.Update("users").
		Set("email", user.Email).
		Set("name", user.Name).
		Set("picture_url", user.PictureURL).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": user.ID}).
		Suffix("RETURNING " + columnList(userColumns)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	updated, err := r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	return updated, err
}

// CreateOrGetByAuth0ID creates a user for the Auth0 subject if none exists,
// otherwise returns the existing one
func (r *UserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	query := squirrel.Insert("users").
		Columns("auth0_id", "email", "name", "picture_url").
		Values(auth0ID, email, name, pictureURL).
		Suffix("ON CONFLICT (auth0_id) DO UPDATE SET email = EXCLUDED.email RETURNING " + columnList(userColumns)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
}

func (r *UserRepository) getOne(query squirrel.SelectBuilder) (*domain.User, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	user, err := r.scanRow(r.pool.QueryRow(context.Background(), sql, args...))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	return user, err
}

func (r *UserRepository) scanRow(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Auth0ID, &user.Email, &user.Name, &user.PictureURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Package repository provides data persistence implementations for user entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/signmeup/signmeup/internal/database"
	"github.com/signmeup/signmeup/internal/user/domain"

	apperrors "github.com/signmeup/signmeup/internal/errors"
)

const userColumns = `id, username, email, password_hash, master_key_hash, master_key_canary, first_name, last_name,
	is_active, is_verified, failed_login_attempts, locked_until, last_login_at, created_at, updated_at`

// PostgreSQLUserRepository handles user persistence for PostgreSQL
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{
		db: db,
	}
}

// Create inserts a new user
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, username, email, password_hash, master_key_hash, master_key_canary,
			  first_name, last_name, is_active, is_verified, failed_login_attempts, created_at, updated_at) 
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := querier.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash,
		user.MasterKeyHash, user.MasterKeyCanary, user.FirstName, user.LastName, user.IsActive,
		user.IsVerified, user.FailedLoginAttempts, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (r *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// GetByUsername retrieves a user by username
func (r *PostgreSQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.getOne(ctx, query, username)
}

// UpdateLoginState persists the lockout counters and last login time.
func (r *PostgreSQLUserRepository) UpdateLoginState(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users 
			  SET failed_login_attempts = $1, locked_until = $2, last_login_at = $3, updated_at = $4 
			  WHERE id = $5`

	result, err := querier.ExecContext(ctx, query, user.FailedLoginAttempts, user.LockedUntil,
		user.LastLoginAt, user.UpdatedAt, user.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user login state")
	}
	return requireOneRow(result)
}

// LockByID loads a user and holds its row lock until the surrounding transaction ends.
func (r *PostgreSQLUserRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

// IncrementFailedLogins adds one failed attempt in place and returns the new count.
// A lock that expired by now is cleared and counting restarts at one.
func (r *PostgreSQLUserRepository) IncrementFailedLogins(ctx context.Context, id uuid.UUID, now time.Time) (int, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users
			  SET failed_login_attempts = CASE WHEN locked_until IS NOT NULL AND locked_until <= $1
			          THEN 1 ELSE failed_login_attempts + 1 END,
			      locked_until = CASE WHEN locked_until IS NOT NULL AND locked_until <= $1
			          THEN NULL ELSE locked_until END,
			      updated_at = $1
			  WHERE id = $2
			  RETURNING failed_login_attempts`

	var attempts int
	if err := querier.QueryRowContext(ctx, query, now, id).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, apperrors.Wrap(err, "failed to increment failed login attempts")
	}
	return attempts, nil
}

// LockUntil locks the user out until the given time.
func (r *PostgreSQLUserRepository) LockUntil(ctx context.Context, id uuid.UUID, until, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET locked_until = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, until, now, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to lock user")
	}
	return requireOneRow(result)
}

// UpdateMasterKey persists a new master key hash and canary.
func (r *PostgreSQLUserRepository) UpdateMasterKey(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET master_key_hash = $1, master_key_canary = $2, updated_at = $3 WHERE id = $4`

	result, err := querier.ExecContext(ctx, query, user.MasterKeyHash, user.MasterKeyCanary, user.UpdatedAt, user.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user master key")
	}
	return requireOneRow(result)
}

func (r *PostgreSQLUserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	var user domain.User
	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.MasterKeyHash, &user.MasterKeyCanary,
		&user.FirstName, &user.LastName, &user.IsActive, &user.IsVerified, &user.FailedLoginAttempts,
		&user.LockedUntil, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	return &user, nil
}

func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

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

// MySQLUserRepository handles user persistence for MySQL. IDs are stored as BINARY(16).
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{
		db: db,
	}
}

// Create inserts a new user
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO users (id, username, email, password_hash, master_key_hash, master_key_canary,
			  first_name, last_name, is_active, is_verified, failed_login_attempts, created_at, updated_at) 
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, user.Username, user.Email, user.PasswordHash,
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
func (r *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, query, idBytes)
}

// GetByEmail retrieves a user by email
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.getOne(ctx, query, email)
}

// GetByUsername retrieves a user by username
func (r *MySQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.getOne(ctx, query, username)
}

// UpdateLoginState persists the lockout counters and last login time.
func (r *MySQLUserRepository) UpdateLoginState(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users 
			  SET failed_login_attempts = ?, locked_until = ?, last_login_at = ?, updated_at = ? 
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, user.FailedLoginAttempts, user.LockedUntil,
		user.LastLoginAt, user.UpdatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user login state")
	}
	return requireOneRow(result)
}

// LockByID loads a user and holds its row lock until the surrounding transaction ends.
func (r *MySQLUserRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? FOR UPDATE`
	return r.getOne(ctx, query, idBytes)
}

// IncrementFailedLogins adds one failed attempt in place and returns the new count.
// A lock that expired by now is cleared and counting restarts at one. The count is read
// back under the row lock the UPDATE took, so callers must run it inside a transaction.
func (r *MySQLUserRepository) IncrementFailedLogins(ctx context.Context, id uuid.UUID, now time.Time) (int, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal user id")
	}

	// Assignments run left to right, so locked_until is still the old value when the
	// counter is computed.
	query := `UPDATE users
			  SET failed_login_attempts = CASE WHEN locked_until IS NOT NULL AND locked_until <= ?
			          THEN 1 ELSE failed_login_attempts + 1 END,
			      locked_until = CASE WHEN locked_until IS NOT NULL AND locked_until <= ?
			          THEN NULL ELSE locked_until END,
			      updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, now, now, now, idBytes)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to increment failed login attempts")
	}
	if err := requireOneRow(result); err != nil {
		return 0, err
	}

	var attempts int
	err = querier.QueryRowContext(ctx, `SELECT failed_login_attempts FROM users WHERE id = ?`, idBytes).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, apperrors.Wrap(err, "failed to read failed login attempts")
	}
	return attempts, nil
}

// LockUntil locks the user out until the given time.
func (r *MySQLUserRepository) LockUntil(ctx context.Context, id uuid.UUID, until, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users SET locked_until = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, until, now, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to lock user")
	}
	return requireOneRow(result)
}

// UpdateMasterKey persists a new master key hash and canary.
func (r *MySQLUserRepository) UpdateMasterKey(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users SET master_key_hash = ?, master_key_canary = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, user.MasterKeyHash, user.MasterKeyCanary, user.UpdatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user master key")
	}
	return requireOneRow(result)
}

func (r *MySQLUserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	var user domain.User
	var id []byte
	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&id, &user.Username, &user.Email, &user.PasswordHash, &user.MasterKeyHash, &user.MasterKeyCanary,
		&user.FirstName, &user.LastName, &user.IsActive, &user.IsVerified, &user.FailedLoginAttempts,
		&user.LockedUntil, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	if err := user.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}

	return &user, nil
}

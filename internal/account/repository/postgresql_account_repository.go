// Package repository implements account persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/signmeup/signmeup/internal/account/domain"
	"github.com/signmeup/signmeup/internal/database"
	apperrors "github.com/signmeup/signmeup/internal/errors"
)

const accountColumns = `id, user_id, identity_id, website_name, website_url, website_domain, username, email,
	password, security_questions, notes, is_active, is_verified, signup_completed, account_type, signup_method,
	signup_attempts, last_signup_attempt, last_accessed, created_at, updated_at`

// PostgreSQLAccountRepository handles account persistence for PostgreSQL.
type PostgreSQLAccountRepository struct {
	db *sql.DB
}

// NewPostgreSQLAccountRepository creates a new PostgreSQLAccountRepository.
func NewPostgreSQLAccountRepository(db *sql.DB) *PostgreSQLAccountRepository {
	return &PostgreSQLAccountRepository{db: db}
}

// Create inserts a new account. A missing identity or user maps to ErrNotFound.
func (r *PostgreSQLAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO accounts (` + accountColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	args := append([]any{account.ID, account.UserID, account.IdentityID}, accountValues(account)...)
	args = append(args, account.CreatedAt, account.UpdatedAt)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.Wrap(apperrors.ErrNotFound, "identity not found")
		}
		return apperrors.Wrap(err, "failed to create account")
	}
	return nil
}

// Get retrieves an account owned by userID.
func (r *PostgreSQLAccountRepository) Get(ctx context.Context, userID, accountID uuid.UUID) (*domain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2`

	account, err := scanPostgreSQLAccount(querier.QueryRowContext(ctx, query, accountID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get account")
	}
	return account, nil
}

// List returns a page of the user's accounts, newest first, narrowed by filter.
func (r *PostgreSQLAccountRepository) List(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.ListAccountsFilter,
) ([]*domain.Account, error) {
	var identityID any
	if filter.IdentityID != nil {
		identityID = *filter.IdentityID
	}
	query, args := listQuery(func(n int) string { return fmt.Sprintf("$%d", n) }, userID, identityID, filter)
	return r.query(ctx, query, args...)
}

// ListAll returns every account of the user and locks the rows until the transaction ends.
func (r *PostgreSQLAccountRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at FOR UPDATE`
	return r.query(ctx, query, userID)
}

// Update overwrites every mutable column of the account.
func (r *PostgreSQLAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE accounts SET website_name = $1, website_url = $2, website_domain = $3, username = $4,
			  email = $5, password = $6, security_questions = $7, notes = $8, is_active = $9, is_verified = $10,
			  signup_completed = $11, account_type = $12, signup_method = $13, signup_attempts = $14,
			  last_signup_attempt = $15, last_accessed = $16, updated_at = $17
			  WHERE id = $18 AND user_id = $19`

	args := append(accountValues(account), account.UpdatedAt, account.ID, account.UserID)

	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.Wrap(err, "failed to update account")
	}
	return requireOneRow(result)
}

// TouchLastAccessed records that the account was read.
func (r *PostgreSQLAccountRepository) TouchLastAccessed(
	ctx context.Context,
	userID, accountID uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE accounts SET last_accessed = $1 WHERE id = $2 AND user_id = $3`

	if _, err := querier.ExecContext(ctx, query, at, accountID, userID); err != nil {
		return apperrors.Wrap(err, "failed to update account last access")
	}
	return nil
}

// Delete removes an account.
func (r *PostgreSQLAccountRepository) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete account")
	}
	return requireOneRow(result)
}

func (r *PostgreSQLAccountRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list accounts")
	}
	defer func() {
		_ = rows.Close()
	}()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanPostgreSQLAccount(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan account")
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate accounts")
	}
	return accounts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLAccount(row scanner) (*domain.Account, error) {
	var account domain.Account

	dest := append([]any{&account.ID, &account.UserID, &account.IdentityID}, accountTargets(&account)...)
	dest = append(dest, &account.CreatedAt, &account.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &account, nil
}

// listQuery builds the filtered listing. placeholder renders the n-th bind parameter.
// identityID is nil when the listing is not narrowed to one identity.
func listQuery(
	placeholder func(n int) string,
	userID, identityID any,
	filter domain.ListAccountsFilter,
) (string, []any) {
	var sb strings.Builder
	args := []any{userID}

	sb.WriteString(`SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ` + placeholder(1))
	if identityID != nil {
		args = append(args, identityID)
		sb.WriteString(` AND identity_id = ` + placeholder(len(args)))
	}
	if filter.Domain != "" {
		args = append(args, filter.Domain)
		sb.WriteString(` AND website_domain = ` + placeholder(len(args)))
	}

	args = append(args, filter.Limit, filter.Offset)
	sb.WriteString(` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args)))

	return sb.String(), args
}

// accountValues returns the values of the columns between identity_id and created_at.
func accountValues(a *domain.Account) []any {
	return []any{
		a.WebsiteName, a.WebsiteURL, a.WebsiteDomain, a.EncryptedUsername, a.EncryptedEmail, a.EncryptedPassword,
		a.EncryptedSecurityQuestions, a.EncryptedNotes, a.IsActive, a.IsVerified, a.SignupCompleted,
		a.AccountType, a.SignupMethod, a.SignupAttempts, a.LastSignupAttempt, a.LastAccessed,
	}
}

func accountTargets(a *domain.Account) []any {
	return []any{
		&a.WebsiteName, &a.WebsiteURL, &a.WebsiteDomain, &a.EncryptedUsername, &a.EncryptedEmail,
		&a.EncryptedPassword, &a.EncryptedSecurityQuestions, &a.EncryptedNotes, &a.IsActive, &a.IsVerified,
		&a.SignupCompleted, &a.AccountType, &a.SignupMethod, &a.SignupAttempts, &a.LastSignupAttempt,
		&a.LastAccessed,
	}
}

func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

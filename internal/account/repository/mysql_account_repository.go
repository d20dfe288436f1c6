package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/signmeup/signmeup/internal/account/domain"
	"github.com/signmeup/signmeup/internal/database"
	apperrors "github.com/signmeup/signmeup/internal/errors"
)

// MySQLAccountRepository handles account persistence for MySQL. IDs are stored as BINARY(16).
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQLAccountRepository.
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{db: db}
}

// Create inserts a new account.
func (r *MySQLAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	ids, err := marshalIDs(account.ID, account.UserID, account.IdentityID)
	if err != nil {
		return err
	}

	query := `INSERT INTO accounts (` + accountColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	args := append(ids, accountValues(account)...)
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
func (r *MySQLAccountRepository) Get(ctx context.Context, userID, accountID uuid.UUID) (*domain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	ids, err := marshalIDs(accountID, userID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND user_id = ?`

	account, err := scanMySQLAccount(querier.QueryRowContext(ctx, query, ids...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get account")
	}
	return account, nil
}

// List returns a page of the user's accounts, newest first, narrowed by filter.
func (r *MySQLAccountRepository) List(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.ListAccountsFilter,
) ([]*domain.Account, error) {
	owner, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	var identityID any
	if filter.IdentityID != nil {
		if identityID, err = filter.IdentityID.MarshalBinary(); err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal identity id")
		}
	}

	query, args := listQuery(func(int) string { return "?" }, owner, identityID, filter)
	return r.query(ctx, query, args...)
}

// ListAll returns every account of the user and locks the rows until the transaction ends.
func (r *MySQLAccountRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	owner, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ? ORDER BY created_at FOR UPDATE`
	return r.query(ctx, query, owner)
}

// Update overwrites every mutable column of the account. As with identities, a zero
// changed-row count is not treated as not found.
func (r *MySQLAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	ids, err := marshalIDs(account.ID, account.UserID)
	if err != nil {
		return err
	}

	query := `UPDATE accounts SET website_name = ?, website_url = ?, website_domain = ?, username = ?,
			  email = ?, password = ?, security_questions = ?, notes = ?, is_active = ?, is_verified = ?,
			  signup_completed = ?, account_type = ?, signup_method = ?, signup_attempts = ?,
			  last_signup_attempt = ?, last_accessed = ?, updated_at = ?
			  WHERE id = ? AND user_id = ?`

	args := append(accountValues(account), account.UpdatedAt)
	args = append(args, ids...)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to update account")
	}
	return nil
}

// TouchLastAccessed records that the account was read.
func (r *MySQLAccountRepository) TouchLastAccessed(ctx context.Context, userID, accountID uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	ids, err := marshalIDs(accountID, userID)
	if err != nil {
		return err
	}

	query := `UPDATE accounts SET last_accessed = ? WHERE id = ? AND user_id = ?`

	if _, err := querier.ExecContext(ctx, query, at, ids[0], ids[1]); err != nil {
		return apperrors.Wrap(err, "failed to update account last access")
	}
	return nil
}

// Delete removes an account.
func (r *MySQLAccountRepository) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	ids, err := marshalIDs(accountID, userID)
	if err != nil {
		return err
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM accounts WHERE id = ? AND user_id = ?`, ids...)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete account")
	}
	return requireOneRow(result)
}

func (r *MySQLAccountRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Account, error) {
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
		account, err := scanMySQLAccount(rows)
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

func scanMySQLAccount(row scanner) (*domain.Account, error) {
	var account domain.Account
	var id, userID, identityID []byte

	dest := append([]any{&id, &userID, &identityID}, accountTargets(&account)...)
	dest = append(dest, &account.CreatedAt, &account.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := account.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal account id")
	}
	if err := account.UserID.UnmarshalBinary(userID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	if err := account.IdentityID.UnmarshalBinary(identityID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal identity id")
	}
	return &account, nil
}

// marshalIDs converts ids to BINARY(16) bind arguments, in order.
func marshalIDs(ids ...uuid.UUID) ([]any, error) {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		b, err := id.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal id")
		}
		out = append(out, b)
	}
	return out, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/signmeup/signmeup/internal/database"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	"github.com/signmeup/signmeup/internal/identity/domain"
)

// MySQLIdentityRepository handles identity persistence for MySQL. IDs are stored as BINARY(16).
type MySQLIdentityRepository struct {
	db *sql.DB
}

// NewMySQLIdentityRepository creates a new MySQLIdentityRepository.
func NewMySQLIdentityRepository(db *sql.DB) *MySQLIdentityRepository {
	return &MySQLIdentityRepository{db: db}
}

// Create inserts a new identity.
func (r *MySQLIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	id, userID, err := marshalIDs(identity.ID, identity.UserID)
	if err != nil {
		return err
	}
	prefs, err := encodePreferences(identity.PasswordPreferences)
	if err != nil {
		return err
	}

	query := `INSERT INTO identities (` + identityColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	args := append([]any{id, userID}, identityValues(identity, prefs)...)
	args = append(args, identity.CreatedAt, identity.UpdatedAt)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.Wrap(apperrors.ErrNotFound, "user not found")
		}
		return apperrors.Wrap(err, "failed to create identity")
	}
	return nil
}

// Get retrieves an identity owned by userID.
func (r *MySQLIdentityRepository) Get(ctx context.Context, userID, identityID uuid.UUID) (*domain.Identity, error) {
	querier := database.GetTx(ctx, r.db)

	id, owner, err := marshalIDs(identityID, userID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = ? AND user_id = ?`

	identity, err := scanMySQLIdentity(querier.QueryRowContext(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity")
	}
	return identity, nil
}

// List returns a page of the user's identities, newest first.
func (r *MySQLIdentityRepository) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.Identity, error) {
	owner, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	query := `SELECT ` + identityColumns + ` FROM identities WHERE user_id = ?
			  ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.query(ctx, query, owner, limit, offset)
}

// ListAll returns every identity of the user and locks the rows until the transaction ends.
func (r *MySQLIdentityRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Identity, error) {
	owner, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	query := `SELECT ` + identityColumns + ` FROM identities WHERE user_id = ? ORDER BY created_at FOR UPDATE`
	return r.query(ctx, query, owner)
}

// Update overwrites every mutable column of the identity.
//
// MySQL reports changed rather than matched rows, so a zero count is not treated as
// not found here. Callers load the identity first.
func (r *MySQLIdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	id, owner, err := marshalIDs(identity.ID, identity.UserID)
	if err != nil {
		return err
	}
	prefs, err := encodePreferences(identity.PasswordPreferences)
	if err != nil {
		return err
	}

	query := `UPDATE identities SET name = ?, description = ?, first_name = ?, last_name = ?, email = ?,
			  phone = ?, date_of_birth = ?, address_line1 = ?, address_line2 = ?, city = ?, state = ?,
			  zip_code = ?, country = ?, profession = ?, company = ?, bio = ?, custom_fields = ?,
			  preferred_username_pattern = ?, password_preferences = ?, updated_at = ?
			  WHERE id = ? AND user_id = ?`

	args := append(identityValues(identity, prefs), identity.UpdatedAt, id, owner)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to update identity")
	}
	return nil
}

// Delete removes an identity and, through the foreign key, its accounts.
func (r *MySQLIdentityRepository) Delete(ctx context.Context, userID, identityID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	id, owner, err := marshalIDs(identityID, userID)
	if err != nil {
		return err
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM identities WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete identity")
	}
	return requireOneRow(result)
}

func (r *MySQLIdentityRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Identity, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list identities")
	}
	defer func() {
		_ = rows.Close()
	}()

	identities := make([]*domain.Identity, 0)
	for rows.Next() {
		identity, err := scanMySQLIdentity(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan identity")
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate identities")
	}
	return identities, nil
}

func scanMySQLIdentity(row scanner) (*domain.Identity, error) {
	var identity domain.Identity
	var id, userID []byte
	var prefs string

	dest := append([]any{&id, &userID}, identityTargets(&identity, &prefs)...)
	dest = append(dest, &identity.CreatedAt, &identity.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := identity.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal identity id")
	}
	if err := identity.UserID.UnmarshalBinary(userID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	if err := decodePreferences(prefs, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func marshalIDs(id, userID uuid.UUID) ([]byte, []byte, error) {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal identity id")
	}
	userBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	return idBytes, userBytes, nil
}

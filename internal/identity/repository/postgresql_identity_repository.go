// Package repository implements identity persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/signmeup/signmeup/internal/database"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	"github.com/signmeup/signmeup/internal/identity/domain"
)

const identityColumns = `id, user_id, name, description, first_name, last_name, email, phone, date_of_birth,
	address_line1, address_line2, city, state, zip_code, country, profession, company, bio, custom_fields,
	preferred_username_pattern, password_preferences, created_at, updated_at`

// PostgreSQLIdentityRepository handles identity persistence for PostgreSQL.
// Every read and write is scoped to the owning user.
type PostgreSQLIdentityRepository struct {
	db *sql.DB
}

// NewPostgreSQLIdentityRepository creates a new PostgreSQLIdentityRepository.
func NewPostgreSQLIdentityRepository(db *sql.DB) *PostgreSQLIdentityRepository {
	return &PostgreSQLIdentityRepository{db: db}
}

// Create inserts a new identity.
func (r *PostgreSQLIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	prefs, err := encodePreferences(identity.PasswordPreferences)
	if err != nil {
		return err
	}

	query := `INSERT INTO identities (` + identityColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
			  $20, $21, $22, $23)`

	args := append([]any{identity.ID, identity.UserID}, identityValues(identity, prefs)...)
	args = append(args, identity.CreatedAt, identity.UpdatedAt)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.Wrap(apperrors.ErrNotFound, "user not found")
		}
		return apperrors.Wrap(err, "failed to create identity")
	}
	return nil
}

// Get retrieves an identity owned by userID. Returns ErrIdentityNotFound for another user's identity.
func (r *PostgreSQLIdentityRepository) Get(ctx context.Context, userID, identityID uuid.UUID) (*domain.Identity, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1 AND user_id = $2`

	identity, err := scanPostgreSQLIdentity(querier.QueryRowContext(ctx, query, identityID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity")
	}
	return identity, nil
}

// List returns a page of the user's identities, newest first.
func (r *PostgreSQLIdentityRepository) List(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE user_id = $1
			  ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.query(ctx, query, userID, limit, offset)
}

// ListAll returns every identity of the user and locks the rows until the transaction ends.
func (r *PostgreSQLIdentityRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE user_id = $1 ORDER BY created_at FOR UPDATE`
	return r.query(ctx, query, userID)
}

// Update overwrites every mutable column of the identity.
func (r *PostgreSQLIdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	prefs, err := encodePreferences(identity.PasswordPreferences)
	if err != nil {
		return err
	}

	query := `UPDATE identities SET name = $1, description = $2, first_name = $3, last_name = $4, email = $5,
			  phone = $6, date_of_birth = $7, address_line1 = $8, address_line2 = $9, city = $10, state = $11,
			  zip_code = $12, country = $13, profession = $14, company = $15, bio = $16, custom_fields = $17,
			  preferred_username_pattern = $18, password_preferences = $19, updated_at = $20
			  WHERE id = $21 AND user_id = $22`

	args := append(identityValues(identity, prefs), identity.UpdatedAt, identity.ID, identity.UserID)

	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.Wrap(err, "failed to update identity")
	}
	return requireOneRow(result)
}

// Delete removes an identity. Its accounts are removed by the foreign key cascade.
func (r *PostgreSQLIdentityRepository) Delete(ctx context.Context, userID, identityID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM identities WHERE id = $1 AND user_id = $2`

	result, err := querier.ExecContext(ctx, query, identityID, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete identity")
	}
	return requireOneRow(result)
}

func (r *PostgreSQLIdentityRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Identity, error) {
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
		identity, err := scanPostgreSQLIdentity(rows)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLIdentity(row scanner) (*domain.Identity, error) {
	var identity domain.Identity
	var prefs string

	dest := append([]any{&identity.ID, &identity.UserID}, identityTargets(&identity, &prefs)...)
	dest = append(dest, &identity.CreatedAt, &identity.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := decodePreferences(prefs, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// identityValues returns the values of the columns between user_id and created_at.
func identityValues(i *domain.Identity, prefs string) []any {
	return []any{
		i.Name, i.Description, i.EncryptedFirstName, i.EncryptedLastName, i.EncryptedEmail, i.EncryptedPhone,
		i.EncryptedDateOfBirth, i.EncryptedAddressLine1, i.EncryptedAddressLine2, i.EncryptedCity,
		i.EncryptedState, i.EncryptedZipCode, i.EncryptedCountry, i.EncryptedProfession, i.EncryptedCompany,
		i.EncryptedBio, i.EncryptedCustomFields, i.PreferredUsernamePattern, prefs,
	}
}

// identityTargets mirrors identityValues for scanning.
func identityTargets(i *domain.Identity, prefs *string) []any {
	return []any{
		&i.Name, &i.Description, &i.EncryptedFirstName, &i.EncryptedLastName, &i.EncryptedEmail, &i.EncryptedPhone,
		&i.EncryptedDateOfBirth, &i.EncryptedAddressLine1, &i.EncryptedAddressLine2, &i.EncryptedCity,
		&i.EncryptedState, &i.EncryptedZipCode, &i.EncryptedCountry, &i.EncryptedProfession, &i.EncryptedCompany,
		&i.EncryptedBio, &i.EncryptedCustomFields, &i.PreferredUsernamePattern, prefs,
	}
}

// encodePreferences stores password preferences as JSON text, "" when there are none.
func encodePreferences(prefs map[string]any) (string, error) {
	if len(prefs) == 0 {
		return "", nil
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "password preferences are not serializable")
	}
	return string(data), nil
}

func decodePreferences(raw string, identity *domain.Identity) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &identity.PasswordPreferences); err != nil {
		return apperrors.Wrap(err, "failed to decode password preferences")
	}
	return nil
}

func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

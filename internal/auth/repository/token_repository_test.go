package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
	"github.com/signmeup/signmeup/internal/database"
)

var tokenColumns = []string{"id", "token_hash", "user_id", "expires_at", "revoked_at", "created_at"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newToken() *authDomain.Token {
	now := time.Now().UTC().Truncate(time.Second)
	return &authDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		UserID:    uuid.Must(uuid.NewV7()),
		ExpiresAt: now.Add(30 * time.Minute),
		CreatedAt: now,
	}
}

func TestPostgreSQLTokenRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLTokenRepository(db)
	token := newToken()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tokens")).
		WithArgs(token.ID, token.TokenHash, token.UserID, token.ExpiresAt, nil, token.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLTokenRepository_Create_UsesTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLTokenRepository(db)
	txManager := database.NewTxManager(db)
	token := newToken()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tokens")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := txManager.WithTx(context.Background(), func(ctx context.Context) error {
		return repo.Create(ctx, token)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLTokenRepository_GetByTokenHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLTokenRepository(db)
	token := newToken()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(tokenColumns).
			AddRow(token.ID.String(), token.TokenHash, token.UserID.String(), token.ExpiresAt, nil, token.CreatedAt)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tokens WHERE token_hash = $1")).
			WithArgs(token.TokenHash).
			WillReturnRows(rows)

		got, err := repo.GetByTokenHash(context.Background(), token.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, token.ID, got.ID)
		assert.Equal(t, token.UserID, got.UserID)
		assert.Nil(t, got.RevokedAt)
		assert.True(t, got.IsUsable(token.CreatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM tokens WHERE token_hash = $1")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByTokenHash(context.Background(), "missing")
		assert.ErrorIs(t, err, authDomain.ErrTokenNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLTokenRepository_Revoke(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLTokenRepository(db)
	token := newToken()
	revokedAt := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tokens SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL")).
		WithArgs(revokedAt, token.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Revoke(context.Background(), token.ID, revokedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLTokenRepository_RevokeAllByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLTokenRepository(db)
	userID := uuid.Must(uuid.NewV7())

	mock.ExpectExec(regexp.QuoteMeta("WHERE user_id = $2 AND revoked_at IS NULL")).
		WithArgs(sqlmock.AnyArg(), userID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.RevokeAllByUserID(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLTokenRepository_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLTokenRepository(db)
	before := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tokens WHERE expires_at < $1")).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 7))

	count, err := repo.DeleteExpired(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLTokenRepository(db)
	token := newToken()

	id, _ := token.ID.MarshalBinary()
	userID, _ := token.UserID.MarshalBinary()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tokens")).
		WithArgs(id, token.TokenHash, userID, token.ExpiresAt, nil, token.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_GetByTokenHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLTokenRepository(db)
	token := newToken()
	revokedAt := token.CreatedAt.Add(time.Minute)

	id, _ := token.ID.MarshalBinary()
	userID, _ := token.UserID.MarshalBinary()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(tokenColumns).
			AddRow(id, token.TokenHash, userID, token.ExpiresAt, revokedAt, token.CreatedAt)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tokens WHERE token_hash = ?")).
			WithArgs(token.TokenHash).
			WillReturnRows(rows)

		got, err := repo.GetByTokenHash(context.Background(), token.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, token.ID, got.ID)
		assert.Equal(t, token.UserID, got.UserID)
		require.NotNil(t, got.RevokedAt)
		assert.False(t, got.IsUsable(token.CreatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM tokens WHERE token_hash = ?")).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByTokenHash(context.Background(), "missing")
		assert.ErrorIs(t, err, authDomain.ErrTokenNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_RevokeAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLTokenRepository(db)
	token := newToken()
	now := time.Now().UTC()

	id, _ := token.ID.MarshalBinary()
	userID, _ := token.UserID.MarshalBinary()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tokens SET revoked_at = ? WHERE id = ?")).
		WithArgs(now, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tokens SET revoked_at = ? WHERE user_id = ?")).
		WithArgs(sqlmock.AnyArg(), userID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tokens WHERE expires_at < ?")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.Revoke(context.Background(), token.ID, now))
	require.NoError(t, repo.RevokeAllByUserID(context.Background(), token.UserID))

	count, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

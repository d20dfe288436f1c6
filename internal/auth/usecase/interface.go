// Package usecase implements login, session authentication and logout.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	outboxDomain "github.com/signmeup/signmeup/internal/outbox/domain"
	userDomain "github.com/signmeup/signmeup/internal/user/domain"
)

// UserRepository is the subset of user persistence needed to log in.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)

	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)

	UpdateLoginState(ctx context.Context, user *userDomain.User) error

	// IncrementFailedLogins counts one failure in the database and returns the new total.
	IncrementFailedLogins(ctx context.Context, id uuid.UUID, now time.Time) (int, error)

	LockUntil(ctx context.Context, id uuid.UUID, until, now time.Time) error
}

// TokenRepository persists hashed session tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *authDomain.Token) error

	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error)

	Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) error

	RevokeAllByUserID(ctx context.Context, userID uuid.UUID) error

	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// OutboxEventRepository records security events in the caller's transaction.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// SessionStore holds live sessions in memory.
type SessionStore interface {
	Bind(session *authDomain.Session)

	Get(tokenHash string) (*authDomain.Session, bool)

	Remove(tokenHash string)
}

// CipherFactory builds a field cipher from a master key.
type CipherFactory interface {
	New(masterSecret string) *cryptoService.EncryptionManager

	Salt() string
}

// TokenUseCase logs users in and out and resolves bearer tokens to sessions.
type TokenUseCase interface {
	Login(ctx context.Context, input *authDomain.LoginInput) (*authDomain.LoginOutput, error)

	Authenticate(ctx context.Context, tokenHash string) (*authDomain.Session, error)

	Logout(ctx context.Context, tokenHash string) error

	CleanExpiredTokens(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Package usecase implements user registration, lookup and master key rotation.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	outboxDomain "github.com/signmeup/signmeup/internal/outbox/domain"
	"github.com/signmeup/signmeup/internal/user/domain"
)

// UseCase defines the interface for user business logic operations
type UseCase interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	RotateMasterKey(ctx context.Context, input RotateMasterKeyInput) (*RotateMasterKeyOutput, error)
}

// UserRepository interface defines user repository operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	LockByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateLoginState(ctx context.Context, user *domain.User) error
	UpdateMasterKey(ctx context.Context, user *domain.User) error
}

// OutboxEventRepository records security events in the caller's transaction.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// CipherFactory builds a field cipher from a master key.
type CipherFactory interface {
	New(masterSecret string) *cryptoService.EncryptionManager
	Salt() string
}

// FieldReencrypter rewrites every encrypted field a user owns from one key to another.
// It returns the number of rows rewritten.
type FieldReencrypter interface {
	ReencryptAll(ctx context.Context, userID uuid.UUID, from, to cryptoService.FieldCipher) (int, error)
}

// TokenRevoker revokes every session token of a user.
type TokenRevoker interface {
	RevokeAllByUserID(ctx context.Context, userID uuid.UUID) error
}

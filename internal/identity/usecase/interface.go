// Package usecase implements identity management. Personal data is sealed with the field
// cipher bound to the request context and decrypted on the way out.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
)

// IdentityRepository persists identities. Every read and write is scoped to the owning user.
type IdentityRepository interface {
	Create(ctx context.Context, identity *identityDomain.Identity) error

	Get(ctx context.Context, userID, identityID uuid.UUID) (*identityDomain.Identity, error)

	List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*identityDomain.Identity, error)

	ListAll(ctx context.Context, userID uuid.UUID) ([]*identityDomain.Identity, error)

	Update(ctx context.Context, identity *identityDomain.Identity) error

	Delete(ctx context.Context, userID, identityID uuid.UUID) error
}

// WriteGuard runs a write of sealed fields in a transaction serialised with master key
// rotation. It refuses the write when the cipher bound to ctx is no longer the user's.
type WriteGuard interface {
	Guard(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error
}

// IdentityUseCase defines identity business logic for the authenticated user.
type IdentityUseCase interface {
	Create(
		ctx context.Context,
		userID uuid.UUID,
		input *identityDomain.CreateIdentityInput,
	) (*identityDomain.DecryptedIdentity, error)

	// List returns identities without decrypting them.
	List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*identityDomain.Identity, error)

	Get(ctx context.Context, userID, identityID uuid.UUID) (*identityDomain.DecryptedIdentity, error)

	Update(
		ctx context.Context,
		userID, identityID uuid.UUID,
		input *identityDomain.UpdateIdentityInput,
	) (*identityDomain.DecryptedIdentity, error)

	Delete(ctx context.Context, userID, identityID uuid.UUID) error

	// ReencryptAll moves every identity of userID from one field key to another during
	// master key rotation. It returns the number of identities rewritten.
	ReencryptAll(ctx context.Context, userID uuid.UUID, from, to cryptoService.FieldCipher) (int, error)
}

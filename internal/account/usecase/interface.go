// Package usecase implements account management on top of the field cipher bound to the request.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	accountDomain "github.com/signmeup/signmeup/internal/account/domain"
	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
)

// AccountRepository defines the interface for account persistence. Every lookup is
// scoped to the owning user.
type AccountRepository interface {
	Create(ctx context.Context, account *accountDomain.Account) error
	Get(ctx context.Context, userID, accountID uuid.UUID) (*accountDomain.Account, error)
	List(ctx context.Context, userID uuid.UUID, filter accountDomain.ListAccountsFilter) ([]*accountDomain.Account, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]*accountDomain.Account, error)
	Update(ctx context.Context, account *accountDomain.Account) error
	TouchLastAccessed(ctx context.Context, userID, accountID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, userID, accountID uuid.UUID) error
}

// IdentityGetter resolves an identity of a user. Account creation uses it to check ownership.
type IdentityGetter interface {
	Get(ctx context.Context, userID, identityID uuid.UUID) (*identityDomain.Identity, error)
}

// WriteGuard runs a write of sealed fields in a transaction serialised with master key
// rotation. It refuses the write when the cipher bound to ctx is no longer the user's.
type WriteGuard interface {
	Guard(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error
}

// AccountUseCase defines the account operations. The field cipher comes from ctx.
type AccountUseCase interface {
	Create(
		ctx context.Context,
		userID uuid.UUID,
		input *accountDomain.CreateAccountInput,
	) (*accountDomain.DecryptedAccount, error)
	List(ctx context.Context, userID uuid.UUID, filter accountDomain.ListAccountsFilter) ([]*accountDomain.Account, error)
	Get(ctx context.Context, userID, accountID uuid.UUID) (*accountDomain.DecryptedAccount, error)
	Update(
		ctx context.Context,
		userID, accountID uuid.UUID,
		input *accountDomain.UpdateAccountInput,
	) (*accountDomain.DecryptedAccount, error)
	Delete(ctx context.Context, userID, accountID uuid.UUID) error
	ReencryptAll(ctx context.Context, userID uuid.UUID, from, to cryptoService.FieldCipher) (int, error)
}

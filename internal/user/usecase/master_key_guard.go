package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	"github.com/signmeup/signmeup/internal/database"
	"github.com/signmeup/signmeup/internal/user/domain"
)

// UserLocker takes the row lock of a user for the rest of the transaction.
type UserLocker interface {
	LockByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// MasterKeyGuard serialises writes of sealed fields with master key rotation.
//
// Both take the owner's row lock first. A write that waited on a rotation then finds a
// canary its session cipher cannot open and is refused, so nothing is ever sealed under
// a key the user no longer holds.
type MasterKeyGuard struct {
	txManager database.TxManager
	users     UserLocker
}

// NewMasterKeyGuard creates a MasterKeyGuard.
func NewMasterKeyGuard(txManager database.TxManager, users UserLocker) *MasterKeyGuard {
	return &MasterKeyGuard{txManager: txManager, users: users}
}

// Guard runs fn in a transaction that holds userID's row lock, once the field cipher
// bound to ctx has opened the user's current canary. It returns ErrMasterKeyChanged
// when it does not.
func (g *MasterKeyGuard) Guard(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error {
	cipher, err := cryptoService.FieldCipherFromContext(ctx)
	if err != nil {
		return err
	}

	return g.txManager.WithTx(ctx, func(ctx context.Context) error {
		user, err := g.users.LockByID(ctx, userID)
		if err != nil {
			return err
		}
		if value, ok := cipher.Decrypt(user.MasterKeyCanary); !ok || value != domain.CanaryPlaintext {
			return domain.ErrMasterKeyChanged
		}
		return fn(ctx)
	})
}

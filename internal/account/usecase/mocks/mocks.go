// Package mocks provides testify mocks of the account use case and its dependencies.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	accountDomain "github.com/signmeup/signmeup/internal/account/domain"
	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
)

// MockAccountUseCase is a mock implementation of usecase.AccountUseCase.
type MockAccountUseCase struct {
	mock.Mock
}

func (m *MockAccountUseCase) Create(
	ctx context.Context,
	userID uuid.UUID,
	input *accountDomain.CreateAccountInput,
) (*accountDomain.DecryptedAccount, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountDomain.DecryptedAccount), args.Error(1)
}

func (m *MockAccountUseCase) List(
	ctx context.Context,
	userID uuid.UUID,
	filter accountDomain.ListAccountsFilter,
) ([]*accountDomain.Account, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accountDomain.Account), args.Error(1)
}

func (m *MockAccountUseCase) Get(ctx context.Context, userID, accountID uuid.UUID) (*accountDomain.DecryptedAccount, error) {
	args := m.Called(ctx, userID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountDomain.DecryptedAccount), args.Error(1)
}

func (m *MockAccountUseCase) Update(
	ctx context.Context,
	userID, accountID uuid.UUID,
	input *accountDomain.UpdateAccountInput,
) (*accountDomain.DecryptedAccount, error) {
	args := m.Called(ctx, userID, accountID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountDomain.DecryptedAccount), args.Error(1)
}

func (m *MockAccountUseCase) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	return m.Called(ctx, userID, accountID).Error(0)
}

func (m *MockAccountUseCase) ReencryptAll(
	ctx context.Context,
	userID uuid.UUID,
	from, to cryptoService.FieldCipher,
) (int, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Int(0), args.Error(1)
}

// MockAccountRepository is a mock implementation of usecase.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *accountDomain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) Get(ctx context.Context, userID, accountID uuid.UUID) (*accountDomain.Account, error) {
	args := m.Called(ctx, userID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountDomain.Account), args.Error(1)
}

func (m *MockAccountRepository) List(
	ctx context.Context,
	userID uuid.UUID,
	filter accountDomain.ListAccountsFilter,
) ([]*accountDomain.Account, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accountDomain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]*accountDomain.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accountDomain.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *accountDomain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) TouchLastAccessed(ctx context.Context, userID, accountID uuid.UUID, at time.Time) error {
	return m.Called(ctx, userID, accountID, at).Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	return m.Called(ctx, userID, accountID).Error(0)
}

// MockIdentityGetter is a mock implementation of usecase.IdentityGetter.
type MockIdentityGetter struct {
	mock.Mock
}

func (m *MockIdentityGetter) Get(ctx context.Context, userID, identityID uuid.UUID) (*identityDomain.Identity, error) {
	args := m.Called(ctx, userID, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Identity), args.Error(1)
}

// MockWriteGuard is a mock implementation of usecase.WriteGuard. When the expectation
// returns nil, fn runs with the same context.
type MockWriteGuard struct {
	mock.Mock
}

func (m *MockWriteGuard) Guard(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error {
	if err := m.Called(ctx, userID).Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

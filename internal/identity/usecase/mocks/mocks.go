// Package mocks provides testify mocks of the identity use case and repository.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
)

// MockIdentityUseCase is a mock implementation of usecase.IdentityUseCase.
type MockIdentityUseCase struct {
	mock.Mock
}

func (m *MockIdentityUseCase) Create(
	ctx context.Context,
	userID uuid.UUID,
	input *identityDomain.CreateIdentityInput,
) (*identityDomain.DecryptedIdentity, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.DecryptedIdentity), args.Error(1)
}

func (m *MockIdentityUseCase) List(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*identityDomain.Identity, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identityDomain.Identity), args.Error(1)
}

func (m *MockIdentityUseCase) Get(
	ctx context.Context,
	userID, identityID uuid.UUID,
) (*identityDomain.DecryptedIdentity, error) {
	args := m.Called(ctx, userID, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.DecryptedIdentity), args.Error(1)
}

func (m *MockIdentityUseCase) Update(
	ctx context.Context,
	userID, identityID uuid.UUID,
	input *identityDomain.UpdateIdentityInput,
) (*identityDomain.DecryptedIdentity, error) {
	args := m.Called(ctx, userID, identityID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.DecryptedIdentity), args.Error(1)
}

func (m *MockIdentityUseCase) Delete(ctx context.Context, userID, identityID uuid.UUID) error {
	return m.Called(ctx, userID, identityID).Error(0)
}

func (m *MockIdentityUseCase) ReencryptAll(
	ctx context.Context,
	userID uuid.UUID,
	from, to cryptoService.FieldCipher,
) (int, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Int(0), args.Error(1)
}

// MockIdentityRepository is a mock implementation of usecase.IdentityRepository.
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity *identityDomain.Identity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockIdentityRepository) Get(ctx context.Context, userID, identityID uuid.UUID) (*identityDomain.Identity, error) {
	args := m.Called(ctx, userID, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) List(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*identityDomain.Identity, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identityDomain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]*identityDomain.Identity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identityDomain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) Update(ctx context.Context, identity *identityDomain.Identity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockIdentityRepository) Delete(ctx context.Context, userID, identityID uuid.UUID) error {
	return m.Called(ctx, userID, identityID).Error(0)
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

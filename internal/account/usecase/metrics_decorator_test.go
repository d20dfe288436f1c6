package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	accountDomain "github.com/signmeup/signmeup/internal/account/domain"
	"github.com/signmeup/signmeup/internal/account/usecase"
	"github.com/signmeup/signmeup/internal/account/usecase/mocks"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordSecurityEvent(ctx context.Context, event, reason string) {
	m.Called(ctx, event, reason)
}

func expectAccountOperation(m *mockBusinessMetrics, operation, status string) {
	m.On("RecordOperation", mock.Anything, "accounts", operation, status).Return().Once()
	m.On("RecordDuration", mock.Anything, "accounts", operation, mock.AnythingOfType("time.Duration"), status).
		Return().Once()
}

func TestAccountUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	accountID := uuid.Must(uuid.NewV7())

	t.Run("Get success", func(t *testing.T) {
		next := &mocks.MockAccountUseCase{}
		m := &mockBusinessMetrics{}
		uc := usecase.NewAccountUseCaseWithMetrics(next, m)

		account := &accountDomain.DecryptedAccount{Account: &accountDomain.Account{ID: accountID}}
		next.On("Get", ctx, userID, accountID).Return(account, nil).Once()
		expectAccountOperation(m, "account_get", "success")

		got, err := uc.Get(ctx, userID, accountID)
		assert.NoError(t, err)
		assert.Equal(t, account, got)
		m.AssertExpectations(t)
	})

	t.Run("Delete error", func(t *testing.T) {
		next := &mocks.MockAccountUseCase{}
		m := &mockBusinessMetrics{}
		uc := usecase.NewAccountUseCaseWithMetrics(next, m)

		next.On("Delete", ctx, userID, accountID).Return(accountDomain.ErrAccountNotFound).Once()
		expectAccountOperation(m, "account_delete", "error")

		assert.ErrorIs(t, uc.Delete(ctx, userID, accountID), accountDomain.ErrAccountNotFound)
		m.AssertExpectations(t)
	})

	t.Run("Create, List and Update", func(t *testing.T) {
		next := &mocks.MockAccountUseCase{}
		m := &mockBusinessMetrics{}
		uc := usecase.NewAccountUseCaseWithMetrics(next, m)

		createInput := &accountDomain.CreateAccountInput{WebsiteName: "GitHub"}
		updateInput := &accountDomain.UpdateAccountInput{}
		filter := accountDomain.ListAccountsFilter{Limit: 50}
		next.On("Create", ctx, userID, createInput).Return(&accountDomain.DecryptedAccount{}, nil).Once()
		next.On("List", ctx, userID, filter).Return([]*accountDomain.Account{}, nil).Once()
		next.On("Update", ctx, userID, accountID, updateInput).Return(nil, accountDomain.ErrAccountNotFound).Once()
		expectAccountOperation(m, "account_create", "success")
		expectAccountOperation(m, "account_list", "success")
		expectAccountOperation(m, "account_update", "error")

		_, err := uc.Create(ctx, userID, createInput)
		assert.NoError(t, err)
		_, err = uc.List(ctx, userID, filter)
		assert.NoError(t, err)
		_, err = uc.Update(ctx, userID, accountID, updateInput)
		assert.Error(t, err)
		m.AssertExpectations(t)
	})
}

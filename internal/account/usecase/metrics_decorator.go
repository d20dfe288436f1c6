package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	accountDomain "github.com/signmeup/signmeup/internal/account/domain"
	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	"github.com/signmeup/signmeup/internal/metrics"
)

// accountUseCaseWithMetrics decorates AccountUseCase with metrics instrumentation.
type accountUseCaseWithMetrics struct {
	next    AccountUseCase
	metrics metrics.BusinessMetrics
}

// NewAccountUseCaseWithMetrics wraps an AccountUseCase with metrics recording.
func NewAccountUseCaseWithMetrics(useCase AccountUseCase, m metrics.BusinessMetrics) AccountUseCase {
	return &accountUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *accountUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "accounts", operation, status)
	d.metrics.RecordDuration(ctx, "accounts", operation, time.Since(start), status)
}

func (d *accountUseCaseWithMetrics) Create(
	ctx context.Context,
	userID uuid.UUID,
	input *accountDomain.CreateAccountInput,
) (*accountDomain.DecryptedAccount, error) {
	start := time.Now()
	account, err := d.next.Create(ctx, userID, input)
	d.record(ctx, "account_create", start, err)
	return account, err
}

func (d *accountUseCaseWithMetrics) List(
	ctx context.Context,
	userID uuid.UUID,
	filter accountDomain.ListAccountsFilter,
) ([]*accountDomain.Account, error) {
	start := time.Now()
	accounts, err := d.next.List(ctx, userID, filter)
	d.record(ctx, "account_list", start, err)
	return accounts, err
}

func (d *accountUseCaseWithMetrics) Get(
	ctx context.Context,
	userID, accountID uuid.UUID,
) (*accountDomain.DecryptedAccount, error) {
	start := time.Now()
	account, err := d.next.Get(ctx, userID, accountID)
	d.record(ctx, "account_get", start, err)
	return account, err
}

func (d *accountUseCaseWithMetrics) Update(
	ctx context.Context,
	userID, accountID uuid.UUID,
	input *accountDomain.UpdateAccountInput,
) (*accountDomain.DecryptedAccount, error) {
	start := time.Now()
	account, err := d.next.Update(ctx, userID, accountID, input)
	d.record(ctx, "account_update", start, err)
	return account, err
}

func (d *accountUseCaseWithMetrics) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	start := time.Now()
	err := d.next.Delete(ctx, userID, accountID)
	d.record(ctx, "account_delete", start, err)
	return err
}

func (d *accountUseCaseWithMetrics) ReencryptAll(
	ctx context.Context,
	userID uuid.UUID,
	from, to cryptoService.FieldCipher,
) (int, error) {
	start := time.Now()
	count, err := d.next.ReencryptAll(ctx, userID, from, to)
	d.record(ctx, "account_reencrypt", start, err)
	return count, err
}

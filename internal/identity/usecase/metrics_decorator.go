package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
	"github.com/signmeup/signmeup/internal/metrics"
)

// identityUseCaseWithMetrics decorates IdentityUseCase with metrics instrumentation.
type identityUseCaseWithMetrics struct {
	next    IdentityUseCase
	metrics metrics.BusinessMetrics
}

// NewIdentityUseCaseWithMetrics wraps an IdentityUseCase with metrics recording.
func NewIdentityUseCaseWithMetrics(useCase IdentityUseCase, m metrics.BusinessMetrics) IdentityUseCase {
	return &identityUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *identityUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "identities", operation, status)
	d.metrics.RecordDuration(ctx, "identities", operation, time.Since(start), status)
}

func (d *identityUseCaseWithMetrics) Create(
	ctx context.Context,
	userID uuid.UUID,
	input *identityDomain.CreateIdentityInput,
) (*identityDomain.DecryptedIdentity, error) {
	start := time.Now()
	identity, err := d.next.Create(ctx, userID, input)
	d.record(ctx, "identity_create", start, err)
	return identity, err
}

func (d *identityUseCaseWithMetrics) List(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*identityDomain.Identity, error) {
	start := time.Now()
	identities, err := d.next.List(ctx, userID, offset, limit)
	d.record(ctx, "identity_list", start, err)
	return identities, err
}

func (d *identityUseCaseWithMetrics) Get(
	ctx context.Context,
	userID, identityID uuid.UUID,
) (*identityDomain.DecryptedIdentity, error) {
	start := time.Now()
	identity, err := d.next.Get(ctx, userID, identityID)
	d.record(ctx, "identity_get", start, err)
	return identity, err
}

func (d *identityUseCaseWithMetrics) Update(
	ctx context.Context,
	userID, identityID uuid.UUID,
	input *identityDomain.UpdateIdentityInput,
) (*identityDomain.DecryptedIdentity, error) {
	start := time.Now()
	identity, err := d.next.Update(ctx, userID, identityID, input)
	d.record(ctx, "identity_update", start, err)
	return identity, err
}

func (d *identityUseCaseWithMetrics) Delete(ctx context.Context, userID, identityID uuid.UUID) error {
	start := time.Now()
	err := d.next.Delete(ctx, userID, identityID)
	d.record(ctx, "identity_delete", start, err)
	return err
}

func (d *identityUseCaseWithMetrics) ReencryptAll(
	ctx context.Context,
	userID uuid.UUID,
	from, to cryptoService.FieldCipher,
) (int, error) {
	start := time.Now()
	count, err := d.next.ReencryptAll(ctx, userID, from, to)
	d.record(ctx, "identity_reencrypt", start, err)
	return count, err
}

package usecase

import (
	"context"
	"time"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
	"github.com/signmeup/signmeup/internal/metrics"
)

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (t *tokenUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "auth", operation, status)
	t.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// Login records metrics for login operations.
func (t *tokenUseCaseWithMetrics) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.LoginOutput, error) {
	start := time.Now()
	output, err := t.next.Login(ctx, input)
	t.record(ctx, "login", start, err)
	return output, err
}

// Authenticate records metrics for session authentication.
func (t *tokenUseCaseWithMetrics) Authenticate(ctx context.Context, tokenHash string) (*authDomain.Session, error) {
	start := time.Now()
	session, err := t.next.Authenticate(ctx, tokenHash)
	t.record(ctx, "authenticate", start, err)
	return session, err
}

// Logout records metrics for logout operations.
func (t *tokenUseCaseWithMetrics) Logout(ctx context.Context, tokenHash string) error {
	start := time.Now()
	err := t.next.Logout(ctx, tokenHash)
	t.record(ctx, "logout", start, err)
	return err
}

// CleanExpiredTokens records metrics for token cleanup.
func (t *tokenUseCaseWithMetrics) CleanExpiredTokens(ctx context.Context, olderThan time.Duration) (int64, error) {
	start := time.Now()
	n, err := t.next.CleanExpiredTokens(ctx, olderThan)
	t.record(ctx, "clean_expired_tokens", start, err)
	return n, err
}

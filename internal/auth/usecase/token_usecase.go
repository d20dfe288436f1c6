package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/signmeup/signmeup/internal/auth/domain"
	authService "github.com/signmeup/signmeup/internal/auth/service"
	"github.com/signmeup/signmeup/internal/config"
	"github.com/signmeup/signmeup/internal/database"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	"github.com/signmeup/signmeup/internal/metrics"
	outboxDomain "github.com/signmeup/signmeup/internal/outbox/domain"
	userDomain "github.com/signmeup/signmeup/internal/user/domain"
)

// Failure reasons recorded with failed_login_attempt events.
const (
	reasonUnknownEmail     = "unknown_email"
	reasonInvalidPassword  = "invalid_password"
	reasonInvalidMasterKey = "invalid_master_key"
	reasonCanaryMismatch   = "canary_mismatch"
	reasonLocked           = "locked"
	reasonInactive         = "inactive"
)

// tokenUseCase implements TokenUseCase.
type tokenUseCase struct {
	config        *config.Config
	txManager     database.TxManager
	userRepo      UserRepository
	tokenRepo     TokenRepository
	outboxRepo    OutboxEventRepository
	sessions      SessionStore
	ciphers       CipherFactory
	secretService authService.SecretService
	tokenService  authService.TokenService
	metrics       metrics.BusinessMetrics
	logger        *slog.Logger
	now           func() time.Time
}

// Login verifies the password, the master key and its canary, then issues a session token
// and binds a field cipher derived from the master key to it.
//
// Security Notes:
//   - An unknown email and a wrong password both return ErrInvalidCredentials.
//   - A wrong master key or a canary that does not open returns ErrInvalidMasterKey.
//   - Password and master key failures count towards the lockout. Reaching
//     Config.LockoutMaxAttempts locks the user for Config.LockoutDuration and records a
//     user.locked outbox event.
//   - The master key is held only by the in-memory session.
func (t *tokenUseCase) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.LoginOutput, error) {
	if input == nil || strings.TrimSpace(input.Email) == "" || input.Password == "" || input.MasterKey == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "email, password and master_key are required")
	}

	user, err := t.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			t.securityEvent(ctx, authDomain.EventFailedLogin, reasonUnknownEmail, uuid.Nil)
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := t.now()
	if user.IsLocked(now) {
		t.securityEvent(ctx, authDomain.EventFailedLogin, reasonLocked, user.ID)
		return nil, authDomain.ErrUserLocked
	}
	if user.LockedUntil != nil {
		// The previous lock has expired; start counting afresh.
		user.LockedUntil = nil
		user.FailedLoginAttempts = 0
	}

	if !t.secretService.CompareSecret(input.Password, user.PasswordHash) {
		return nil, t.recordFailure(ctx, user, now, reasonInvalidPassword, authDomain.ErrInvalidCredentials)
	}

	if !t.secretService.CompareMasterKey(input.MasterKey, t.ciphers.Salt(), user.MasterKeyHash) {
		return nil, t.recordFailure(ctx, user, now, reasonInvalidMasterKey, authDomain.ErrInvalidMasterKey)
	}

	manager := t.ciphers.New(input.MasterKey)
	if value, ok := manager.Decrypt(user.MasterKeyCanary); !ok || value != userDomain.CanaryPlaintext {
		return nil, t.recordFailure(ctx, user, now, reasonCanaryMismatch, authDomain.ErrInvalidMasterKey)
	}

	if !user.IsActive {
		t.securityEvent(ctx, authDomain.EventFailedLogin, reasonInactive, user.ID)
		return nil, authDomain.ErrUserInactive
	}

	plainToken, tokenHash, err := t.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	token := &authDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: tokenHash,
		UserID:    user.ID,
		ExpiresAt: now.Add(t.config.AuthTokenExpiration),
		CreatedAt: now,
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.UpdatedAt = now

	err = t.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := t.userRepo.UpdateLoginState(ctx, user); err != nil {
			return err
		}
		return t.tokenRepo.Create(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	t.sessions.Bind(&authDomain.Session{
		TokenHash: tokenHash,
		User:      user,
		Cipher:    manager,
		ExpiresAt: token.ExpiresAt,
	})

	t.securityEvent(ctx, authDomain.EventSuccessfulLogin, "", user.ID)

	return &authDomain.LoginOutput{
		PlainToken: plainToken,
		TokenType:  authDomain.TokenTypeBearer,
		ExpiresAt:  token.ExpiresAt,
		User:       user,
	}, nil
}

// recordFailure counts a failed attempt, locks the user when the limit is reached and
// returns cause. The count comes back from the database, so concurrent failures each
// add one and exactly one of them sees the limit.
func (t *tokenUseCase) recordFailure(
	ctx context.Context,
	user *userDomain.User,
	now time.Time,
	reason string,
	cause error,
) error {
	var (
		attempts    int
		lockedUntil *time.Time
	)
	limit := t.config.LockoutMaxAttempts

	err := t.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if attempts, err = t.userRepo.IncrementFailedLogins(ctx, user.ID, now); err != nil {
			return err
		}
		if limit <= 0 || attempts < limit {
			return nil
		}

		until := now.Add(t.config.LockoutDuration)
		if err := t.userRepo.LockUntil(ctx, user.ID, until, now); err != nil {
			return err
		}
		if attempts > limit {
			// Raced past the limit; the attempt that reached it recorded the event.
			return nil
		}
		lockedUntil = &until

		event, err := outboxDomain.NewOutboxEvent(outboxDomain.EventUserLocked, map[string]any{
			"user_id":         user.ID,
			"failed_attempts": attempts,
			"locked_until":    until,
		})
		if err != nil {
			return err
		}
		return t.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return err
	}

	user.FailedLoginAttempts = attempts
	user.LockedUntil = lockedUntil

	t.securityEvent(ctx, authDomain.EventFailedLogin, reason, user.ID)
	if lockedUntil != nil {
		t.securityEvent(ctx, authDomain.EventUserLocked, reason, user.ID)
	}
	return cause
}

// Authenticate resolves a token hash to a live session.
//
// The token row must exist and be neither expired nor revoked, the user must still be
// active, and the session must still be in the store. A token whose session is gone, for
// example after a restart, returns ErrInvalidCredentials: the master key was discarded
// and the user has to log in again.
func (t *tokenUseCase) Authenticate(ctx context.Context, tokenHash string) (*authDomain.Session, error) {
	token, err := t.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrTokenNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !token.IsUsable(t.now()) {
		t.sessions.Remove(tokenHash)
		return nil, authDomain.ErrInvalidCredentials
	}

	session, ok := t.sessions.Get(tokenHash)
	if !ok {
		return nil, authDomain.ErrInvalidCredentials
	}

	user, err := t.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			t.sessions.Remove(tokenHash)
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, authDomain.ErrUserInactive
	}

	current := *session
	current.User = user
	return &current, nil
}

// Logout revokes the token and discards its session, and with it the field cipher.
func (t *tokenUseCase) Logout(ctx context.Context, tokenHash string) error {
	t.sessions.Remove(tokenHash)

	token, err := t.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrTokenNotFound) {
			return authDomain.ErrInvalidCredentials
		}
		return err
	}

	if token.RevokedAt == nil {
		if err := t.tokenRepo.Revoke(ctx, token.ID, t.now()); err != nil {
			return err
		}
	}

	t.securityEvent(ctx, authDomain.EventLogout, "", token.UserID)
	return nil
}

// CleanExpiredTokens deletes token rows that expired more than olderThan ago.
func (t *tokenUseCase) CleanExpiredTokens(ctx context.Context, olderThan time.Duration) (int64, error) {
	return t.tokenRepo.DeleteExpired(ctx, t.now().Add(-olderThan))
}

func (t *tokenUseCase) securityEvent(ctx context.Context, event, reason string, userID uuid.UUID) {
	t.metrics.RecordSecurityEvent(ctx, event, reason)
	if t.logger == nil {
		return
	}

	attrs := []any{slog.String("event", event)}
	if userID != uuid.Nil {
		attrs = append(attrs, slog.String("user_id", userID.String()))
	}
	if reason != "" {
		attrs = append(attrs, slog.String("reason", reason))
	}

	level := slog.LevelInfo
	if event == authDomain.EventFailedLogin || event == authDomain.EventUserLocked {
		level = slog.LevelWarn
	}
	t.logger.Log(ctx, level, "security event", attrs...)
}

// NewTokenUseCase creates a new TokenUseCase with the provided dependencies.
// A nil businessMetrics disables security event counting.
func NewTokenUseCase(
	config *config.Config,
	txManager database.TxManager,
	userRepo UserRepository,
	tokenRepo TokenRepository,
	outboxRepo OutboxEventRepository,
	sessions SessionStore,
	ciphers CipherFactory,
	secretService authService.SecretService,
	tokenService authService.TokenService,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) TokenUseCase {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &tokenUseCase{
		config:        config,
		txManager:     txManager,
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		outboxRepo:    outboxRepo,
		sessions:      sessions,
		ciphers:       ciphers,
		secretService: secretService,
		tokenService:  tokenService,
		metrics:       businessMetrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

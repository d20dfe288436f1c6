package app

import (
	"database/sql"
	"fmt"

	authUseCase "github.com/signmeup/signmeup/internal/auth/usecase"
	outboxRepository "github.com/signmeup/signmeup/internal/outbox/repository"
	outboxUseCase "github.com/signmeup/signmeup/internal/outbox/usecase"
	userHTTP "github.com/signmeup/signmeup/internal/user/http"
	userRepository "github.com/signmeup/signmeup/internal/user/repository"
	userUseCase "github.com/signmeup/signmeup/internal/user/usecase"
)

// UserRepository returns the user repository for the configured driver.
func (c *Container) UserRepository() (userUseCase.UserRepository, error) {
	return lazy(c, "userRepo", &c.userRepoInit, &c.userRepo, func() (userUseCase.UserRepository, error) {
		return byDriver(c,
			func(db *sql.DB) userUseCase.UserRepository { return userRepository.NewPostgreSQLUserRepository(db) },
			func(db *sql.DB) userUseCase.UserRepository { return userRepository.NewMySQLUserRepository(db) },
		)
	})
}

// OutboxRepository returns the security event outbox repository for the configured driver.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	return lazy(c, "outboxRepo", &c.outboxRepoInit, &c.outboxRepo, func() (outboxUseCase.OutboxEventRepository, error) {
		return byDriver(c,
			func(db *sql.DB) outboxUseCase.OutboxEventRepository {
				return outboxRepository.NewPostgreSQLOutboxEventRepository(db)
			},
			func(db *sql.DB) outboxUseCase.OutboxEventRepository {
				return outboxRepository.NewMySQLOutboxEventRepository(db)
			},
		)
	})
}

// UserUseCase returns the registration and master key rotation use case.
// Rotation re-encrypts identities and accounts, so both use cases are wired in,
// and it drops every session of the user.
func (c *Container) UserUseCase() (userUseCase.UseCase, error) {
	return lazy(c, "userUseCase", &c.userUseCaseInit, &c.userUseCase, c.initUserUseCase)
}

// UserHandler returns the HTTP handler for registration and /me.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	return lazy(c, "userHandler", &c.userHandlerInit, &c.userHandler, func() (*userHTTP.UserHandler, error) {
		useCase, err := c.UserUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get user use case for user handler: %w", err)
		}
		return userHTTP.NewUserHandler(useCase, c.Logger()), nil
	})
}

// OutboxUseCase returns the worker that drains security events into the log.
func (c *Container) OutboxUseCase() (outboxUseCase.UseCase, error) {
	return lazy(c, "outboxUseCase", &c.outboxUseCaseInit, &c.outboxUseCase, func() (outboxUseCase.UseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
		}

		logger := c.Logger()
		return outboxUseCase.NewOutboxUseCase(
			outboxUseCase.Config{
				Interval:   c.config.OutboxInterval,
				BatchSize:  c.config.OutboxBatchSize,
				MaxRetries: c.config.OutboxMaxRetries,
			},
			txManager,
			outboxRepo,
			outboxUseCase.NewSecurityEventProcessor(logger),
			logger,
		), nil
	})
}

func (c *Container) initUserUseCase() (userUseCase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
	}
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}
	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for user use case: %w", err)
	}
	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for user use case: %w", err)
	}
	ciphers, err := c.Ciphers()
	if err != nil {
		return nil, err
	}
	identities, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for user use case: %w", err)
	}
	accounts, err := c.AccountUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account use case for user use case: %w", err)
	}

	return userUseCase.NewUserUseCase(
		txManager,
		userRepo,
		outboxRepo,
		c.SecretService(),
		ciphers,
		authUseCase.NewSessionRevoker(tokenRepo, c.SessionStore()),
		identities,
		accounts,
	), nil
}

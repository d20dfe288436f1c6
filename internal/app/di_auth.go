package app

import (
	"database/sql"
	"fmt"

	authHTTP "github.com/signmeup/signmeup/internal/auth/http"
	authRepository "github.com/signmeup/signmeup/internal/auth/repository"
	authService "github.com/signmeup/signmeup/internal/auth/service"
	authUseCase "github.com/signmeup/signmeup/internal/auth/usecase"
)

// SecretService returns the Argon2id hasher for passwords and master keys.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = authService.NewSecretService()
	})
	return c.secretService
}

// TokenService returns the opaque session token generator.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// SessionStore returns the process-wide in-memory session store.
// Its cleanup loop is started by the server command.
func (c *Container) SessionStore() *authService.SessionStore {
	c.sessionStoreInit.Do(func() {
		c.sessionStore = authService.NewSessionStore()
	})
	return c.sessionStore
}

// TokenRepository returns the token repository for the configured driver.
func (c *Container) TokenRepository() (authUseCase.TokenRepository, error) {
	return lazy(c, "tokenRepo", &c.tokenRepoInit, &c.tokenRepo, func() (authUseCase.TokenRepository, error) {
		return byDriver(c,
			func(db *sql.DB) authUseCase.TokenRepository { return authRepository.NewPostgreSQLTokenRepository(db) },
			func(db *sql.DB) authUseCase.TokenRepository { return authRepository.NewMySQLTokenRepository(db) },
		)
	})
}

// TokenUseCase returns the login/session use case, wrapped with metrics when enabled.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	return lazy(c, "tokenUseCase", &c.tokenUseCaseInit, &c.tokenUseCase, c.initTokenUseCase)
}

// TokenHandler returns the HTTP handler for login and logout.
func (c *Container) TokenHandler() (*authHTTP.TokenHandler, error) {
	return lazy(c, "tokenHandler", &c.tokenHandlerInit, &c.tokenHandler, func() (*authHTTP.TokenHandler, error) {
		tokenUseCase, err := c.TokenUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get token use case for token handler: %w", err)
		}
		return authHTTP.NewTokenHandler(tokenUseCase, c.Logger()), nil
	})
}

func (c *Container) initTokenUseCase() (authUseCase.TokenUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for token use case: %w", err)
	}
	baseUserRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for token use case: %w", err)
	}
	userRepo, ok := baseUserRepo.(authUseCase.UserRepository)
	if !ok {
		return nil, fmt.Errorf("user repository %T does not support token use case", baseUserRepo)
	}
	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for token use case: %w", err)
	}
	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for token use case: %w", err)
	}
	ciphers, err := c.Ciphers()
	if err != nil {
		return nil, err
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
	}

	useCase := authUseCase.NewTokenUseCase(
		c.config,
		txManager,
		userRepo,
		tokenRepo,
		outboxRepo,
		c.SessionStore(),
		ciphers,
		c.SecretService(),
		c.TokenService(),
		businessMetrics,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		return authUseCase.NewTokenUseCaseWithMetrics(useCase, businessMetrics), nil
	}
	return useCase, nil
}

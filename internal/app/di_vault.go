package app

import (
	"database/sql"
	"fmt"

	accountHTTP "github.com/signmeup/signmeup/internal/account/http"
	accountRepository "github.com/signmeup/signmeup/internal/account/repository"
	accountUseCase "github.com/signmeup/signmeup/internal/account/usecase"
	identityHTTP "github.com/signmeup/signmeup/internal/identity/http"
	identityRepository "github.com/signmeup/signmeup/internal/identity/repository"
	identityUseCase "github.com/signmeup/signmeup/internal/identity/usecase"
	userUseCase "github.com/signmeup/signmeup/internal/user/usecase"
)

// IdentityRepository returns the identity repository for the configured driver.
func (c *Container) IdentityRepository() (identityUseCase.IdentityRepository, error) {
	return lazy(c, "identityRepo", &c.identityRepoInit, &c.identityRepo, func() (identityUseCase.IdentityRepository, error) {
		return byDriver(c,
			func(db *sql.DB) identityUseCase.IdentityRepository {
				return identityRepository.NewPostgreSQLIdentityRepository(db)
			},
			func(db *sql.DB) identityUseCase.IdentityRepository {
				return identityRepository.NewMySQLIdentityRepository(db)
			},
		)
	})
}

// AccountRepository returns the account repository for the configured driver.
func (c *Container) AccountRepository() (accountUseCase.AccountRepository, error) {
	return lazy(c, "accountRepo", &c.accountRepoInit, &c.accountRepo, func() (accountUseCase.AccountRepository, error) {
		return byDriver(c,
			func(db *sql.DB) accountUseCase.AccountRepository {
				return accountRepository.NewPostgreSQLAccountRepository(db)
			},
			func(db *sql.DB) accountUseCase.AccountRepository {
				return accountRepository.NewMySQLAccountRepository(db)
			},
		)
	})
}

// masterKeyGuard serialises identity and account writes with master key rotation.
func (c *Container) masterKeyGuard() (*userUseCase.MasterKeyGuard, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, err
	}
	return userUseCase.NewMasterKeyGuard(txManager, userRepo), nil
}

// IdentityUseCase returns the identity use case, wrapped with metrics when enabled.
func (c *Container) IdentityUseCase() (identityUseCase.IdentityUseCase, error) {
	return lazy(c, "identityUseCase", &c.identityUseCaseInit, &c.identityUseCase, func() (identityUseCase.IdentityUseCase, error) {
		repo, err := c.IdentityRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get identity repository for identity use case: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for identity use case: %w", err)
		}

		guard, err := c.masterKeyGuard()
		if err != nil {
			return nil, fmt.Errorf("failed to get master key guard for identity use case: %w", err)
		}

		useCase := identityUseCase.NewIdentityUseCase(repo, guard, businessMetrics, c.Logger())
		if c.config.MetricsEnabled {
			return identityUseCase.NewIdentityUseCaseWithMetrics(useCase, businessMetrics), nil
		}
		return useCase, nil
	})
}

// AccountUseCase returns the account use case, wrapped with metrics when enabled.
func (c *Container) AccountUseCase() (accountUseCase.AccountUseCase, error) {
	return lazy(c, "accountUseCase", &c.accountUseCaseInit, &c.accountUseCase, func() (accountUseCase.AccountUseCase, error) {
		repo, err := c.AccountRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get account repository for account use case: %w", err)
		}
		identities, err := c.IdentityRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get identity repository for account use case: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for account use case: %w", err)
		}

		guard, err := c.masterKeyGuard()
		if err != nil {
			return nil, fmt.Errorf("failed to get master key guard for account use case: %w", err)
		}

		useCase := accountUseCase.NewAccountUseCase(repo, identities, guard, businessMetrics, c.Logger())
		if c.config.MetricsEnabled {
			return accountUseCase.NewAccountUseCaseWithMetrics(useCase, businessMetrics), nil
		}
		return useCase, nil
	})
}

// IdentityHandler returns the HTTP handler for /v1/identities.
func (c *Container) IdentityHandler() (*identityHTTP.IdentityHandler, error) {
	return lazy(c, "identityHandler", &c.identityHandlerInit, &c.identityHandler, func() (*identityHTTP.IdentityHandler, error) {
		useCase, err := c.IdentityUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get identity use case for identity handler: %w", err)
		}
		return identityHTTP.NewIdentityHandler(useCase, c.Logger()), nil
	})
}

// AccountHandler returns the HTTP handler for /v1/accounts.
func (c *Container) AccountHandler() (*accountHTTP.AccountHandler, error) {
	return lazy(c, "accountHandler", &c.accountHandlerInit, &c.accountHandler, func() (*accountHTTP.AccountHandler, error) {
		useCase, err := c.AccountUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get account use case for account handler: %w", err)
		}
		return accountHTTP.NewAccountHandler(useCase, c.Logger()), nil
	})
}

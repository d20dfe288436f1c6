// Package app provides the dependency injection container that assembles SignMeUp.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	accountHTTP "github.com/signmeup/signmeup/internal/account/http"
	accountUseCase "github.com/signmeup/signmeup/internal/account/usecase"
	authHTTP "github.com/signmeup/signmeup/internal/auth/http"
	authService "github.com/signmeup/signmeup/internal/auth/service"
	authUseCase "github.com/signmeup/signmeup/internal/auth/usecase"
	"github.com/signmeup/signmeup/internal/config"
	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	"github.com/signmeup/signmeup/internal/database"
	"github.com/signmeup/signmeup/internal/http"
	identityHTTP "github.com/signmeup/signmeup/internal/identity/http"
	identityUseCase "github.com/signmeup/signmeup/internal/identity/usecase"
	"github.com/signmeup/signmeup/internal/metrics"
	outboxUseCase "github.com/signmeup/signmeup/internal/outbox/usecase"
	userHTTP "github.com/signmeup/signmeup/internal/user/http"
	userUseCase "github.com/signmeup/signmeup/internal/user/usecase"
)

// Container holds all application dependencies. Components are created on first access
// and an initialization error is remembered and returned on every later call.
type Container struct {
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	ciphers         *cryptoService.ManagerFactory

	// Services
	secretService authService.SecretService
	tokenService  authService.TokenService
	sessionStore  *authService.SessionStore

	// Repositories
	userRepo     userUseCase.UserRepository
	tokenRepo    authUseCase.TokenRepository
	outboxRepo   outboxUseCase.OutboxEventRepository
	identityRepo identityUseCase.IdentityRepository
	accountRepo  accountUseCase.AccountRepository

	// Use Cases
	userUseCase     userUseCase.UseCase
	tokenUseCase    authUseCase.TokenUseCase
	identityUseCase identityUseCase.IdentityUseCase
	accountUseCase  accountUseCase.AccountUseCase
	outboxUseCase   outboxUseCase.UseCase

	// Handlers
	tokenHandler    *authHTTP.TokenHandler
	userHandler     *userHTTP.UserHandler
	identityHandler *identityHTTP.IdentityHandler
	accountHandler  *accountHTTP.AccountHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	ciphersInit         sync.Once
	secretServiceInit   sync.Once
	tokenServiceInit    sync.Once
	sessionStoreInit    sync.Once
	userRepoInit        sync.Once
	tokenRepoInit       sync.Once
	outboxRepoInit      sync.Once
	identityRepoInit    sync.Once
	accountRepoInit     sync.Once
	userUseCaseInit     sync.Once
	tokenUseCaseInit    sync.Once
	identityUseCaseInit sync.Once
	accountUseCaseInit  sync.Once
	outboxUseCaseInit   sync.Once
	tokenHandlerInit    sync.Once
	userHandlerInit     sync.Once
	identityHandlerInit sync.Once
	accountHandlerInit  sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// lazy runs init once, stores its result in slot and remembers a failure under name.
func lazy[T any](c *Container, name string, once *sync.Once, slot *T, init func() (T, error)) (T, error) {
	once.Do(func() {
		value, err := init()
		if err != nil {
			c.mu.Lock()
			c.initErrors[name] = err
			c.mu.Unlock()
			return
		}
		*slot = value
	})

	c.mu.Lock()
	err := c.initErrors[name]
	c.mu.Unlock()
	if err != nil {
		var zero T
		return zero, err
	}
	return *slot, nil
}

// byDriver picks the repository implementation for the configured database driver.
func byDriver[T any](c *Container, postgres, mysql func(*sql.DB) T) (T, error) {
	var zero T

	db, err := c.DB()
	if err != nil {
		return zero, err
	}

	switch c.config.DBDriver {
	case "postgres":
		return postgres(db), nil
	case "mysql":
		return mysql(db), nil
	default:
		return zero, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the JSON logger configured for LOG_LEVEL.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	return lazy(c, "db", &c.dbInit, &c.db, c.initDB)
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	return lazy(c, "txManager", &c.txManagerInit, &c.txManager, func() (database.TxManager, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		return database.NewTxManager(db), nil
	})
}

// Shutdown stops servers and releases resources that were initialized.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (c *Container) initLogger() *slog.Logger {
	var level slog.Level
	switch c.config.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

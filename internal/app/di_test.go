package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountRepository "github.com/signmeup/signmeup/internal/account/repository"
	authRepository "github.com/signmeup/signmeup/internal/auth/repository"
	"github.com/signmeup/signmeup/internal/config"
	identityRepository "github.com/signmeup/signmeup/internal/identity/repository"
	"github.com/signmeup/signmeup/internal/metrics"
	userRepository "github.com/signmeup/signmeup/internal/user/repository"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		LogLevel:                  "error",
		ServerHost:                "localhost",
		ServerPort:                8080,
		DBDriver:                  driver,
		AuthTokenExpiration:       30 * time.Minute,
		MasterKeySalt:             "test_salt",
		FieldEncryptionAlgorithm:  "aes-gcm",
		FieldCompressionThreshold: 1024,
		OutboxInterval:            time.Second,
		OutboxBatchSize:           10,
		OutboxMaxRetries:          3,
		MetricsNamespace:          "test",
		MetricsPort:               8081,
	}
}

// newContainerWithDB injects a sqlmock connection in place of database.Connect.
func newContainerWithDB(t *testing.T, cfg *config.Config) (*Container, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	c := NewContainer(cfg)
	c.dbInit.Do(func() { c.db = db })
	t.Cleanup(func() { _ = db.Close() })
	return c, mock
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig("postgres")
	c := NewContainer(cfg)

	require.NotNil(t, c)
	assert.Same(t, cfg, c.Config())
	assert.Nil(t, c.logger)
}

func TestContainer_Logger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "invalid"} {
		c := NewContainer(&config.Config{LogLevel: level})
		logger := c.Logger()
		require.NotNil(t, logger, level)
		assert.Same(t, logger, c.Logger())
	}
}

func TestContainer_DBErrorIsRemembered(t *testing.T) {
	c := NewContainer(&config.Config{DBDriver: "invalid_driver"})

	_, err := c.DB()
	require.Error(t, err)

	_, err2 := c.DB()
	assert.Equal(t, err, err2)

	_, err = c.IdentityUseCase()
	assert.Error(t, err)
}

func TestContainer_RepositoriesByDriver(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		c, _ := newContainerWithDB(t, testConfig("postgres"))

		userRepo, err := c.UserRepository()
		require.NoError(t, err)
		assert.IsType(t, &userRepository.PostgreSQLUserRepository{}, userRepo)

		tokenRepo, err := c.TokenRepository()
		require.NoError(t, err)
		assert.IsType(t, &authRepository.PostgreSQLTokenRepository{}, tokenRepo)

		identityRepo, err := c.IdentityRepository()
		require.NoError(t, err)
		assert.IsType(t, &identityRepository.PostgreSQLIdentityRepository{}, identityRepo)

		accountRepo, err := c.AccountRepository()
		require.NoError(t, err)
		assert.IsType(t, &accountRepository.PostgreSQLAccountRepository{}, accountRepo)
	})

	t.Run("mysql", func(t *testing.T) {
		c, _ := newContainerWithDB(t, testConfig("mysql"))

		userRepo, err := c.UserRepository()
		require.NoError(t, err)
		assert.IsType(t, &userRepository.MySQLUserRepository{}, userRepo)

		identityRepo, err := c.IdentityRepository()
		require.NoError(t, err)
		assert.IsType(t, &identityRepository.MySQLIdentityRepository{}, identityRepo)

		accountRepo, err := c.AccountRepository()
		require.NoError(t, err)
		assert.IsType(t, &accountRepository.MySQLAccountRepository{}, accountRepo)
	})

	t.Run("unsupported", func(t *testing.T) {
		c, _ := newContainerWithDB(t, testConfig("sqlite"))

		_, err := c.AccountRepository()
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}

func TestContainer_Ciphers(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c := NewContainer(testConfig("postgres"))
		factory, err := c.Ciphers()
		require.NoError(t, err)
		assert.Equal(t, "test_salt", factory.Salt())

		token, err := factory.New("demo_master_key_123").Encrypt("Alex")
		require.NoError(t, err)
		got, ok := factory.New("demo_master_key_123").Decrypt(token)
		require.True(t, ok)
		assert.Equal(t, "Alex", got)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		cfg := testConfig("postgres")
		cfg.FieldEncryptionAlgorithm = "rot13"
		_, err := NewContainer(cfg).Ciphers()
		assert.Error(t, err)
	})
}

func TestContainer_BusinessMetricsDisabled(t *testing.T) {
	c := NewContainer(testConfig("postgres"))

	provider, err := c.MetricsProvider()
	require.NoError(t, err)
	assert.Nil(t, provider)

	bm, err := c.BusinessMetrics()
	require.NoError(t, err)
	assert.IsType(t, &metrics.NoOpBusinessMetrics{}, bm)

	server, err := c.MetricsServer()
	require.NoError(t, err)
	assert.Nil(t, server)
}

func TestContainer_UseCasesShareDependencies(t *testing.T) {
	c, _ := newContainerWithDB(t, testConfig("postgres"))

	userUseCase, err := c.UserUseCase()
	require.NoError(t, err)
	require.NotNil(t, userUseCase)

	tokenUseCase, err := c.TokenUseCase()
	require.NoError(t, err)
	require.NotNil(t, tokenUseCase)

	outboxUseCase, err := c.OutboxUseCase()
	require.NoError(t, err)
	require.NotNil(t, outboxUseCase)

	identityUseCase, err := c.IdentityUseCase()
	require.NoError(t, err)
	assert.Same(t, c.identityUseCase, identityUseCase)
	assert.Same(t, c.SessionStore(), c.SessionStore())
}

func TestContainer_HTTPServer(t *testing.T) {
	cfg := testConfig("postgres")
	cfg.MetricsEnabled = true
	c, mock := newContainerWithDB(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := c.HTTPServer(ctx)
	require.NoError(t, err)
	handler := server.GetHandler()
	require.NotNil(t, handler)

	mock.ExpectPing()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/identities", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	metricsServer, err := c.MetricsServer()
	require.NoError(t, err)
	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContainer_Shutdown(t *testing.T) {
	t.Run("nothing initialized", func(t *testing.T) {
		assert.NoError(t, NewContainer(testConfig("postgres")).Shutdown(context.Background()))
	})

	t.Run("closes database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectClose()

		c := NewContainer(testConfig("postgres"))
		c.dbInit.Do(func() { c.db = db })

		require.NoError(t, c.Shutdown(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

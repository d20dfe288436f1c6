// Package http wires the public API router and runs the API and metrics servers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	accountHTTP "github.com/signmeup/signmeup/internal/account/http"
	authHTTP "github.com/signmeup/signmeup/internal/auth/http"
	authService "github.com/signmeup/signmeup/internal/auth/service"
	authUseCase "github.com/signmeup/signmeup/internal/auth/usecase"
	"github.com/signmeup/signmeup/internal/config"
	identityHTTP "github.com/signmeup/signmeup/internal/identity/http"
	"github.com/signmeup/signmeup/internal/metrics"
	userHTTP "github.com/signmeup/signmeup/internal/user/http"
)

// Server represents the API server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new API server. SetupRouter must be called before Start.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handlers groups the domain handlers mounted under /v1.
type Handlers struct {
	Token    *authHTTP.TokenHandler
	User     *userHTTP.UserHandler
	Identity *identityHTTP.IdentityHandler
	Account  *accountHTTP.AccountHandler
}

// SetupRouter builds the gin engine with global middleware, health checks and /v1 routes.
// ctx bounds the lifetime of the rate limiter cleanup goroutines.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	tokenUseCase authUseCase.TokenUseCase,
	tokenService authService.TokenService,
	metricsProvider *metrics.Provider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	// Forwarded headers are only believed from configured proxies.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		s.logger.Error("invalid trusted proxies, trusting none",
			slog.Any("trusted_proxies", cfg.TrustedProxies),
			slog.Any("error", err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	public := v1.Group("/auth")
	if cfg.RateLimitLoginEnabled {
		public.Use(authHTTP.LoginRateLimitMiddleware(
			ctx, cfg.RateLimitLoginRequestsPerSec, cfg.RateLimitLoginBurst, s.logger,
		))
	}
	public.POST("/register", handlers.User.RegisterHandler)
	public.POST("/login", handlers.Token.LoginHandler)

	protected := v1.Group("")
	protected.Use(authHTTP.AuthenticationMiddleware(tokenUseCase, tokenService, s.logger))
	if cfg.RateLimitEnabled {
		protected.Use(authHTTP.RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	protected.POST("/auth/logout", handlers.Token.LogoutHandler)
	protected.GET("/auth/me", handlers.User.MeHandler)

	identities := protected.Group("/identities")
	{
		identities.POST("", handlers.Identity.CreateHandler)
		identities.GET("", handlers.Identity.ListHandler)
		identities.GET("/:id", handlers.Identity.GetHandler)
		identities.PUT("/:id", handlers.Identity.UpdateHandler)
		identities.DELETE("/:id", handlers.Identity.DeleteHandler)
	}

	accounts := protected.Group("/accounts")
	{
		accounts.POST("", handlers.Account.CreateHandler)
		accounts.GET("", handlers.Account.ListHandler)
		accounts.GET("/:id", handlers.Account.GetHandler)
		accounts.PUT("/:id", handlers.Account.UpdateHandler)
		accounts.DELETE("/:id", handlers.Account.DeleteHandler)
	}

	s.router = router
}

// GetHandler returns the configured router, or nil before SetupRouter.
func (s *Server) GetHandler() http.Handler {
	if s.router == nil {
		return nil
	}
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured: call SetupRouter first")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

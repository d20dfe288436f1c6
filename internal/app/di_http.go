package app

import (
	"context"
	"fmt"

	"github.com/signmeup/signmeup/internal/http"
)

// HTTPServer returns the API server with its router configured.
// ctx bounds background goroutines owned by the router, such as rate limiter cleanup.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	return lazy(c, "httpServer", &c.httpServerInit, &c.httpServer, func() (*http.Server, error) {
		return c.initHTTPServer(ctx)
	})
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	return lazy(c, "metricsServer", &c.metricsServerInit, &c.metricsServer, func() (*http.MetricsServer, error) {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
	})
}

func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	var handlers http.Handlers
	if handlers.Token, err = c.TokenHandler(); err != nil {
		return nil, err
	}
	if handlers.User, err = c.UserHandler(); err != nil {
		return nil, err
	}
	if handlers.Identity, err = c.IdentityHandler(); err != nil {
		return nil, err
	}
	if handlers.Account, err = c.AccountHandler(); err != nil {
		return nil, err
	}

	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for http server: %w", err)
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(ctx, c.config, handlers, tokenUseCase, c.TokenService(), provider)

	return server, nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signmeup/signmeup/internal/app"
	"github.com/signmeup/signmeup/internal/config"
)

// Service is a long-running listener stopped through Shutdown.
type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Worker is a background loop that runs until ctx is cancelled.
type Worker func(ctx context.Context) error

// RunServer starts the API server, the metrics server when enabled, the security event
// outbox worker and the session cleanup loop. It blocks until SIGINT/SIGTERM or until
// one of them fails, then shuts the servers down within DBConnMaxLifetime.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))
	defer closeContainer(container, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := container.HTTPServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	services := []Service{server}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		services = append(services, metricsServer)
	}

	outbox, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox worker: %w", err)
	}
	sessions := container.SessionStore()

	workers := []Worker{
		outbox.Start,
		func(ctx context.Context) error {
			return sessions.Run(ctx, cfg.SessionCleanupInterval, logger)
		},
	}

	return runServices(ctx, logger, cfg.DBConnMaxLifetime, services, workers)
}

// runServices runs every service and worker in one errgroup. The first failure or the
// cancellation of ctx stops the others. Workers ending with context.Canceled are not errors.
func runServices(
	ctx context.Context,
	logger *slog.Logger,
	shutdownTimeout time.Duration,
	services []Service,
	workers []Worker,
) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, service := range services {
		g.Go(func() error {
			return service.Start(gctx)
		})
	}

	for _, worker := range workers {
		g.Go(func() error {
			if err := worker(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("shutdown signal received")
		} else {
			logger.Error("service failed, initiating shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		var shutdownErrors []error
		for _, service := range services {
			if err := service.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, err)
			}
		}
		if len(shutdownErrors) > 0 {
			return fmt.Errorf("shutdown: %w", errors.Join(shutdownErrors...))
		}
		return nil
	})

	return g.Wait()
}

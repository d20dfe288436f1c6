package app

import (
	"fmt"

	cryptoDomain "github.com/signmeup/signmeup/internal/crypto/domain"
	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	"github.com/signmeup/signmeup/internal/metrics"
)

// Ciphers returns the factory that turns a master key into a field EncryptionManager.
// An unknown FIELD_ENCRYPTION_ALGORITHM fails here, at startup, instead of at first login.
func (c *Container) Ciphers() (*cryptoService.ManagerFactory, error) {
	return lazy(c, "ciphers", &c.ciphersInit, &c.ciphers, func() (*cryptoService.ManagerFactory, error) {
		factory, err := cryptoService.NewManagerFactory(
			c.config.MasterKeySalt,
			cryptoDomain.Algorithm(c.config.FieldEncryptionAlgorithm),
			c.config.FieldCompressionThreshold,
		)
		if err != nil {
			return nil, fmt.Errorf("invalid field encryption settings: %w", err)
		}
		return factory, nil
	})
}

// MetricsProvider returns the OpenTelemetry provider backing /metrics.
// Returns nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	return lazy(c, "metricsProvider", &c.metricsProviderInit, &c.metricsProvider, func() (*metrics.Provider, error) {
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics provider: %w", err)
		}
		return provider, nil
	})
}

// BusinessMetrics returns operation and security event counters, or a no-op
// implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	return lazy(c, "businessMetrics", &c.businessMetricsInit, &c.businessMetrics, func() (metrics.BusinessMetrics, error) {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		if provider == nil {
			return metrics.NewNoOpBusinessMetrics(), nil
		}
		return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	})
}

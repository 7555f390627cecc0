package services

import (
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/metrics"
	"github.com/SscSPs/fx_rates_pipeline/internal/platform/config"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/clock"
)

// Gateways groups the outbound adapters the services depend on.
type Gateways struct {
	RateProvider       gateways.RateProvider
	Sender             gateways.MessageSender
	Publisher          gateways.EventPublisher
	FallbackCurrencies []string
}

// NewServiceContainer creates a new service container with properly initialized dependencies.
// The pipeline driver is also returned as its concrete type so the caller can
// manage its worker pool.
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	gw Gateways,
	m *metrics.PipelineMetrics,
	clk clock.Clock,
) (*portssvc.ServiceContainer, *PipelineService) {
	container := &portssvc.ServiceContainer{}

	// Stage services first; the pipeline driver sequences them
	container.Fetcher = NewFetchService(gw.RateProvider, repos.ObjectStore, clk)
	container.Transformer = NewTransformService(repos.ObjectStore, clk)
	container.Loader = NewLoadService(repos.ObjectStore, repos.RateRepo, clk, cfg.StorageTimeout)
	container.Notifier = NewNotifyService(repos.RateRepo, repos.RateRepo, gw.Sender, clk, NotifyConfig{
		Recipients:     cfg.NotifyRecipients,
		DefaultTargets: cfg.NotifyDefaultTargets,
	})

	pipeline := NewPipelineService(PipelineDeps{
		Fetcher:     container.Fetcher,
		Transformer: container.Transformer,
		Loader:      container.Loader,
		Notifier:    container.Notifier,
		Store:       repos.ObjectStore,
		Publisher:   gw.Publisher,
		Metrics:     m,
		Clock:       clk,
	}, PipelineConfig{
		Retry: RetryPolicy{
			MaxRetries:   cfg.PipelineMaxRetries,
			Delay:        cfg.PipelineRetryDelay,
			StageTimeout: cfg.PipelineStageTimeout,
		},
		Workers:   cfg.PipelineWorkers,
		QueueSize: cfg.PipelineQueueSize,
	})
	container.Pipeline = pipeline

	// Dashboard read side
	container.Rates = NewRateQueryService(repos.RateRepo)
	container.Currency = NewCurrencyService(gw.RateProvider, gw.FallbackCurrencies)
	container.Auth = NewAuthService(AuthConfig{
		OperatorUsername:     cfg.OperatorUsername,
		OperatorPasswordHash: cfg.OperatorPasswordHash,
		JWTSecret:            cfg.JWTSecret,
		JWTIssuer:            cfg.JWTIssuer,
		JWTExpiry:            cfg.JWTExpiryDuration,
	})

	return container, pipeline
}

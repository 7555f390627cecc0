package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/fx_rates_pipeline/internal/adapters/events"
	"github.com/SscSPs/fx_rates_pipeline/internal/adapters/mailer"
	"github.com/SscSPs/fx_rates_pipeline/internal/adapters/objectstore"
	"github.com/SscSPs/fx_rates_pipeline/internal/adapters/rateapi"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/metrics"
	"github.com/SscSPs/fx_rates_pipeline/internal/platform/config"
	"github.com/SscSPs/fx_rates_pipeline/internal/platform/gcp"
	"github.com/SscSPs/fx_rates_pipeline/internal/repositories/database/bigquery"
	"github.com/SscSPs/fx_rates_pipeline/internal/repositories/database/pgsql"
	"github.com/SscSPs/fx_rates_pipeline/internal/repositories/memory"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/clock"
	"github.com/SscSPs/fx_rates_pipeline/pkg/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/option"
)

// application holds the wired services and the resources to release on exit.
type application struct {
	services *portssvc.ServiceContainer
	pipeline *services.PipelineService
	registry *prometheus.Registry
	closers  []func()
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApplication wires storage, gateways and services from cfg.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{registry: prometheus.NewRegistry()}
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics := metrics.NewPipelineMetrics(app.registry)

	clk, err := clock.NewReferenceClock(cfg.ReferenceTimezone)
	if err != nil {
		return nil, err
	}

	var gcpOpts []option.ClientOption
	if cfg.WarehouseBackend == config.WarehouseBigQuery || cfg.ObjectStoreBackend == config.ObjectStoreGCS {
		creds, err := gcp.Resolve(ctx, cfg.GCPProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("resolve gcp credentials: %w", err)
		}
		cfg.GCPProjectID = creds.ProjectID
		gcpOpts = creds.Options
	}

	store, err := newObjectStore(ctx, cfg, gcpOpts)
	if err != nil {
		app.Close()
		return nil, err
	}

	repos, err := app.newWarehouse(ctx, cfg, clk, store, gcpOpts, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	provider := rateapi.NewClient(cfg.RateAPIBaseURL, cfg.RateAPIAccessKey, cfg.RateAPITimeout, pipelineMetrics.ProviderLatency)

	var sender gateways.MessageSender = mailer.LogSender{}
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		logger.Warn("SMTP_HOST not set, notifications are written to the log")
	}

	var publisher gateways.EventPublisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic)
	}
	app.closers = append(app.closers, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", slog.String("error", err.Error()))
		}
	})

	app.services, app.pipeline = services.NewServiceContainer(cfg, repos, services.Gateways{
		RateProvider:       provider,
		Sender:             sender,
		Publisher:          publisher,
		FallbackCurrencies: domain.FallbackCurrencies,
	}, pipelineMetrics, clk)

	return app, nil
}

func newObjectStore(ctx context.Context, cfg *config.Config, gcpOpts []option.ClientOption) (portsrepo.ObjectStore, error) {
	switch cfg.ObjectStoreBackend {
	case config.ObjectStoreGCS:
		return objectstore.NewGCSObjectStore(ctx, cfg.GCSBucket, gcpOpts...)
	case config.ObjectStoreMemory:
		return objectstore.NewMemoryObjectStore(), nil
	default:
		return objectstore.NewLocalObjectStore(cfg.ObjectStoreRoot)
	}
}

func (a *application) newWarehouse(
	ctx context.Context,
	cfg *config.Config,
	clk clock.Clock,
	store portsrepo.ObjectStore,
	gcpOpts []option.ClientOption,
	logger *slog.Logger,
) (portsrepo.RepositoryProvider, error) {
	switch cfg.WarehouseBackend {
	case config.WarehousePostgres:
		if err := migrateWarehouse(cfg, logger); err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		a.closers = append(a.closers, func() { database.ClosePgxPool(dbPool) })
		logger.Info("Database connection pool established.")
		return pgsql.NewRepositoryProvider(dbPool, clk.Location(), store), nil

	case config.WarehouseBigQuery:
		repo, err := bigquery.NewRateRepository(ctx, cfg.GCPProjectID, cfg.BigQueryDataset, cfg.BigQueryLocation, clk.Location(), gcpOpts...)
		if err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
		return portsrepo.RepositoryProvider{RateRepo: repo, ObjectStore: store}, nil

	default:
		logger.Warn("Using the in-memory warehouse, rates are lost on exit")
		return portsrepo.RepositoryProvider{RateRepo: memory.NewRateRepository(), ObjectStore: store}, nil
	}
}

func migrateWarehouse(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	applied, err := database.RunMigrations(cfg.DatabaseURL, database.DefaultMigrationsPath, logger)
	if err != nil {
		return err
	}
	if applied {
		logger.Info("Database migrations applied successfully.")
	} else {
		logger.Info("No new migrations to apply.")
	}
	return nil
}

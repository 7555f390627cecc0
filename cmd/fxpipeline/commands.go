package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/handlers"
	"github.com/SscSPs/fx_rates_pipeline/internal/middleware"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API, pipeline workers and schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := newApplication(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		pairs, err := parsePairs(cfg.PipelineDefaultPairs)
		if err != nil {
			return err
		}
		workerCtx := middleware.WithLogger(ctx, logger)
		app.pipeline.Start(workerCtx)
		defer app.pipeline.Stop()
		app.pipeline.StartSchedule(workerCtx, cfg.PipelineScheduleInterval, pairs)

		if cfg.IsProduction {
			gin.SetMode(gin.ReleaseMode)
		}

		r := gin.New()

		// Global middleware (logging, recovery, cors)
		r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
		if len(cfg.CORSAllowedOrigins) > 0 {
			corsCfg := cors.DefaultConfig()
			corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
			corsCfg.AddAllowHeaders("Authorization")
			r.Use(cors.New(corsCfg))
		}

		if err := r.SetTrustedProxies(nil); err != nil {
			return fmt.Errorf("failed to set trusted proxies: %w", err)
		}

		if err := handlers.RegisterRoutes(r, cfg, app.services, app.registry); err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}
		serveErr := make(chan error, 1)
		go func() {
			logger.Info("Server starting", slog.String("port", cfg.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("server failed to run: %w", err)
			}
		case <-ctx.Done():
		}

		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run fetch, transform, load and notify once",
	Long: `Run the whole pipeline synchronously for one currency pair. Failed stages are
retried per PIPELINE_MAX_RETRIES and a failure notice is sent when a stage
gives up. Without --target every quote of the base currency is fetched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, err := commandApplication(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		base, _ := cmd.Flags().GetString("base")
		target, _ := cmd.Flags().GetString("target")
		triggeredBy, _ := cmd.Flags().GetString("triggered-by")

		run, err := app.pipeline.Execute(ctx, domain.RunRequest{
			BaseCurrency:   base,
			TargetCurrency: target,
			TriggeredBy:    triggeredBy,
		})
		if run != nil {
			if perr := printJSON(run); perr != nil {
				return perr
			}
		}
		return err
	},
}

// --- Stage Commands ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch live rates into a raw staged file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, err := commandApplication(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		base, _ := cmd.Flags().GetString("base")
		target, _ := cmd.Flags().GetString("target")
		res, err := app.services.Fetcher.Fetch(ctx, domain.FetchRequest{
			BaseCurrency:   base,
			TargetCurrency: target,
			RunID:          uuid.NewString(),
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Clean a raw staged file into a clean staged file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, err := commandApplication(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		source, _ := cmd.Flags().GetString("source")
		res, err := app.services.Transformer.Transform(ctx, domain.TransformRequest{
			Source: source,
			RunID:  uuid.NewString(),
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a clean staged file into the warehouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, err := commandApplication(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		source, _ := cmd.Flags().GetString("source")
		res, err := app.services.Loader.Load(ctx, domain.LoadRequest{Source: source})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send the 24h change summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, app, err := commandApplication(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		base, _ := cmd.Flags().GetString("base")
		target, _ := cmd.Flags().GetString("target")
		msg, err := app.services.Notifier.Notify(ctx, domain.NotifyRequest{
			BaseCurrency:   base,
			TargetCurrency: target,
			RunID:          uuid.NewString(),
		})
		if err != nil {
			return err
		}
		fmt.Println(msg.Subject)
		fmt.Println(msg.TextBody)
		return nil
	},
}

// --- Migrate Command ---

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL warehouse migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("PGSQL_URL is required to run migrations")
		}
		return migrateWarehouse(cfg, logger)
	},
}

// --- Hash Password Command ---

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash for OPERATOR_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := utils.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, fetchCmd, notifyCmd} {
		cmd.Flags().String("base", "USD", "base currency code")
		cmd.Flags().String("target", "", "target currency code (empty for every quote)")
	}
	runCmd.Flags().String("triggered-by", "cli", "who started the run")
	transformCmd.Flags().String("source", "", "raw file path (default: most recent raw file)")
	loadCmd.Flags().String("source", "", "clean file path")
	_ = loadCmd.MarkFlagRequired("source")
}

// commandApplication wires the application for a one-shot command.
func commandApplication(cmd *cobra.Command) (context.Context, *application, error) {
	ctx := middleware.WithLogger(cmd.Context(), logger)
	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return ctx, app, nil
}

func parsePairs(raw []string) ([]domain.CurrencyPair, error) {
	pairs := make([]domain.CurrencyPair, 0, len(raw))
	for _, item := range raw {
		pair, err := domain.ParseCurrencyPair(item)
		if err != nil {
			return nil, fmt.Errorf("PIPELINE_DEFAULT_PAIRS: %w", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

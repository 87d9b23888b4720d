package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexsearch/lexsearch-core/internal/adapters/driven/auth"
	httpserver "github.com/lexsearch/lexsearch-core/internal/adapters/driving/http"
	"github.com/lexsearch/lexsearch-core/internal/config"
)

// Run modes of the serve command
const (
	modeAll    = "all"
	modeAPI    = "api"
	modeWorker = "worker"
)

func newServeCmd(version string) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the index worker",
		Long: `Run the HTTP API and the index worker.

Modes:
  all     API and worker in one process (default)
  api     API only; manual jobs still run in this process
  worker  schedule loop only, no HTTP listener`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch mode {
			case modeAll, modeAPI, modeWorker:
			default:
				return fmt.Errorf("unknown mode %q (use: all, api or worker)", mode)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return serve(ctx, a, mode, version)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&mode, "mode", modeAll, "Run mode: all, api or worker")
	f.String("host", "", "HTTP listen host")
	f.Int("port", 0, "HTTP listen port")
	f.Bool("worker", true, "Run the schedule loop")
	f.Duration("tick-interval", 0, "How often schedules are checked")
	f.Duration("job-timeout", 0, "Watchdog per index job")
	f.Int("batch-size", 0, "Documents per index batch")
	f.Int("retrieval-limit", 0, "Hits returned per relevance query")
	f.String("bootstrap", "", "YAML file with indexes and schedules to apply at startup")
	return cmd
}

func serve(ctx context.Context, a *app, mode, version string) error {
	config.Log(a.settings, a.logger)

	if a.settings.Bootstrap.File != "" {
		seed, err := config.LoadBootstrap(a.settings.Bootstrap.File)
		if err != nil {
			return err
		}
		result, err := seed.Apply(ctx, a.indexService, a.scheduleService, a.logger)
		if err != nil {
			return err
		}
		a.logger.Info("bootstrap applied",
			"indexes", result.Indexes,
			"schedules_created", result.SchedulesCreated,
			"schedules_updated", result.SchedulesUpdated)
	}

	if err := a.indexService.EnsureIndexes(ctx); err != nil {
		a.logger.Warn("failed to provision indexes", "error", err)
	}

	runWorker := mode == modeWorker || (mode == modeAll && a.settings.Worker.Enabled)
	if runWorker {
		if err := a.worker.Start(ctx); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
	}
	defer a.worker.Stop()

	if mode == modeWorker {
		a.logger.Info("worker running without HTTP listener")
		<-ctx.Done()
		return nil
	}

	if a.settings.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required to serve the API")
	}
	authAdapter, err := auth.NewAdapter(a.settings.Auth.JWTSecret)
	if err != nil {
		return err
	}

	checks := map[string]httpserver.Pinger{
		"postgres": httpserver.PingFunc(a.db.Ping),
		"engine":   httpserver.PingFunc(a.engine.HealthCheck),
	}
	if a.redis != nil {
		checks["redis"] = httpserver.PingFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}

	server := httpserver.NewServer(httpserver.Config{
		Host:           a.settings.HTTP.Host,
		Port:           a.settings.HTTP.Port,
		Version:        version,
		AllowedOrigins: a.settings.HTTP.AllowedOrigins,
		Logger:         a.logger,
	}, httpserver.Services{
		Index:     a.indexService,
		Retrieval: a.retrievalService,
		Schedules: a.scheduleService,
		Documents: a.documentService,
		Jobs:      a.worker,
		Auth:      authAdapter,
		Checks:    checks,
	})
	return server.Start(ctx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lexsearch/lexsearch-core/internal/adapters/driven/bleve"
	"github.com/lexsearch/lexsearch-core/internal/adapters/driven/cron"
	"github.com/lexsearch/lexsearch-core/internal/adapters/driven/meilisearch"
	"github.com/lexsearch/lexsearch-core/internal/adapters/driven/postgres"
	redisadapter "github.com/lexsearch/lexsearch-core/internal/adapters/driven/redis"
	"github.com/lexsearch/lexsearch-core/internal/config"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
	"github.com/lexsearch/lexsearch-core/internal/core/services"
	"github.com/lexsearch/lexsearch-core/internal/worker"
)

// cronCacheSize bounds the parsed cron expressions kept in memory
const cronCacheSize = 256

// app holds the wired adapters and services shared by the commands
type app struct {
	settings *config.Settings
	logger   *slog.Logger

	db          *postgres.DB
	redis       *redis.Client
	engine      driven.SearchIndexEngine
	closeEngine func() error

	documents driven.DocumentStore
	indexes   driven.SearchIndexStore
	schedules driven.ScheduleStore
	jobs      driven.JobStore
	lock      driven.DistributedLock
	events    *redisadapter.JobEvents
	cron      driven.CronParser

	indexService     driving.IndexService
	retrievalService driving.RetrievalService
	scheduleService  driving.ScheduleService
	worker           *worker.Worker
	documentService  driving.DocumentService
}

// loadSettings resolves settings and the process logger from cmd's flags
func loadSettings(cmd *cobra.Command) (*config.Settings, *slog.Logger, error) {
	settings, err := config.LoadSettingsWithFlags(cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	if err := config.ValidateSettings(settings); err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(settings.Log.Level, settings.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return settings, logger, nil
}

// newApp connects every backend and wires the services
func newApp(ctx context.Context, settings *config.Settings, logger *slog.Logger) (*app, error) {
	a := &app{settings: settings, logger: logger, cron: cron.NewParser(cronCacheSize)}

	dbConfig := postgres.DefaultConfig(settings.Database.URL)
	dbConfig.MaxOpenConns = settings.Database.MaxOpenConns
	dbConfig.MaxIdleConns = settings.Database.MaxIdleConns
	dbConfig.ConnMaxLifetime = settings.Database.ConnMaxLifetime
	dbConfig.ConnMaxIdleTime = settings.Database.ConnMaxIdleTime

	logger.Info("connecting to postgres")
	db, err := postgres.Connect(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db
	if err := db.InitSchema(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	if settings.Redis.URL != "" {
		opts, err := redis.ParseURL(settings.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("redis connected")
	}

	if err := a.openEngine(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.engine.HealthCheck(ctx); err != nil {
		logger.Warn("search engine health check failed", "engine", settings.Engine.Kind, "error", err)
	}

	a.documents = postgres.NewDocumentStore(db)
	a.indexes = postgres.NewSearchIndexStore(db)
	a.schedules = postgres.NewScheduleStore(db)
	a.jobs = postgres.NewJobStore(db)

	var publisher driven.JobEventPublisher
	if a.redis != nil {
		a.lock = redisadapter.NewLock(a.redis)
		a.events = redisadapter.NewJobEvents(a.redis, settings.Redis.Channel, logger)
		publisher = a.events
		logger.Info("using redis lock and job events", "channel", settings.Redis.Channel)
	} else {
		a.lock = postgres.NewAdvisoryLock(db)
		logger.Info("using postgres advisory lock")
	}

	a.indexService = services.NewIndexService(a.documents, a.indexes, a.engine, services.IndexServiceConfig{
		BatchSize: settings.Index.BatchSize,
		Logger:    logger,
	})
	a.retrievalService = services.NewRetrievalService(a.documents, a.indexes, a.engine, services.RetrievalServiceConfig{
		Limit:      settings.Retrieval.Limit,
		CropLength: settings.Retrieval.CropLength,
		Index:      settings.Retrieval.Index,
		Logger:     logger,
	})
	a.scheduleService = services.NewScheduleService(a.schedules, a.cron, logger)
	a.worker = worker.New(worker.Config{
		IndexService: a.indexService,
		Schedules:    a.schedules,
		Jobs:         a.jobs,
		Cron:         a.cron,
		Lock:         a.lock,
		Publisher:    publisher,
		Logger:       logger,
		TickInterval: settings.Worker.TickInterval,
		JobTimeout:   settings.Worker.JobTimeout,
		RecentJobs:   settings.Worker.RecentJobs,
	})
	a.documentService = services.NewDocumentService(a.documents, a.indexService, a.worker, logger)
	return a, nil
}

func (a *app) openEngine() error {
	switch a.settings.Engine.Kind {
	case config.EngineMeilisearch:
		cfg := meilisearch.DefaultConfig(a.settings.Engine.MeiliURL)
		cfg.APIKey = a.settings.Engine.MeiliAPIKey
		cfg.Logger = a.logger
		engine, err := meilisearch.NewSearchEngine(cfg)
		if err != nil {
			return fmt.Errorf("create meilisearch engine: %w", err)
		}
		a.engine = engine
		a.closeEngine = func() error { return nil }
	default:
		engine, err := bleve.NewEngine(bleve.Config{Dir: a.settings.Engine.BleveDir, Logger: a.logger})
		if err != nil {
			return fmt.Errorf("open bleve indexes: %w", err)
		}
		a.engine = engine
		a.closeEngine = engine.Close
	}
	a.logger.Info("search engine ready", "engine", a.settings.Engine.Kind)
	return nil
}

// Close releases every backend connection
func (a *app) Close() error {
	var errs []error
	if a.closeEngine != nil {
		errs = append(errs, a.closeEngine())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// withApp runs fn against a fully wired app and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	settings, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close backends", "error", err)
		}
	}()
	return fn(ctx, a)
}

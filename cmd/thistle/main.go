package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/thistle/config"
	"github.com/Ramsey-B/thistle/internal/database"
	"github.com/Ramsey-B/thistle/internal/handlers"
	"github.com/Ramsey-B/thistle/internal/middleware"
	"github.com/Ramsey-B/thistle/internal/startup"
	"github.com/Ramsey-B/thistle/internal/tracing"
	"github.com/Ramsey-B/thistle/internal/tracing/exporters"
	"github.com/Ramsey-B/thistle/pkg/aggregator"
	"github.com/Ramsey-B/thistle/pkg/events"
	"github.com/Ramsey-B/thistle/pkg/health"
	"github.com/Ramsey-B/thistle/pkg/httpclient"
	"github.com/Ramsey-B/thistle/pkg/ingestion"
	"github.com/Ramsey-B/thistle/pkg/kafka"
	"github.com/Ramsey-B/thistle/pkg/moderation"
	"github.com/Ramsey-B/thistle/pkg/normalizer"
	"github.com/Ramsey-B/thistle/pkg/redis"
	"github.com/Ramsey-B/thistle/pkg/repositories"
	"github.com/Ramsey-B/thistle/pkg/seed"
	"github.com/Ramsey-B/thistle/pkg/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("thistle stopped with an error")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger.With(zap.String("app", cfg.AppName)), nil), nil
}

func run(cfg *config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	categories, err := aggregator.ParseCategories(cfg.MetricCategories)
	if err != nil {
		return err
	}

	app := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	checker := health.NewChecker(cfg.Version)

	app.AddDependency(tracing.NewProvider(cfg.AppName, cfg.OTLPEnabled, exporters.OTLPConfig{
		Endpoint: cfg.OTLPEndpoint,
		Protocol: cfg.OTLPProtocol,
		Insecure: cfg.OTLPInsecure,
		Timeout:  exporters.DefaultOTLPConfig().Timeout,
	}))

	var postgres *database.Postgres
	if cfg.StorageBackend == repositories.BackendPostgres {
		postgres = database.NewPostgres(database.PostgresConfig{
			Host:            cfg.DatabaseHost,
			Port:            cfg.DatabasePort,
			UserName:        cfg.DatabaseUserName,
			Password:        cfg.DatabasePassword,
			Name:            cfg.DatabaseName,
			SSLMode:         cfg.DatabaseSSLMode,
			MaxOpenConns:    cfg.DatabaseMaxOpenConns,
			MaxIdleConns:    cfg.DatabaseMaxIdleConns,
			ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			Migration: database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             cfg.DatabaseMigrationVersion,
				Force:               cfg.DatabaseMigrationForce,
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			},
		}, logger)
		app.AddDependency(postgres)
		checker.AddCheck("database", postgres, true)
	}

	storage := repositories.NewStorage(cfg.StorageBackend, postgres, logger)
	app.AddDependency(storage)

	var (
		dashboardCache aggregator.DashboardCache
		moderationOpts []moderation.Option
	)
	if cfg.RedisEnabled {
		redisClient := redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		app.AddDependency(redisClient)
		checker.AddCheck("redis", redisClient, false)

		dashboardCache = redis.NewDashboardCache(redisClient, cfg.DashboardCacheTTL)
		moderationOpts = append(moderationOpts, moderation.WithDistributedLock(redis.NewLocker(redisClient, ""), cfg.ModerationLockTTL))
	}

	emitter := events.NewEmitter(nil, logger)
	if cfg.KafkaEnabled {
		kafkaConfig := kafka.ParseConfig(cfg.KafkaBrokers, cfg.KafkaReviewTopic)
		kafkaConfig.PublishTimeout = cfg.KafkaPublishTimeout
		producer := kafka.NewProducer(kafkaConfig, logger)
		app.AddDependency(producer)
		checker.AddCheck("kafka", producer, false)
		emitter = events.NewEmitter(producer, logger)
	}

	norm := normalizer.NewNormalizer(logger)
	metricsService := aggregator.NewService(storage, aggregator.NewAggregator(categories), dashboardCache, logger)

	moderationOpts = append(moderationOpts, moderation.WithEmitter(emitter), moderation.WithCacheInvalidator(metricsService))
	moderationService := moderation.NewService(storage, logger, moderationOpts...)

	extractor, err := upstream.NewExtractor(cfg.UpstreamResultPath)
	if err != nil {
		return err
	}

	var source upstream.Source
	if cfg.HostawayBaseURL != "" && cfg.HostawayAPIKey != "" {
		source = upstream.NewHostawayClient(upstream.Config{
			BaseURL:    cfg.HostawayBaseURL,
			AccountID:  cfg.HostawayAccountID,
			APIKey:     cfg.HostawayAPIKey,
			ResultPath: cfg.UpstreamResultPath,
			Timeout:    cfg.UpstreamTimeout,
		}, httpclient.NewClient(httpclient.DefaultConfig(), logger), extractor, logger)
	} else {
		logger.Warn("HOSTAWAY_API_KEY is not set, review sync will serve fallback reviews")
	}

	ingestionService := ingestion.NewService(ingestion.Config{Timeout: cfg.UpstreamTimeout},
		storage, norm, source, extractor, emitter, metricsService, logger)

	if cfg.SeedOnStartup {
		app.AddDependency(seed.NewSeeder(storage, norm, logger))
	}
	if cfg.SyncOnStartup {
		app.AddDependency(ingestion.NewStartupSync(ingestionService))
	}

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			logger.WithError(err).Error("failed to stop dependencies")
		}
	}()

	e := newEcho(cfg, logger)
	checker.RegisterRoutes(e)
	api := &handlers.Handlers{
		Reviews:    handlers.NewReviewHandler(storage, metricsService, moderationService, logger),
		Ingestion:  handlers.NewIngestionHandler(ingestionService, logger),
		Properties: handlers.NewPropertyHandler(storage, metricsService, logger),
		Dashboard:  handlers.NewDashboardHandler(metricsService, logger),
	}
	api.RegisterRoutes(e)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s with %s storage", server.Addr, storage.Backend())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	checker.SetReady(true)

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return err
	}

	checker.SetReady(false)
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newEcho(cfg *config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID, middleware.HeaderActor},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

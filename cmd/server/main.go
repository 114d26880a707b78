package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/harshini-mantri/accident-prediction/internal/config"
	"github.com/harshini-mantri/accident-prediction/internal/dataset"
	"github.com/harshini-mantri/accident-prediction/internal/delivery/http"
	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/events"
	applog "github.com/harshini-mantri/accident-prediction/internal/logger"
	"github.com/harshini-mantri/accident-prediction/internal/metrics"
	"github.com/harshini-mantri/accident-prediction/internal/repository/postgres"
	"github.com/harshini-mantri/accident-prediction/internal/service"
)

func main() {
	cfg, envFound := config.Load()

	zlog, err := applog.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Invalid log configuration: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if !envFound {
		zlog.Info("no .env file found, using system environment")
	}

	m := metrics.New()

	// Database connection
	pool := connectDatabase(cfg, zlog)
	if pool != nil {
		defer pool.Close()
	}

	// Dependency Injection: Repositories
	var dataRepo service.DataRepository
	if pool != nil {
		dataRepo = postgres.NewPostgresRepository(pool)
	} else {
		dataRepo = postgres.NewMockRepository()
	}

	var source domain.DatasetSource
	if cfg.DatasetSource == config.SourcePostgres && pool != nil {
		source = postgres.NewIncidentSource(pool, cfg.DatasetTable)
	} else {
		if cfg.DatasetSource == config.SourcePostgres {
			zlog.Warn("postgres dataset source requested without a database, reading CSV instead")
		}
		source = dataset.NewCSVSource(cfg.DatasetPath)
	}
	zlog.Info("dataset source configured", zap.String("source", source.Describe()))

	// Dependency Injection: Services
	cache := service.NewDatasetCache(source, cfg.DatasetCacheTTL, zlog, m)
	adapter := service.NewClassifierAdapter()
	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	predictor := choosePredictor(cfg, adapter, zlog)
	_, remote := predictor.(*service.MLBridge)

	trainingSvc := service.NewTrainingService(service.TrainingDeps{
		Source:        source,
		Adapter:       adapter,
		Cache:         cache,
		ModelPath:     cfg.ModelPath,
		RemoteServing: remote,
		Publisher:     publisher,
		Log:           zlog,
		Metrics:       m,
	})

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	trainingSvc.Bootstrap(bootCtx)
	bootCancel()

	weatherSvc := service.NewWeatherService(service.WeatherConfig{
		APIKey:   cfg.OpenWeatherAPIKey,
		BaseURL:  cfg.WeatherBaseURL,
		Timeout:  cfg.WeatherTimeout,
		CacheTTL: cfg.WeatherCacheTTL,
	}, nil, zlog, m)

	var roads service.HighwayChecker = service.NoHighways{}
	if cfg.OverpassURL != "" {
		roads = service.NewRoadService(cfg.OverpassURL, cfg.RoadLookupTimeout, zlog)
	}

	predictionSvc := service.NewPredictionService(service.PredictionDeps{
		Sampler:   service.NewGridSampler(cfg.GridPoints, nil),
		Predictor: predictor,
		Enricher:  service.NewHistoricalEnricher(cache, zlog, m),
		Weather:   weatherSvc,
		Roads:     roads,
		Repo:      dataRepo,
		Publisher: publisher,
		Log:       zlog,
		Metrics:   m,
	})

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Accident Prediction API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: http.ErrorHandler(zlog),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Routes
	handler := http.NewHandler(predictionSvc, trainingSvc, dataRepo, zlog)
	http.SetupRoutes(app, handler, m)

	// Graceful shutdown
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zlog.Warn("server forced to shutdown", zap.Error(err))
	}
	predictionSvc.WaitBackground()
	if err := publisher.Close(); err != nil {
		zlog.Warn("event publisher close failed", zap.Error(err))
	}
	zlog.Info("server exited gracefully")
}

// connectDatabase returns nil when no database is configured or reachable
func connectDatabase(cfg *config.Config, zlog *zap.Logger) *pgxpool.Pool {
	if cfg.DatabaseURL == "" {
		zlog.Info("DATABASE_URL not set, prediction logs kept in memory")
		return nil
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			zlog.Warn("could not run migrations", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Warn("could not connect to database, prediction logs kept in memory", zap.Error(err))
		return nil
	}
	zlog.Info("connected to PostgreSQL")
	return pool
}

// choosePredictor prefers a reachable remote classifier, else the local one
func choosePredictor(cfg *config.Config, adapter *service.ClassifierAdapter, zlog *zap.Logger) service.Predictor {
	if cfg.MLServiceURL == "" {
		return adapter
	}

	bridge := service.NewMLBridge(cfg.MLServiceURL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bridge.Health(ctx); err != nil {
		zlog.Warn("ML service unreachable, using local classifier",
			zap.String("url", cfg.MLServiceURL), zap.Error(err))
		return adapter
	}

	zlog.Info("using remote ML service", zap.String("url", cfg.MLServiceURL))
	return bridge
}

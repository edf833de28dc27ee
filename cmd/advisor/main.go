package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/fellahtech/agri-advisor/internal/adapter/http"
	kafkaadapter "github.com/fellahtech/agri-advisor/internal/adapter/kafka"
	"github.com/fellahtech/agri-advisor/internal/config"
	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/fellahtech/agri-advisor/internal/feedback"
	"github.com/fellahtech/agri-advisor/internal/model"
	"github.com/fellahtech/agri-advisor/internal/observability"
	"github.com/fellahtech/agri-advisor/internal/scoring"
	"github.com/fellahtech/agri-advisor/internal/weather"
	"github.com/fellahtech/agri-advisor/internal/weather/openmeteo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Model bundle (feature-flagged via MODEL_PATH). Without it the engine
	// falls back to caller-supplied market observations.
	var store *model.Store
	if cfg.ModelPath != "" {
		store = model.NewStore(cfg.ModelPath, logger, metrics)
		if err := store.LoadInitial(); err != nil {
			logger.Error("failed to load model bundle", "path", cfg.ModelPath, "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("no model bundle configured, market fallback only")
	}

	// Crop catalog: explicit YAML file or the built-in defaults.
	catalog := domain.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = domain.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			logger.Error("failed to load crop catalog", "path", cfg.CatalogPath, "error", err)
			os.Exit(1)
		}
	}

	// Climatology from the training dataset (feature-flagged via DATASET_PATH).
	var climatology *weather.Climatology
	if cfg.DatasetPath != "" {
		climatology, err = weather.LoadClimatology(cfg.DatasetPath)
		if err != nil {
			logger.Error("failed to load climatology dataset", "path", cfg.DatasetPath, "error", err)
			os.Exit(1)
		}
		logger.Info("climatology loaded", "path", cfg.DatasetPath, "keys", climatology.Len())
	}

	// Live weather source (feature-flagged via WEATHER_ENABLED).
	var source weather.HistorySource
	if cfg.WeatherEnabled {
		client := openmeteo.NewClient(cfg.WeatherTimeout, logger)
		source = openmeteo.NewCachedSource(client, cfg.GeocodeCacheSize, metrics)
		logger.Info("open-meteo weather enabled", "cache_size", cfg.GeocodeCacheSize, "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("open-meteo weather disabled")
	}
	resolver := weather.NewResolver(source, climatology, nil, logger, metrics)

	engine := scoring.NewEngine(store, catalog, nil, logger, metrics)
	feedbackStore := feedback.NewStore(cfg.FeedbackPath, nil, logger, metrics)

	// Recommendation event sink (feature-flagged via KAFKA_ENABLED).
	var sink httpadapter.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		sink = writer
		logger.Info("recommendation sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("recommendation sink disabled")
	}

	var ready httpadapter.ReadinessChecker
	if store != nil {
		ready = store
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:    ready,
		Engine:   engine,
		Resolver: resolver,
		Store:    store,
		Feedback: feedbackStore,
		Sink:     sink,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

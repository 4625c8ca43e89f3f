package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/emergency-severity/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/emergency-severity/internal/adapter/kafka"
	"github.com/couchcryptid/emergency-severity/internal/adapter/mapbox"
	"github.com/couchcryptid/emergency-severity/internal/adapter/tts"
	"github.com/couchcryptid/emergency-severity/internal/alert"
	"github.com/couchcryptid/emergency-severity/internal/config"
	"github.com/couchcryptid/emergency-severity/internal/dataset"
	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/observability"
	"github.com/couchcryptid/emergency-severity/internal/pipeline"
	"github.com/couchcryptid/emergency-severity/internal/severity"
	"github.com/couchcryptid/emergency-severity/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Fail fast on a broken embedded profile document.
	domain.MustProfiles()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Prediction audit log (feature-flagged via STORE_DRIVER).
	store, err := storage.NewStore(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	var recorder severity.Recorder
	if store != nil {
		if err := store.Init(ctx); err != nil {
			logger.Error("failed to init store", "driver", cfg.StoreDriver, "error", err)
			os.Exit(1)
		}
		defer store.Close()
		recorder = store
		logger.Info("prediction audit log enabled", "driver", cfg.StoreDriver)
	}

	svc := severity.NewService(severity.ServiceConfig{
		Source: dataset.NewStore(cfg.DatasetPath, logger),
		Trainer: severity.NewTrainer(severity.Options{
			Seed:         cfg.Seed,
			Trees:        cfg.ForestTrees,
			TestFraction: cfg.TestFraction,
			Strict:       cfg.StrictCategories,
		}, logger),
		DatasetSize: cfg.DatasetSize,
		Seed:        cfg.Seed,
		Recorder:    recorder,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err := svc.Bootstrap(ctx); err != nil {
		logger.Error("failed to train severity model", "error", err)
		os.Exit(1)
	}

	// Voice alerts (feature-flagged via TTS_ENABLED).
	var voice domain.VoiceSynthesizer
	if cfg.TTSEnabled {
		client := tts.NewClient(cfg.TTSBaseURL, cfg.TTSTimeout, logger)
		voice = tts.NewCachedSynthesizer(client, cfg.TTSCacheSize, metrics)
		logger.Info("voice alerts enabled", "cache_size", cfg.TTSCacheSize, "timeout", cfg.TTSTimeout)
	} else {
		logger.Info("voice alerts disabled")
	}

	// Static maps (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var maps domain.MapRenderer
	if cfg.MapboxEnabled {
		maps = mapbox.NewRenderer(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		logger.Info("mapbox static maps enabled", "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox static maps disabled")
	}

	// SMS-style notifications ride on Kafka; without it only voice is attempted.
	var (
		notifier     domain.Notifier
		kafkaClosers []interface{ Close() error }
	)
	if cfg.KafkaEnabled {
		n := kafkaadapter.NewNotifier(cfg, logger)
		notifier = n
		kafkaClosers = append(kafkaClosers, n)
	}
	escalator := alert.NewEscalator(notifier, voice, cfg.AlertRecipients, metrics, logger)

	deps := httpadapter.Deps{
		Service:   svc,
		Escalator: escalator,
		Maps:      maps,
	}

	var p *pipeline.Pipeline
	if cfg.KafkaEnabled {
		reader := kafkaadapter.NewReader(cfg, logger)
		writer := kafkaadapter.NewWriter(cfg, logger)
		kafkaClosers = append(kafkaClosers, reader, writer)

		scorer := pipeline.NewScorer(svc, escalator, logger)
		p = pipeline.New(reader, scorer, writer, logger, metrics, cfg.BatchSize)
		deps.Pipeline = p
	} else {
		logger.Info("kafka scoring pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, deps, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scoring pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range kafkaClosers {
		if err := c.Close(); err != nil {
			logger.Error("kafka client close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/plume-trajectory-service/internal/adapter/httpapi"
	kafkaadapter "github.com/couchcryptid/plume-trajectory-service/internal/adapter/kafka"
	"github.com/couchcryptid/plume-trajectory-service/internal/adapter/modelstore"
	"github.com/couchcryptid/plume-trajectory-service/internal/config"
	"github.com/couchcryptid/plume-trajectory-service/internal/observability"
	"github.com/couchcryptid/plume-trajectory-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Model source: remote HTTP server when MODEL_BASE_URL is set, local
	// directory otherwise, with an LRU cache in front of either.
	var source pipeline.ModelSource
	if cfg.ModelBaseURL != "" {
		source = modelstore.NewClient(cfg.ModelBaseURL, cfg.ModelTimeout, logger, metrics)
		logger.Info("using http model source", "base_url", cfg.ModelBaseURL, "timeout", cfg.ModelTimeout)
	} else {
		source = modelstore.NewLocalStore(cfg.DataDir, logger, metrics)
		logger.Info("using local model source", "data_dir", cfg.DataDir)
	}
	source = modelstore.NewCachedSource(source, cfg.SourceCacheSize, metrics)

	// Kafka sink (feature-flagged via KAFKA_ENABLED).
	var publisher pipeline.PayloadPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	svc := pipeline.NewService(source, publisher, cfg.Params, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, svc, svc, logger)

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

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/agroclima/crop-risk-etl/internal/adapter/http"
	kafkaadapter "github.com/agroclima/crop-risk-etl/internal/adapter/kafka"
	"github.com/agroclima/crop-risk-etl/internal/adapter/registry"
	"github.com/agroclima/crop-risk-etl/internal/config"
	"github.com/agroclima/crop-risk-etl/internal/domain"
	"github.com/agroclima/crop-risk-etl/internal/observability"
	"github.com/agroclima/crop-risk-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	assessor, err := domain.NewAssessor(cfg.RuleTable)
	if err != nil {
		logger.Error("failed to build risk assessor", "error", err, "rule_table", cfg.RuleTable)
		os.Exit(1)
	}
	logger.Info("risk assessor ready", "rule_table", assessor.Table(), "rules", assessor.RuleCount())

	// Initialize station directory (feature-flagged via REGISTRY_URL / REGISTRY_ENABLED).
	var directory domain.StationDirectory
	if cfg.RegistryEnabled {
		client := registry.NewClient(cfg.RegistryURL, cfg.RegistryTimeout, logger, metrics)
		directory = registry.NewCachedDirectory(client, cfg.RegistryCacheSize, metrics)
		metrics.RegistryEnabled.Set(1)
		logger.Info("station registry enrichment enabled", "cache_size", cfg.RegistryCacheSize, "timeout", cfg.RegistryTimeout)
	} else {
		logger.Info("station registry enrichment disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(assessor, directory, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, assessor, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpadapter "github.com/kirillkom/document-insight-engine/internal/adapters/http"
	"github.com/kirillkom/document-insight-engine/internal/bootstrap"
	"github.com/kirillkom/document-insight-engine/internal/core/usecase"
	"github.com/kirillkom/document-insight-engine/internal/observability/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.New(ctx, "insight-api")
	if err != nil {
		os.Stderr.WriteString("bootstrap: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer container.Close()
	logger := container.Logger

	go container.WarmUpEmbedder(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	ingestor := usecase.NewIngestDocumentUseCase(container.Documents, container.Storage, container.Queue, logger)
	generator := usecase.NewInsightUseCase(
		container.Documents,
		container.Sections,
		container.Storage,
		container.Segmenter,
		container.Embedder,
		container.RankingParams(),
		logger,
	)

	handler := httpadapter.NewHandler(ingestor, container.Documents, generator, logger, httpadapter.Options{
		RateLimitRPS:   container.Config.APIRateLimitRPS,
		RateLimitBurst: container.Config.APIRateLimitBurst,
		Metrics:        httpMetrics,
	})

	mux := http.NewServeMux()
	mux.Handle("/", handler.Routes())
	mux.Handle("/metrics", metrics.Handler(registry))

	server := &http.Server{
		Addr:              ":" + container.Config.APIPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "port", container.Config.APIPort)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

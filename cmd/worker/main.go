package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kirillkom/document-insight-engine/internal/bootstrap"
	"github.com/kirillkom/document-insight-engine/internal/core/usecase"
	"github.com/kirillkom/document-insight-engine/internal/observability/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.New(ctx, "insight-worker")
	if err != nil {
		os.Stderr.WriteString("bootstrap: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer container.Close()
	logger := container.Logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	workerMetrics := metrics.NewWorkerMetrics(registry)

	metricsServer := &http.Server{
		Addr:              ":" + container.Config.WorkerMetricsPort,
		Handler:           metricsMux(registry, container),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("worker metrics listening", "port", container.Config.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	// Block message consumption until the model answers; the queue buffers
	// uploads in the meantime.
	container.WarmUpEmbedder(ctx)
	if ctx.Err() != nil {
		return
	}

	processor := usecase.NewProcessDocumentUseCase(
		container.Documents,
		container.Sections,
		container.Storage,
		container.Segmenter,
		container.Embedder,
		logger,
	).WithObserver(workerMetrics)

	logger.Info("worker consuming", "subject", container.Config.NATSSubject)
	if err := container.Queue.SubscribeDocumentUploaded(ctx, processor.ProcessByID); err != nil {
		logger.Error("subscription ended", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logger.Info("worker stopped")
}

func metricsMux(registry *prometheus.Registry, container *bootstrap.Container) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"model_ready": container.Embedder.Ready(),
		})
	})
	return mux
}

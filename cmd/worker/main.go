package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/doc-governance/internal/bootstrap"
	"github.com/kirillkom/doc-governance/internal/config"
	"github.com/kirillkom/doc-governance/internal/observability/metrics"
)

const serviceName = "governance-worker"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(app.Registry, serviceName)
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(app.Registry))
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	handler := newAuditHandler(app.AuditUC, workerMetrics, cfg.WorkerAuditTimeout, app.Logger)
	app.Logger.Info("worker_subscribed", "subject", cfg.NATSAuditSubject, "queue_group", cfg.NATSQueueGroup)
	if err := app.Queue.SubscribeAuditRequested(ctx, handler); err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

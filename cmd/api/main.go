package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/doc-governance/internal/adapters/http"
	"github.com/kirillkom/doc-governance/internal/bootstrap"
	"github.com/kirillkom/doc-governance/internal/config"
	"github.com/kirillkom/doc-governance/internal/observability/metrics"
)

const serviceName = "governance-api"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, httpadapter.RouterDeps{
		Intake:         app.IntakeUC,
		Documents:      app.AuditUC,
		Audit:          app.AuditUC,
		Workflow:       app.WorkflowUC,
		Annotations:    app.AnnotationUC,
		Exporter:       app.ExportUC,
		Metrics:        metrics.NewHTTPServerMetrics(app.Registry, serviceName),
		MetricsHandler: metrics.Handler(app.Registry),
		Logger:         app.Logger,
	}).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		app.Logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("api_shutdown_failed", "error", err)
	}
}

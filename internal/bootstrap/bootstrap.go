package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/doc-governance/internal/config"
	"github.com/kirillkom/doc-governance/internal/core/governance"
	"github.com/kirillkom/doc-governance/internal/core/ports"
	"github.com/kirillkom/doc-governance/internal/core/usecase"
	"github.com/kirillkom/doc-governance/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/doc-governance/internal/infrastructure/queue/nats"
	"github.com/kirillkom/doc-governance/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/doc-governance/internal/infrastructure/resilience"
	"github.com/kirillkom/doc-governance/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/doc-governance/internal/observability/logging"
	"github.com/kirillkom/doc-governance/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Registry   *prometheus.Registry
	Governance *metrics.GovernanceMetrics

	Queue ports.AuditRequestQueue
	Repo  ports.DocumentRepository

	IntakeUC     *usecase.IntakeUseCase
	AuditUC      *usecase.AuditUseCase
	WorkflowUC   *usecase.WorkflowUseCase
	AnnotationUC *usecase.AnnotationUseCase
	ExportUC     *usecase.ExportUseCase

	closeFn func()
}

// New wires every adapter for one process. service names the process in
// logs and metrics.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	registry := metrics.NewRegistry()
	governanceMetrics := metrics.NewGovernanceMetrics(registry, service)

	engine, err := newEngine(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	annotations := postgres.NewAnnotationRepository(db)
	corrections := postgres.NewCorrectionRepository(db)
	signatures := postgres.NewSignatureRepository(db)
	decisions := postgres.NewDecisionLog(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init export storage: %w", err)
	}

	executor := resilience.NewExecutor(publishPolicy(cfg),
		resilience.WithLogger(logger),
		resilience.WithStateListener(func(operation string, to gobreaker.State) {
			governanceMetrics.ObserveBreaker(operation, to == gobreaker.StateClosed)
		}),
	)
	events, err := nats.Connect(cfg.NATSURL, nats.Subjects{
		AuditRequested: cfg.NATSAuditSubject,
		Decisions:      cfg.NATSDecisionSubject,
		Escalations:    cfg.NATSEscalationSubject,
	}, nats.Options{
		QueueGroup: cfg.NATSQueueGroup,
		Executor:   executor,
		Logger:     logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init event bus: %w", err)
	}

	locks := usecase.NewDocumentLocks()
	auditUC := usecase.NewAuditUseCase(repo, annotations, engine, locks, governanceMetrics, logger)
	workflowUC := usecase.NewWorkflowUseCase(usecase.WorkflowDeps{
		Repo:        repo,
		Store:       postgres.NewWorkflowStore(db),
		Corrections: corrections,
		Decisions:   decisions,
		Publisher:   events,
		AuditQueue:  events,
		Engine:      engine,
		Locks:       locks,
		Observer:    governanceMetrics,
		Logger:      logger,
	})

	return &App{
		Config:     cfg,
		Logger:     logger,
		Registry:   registry,
		Governance: governanceMetrics,

		Queue: events,
		Repo:  repo,

		IntakeUC:     usecase.NewIntakeUseCase(repo, events, engine, logger),
		AuditUC:      auditUC,
		WorkflowUC:   workflowUC,
		AnnotationUC: usecase.NewAnnotationUseCase(repo, annotations, engine, logger),
		ExportUC:     usecase.NewExportUseCase(repo, annotations, signatures, corrections, xlsx.NewRenderer(), storage, engine, logger),

		closeFn: func() {
			events.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newEngine(rulesFile string) (*governance.Engine, error) {
	rules, err := config.LoadRules(rulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	extra, err := governance.CompileCELRules(rules.CustomEscalations)
	if err != nil {
		return nil, fmt.Errorf("compile escalation rules: %w", err)
	}
	return governance.NewEngine(rules, governance.SystemClock, extra...), nil
}

func publishPolicy(cfg config.Config) resilience.Policy {
	policy := resilience.DefaultPolicy()
	policy.Retry.MaxAttempts = cfg.PublishRetryMaxAttempts
	policy.Retry.InitialBackoff = cfg.PublishRetryInitialBackoff
	policy.Retry.MaxBackoff = cfg.PublishRetryMaxBackoff
	policy.Breaker.Enabled = cfg.PublishBreakerEnabled
	policy.Breaker.OpenTimeout = cfg.PublishBreakerOpenTimeout
	return policy
}

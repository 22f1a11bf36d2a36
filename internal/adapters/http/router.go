package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/kirillkom/doc-governance/internal/config"
	"github.com/kirillkom/doc-governance/internal/core/domain"
	"github.com/kirillkom/doc-governance/internal/core/ports"
	"github.com/kirillkom/doc-governance/internal/observability/logging"
	"github.com/kirillkom/doc-governance/internal/observability/metrics"
)

const serviceName = "governance-api"

const maxBodyBytes = 1 << 20

type RouterDeps struct {
	Intake      ports.DocumentIntake
	Documents   ports.DocumentReader
	Audit       ports.AuditService
	Workflow    ports.WorkflowService
	Annotations ports.AnnotationService
	Exporter    ports.AuditExporter

	// Metrics and MetricsHandler are optional.
	Metrics        *metrics.HTTPServerMetrics
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

type Router struct {
	deps RouterDeps

	apiKey       string
	limiter      *rate.Limiter
	backpressure func(http.Handler) http.Handler
	logger       *slog.Logger
}

func NewRouter(cfg config.Config, deps RouterDeps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if cfg.APIRateLimitRPS > 0 {
		burst := cfg.APIRateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.APIRateLimitRPS), burst)
	}
	return &Router{
		deps:    deps,
		apiKey:  cfg.APIKey,
		limiter: limiter,
		backpressure: func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, cfg.APIMaxInFlight, cfg.APIBackpressureTimeout)
		},
		logger: logger,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/documents", rt.registerDocument)
	api.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
	api.HandleFunc("POST /v1/documents/{id}/submit", rt.submitDocument)
	api.HandleFunc("POST /v1/documents/{id}/audit", rt.runAudit)
	api.HandleFunc("GET /v1/documents/{id}/audit/export", rt.exportAudit)
	api.HandleFunc("GET /v1/documents/{id}/escalation", rt.escalationReasons)
	api.HandleFunc("GET /v1/documents/{id}/recommendation", rt.recommendation)
	api.HandleFunc("POST /v1/documents/{id}/decisions", rt.decide)
	api.HandleFunc("POST /v1/documents/{id}/corrections/complete", rt.completeCorrection)
	api.HandleFunc("POST /v1/documents/{id}/anomalies/{anomaly_id}/resolve", rt.resolveAnomaly)
	api.HandleFunc("GET /v1/documents/{id}/annotations", rt.listAnnotations)
	api.HandleFunc("POST /v1/documents/{id}/annotations", rt.createAnnotation)
	api.HandleFunc("PATCH /v1/annotations/{id}", rt.editAnnotation)
	api.HandleFunc("DELETE /v1/annotations/{id}", rt.removeAnnotation)

	var onLimited func()
	if rt.deps.Metrics != nil {
		onLimited = func() { rt.deps.Metrics.RecordRateLimited(serviceName) }
	}
	guarded := bearerAuthMiddleware(rt.apiKey, api)
	guarded = rt.backpressure(guarded)
	guarded = rateLimitMiddleware(rt.limiter, onLimited, guarded)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.MetricsHandler != nil {
		root.Handle("GET /metrics", rt.deps.MetricsHandler)
	}
	root.Handle("/v1/", guarded)

	var handler http.Handler = root
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(rt.logger, handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		logging.FromContext(r.Context(), rt.logger).Error("request_failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody(status, err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", fmt.Errorf("invalid json: %w", err))
	}
	return nil
}

func pathValue(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.PathValue(name))
	if v == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "route", fmt.Errorf("%s is required", name))
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

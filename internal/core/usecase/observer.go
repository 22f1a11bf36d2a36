package usecase

import (
	"log/slog"

	"github.com/kirillkom/doc-governance/internal/core/domain"
	"github.com/kirillkom/doc-governance/internal/core/ports"
)

type noopObserver struct{}

func (noopObserver) ObserveAudit(*domain.AuditReport)        {}
func (noopObserver) ObserveDecision(domain.Decision, string) {}

func observerOrNoop(o ports.EngineObserver) ports.EngineObserver {
	if o == nil {
		return noopObserver{}
	}
	return o
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

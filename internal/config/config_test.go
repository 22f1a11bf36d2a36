package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NATS_DECISION_SUBJECT", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")
	t.Setenv("PUBLISH_RETRY_INITIAL_BACKOFF", "")

	cfg := Load()
	if cfg.NATSDecisionSubject != "governance.decisions" {
		t.Fatalf("expected default decision subject, got %q", cfg.NATSDecisionSubject)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected default rate 20, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.PublishRetryInitialBackoff != 100*time.Millisecond {
		t.Fatalf("expected default backoff 100ms, got %v", cfg.PublishRetryInitialBackoff)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("API_RATE_LIMIT_BURST", "7")
	t.Setenv("PUBLISH_BREAKER_ENABLED", "false")
	t.Setenv("WORKER_AUDIT_TIMEOUT", "5s")
	t.Setenv("PUBLISH_RETRY_MAX_BACKOFF", "not-a-duration")

	cfg := Load()
	if cfg.APIKey != "secret" || cfg.APIRateLimitBurst != 7 || cfg.PublishBreakerEnabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.WorkerAuditTimeout != 5*time.Second {
		t.Fatalf("expected 5s audit timeout, got %v", cfg.WorkerAuditTimeout)
	}
	if cfg.PublishRetryMaxBackoff != 400*time.Millisecond {
		t.Fatalf("invalid duration must fall back, got %v", cfg.PublishRetryMaxBackoff)
	}
}

func TestLoadRulesMissingFileUsesDefaults(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if rules.BureauThreshold != 10_000_000 || rules.BlockingScore != 40 {
		t.Fatalf("expected defaults, got %+v", rules)
	}
}

func TestLoadRulesOverridesAndEscalations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := `
thresholds:
  bureau: 25000000
  due_soon_days: 10
  min_supplier_rating: 3
required_attachments:
  invoice: [invoice_scan]
strategic_reasons: [strategic_decision]
escalations:
  - code: foreign_currency
    expr: doc.currency != "XOF"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if rules.BureauThreshold != 25_000_000 || rules.DueSoonDays != 10 || rules.MinSupplierRating != 3 {
		t.Fatalf("thresholds not applied: %+v", rules)
	}
	if rules.FinancialImpactThreshold != 5_000_000 {
		t.Fatalf("unset threshold must keep default, got %d", rules.FinancialImpactThreshold)
	}
	if got := rules.RequiredAttachments[domain.KindInvoice]; len(got) != 1 || got[0] != "invoice_scan" {
		t.Fatalf("unexpected invoice attachments %v", got)
	}
	if got := rules.RequiredAttachments[domain.KindPurchaseOrder]; len(got) != 1 || got[0] != "quote" {
		t.Fatalf("purchase order attachments must keep default, got %v", got)
	}
	if len(rules.CustomEscalations) != 1 || rules.CustomEscalations[0].Code != "foreign_currency" {
		t.Fatalf("unexpected escalations %+v", rules.CustomEscalations)
	}
}

func TestLoadRulesRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("required_attachments:\n  receipt: [scan]\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if _, err := LoadRules(path); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

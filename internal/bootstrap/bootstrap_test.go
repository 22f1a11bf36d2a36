package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/doc-governance/internal/config"
	"github.com/kirillkom/doc-governance/internal/core/domain"
)

func TestNewEngineCompilesCustomEscalations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	rules := []byte(`
thresholds:
  bureau: 5000
escalations:
  - code: foreign_supplier
    expr: doc.supplier_id.startsWith("EXT-")
`)
	if err := os.WriteFile(path, rules, 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	engine, err := newEngine(path)
	if err != nil {
		t.Fatalf("newEngine() error = %v", err)
	}
	if engine.Rules().BureauThreshold != 5000 {
		t.Fatalf("expected bureau threshold override, got %d", engine.Rules().BureauThreshold)
	}
	if len(engine.Rules().CustomEscalations) != 1 {
		t.Fatalf("expected one custom escalation, got %d", len(engine.Rules().CustomEscalations))
	}
}

func TestNewEngineRejectsInvalidExpression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("escalations:\n  - code: broken\n    expr: \"doc.amount >\"\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	_, err := newEngine(path)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPublishPolicyCarriesConfig(t *testing.T) {
	policy := publishPolicy(config.Config{
		PublishRetryMaxAttempts:    5,
		PublishRetryInitialBackoff: 50 * time.Millisecond,
		PublishRetryMaxBackoff:     time.Second,
		PublishBreakerEnabled:      false,
		PublishBreakerOpenTimeout:  10 * time.Second,
	})
	if policy.Retry.MaxAttempts != 5 || policy.Retry.MaxBackoff != time.Second {
		t.Fatalf("retry not applied: %+v", policy.Retry)
	}
	if policy.Breaker.Enabled || policy.Breaker.OpenTimeout != 10*time.Second {
		t.Fatalf("breaker not applied: %+v", policy.Breaker)
	}
	if policy.Retry.Multiplier != 2.0 {
		t.Fatalf("expected default multiplier kept, got %v", policy.Retry.Multiplier)
	}
}

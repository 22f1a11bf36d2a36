package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/doc-governance/internal/core/domain"
	"github.com/kirillkom/doc-governance/internal/core/governance"
)

// rulesFile mirrors the YAML rule file. Absent keys keep their defaults.
type rulesFile struct {
	Thresholds struct {
		Bureau          *int64   `yaml:"bureau"`
		FinancialImpact *int64   `yaml:"financial_impact"`
		ScheduleDays    *int     `yaml:"schedule_impact_days"`
		ImminentDays    *int     `yaml:"deadline_imminent_days"`
		DueSoonDays     *int     `yaml:"due_soon_days"`
		MinRating       *float64 `yaml:"min_supplier_rating"`
		BlockingScore   *int     `yaml:"blocking_score"`
	} `yaml:"thresholds"`
	RequiredAttachments map[string][]string `yaml:"required_attachments"`
	StrategicReasons    []string            `yaml:"strategic_reasons"`
	Escalations         []struct {
		Code       string `yaml:"code"`
		Expression string `yaml:"expr"`
	} `yaml:"escalations"`
}

// LoadRules reads the rule file at path on top of governance.DefaultRules.
// An empty path or a missing file yields the defaults.
func LoadRules(path string) (governance.Rules, error) {
	rules := governance.DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rules, nil
		}
		return rules, fmt.Errorf("read rules file: %w", err)
	}
	return parseRules(raw, rules)
}

func parseRules(raw []byte, rules governance.Rules) (governance.Rules, error) {
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return rules, domain.WrapError(domain.ErrInvalidInput, "parse rules file", err)
	}

	t := file.Thresholds
	if t.Bureau != nil {
		rules.BureauThreshold = *t.Bureau
	}
	if t.FinancialImpact != nil {
		rules.FinancialImpactThreshold = *t.FinancialImpact
	}
	if t.ScheduleDays != nil {
		rules.ScheduleImpactDays = *t.ScheduleDays
	}
	if t.ImminentDays != nil {
		rules.DeadlineImminentDays = *t.ImminentDays
	}
	if t.DueSoonDays != nil {
		rules.DueSoonDays = *t.DueSoonDays
	}
	if t.MinRating != nil {
		rules.MinSupplierRating = *t.MinRating
	}
	if t.BlockingScore != nil {
		rules.BlockingScore = *t.BlockingScore
	}

	for kind, attachments := range file.RequiredAttachments {
		k := domain.DocumentKind(kind)
		if !k.Valid() {
			return rules, domain.WrapError(domain.ErrInvalidInput, "parse rules file", fmt.Errorf("unknown document kind %q", kind))
		}
		rules.RequiredAttachments[k] = attachments
	}
	if file.StrategicReasons != nil {
		rules.StrategicReasons = file.StrategicReasons
	}
	for _, e := range file.Escalations {
		rules.CustomEscalations = append(rules.CustomEscalations, governance.CELRule{
			Code:       e.Code,
			Expression: e.Expression,
		})
	}
	return rules, nil
}

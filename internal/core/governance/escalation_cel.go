package governance

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

// CompileCELRules turns configured CEL expressions into escalation rules.
// Expressions see a single variable `doc` (see documentView) and must yield
// a boolean. Evaluation errors make the rule not match.
func CompileCELRules(defs []CELRule) ([]EscalationRule, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	out := make([]EscalationRule, 0, len(defs))
	for _, def := range defs {
		code := strings.TrimSpace(def.Code)
		if code == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "compile escalation rule", fmt.Errorf("rule code is required"))
		}
		ast, issues := env.Compile(def.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "compile escalation rule "+code, issues.Err())
		}
		if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) && !reflect.DeepEqual(ast.OutputType(), cel.DynType) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "compile escalation rule "+code,
				fmt.Errorf("expression must be boolean, got %v", ast.OutputType()))
		}
		prg, err := env.Program(ast,
			cel.InterruptCheckFrequency(100),
			cel.CostLimit(10000),
		)
		if err != nil {
			return nil, fmt.Errorf("program escalation rule %s: %w", code, err)
		}
		out = append(out, EscalationRule{
			Code: code,
			Matches: func(doc *domain.Document, now time.Time) bool {
				val, _, err := prg.Eval(map[string]any{"doc": documentView(doc, now)})
				if err != nil {
					return false
				}
				matched, ok := val.Value().(bool)
				return ok && matched
			},
		})
	}
	return out, nil
}

// documentView flattens a document into the CEL-visible map. Absent optional
// blocks leave their keys out so expressions can guard with has().
func documentView(doc *domain.Document, now time.Time) map[string]any {
	view := map[string]any{
		"id":          doc.ID,
		"kind":        string(doc.Kind),
		"reference":   doc.Reference,
		"bureau":      doc.Bureau,
		"amount_ht":   doc.Amounts.HT,
		"amount_vat":  doc.Amounts.VAT,
		"amount_ttc":  doc.Amounts.TTC,
		"currency":    doc.Amounts.Currency,
		"attachments": append([]string{}, doc.Attachments...),
	}
	if doc.Supplier != nil {
		view["supplier_id"] = doc.Supplier.ID
		view["supplier_order_history"] = int64(doc.Supplier.OrderHistory)
		view["supplier_rating"] = doc.Supplier.Rating
		view["supplier_blacklisted"] = doc.Supplier.Blacklisted
	}
	if doc.Project != nil {
		view["project_id"] = doc.Project.ID
		view["project_remaining_budget"] = doc.Project.RemainingBudget()
		view["project_strategic"] = doc.Project.Strategic
	}
	if doc.DeadlineAt != nil {
		view["days_until_deadline"] = int64(daysUntil(now, *doc.DeadlineAt))
	}
	if doc.Amendment != nil {
		view["financial_impact"] = doc.Amendment.FinancialImpact
		view["delay_days"] = int64(doc.Amendment.DelayDays)
	}
	return view
}

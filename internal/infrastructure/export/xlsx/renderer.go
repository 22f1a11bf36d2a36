package xlsx

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

const (
	sheetSummary     = "Summary"
	sheetChecks      = "Checks"
	sheetAnomalies   = "Anomalies"
	sheetAnnotations = "Annotations"
	sheetSignatures  = "Signatures"
	sheetCorrections = "Corrections"
)

// Renderer writes an audit trail as an XLSX workbook, one sheet per record
// kind.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

func (r *Renderer) Render(trail domain.AuditTrail) ([]byte, error) {
	if trail.Document == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "render audit", fmt.Errorf("document is required"))
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDE4EE"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	w := &workbook{f: f, header: header}
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("rename first sheet: %w", err)
	}
	w.summary(trail.Document)
	w.checks(trail.Document.AuditReport)
	w.anomalies(trail.Document.AuditReport)
	w.annotations(trail.Annotations)
	w.signatures(trail.Signatures)
	w.corrections(trail.Corrections)
	if w.err != nil {
		return nil, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// workbook remembers the first error so the sheet writers stay linear.
type workbook struct {
	f      *excelize.File
	header int
	err    error
}

func (w *workbook) table(sheet string, columns []string, rows [][]any) {
	if w.err != nil {
		return
	}
	if sheet != sheetSummary {
		if _, err := w.f.NewSheet(sheet); err != nil {
			w.err = fmt.Errorf("create sheet %s: %w", sheet, err)
			return
		}
	}
	head := make([]any, len(columns))
	for i, c := range columns {
		head[i] = c
	}
	if err := w.f.SetSheetRow(sheet, "A1", &head); err != nil {
		w.err = fmt.Errorf("write %s header: %w", sheet, err)
		return
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		w.err = fmt.Errorf("style %s header: %w", sheet, err)
		return
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetSheetRow(sheet, cell, &row); err != nil {
			w.err = fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
			return
		}
	}
	if err := w.f.SetColWidth(sheet, "A", columnName(len(columns)), 22); err != nil {
		w.err = fmt.Errorf("size %s columns: %w", sheet, err)
	}
}

func (w *workbook) summary(doc *domain.Document) {
	rows := [][]any{
		{"Document", doc.ID},
		{"Reference", doc.Reference},
		{"Kind", string(doc.Kind)},
		{"Status", string(doc.Status)},
		{"Amount (TTC)", doc.Amounts.TTC},
		{"Currency", doc.Amounts.Currency},
		{"Bureau", doc.Bureau},
	}
	if doc.Supplier != nil {
		rows = append(rows, []any{"Supplier", doc.Supplier.Name})
	}
	if doc.Project != nil {
		rows = append(rows, []any{"Project", doc.Project.ID})
	}
	if r := doc.AuditReport; r != nil {
		rows = append(rows,
			[]any{"Score", r.Score},
			[]any{"Risk level", string(r.RiskLevel)},
			[]any{"Blocking", yesNo(r.Blocking)},
			[]any{"Blocking reasons", strings.Join(r.BlockingReasons, "; ")},
			[]any{"Generated at", stamp(r.GeneratedAt)},
		)
	} else {
		rows = append(rows, []any{"Audit", "not run"})
	}
	w.table(sheetSummary, []string{"Field", "Value"}, rows)
}

func (w *workbook) checks(report *domain.AuditReport) {
	var rows [][]any
	if report != nil {
		for _, c := range report.Checks {
			rows = append(rows, []any{c.ID, c.Label, yesNo(c.Passed)})
		}
	}
	w.table(sheetChecks, []string{"Check", "Label", "Passed"}, rows)
}

func (w *workbook) anomalies(report *domain.AuditReport) {
	var rows [][]any
	if report != nil {
		for _, a := range report.Anomalies {
			resolvedAt := ""
			if a.ResolvedAt != nil {
				resolvedAt = stamp(*a.ResolvedAt)
			}
			rows = append(rows, []any{
				a.ID, string(a.Severity), string(a.Type), a.Field, a.Message,
				stamp(a.DetectedAt), yesNo(a.Resolved), resolvedAt, a.ResolvedBy,
			})
		}
	}
	w.table(sheetAnomalies, []string{
		"Anomaly", "Severity", "Type", "Field", "Message", "Detected at", "Resolved", "Resolved at", "Resolved by",
	}, rows)
}

func (w *workbook) annotations(notes []domain.Annotation) {
	rows := make([][]any, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, []any{stamp(n.CreatedAt), string(n.Type), n.Author, n.Field, n.LinkedAnomalyID, n.Comment})
	}
	w.table(sheetAnnotations, []string{"Created at", "Type", "Author", "Field", "Anomaly", "Comment"}, rows)
}

func (w *workbook) signatures(sigs []domain.Signature) {
	rows := make([][]any, 0, len(sigs))
	for _, s := range sigs {
		rows = append(rows, []any{stamp(s.SignedAt), s.Signatory, s.FunctionTitle, s.Hash})
	}
	w.table(sheetSignatures, []string{"Signed at", "Signatory", "Function", "Hash"}, rows)
}

func (w *workbook) corrections(reqs []domain.CorrectionRequest) {
	rows := make([][]any, 0, len(reqs))
	for _, c := range reqs {
		deadline := ""
		if c.Deadline != nil {
			deadline = stamp(*c.Deadline)
		}
		rows = append(rows, []any{
			stamp(c.CreatedAt), c.RequestedBy, string(c.Status), c.Message,
			strings.Join(c.AnomalyIDs, ", "), strings.Join(c.ExpectedDocs, ", "), deadline,
		})
	}
	w.table(sheetCorrections, []string{
		"Requested at", "Requested by", "Status", "Message", "Anomalies", "Expected documents", "Deadline",
	}, rows)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func columnName(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return "A"
	}
	return name
}

package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

type registerDocumentRequest struct {
	domain.Document
	// Status shadows the embedded field so intake vocabulary reaches ParseStatus.
	Status string `json:"status"`
}

func (rt *Router) registerDocument(w http.ResponseWriter, r *http.Request) {
	var req registerDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	doc, err := rt.deps.Intake.Register(r.Context(), &req.Document, req.Status)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	doc, err := rt.deps.Documents.GetByID(r.Context(), id)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) submitDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	doc, err := rt.deps.Workflow.Submit(r.Context(), id, actorFromRequest(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) runAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	doc, err := rt.deps.Audit.RunAudit(r.Context(), id)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) escalationReasons(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	reasons, err := rt.deps.Audit.EscalationReasons(r.Context(), id)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":       id,
		"escalation_needed": len(reasons) > 0,
		"reasons":           reasons,
	})
}

func (rt *Router) recommendation(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rec, err := rt.deps.Audit.Recommend(r.Context(), id)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (rt *Router) decide(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	var payload domain.DecisionPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		rt.fail(w, r, err)
		return
	}
	if payload.IdempotencyKey == "" {
		payload.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}
	doc, err := rt.deps.Workflow.Decide(r.Context(), id, payload, actorFromRequest(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) completeCorrection(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	doc, err := rt.deps.Workflow.CompleteCorrection(r.Context(), id, actorFromRequest(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) resolveAnomaly(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	anomalyID, err := pathValue(r, "anomaly_id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			rt.fail(w, r, err)
			return
		}
	}
	doc, err := rt.deps.Audit.ResolveAnomaly(r.Context(), id, anomalyID, req.Comment, actorFromRequest(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) exportAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	name, content, err := rt.deps.Exporter.ExportAudit(r.Context(), id)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

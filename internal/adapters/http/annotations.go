package httpadapter

import (
	"net/http"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

func (rt *Router) listAnnotations(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	items, err := rt.deps.Annotations.List(r.Context(), id)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Annotation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"annotations": items})
}

func (rt *Router) createAnnotation(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	var input domain.AnnotationInput
	if err := decodeJSON(w, r, &input); err != nil {
		rt.fail(w, r, err)
		return
	}
	annotation, err := rt.deps.Annotations.Annotate(r.Context(), id, input, actorFromRequest(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, annotation)
}

func (rt *Router) editAnnotation(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	annotation, err := rt.deps.Annotations.Edit(r.Context(), id, req.Comment, actorFromRequest(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, annotation)
}

func (rt *Router) removeAnnotation(w http.ResponseWriter, r *http.Request) {
	id, err := pathValue(r, "id")
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	if err := rt.deps.Annotations.Remove(r.Context(), id, actorFromRequest(r)); err != nil {
		rt.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

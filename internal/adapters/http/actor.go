package httpadapter

import (
	"net/http"
	"strings"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

const (
	actorIDHeader    = "X-Actor-Id"
	actorNameHeader  = "X-Actor-Name"
	actorRoleHeader  = "X-Actor-Role"
	actorTitleHeader = "X-Actor-Title"
)

// actorFromRequest reads the identity forwarded by the gateway. An empty
// actor is passed through; the use cases reject it as unauthorized.
func actorFromRequest(r *http.Request) domain.Actor {
	actor := domain.Actor{
		ID:            strings.TrimSpace(r.Header.Get(actorIDHeader)),
		Name:          strings.TrimSpace(r.Header.Get(actorNameHeader)),
		Role:          strings.TrimSpace(r.Header.Get(actorRoleHeader)),
		FunctionTitle: strings.TrimSpace(r.Header.Get(actorTitleHeader)),
	}
	if actor.Name == "" {
		actor.Name = actor.ID
	}
	return actor
}

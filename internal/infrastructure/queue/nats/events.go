package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/doc-governance/internal/core/domain"
)

func (c *Client) PublishDecision(ctx context.Context, event domain.DecisionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal decision event: %w", err)
	}
	return c.publish(ctx, "nats.publish_decision", c.subjects.Decisions, data)
}

// RouteEscalation hands the escalation to whichever service subscribes to
// the escalation subject; routing itself happens there.
func (c *Client) RouteEscalation(ctx context.Context, event domain.EscalationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal escalation event: %w", err)
	}
	subject := c.subjects.Escalations
	if target := subjectToken(event.Target); target != "" {
		subject += "." + target
	}
	return c.publish(ctx, "nats.route_escalation", subject, data)
}

func (c *Client) PublishAuditRequested(ctx context.Context, documentID string) error {
	return c.publish(ctx, "nats.publish_audit_request", c.subjects.AuditRequested, []byte(documentID))
}

// SubscribeAuditRequested blocks until ctx is done, then drains the
// subscription.
func (c *Client) SubscribeAuditRequested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := c.conn.QueueSubscribe(c.subjects.AuditRequested, c.queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		documentID := strings.TrimSpace(string(msg.Data))
		if documentID == "" {
			c.logger.Warn("audit_request_empty", "subject", msg.Subject)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, documentID); err != nil {
			c.logger.Error("audit_request_failed", "document_id", documentID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := c.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := c.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// subjectToken turns an escalation target into a single NATS subject token.
func subjectToken(target string) string {
	target = strings.ToLower(strings.TrimSpace(target))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, target)
}

package engine

import (
	"fmt"
	"time"
)

//go:generate reform

// EventKind normalized outcome carried by a provider webhook.
type EventKind string

const (
	EVENT_SUCCEEDED EventKind = "succeeded"
	EVENT_FAILED    EventKind = "failed"
	EVENT_EXPIRED   EventKind = "expired"
)

// TargetStatus maps the event kind to the payment status it drives to.
func (k EventKind) TargetStatus() PaymentStatus {
	switch k {
	case EVENT_SUCCEEDED:
		return SUCCEEDED_P
	case EVENT_EXPIRED:
		return EXPIRED_P
	}
	return FAILED_P
}

// ProviderEvent a verified, parsed webhook delivery. Produced by the
// provider packages after signature verification, consumed by the
// orchestrator.
type ProviderEvent struct {
	Provider Provider

	// Ref provider-side transaction/session reference.
	Ref string

	// Type raw provider event type (checkout.session.completed,
	// charge.completed, ...). Part of the idempotency key.
	Type string

	Kind EventKind

	// Reason provider failure detail, if any.
	Reason *string
}

func (e *ProviderEvent) IdempotencyKey() string {
	return IdempotencyKey(e.Provider, e.Ref, e.Type)
}

// IdempotencyKey identifies one logical webhook delivery. Providers
// redeliver at-least-once; the key makes the effective state change
// at-most-once.
func IdempotencyKey(p Provider, ref, eventType string) string {
	return fmt.Sprintf("%s:%s:%s", p, ref, eventType)
}

//reform:webhook_events
type WebhookEvent struct {
	// IdemKey (provider, provider reference, event type).
	IdemKey string `reform:"idem_key,pk"`

	Provider    Provider `reform:"provider"`
	ProviderRef string   `reform:"provider_ref"`
	EventType   string   `reform:"event_type"`

	// Result outcome recorded when the event was applied, replayed to
	// duplicate deliveries.
	Result string `reform:"result"`

	AppliedAt time.Time `reform:"applied_at"`
}

func (e *WebhookEvent) BeforeInsert() error {
	if e.AppliedAt.IsZero() {
		e.AppliedAt = time.Now()
	}
	if e.IdemKey == "" {
		e.IdemKey = IdempotencyKey(e.Provider, e.ProviderRef, e.EventType)
	}
	return nil
}

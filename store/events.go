package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/reform.v1"

	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/engine/orchestrator"
)

var _ orchestrator.EventStore = (*EventsPostgres)(nil)

func NewEventsPostgres(db *reform.DB) *EventsPostgres {
	return &EventsPostgres{db: db}
}

type EventsPostgres struct {
	db *reform.DB
}

func (s *EventsPostgres) Applied(ctx context.Context, key string) (*engine.WebhookEvent, error) {
	ev := &engine.WebhookEvent{IdemKey: key}
	err := s.db.WithContext(ctx).Reload(ev)
	if err != nil {
		if err == reform.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "Failed get webhook event")
	}
	return ev, nil
}

// MarkApplied records the dedup row. ON CONFLICT DO NOTHING keeps it
// idempotent under concurrent redeliveries.
func (s *EventsPostgres) MarkApplied(ctx context.Context, ev *engine.WebhookEvent) error {
	if ev.AppliedAt.IsZero() {
		ev.AppliedAt = time.Now()
	}
	_, err := s.db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (idem_key, provider, provider_ref, event_type, result, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (idem_key) DO NOTHING`,
		ev.IdemKey,
		ev.Provider,
		ev.ProviderRef,
		ev.EventType,
		ev.Result,
		ev.AppliedAt,
	)
	return errors.Wrap(err, "Failed insert webhook event")
}

// Sweep removes dedup rows older than the window. Providers stop
// redelivering long before that, so the table stays small.
func (s *EventsPostgres) Sweep(ctx context.Context, olderThan string) (int64, error) {
	res, err := s.db.WithContext(ctx).Exec(
		`DELETE FROM webhook_events WHERE applied_at < now() - $1::interval`,
		olderThan,
	)
	if err != nil {
		return 0, errors.Wrap(err, "Failed sweep webhook events")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "Failed get affected rows")
	}
	return n, nil
}

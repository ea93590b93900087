// Package worker holds background loops of the payment engine.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StaleSweeper what the expirer needs from the payment store. olderThan
// is a Postgres interval, e.g. "24 hours".
type StaleSweeper interface {
	ExpireStale(ctx context.Context, olderThan string) (int64, error)
}

// EventSweeper prunes webhook dedup rows past their retention window.
type EventSweeper interface {
	Sweep(ctx context.Context, olderThan string) (int64, error)
}

type ExpirerConfig struct {
	// Interval between sweeps.
	Interval time.Duration

	// PendingTTL age after which a pending payment expires.
	PendingTTL string

	// EventRetention age after which webhook dedup rows are pruned.
	EventRetention string
}

func NewExpirer(cfg ExpirerConfig, payments StaleSweeper, events EventSweeper) *Expirer {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.PendingTTL == "" {
		cfg.PendingTTL = "24 hours"
	}
	if cfg.EventRetention == "" {
		cfg.EventRetention = "30 days"
	}
	return &Expirer{
		cfg:      cfg,
		payments: payments,
		events:   events,
		l:        zap.L().Named("payment_expirer"),
	}
}

// Expirer moves abandoned pending payments to expired so they stop
// blocking the one-pending-per-provider slot, and prunes old webhook
// dedup rows.
type Expirer struct {
	cfg      ExpirerConfig
	payments StaleSweeper
	events   EventSweeper
	l        *zap.Logger
}

// Run sweeps until the context is canceled.
func (e *Expirer) Run(ctx context.Context) {
	t := time.NewTicker(e.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := e.payments.ExpireStale(ctx, e.cfg.PendingTTL)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				e.l.Error("Failed expire stale payments", zap.Error(err))
				continue
			}
			if n > 0 {
				e.l.Info("Expired stale payments", zap.Int64("count", n))
			}
			if e.events != nil {
				if _, err := e.events.Sweep(ctx, e.cfg.EventRetention); err != nil && ctx.Err() == nil {
					e.l.Error("Failed sweep webhook events", zap.Error(err))
				}
			}
		}
	}
}

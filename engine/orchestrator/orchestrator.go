// Package orchestrator drives the payment lifecycle: initiation of
// provider checkout sessions and reconciliation of provider webhooks.
// All status changes go through conditional (compare-and-set) updates,
// so concurrent deliveries of the same event apply exactly once and no
// lock is held across a provider network call.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/provider"
)

// InvoiceStore the consumed invoice collaborator.
type InvoiceStore interface {
	GetByUUID(ctx context.Context, uid string) (*engine.Invoice, error)

	// RemainingBalance total minus the sum of succeeded payments, in
	// minor units.
	RemainingBalance(ctx context.Context, invoiceID int64) (int64, error)

	// MarkPaid moves the invoice to paid if it is in a payable status.
	// Returns false when the invoice was already paid or not payable.
	MarkPaid(ctx context.Context, invoiceID int64) (bool, error)
}

type PaymentStore interface {
	// Create inserts a pending payment. Returns engine.ErrConflict when
	// another pending payment exists for the same invoice and provider.
	Create(ctx context.Context, p *engine.Payment) error

	GetByUUID(ctx context.Context, uid string) (*engine.Payment, error)
	GetByProviderRef(ctx context.Context, prov engine.Provider, ref string) (*engine.Payment, error)

	// AttachProviderSession stores the provider-side reference and
	// redirect URL returned by the gateway.
	AttachProviderSession(ctx context.Context, paymentID int64, ref, redirectURL string) error

	// Transition performs a compare-and-set status update. Returns
	// false without error when the payment was not in the from status.
	Transition(ctx context.Context, paymentID int64, from, to engine.PaymentStatus, reason *string) (bool, error)
}

// EventStore webhook dedup records. Lives in the shared datastore so
// horizontally scaled instances agree on what was applied.
type EventStore interface {
	// Applied returns the recorded event for the key, nil if none.
	Applied(ctx context.Context, key string) (*engine.WebhookEvent, error)

	// MarkApplied records the event. Must be idempotent.
	MarkApplied(ctx context.Context, ev *engine.WebhookEvent) error
}

// Notifier fire-and-forget receipt delivery. Failures are logged by the
// implementation, never propagated.
type Notifier interface {
	SendReceipt(invoiceID, paymentID int64)
}

type Config struct {
	// PublicBaseURL prefix for provider callback/webhook URLs.
	PublicBaseURL string

	// SessionTimeout bound on the outbound create-session call.
	SessionTimeout time.Duration
}

func New(cfg Config, invoices InvoiceStore, payments PaymentStore, events EventStore, reg provider.Registry, notifier Notifier) *Orchestrator {
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 15 * time.Second
	}
	return &Orchestrator{
		cfg:      cfg,
		invoices: invoices,
		payments: payments,
		events:   events,
		reg:      reg,
		notifier: notifier,
		l:        zap.L().Named("payment_orchestrator"),
	}
}

type Orchestrator struct {
	cfg      Config
	invoices InvoiceStore
	payments PaymentStore
	events   EventStore
	reg      provider.Registry
	notifier Notifier
	l        *zap.Logger
}

type Payer struct {
	Email string
	Name  string
	Phone string
}

// Initiate creates a pending payment for the invoice remaining balance
// and opens a provider checkout session. On gateway failure the payment
// is kept in failed status for audit and engine.ErrProvider is returned.
// The provider reference is only attached on success, so a late webhook
// for a failed attempt resolves no payment and is answered not-found;
// only events for payments that did reach a terminal status land in the
// terminal-conflict branch of ReconcileWebhook. Either way the payment
// record, not the HTTP response, is the source of truth.
func (o *Orchestrator) Initiate(ctx context.Context, invoiceUUID string, prov engine.Provider, payer Payer) (*engine.Payment, error) {
	gw := o.reg.Get(prov)
	if gw == nil {
		return nil, errors.Wrap(engine.ErrValidation, "unsupported provider")
	}

	inv, err := o.invoices.GetByUUID(ctx, invoiceUUID)
	if err != nil {
		return nil, err
	}
	if !inv.Status.Payable() {
		return nil, errors.Wrapf(engine.ErrValidation, "invoice in status %s cannot be paid", inv.Status)
	}

	balance, err := o.invoices.RemainingBalance(ctx, inv.InvoiceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed get invoice balance")
	}
	if balance <= 0 {
		return nil, errors.Wrap(engine.ErrConflict, "invoice already settled")
	}

	pay := &engine.Payment{
		UUID:      uuid.New().String(),
		InvoiceID: inv.InvoiceID,
		Provider:  prov,
		Amount:    balance,
		Currency:  inv.Currency,
		Status:    engine.PENDING_P,
	}
	if payer.Email != "" {
		pay.PayerEmail = &payer.Email
	}
	if payer.Name != "" {
		pay.PayerName = &payer.Name
	}
	if payer.Phone != "" {
		pay.PayerPhone = &payer.Phone
	}
	if err := o.payments.Create(ctx, pay); err != nil {
		return nil, err
	}

	sessCtx, cancel := context.WithTimeout(ctx, o.cfg.SessionTimeout)
	defer cancel()
	sess, err := gw.CreateSession(sessCtx, provider.CreateSessionParams{
		Amount:        pay.Amount,
		Currency:      pay.Currency,
		InvoiceUUID:   inv.UUID,
		InvoiceNumber: inv.Number,
		PaymentUUID:   pay.UUID,
		CallbackURL:   o.callbackURL(prov, pay.UUID),
		PayerEmail:    payer.Email,
		PayerName:     payer.Name,
		PayerPhone:    payer.Phone,
	})
	if err != nil {
		reason := err.Error()
		if ok, trErr := o.payments.Transition(ctx, pay.PaymentID, engine.PENDING_P, engine.FAILED_P, &reason); trErr != nil || !ok {
			o.l.Error(
				"Failed mark payment failed after gateway error",
				zap.Int64("payment_id", pay.PaymentID),
				zap.Error(trErr),
			)
		}
		o.l.Warn(
			"Failed create provider session",
			zap.String("provider", string(prov)),
			zap.String("invoice_uuid", inv.UUID),
			zap.String("payment_uuid", pay.UUID),
			zap.Error(err),
		)
		return nil, errors.Wrap(engine.ErrProvider, err.Error())
	}

	if err := o.payments.AttachProviderSession(ctx, pay.PaymentID, sess.ProviderRef, sess.RedirectURL); err != nil {
		return nil, errors.Wrap(err, "failed attach provider session")
	}
	pay.ProviderRef = &sess.ProviderRef
	if sess.RedirectURL != "" {
		pay.RedirectURL = &sess.RedirectURL
	}

	o.l.Info(
		"Payment initiated",
		zap.String("payment_uuid", pay.UUID),
		zap.String("invoice_uuid", inv.UUID),
		zap.String("provider", string(prov)),
		zap.Int64("amount", pay.Amount),
		zap.String("currency", string(pay.Currency)),
	)
	return pay, nil
}

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeConflict  Outcome = "conflict"
)

type ReconcileResult struct {
	Outcome Outcome

	// Status payment status after reconciliation.
	Status engine.PaymentStatus

	PaymentUUID string

	// InvoicePaid true when this reconciliation settled the invoice.
	InvoicePaid bool
}

// ReconcileWebhook applies one verified provider event. Deliveries are
// at-least-once; the idempotency key makes the effective state change
// at-most-once. Terminal statuses are sticky: a conflicting event
// arriving after a terminal transition is logged and absorbed, since
// providers expect acknowledgment for duplicates.
func (o *Orchestrator) ReconcileWebhook(ctx context.Context, ev *engine.ProviderEvent) (*ReconcileResult, error) {
	key := ev.IdempotencyKey()

	prior, err := o.events.Applied(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed check webhook dedup")
	}
	if prior != nil {
		o.l.Debug("Duplicate webhook delivery", zap.String("idem_key", key))
		return &ReconcileResult{
			Outcome: OutcomeDuplicate,
			Status:  engine.PaymentStatus(prior.Result),
		}, nil
	}

	pay, err := o.payments.GetByProviderRef(ctx, ev.Provider, ev.Ref)
	if err != nil {
		return nil, err
	}

	target := ev.Kind.TargetStatus()
	ok, err := o.payments.Transition(ctx, pay.PaymentID, engine.PENDING_P, target, ev.Reason)
	if err != nil {
		return nil, errors.Wrap(err, "failed transition payment")
	}
	if !ok {
		// Lost the race or the payment is already terminal.
		current, err := o.payments.GetByProviderRef(ctx, ev.Provider, ev.Ref)
		if err != nil {
			return nil, err
		}
		if current.Status.Match(target) {
			res := &ReconcileResult{
				Outcome:     OutcomeDuplicate,
				Status:      current.Status,
				PaymentUUID: current.UUID,
			}
			if target.Match(engine.SUCCEEDED_P) {
				settled, err := o.settleInvoice(ctx, current)
				if err != nil {
					return nil, err
				}
				res.InvoicePaid = settled
			}
			if err := o.markApplied(ctx, ev, target); err != nil {
				return nil, err
			}
			return res, nil
		}
		o.l.Warn(
			"Conflicting webhook for terminal payment dropped",
			zap.String("payment_uuid", current.UUID),
			zap.String("payment_status", string(current.Status)),
			zap.String("event_type", ev.Type),
			zap.String("idem_key", key),
		)
		return &ReconcileResult{
			Outcome:     OutcomeConflict,
			Status:      current.Status,
			PaymentUUID: current.UUID,
		}, nil
	}

	res := &ReconcileResult{
		Outcome:     OutcomeApplied,
		Status:      target,
		PaymentUUID: pay.UUID,
	}
	if target.Match(engine.SUCCEEDED_P) {
		settled, err := o.settleInvoice(ctx, pay)
		if err != nil {
			return nil, err
		}
		res.InvoicePaid = settled
		if settled {
			o.notifier.SendReceipt(pay.InvoiceID, pay.PaymentID)
		}
	}
	if err := o.markApplied(ctx, ev, target); err != nil {
		return nil, err
	}

	o.l.Info(
		"Webhook reconciled",
		zap.String("payment_uuid", pay.UUID),
		zap.String("status", string(target)),
		zap.Bool("invoice_paid", res.InvoicePaid),
		zap.String("idem_key", key),
	)
	return res, nil
}

// PollStatus explicit status check for a payment, by public identifier.
func (o *Orchestrator) PollStatus(ctx context.Context, paymentUUID string) (*engine.Payment, error) {
	return o.payments.GetByUUID(ctx, paymentUUID)
}

// settleInvoice marks the invoice paid once succeeded payments cover the
// total. MarkPaid is a compare-and-set, safe to re-run on redelivery.
func (o *Orchestrator) settleInvoice(ctx context.Context, pay *engine.Payment) (bool, error) {
	balance, err := o.invoices.RemainingBalance(ctx, pay.InvoiceID)
	if err != nil {
		return false, errors.Wrap(err, "failed get invoice balance")
	}
	if balance > 0 {
		return false, nil
	}
	marked, err := o.invoices.MarkPaid(ctx, pay.InvoiceID)
	if err != nil {
		return false, errors.Wrap(err, "failed mark invoice paid")
	}
	return marked, nil
}

// markApplied records the dedup row. Errors bubble up as 5xx so the
// provider redelivers; the redelivery lands in the CAS-miss duplicate
// branch and retries the record.
func (o *Orchestrator) markApplied(ctx context.Context, ev *engine.ProviderEvent, target engine.PaymentStatus) error {
	err := o.events.MarkApplied(ctx, &engine.WebhookEvent{
		IdemKey:     ev.IdempotencyKey(),
		Provider:    ev.Provider,
		ProviderRef: ev.Ref,
		EventType:   ev.Type,
		Result:      string(target),
	})
	return errors.Wrap(err, "failed record webhook event")
}

func (o *Orchestrator) callbackURL(prov engine.Provider, paymentUUID string) string {
	return fmt.Sprintf("%s/api/payments/webhook/%s?payment=%s", o.cfg.PublicBaseURL, prov, paymentUUID)
}

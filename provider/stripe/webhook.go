package stripe

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
	"go.uber.org/zap"

	"github.com/walsatpay/walsatpay/engine"
)

func (g *Gateway) SignatureHeader() string {
	return "Stripe-Signature"
}

// ParseWebhook verifies the Stripe-Signature header against the endpoint
// secret and normalizes checkout session events. Event types outside the
// checkout lifecycle are acknowledged without a state change.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*engine.ProviderEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.cfg.WebhookSecret)
	if err != nil {
		g.l.Warn("Failed verify webhook signature", zap.Error(err))
		return nil, errors.Wrap(engine.ErrAuthentication, err.Error())
	}

	var kind engine.EventKind
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		kind = engine.EVENT_SUCCEEDED
	case "checkout.session.async_payment_failed":
		kind = engine.EVENT_FAILED
	case "checkout.session.expired":
		kind = engine.EVENT_EXPIRED
	default:
		g.l.Debug("Skip event type", zap.String("event_type", event.Type))
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		g.l.Warn(
			"Failed unmarshal checkout session from event",
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		return nil, errors.Wrap(engine.ErrValidation, "bad checkout session payload")
	}
	if sess.ID == "" {
		return nil, errors.Wrap(engine.ErrValidation, "checkout session without id")
	}

	if err := g.s.SetStatus(sess.ID, engine.STRIPE, string(sess.Status)); err != nil {
		// Audit trail only, reconciliation proceeds on the event itself.
		g.l.Warn(
			"Failed update session audit status",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}

	return &engine.ProviderEvent{
		Provider: engine.STRIPE,
		Ref:      sess.ID,
		Type:     event.Type,
		Kind:     kind,
	}, nil
}

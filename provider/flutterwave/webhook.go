package flutterwave

import (
	"crypto/subtle"
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/walsatpay/walsatpay/engine"
)

func (g *Gateway) SignatureHeader() string {
	return "verif-hash"
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID                int64  `json:"id"`
		TxRef             string `json:"tx_ref"`
		Status            string `json:"status"`
		ProcessorResponse string `json:"processor_response"`
	} `json:"data"`
}

// ParseWebhook checks the verif-hash header against the configured
// secret hash and normalizes charge events. Flutterwave sends the hash
// verbatim, not an HMAC of the body.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*engine.ProviderEvent, error) {
	if g.cfg.WebhookHash == "" || subtle.ConstantTimeCompare([]byte(signature), []byte(g.cfg.WebhookHash)) != 1 {
		g.l.Warn("Failed verify webhook hash")
		return nil, errors.Wrap(engine.ErrAuthentication, "bad verif-hash")
	}

	var wp webhookPayload
	if err := json.Unmarshal(payload, &wp); err != nil {
		g.l.Warn(
			"Failed unmarshal webhook payload",
			zap.Error(err),
		)
		return nil, errors.Wrap(engine.ErrValidation, "bad webhook payload")
	}
	if wp.Data.TxRef == "" {
		return nil, errors.Wrap(engine.ErrValidation, "webhook without tx_ref")
	}

	var kind engine.EventKind
	var reason *string
	switch wp.Event {
	case "charge.completed":
		switch wp.Data.Status {
		case "successful":
			kind = engine.EVENT_SUCCEEDED
		case "failed":
			kind = engine.EVENT_FAILED
			if wp.Data.ProcessorResponse != "" {
				reason = &wp.Data.ProcessorResponse
			}
		default:
			g.l.Debug("Skip charge status", zap.String("status", wp.Data.Status))
			return nil, nil
		}
	case "charge.failed":
		kind = engine.EVENT_FAILED
		if wp.Data.ProcessorResponse != "" {
			reason = &wp.Data.ProcessorResponse
		}
	case "charge.expired":
		kind = engine.EVENT_EXPIRED
	default:
		g.l.Debug("Skip event type", zap.String("event", wp.Event))
		return nil, nil
	}

	if err := g.s.SetStatus(wp.Data.TxRef, g.name, wp.Data.Status); err != nil {
		g.l.Warn(
			"Failed update session audit status",
			zap.String("tx_ref", wp.Data.TxRef),
			zap.Error(err),
		)
	}

	return &engine.ProviderEvent{
		Provider: g.name,
		Ref:      wp.Data.TxRef,
		Type:     wp.Event + "." + wp.Data.Status,
		Kind:     kind,
		Reason:   reason,
	}, nil
}

package bank

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/reform.v1"

	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/provider"
)

// Bank transfers have no hosted checkout. Initiation issues a wire
// reference the payer quotes on the transfer; finance staff confirm the
// incoming funds through an internal webhook signed with a shared
// secret.

type Config struct {
	// WebhookSecret shared with the back-office confirmation tool.
	WebhookSecret string
}

func NewGateway(db *reform.DB, cfg Config) *Gateway {
	return &Gateway{
		cfg: cfg,
		s: &provider.Store{
			DB: db,
		},
		l: zap.L().Named("bank_provider"),
	}
}

type Gateway struct {
	cfg Config
	s   *provider.Store
	l   *zap.Logger
}

func (g *Gateway) Name() engine.Provider {
	return engine.BANK_TRANSFER
}

const (
	AWAITING_FUNDS = "AWAITING_FUNDS"
)

// CreateSession issues the wire reference. No outbound call is made.
func (g *Gateway) CreateSession(ctx context.Context, params provider.CreateSessionParams) (*provider.Session, error) {
	ref := newWireReference()
	if err := g.s.NewSession(ref, engine.BANK_TRANSFER, AWAITING_FUNDS); err != nil {
		return nil, errors.Wrap(err, "Failed insert bank transfer session")
	}
	return &provider.Session{
		ProviderRef: ref,
	}, nil
}

func (g *Gateway) SignatureHeader() string {
	return "X-Wasat-Signature"
}

type confirmation struct {
	Event     string `json:"event"`
	Reference string `json:"reference"`
	Reason    string `json:"reason,omitempty"`
}

// ParseWebhook verifies the hex HMAC-SHA256 of the body and maps the
// back-office confirmation to a payment event.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*engine.ProviderEvent, error) {
	mac := hmac.New(sha256.New, []byte(g.cfg.WebhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		g.l.Warn("Failed verify confirmation signature")
		return nil, errors.Wrap(engine.ErrAuthentication, "bad signature")
	}

	var cf confirmation
	if err := json.Unmarshal(payload, &cf); err != nil {
		return nil, errors.Wrap(engine.ErrValidation, "bad confirmation payload")
	}
	if cf.Reference == "" {
		return nil, errors.Wrap(engine.ErrValidation, "confirmation without reference")
	}

	var kind engine.EventKind
	var reason *string
	switch cf.Event {
	case "transfer.confirmed":
		kind = engine.EVENT_SUCCEEDED
	case "transfer.rejected":
		kind = engine.EVENT_FAILED
		if cf.Reason != "" {
			reason = &cf.Reason
		}
	case "transfer.expired":
		kind = engine.EVENT_EXPIRED
	default:
		g.l.Debug("Skip confirmation event", zap.String("event", cf.Event))
		return nil, nil
	}

	return &engine.ProviderEvent{
		Provider: engine.BANK_TRANSFER,
		Ref:      cf.Reference,
		Type:     cf.Event,
		Kind:     kind,
		Reason:   reason,
	}, nil
}

func newWireReference() string {
	b := make([]byte, 3)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	tm := time.Now()
	return fmt.Sprintf(
		"WST-%d%02d%02d-%s",
		tm.Year(),
		int(tm.Month()),
		tm.Day(),
		hex.EncodeToString(b))
}

var _ provider.Gateway = (*Gateway)(nil)

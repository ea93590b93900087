package provider

import (
	"context"

	"github.com/walsatpay/walsatpay/engine"
)

// Session a provider-side checkout created for one payment attempt.
type Session struct {
	// ProviderRef provider-side transaction/session reference.
	ProviderRef string

	// RedirectURL where the payer completes the payment. Empty for
	// rails without a hosted page (bank transfer).
	RedirectURL string
}

type CreateSessionParams struct {
	// Amount in minor units.
	Amount   int64
	Currency engine.Currency

	InvoiceUUID   string
	InvoiceNumber string

	// PaymentUUID scoped into the callback URL so a late webhook can be
	// routed even after the initiating request timed out.
	PaymentUUID string

	CallbackURL string

	PayerEmail string
	PayerName  string
	PayerPhone string
}

// Gateway one payment provider integration. CreateSession performs the
// outbound call with the deadline carried by ctx; ParseWebhook verifies
// the signature and normalizes the payload. ParseWebhook returning
// (nil, nil) means the event type is not payment-relevant and must be
// acknowledged without a state change.
type Gateway interface {
	Name() engine.Provider
	CreateSession(ctx context.Context, params CreateSessionParams) (*Session, error)
	SignatureHeader() string
	ParseWebhook(payload []byte, signature string) (*engine.ProviderEvent, error)
}

// Registry maps provider identifiers to gateways. Several identifiers
// may share one gateway (mpesa rides on flutterwave).
type Registry map[engine.Provider]Gateway

func (r Registry) Get(p engine.Provider) Gateway {
	return r[p]
}

func (r Registry) Register(gw Gateway, names ...engine.Provider) {
	if len(names) == 0 {
		names = []engine.Provider{gw.Name()}
	}
	for _, name := range names {
		r[name] = gw
	}
}

package stripe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"go.uber.org/zap"
	"gopkg.in/reform.v1"

	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/provider"
)

type Config struct {
	SecretKey     string
	WebhookSecret string

	// Timeout bound for outbound calls to the Stripe API.
	Timeout time.Duration
}

func NewGateway(db *reform.DB, cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	api := client.New(cfg.SecretKey, stripe.NewBackends(&http.Client{Timeout: timeout}))
	return &Gateway{
		cfg: cfg,
		api: api,
		s: &provider.Store{
			DB: db,
		},
		l: zap.L().Named("stripe_provider"),
	}
}

type Gateway struct {
	cfg Config
	api *client.API
	s   *provider.Store
	l   *zap.Logger
}

func (g *Gateway) Name() engine.Provider {
	return engine.STRIPE
}

// CreateSession opens a Stripe Checkout Session for the invoice amount.
// The payment UUID travels as the client reference so webhooks can be
// correlated even when the session id is lost on our side.
func (g *Gateway) CreateSession(ctx context.Context, params provider.CreateSessionParams) (*provider.Session, error) {
	sessParams := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: []*string{
			stripe.String("card"),
		},
		ClientReferenceID: stripe.String(params.PaymentUUID),
		SuccessURL:        stripe.String(params.CallbackURL + "?payment_state=success"),
		CancelURL:         stripe.String(params.CallbackURL + "?payment_state=cancel"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(string(params.Currency))),
					UnitAmount: stripe.Int64(params.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Invoice " + params.InvoiceNumber),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if params.PayerEmail != "" {
		sessParams.CustomerEmail = stripe.String(params.PayerEmail)
	}

	sess, err := g.api.CheckoutSessions.New(sessParams)
	if err != nil {
		g.l.Warn(
			"Failed create checkout session",
			zap.String("invoice_uuid", params.InvoiceUUID),
			zap.String("payment_uuid", params.PaymentUUID),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "Failed create checkout session")
	}
	if err := g.s.NewSession(sess.ID, engine.STRIPE, string(sess.Status)); err != nil {
		return nil, errors.Wrap(err, "Failed insert stripe checkout session")
	}
	return &provider.Session{
		ProviderRef: sess.ID,
		RedirectURL: sess.URL,
	}, nil
}

var _ provider.Gateway = (*Gateway)(nil)

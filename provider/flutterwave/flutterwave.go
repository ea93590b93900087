package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/reform.v1"

	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/provider"
)

const defaultEntrypointURL = "https://api.flutterwave.com/v3"

type Config struct {
	EntrypointURL string
	SecretKey     string

	// WebhookHash value configured in the Flutterwave dashboard,
	// echoed back in the verif-hash header of every delivery.
	WebhookHash string

	Timeout time.Duration
}

// NewGateway returns a gateway serving the given provider identifier.
// Flutterwave carries both card payments (flutterwave) and the M-Pesa
// mobile money rail (mpesa); the identifier selects payment_options.
func NewGateway(db *reform.DB, cfg Config, name engine.Provider) *Gateway {
	if cfg.EntrypointURL == "" {
		cfg.EntrypointURL = defaultEntrypointURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{
		cfg:  cfg,
		name: name,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		s: &provider.Store{
			DB: db,
		},
		l: zap.L().Named("flutterwave_provider"),
	}
}

type Gateway struct {
	cfg        Config
	name       engine.Provider
	httpClient *http.Client
	s          *provider.Store
	l          *zap.Logger
}

func (g *Gateway) Name() engine.Provider {
	return g.name
}

type paymentRequest struct {
	TxRef          string          `json:"tx_ref"`
	Amount         string          `json:"amount"`
	Currency       string          `json:"currency"`
	RedirectURL    string          `json:"redirect_url"`
	PaymentOptions string          `json:"payment_options,omitempty"`
	Customer       paymentCustomer `json:"customer"`
	Customizations customizations  `json:"customizations"`
}

type paymentCustomer struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phonenumber,omitempty"`
}

type customizations struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type paymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

// CreateSession registers a Standard checkout with Flutterwave. The
// payment UUID is the tx_ref; webhooks carry it back as the reference.
func (g *Gateway) CreateSession(ctx context.Context, params provider.CreateSessionParams) (*provider.Session, error) {
	reqBody := paymentRequest{
		TxRef:       params.PaymentUUID,
		Amount:      formatAmount(params.Amount),
		Currency:    string(params.Currency),
		RedirectURL: params.CallbackURL,
		Customer: paymentCustomer{
			Email:       params.PayerEmail,
			Name:        params.PayerName,
			PhoneNumber: params.PayerPhone,
		},
		Customizations: customizations{
			Title:       "Wasat Humanitarian Foundation",
			Description: "Payment for invoice " + params.InvoiceNumber,
		},
	}
	if g.name.Match(engine.MPESA) {
		reqBody.PaymentOptions = "mpesa"
	}

	b, err := json.Marshal(&reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "Failed marshal payment request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.EntrypointURL+"/payments", bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "Failed new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)

	res, err := g.httpClient.Do(req)
	if err != nil {
		g.l.Warn(
			"payments: do request",
			zap.String("tx_ref", params.PaymentUUID),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "Failed http post flutterwave payments")
	}
	defer res.Body.Close()
	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		g.l.Warn(
			"payments: read body",
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "Failed read body response from flutterwave")
	}

	var pr paymentResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		g.l.Warn(
			"payments: bad unmarshal response from flutterwave",
			zap.String("body", string(body)),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "Failed unmarshal response from flutterwave")
	}
	if pr.Status != "success" {
		return nil, errors.New(pr.Message)
	}
	if err := g.s.NewSession(params.PaymentUUID, g.name, pr.Status); err != nil {
		return nil, errors.Wrap(err, "Failed insert flutterwave session")
	}
	return &provider.Session{
		ProviderRef: params.PaymentUUID,
		RedirectURL: pr.Data.Link,
	}, nil
}

// formatAmount renders minor units as the decimal string the
// Flutterwave API expects.
func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

var _ provider.Gateway = (*Gateway)(nil)

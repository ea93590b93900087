package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

//go:generate reform

type Provider string

func (p Provider) Match(in Provider) bool {
	return p == in
}

func (p Provider) Valid() bool {
	switch p {
	case STRIPE, FLUTTERWAVE, MPESA, BANK_TRANSFER:
		return true
	}
	return false
}

const (
	UNKNOWN_PROVIDER Provider = ""
	STRIPE           Provider = "stripe"
	FLUTTERWAVE      Provider = "flutterwave"
	MPESA            Provider = "mpesa"
	BANK_TRANSFER    Provider = "bank_transfer"
)

// ProviderFamily returns the providers sharing one webhook rail with p.
// Flutterwave carries mpesa, so its deliveries arrive under either name
// and must resolve payments recorded under both.
func ProviderFamily(p Provider) []Provider {
	if p.Match(FLUTTERWAVE) || p.Match(MPESA) {
		return []Provider{FLUTTERWAVE, MPESA}
	}
	return []Provider{p}
}

type PaymentStatus string

func (s PaymentStatus) Match(in PaymentStatus) bool {
	return s == in
}

// Terminal reports whether no transition may leave the status.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case SUCCEEDED_P, FAILED_P, EXPIRED_P:
		return true
	}
	return false
}

const (
	PENDING_P   PaymentStatus = "pending"
	SUCCEEDED_P PaymentStatus = "succeeded"
	FAILED_P    PaymentStatus = "failed"
	EXPIRED_P   PaymentStatus = "expired"
)

//reform:payments
type Payment struct {
	PaymentID int64 `reform:"payment_id,pk"`

	// UUID public identifier, scoped into provider callback URLs.
	UUID string `reform:"uuid"`

	// InvoiceID the invoice this attempt settles.
	InvoiceID int64 `reform:"invoice_id"`

	Provider Provider `reform:"provider"`

	// ProviderRef provider-side transaction/session reference.
	// Nil until the provider responded.
	ProviderRef *string `reform:"provider_ref"`

	// RedirectURL checkout URL for the payer (nil for bank transfers).
	RedirectURL *string `reform:"redirect_url"`

	// Amount in minor units. Must match the invoice remaining balance
	// at creation time.
	Amount   int64    `reform:"amount"`
	Currency Currency `reform:"currency"`

	Status PaymentStatus `reform:"status"`

	FailureReason *string `reform:"failure_reason"`

	PayerEmail *string `reform:"payer_email"`
	PayerName  *string `reform:"payer_name"`
	PayerPhone *string `reform:"payer_phone"`

	UpdatedAt   time.Time  `reform:"updated_at"`
	CreatedAt   time.Time  `reform:"created_at"`
	CompletedAt *time.Time `reform:"completed_at"`
}

func (p *Payment) BeforeInsert() error {
	p.UpdatedAt = time.Now()
	p.CreatedAt = time.Now()
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = PENDING_P
	}
	if !p.Provider.Valid() {
		return errors.Wrap(ErrValidation, "unknown provider")
	}
	if p.Amount <= 0 {
		return errors.Wrap(ErrValidation, "payment amount must be positive")
	}
	if !p.Currency.Valid() {
		return errors.Wrap(ErrValidation, "unsupported currency")
	}
	return nil
}

func (p *Payment) BeforeUpdate() error {
	p.UpdatedAt = time.Now()
	return nil
}

package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

//go:generate reform

type Currency string

func (c Currency) Match(in Currency) bool {
	return c == in
}

func (c Currency) Valid() bool {
	switch c {
	case USD, KES, EUR:
		return true
	}
	return false
}

const (
	USD Currency = "USD"
	KES Currency = "KES"
	EUR Currency = "EUR"
)

type InvoiceStatus string

func (s InvoiceStatus) Match(in InvoiceStatus) bool {
	return s == in
}

// Payable reports whether a payment may be initiated against the invoice.
func (s InvoiceStatus) Payable() bool {
	return s.Match(SENT_I) || s.Match(OVERDUE_I)
}

const (
	DRAFT_I   InvoiceStatus = "draft"
	SENT_I    InvoiceStatus = "sent"
	PAID_I    InvoiceStatus = "paid"
	OVERDUE_I InvoiceStatus = "overdue"
	VOID_I    InvoiceStatus = "void"
)

//reform:invoices
type Invoice struct {
	InvoiceID int64 `reform:"invoice_id,pk"`

	// UUID public identifier, used in payment URLs.
	UUID string `reform:"uuid"`

	// Number human readable invoice number (INV-2026-0001).
	Number string `reform:"number"`

	// ProjectID owning humanitarian project.
	ProjectID *int64 `reform:"project_id"`

	Currency Currency `reform:"currency"`

	// Total invoice amount in minor units (cents).
	Total int64 `reform:"total"`

	Status InvoiceStatus `reform:"status"`

	UpdatedAt time.Time  `reform:"updated_at"`
	CreatedAt time.Time  `reform:"created_at"`
	PaidAt    *time.Time `reform:"paid_at"`
}

func (i *Invoice) BeforeInsert() error {
	i.UpdatedAt = time.Now()
	i.CreatedAt = time.Now()
	if i.UUID == "" {
		i.UUID = uuid.New().String()
	}
	if i.Status == "" {
		i.Status = DRAFT_I
	}
	if i.Total <= 0 {
		return errors.Wrap(ErrValidation, "invoice total must be positive")
	}
	if !i.Currency.Valid() {
		return errors.Wrap(ErrValidation, "unsupported currency")
	}
	return nil
}

func (i *Invoice) BeforeUpdate() error {
	i.UpdatedAt = time.Now()
	return nil
}

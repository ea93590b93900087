package provider

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/reform.v1"

	"github.com/walsatpay/walsatpay/engine"
)

// Store audit log of provider-side sessions. Gateways record every
// session they open and every raw status change the provider reports,
// independent of the payment state machine. A nil DB disables the log.
type Store struct {
	DB *reform.DB
}

const (
	prefixSessionID = "wsp"
)

func (s *Store) NewSession(ref string, providerName engine.Provider, rawStatus string) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Insert(&PaymentSession{
		SessionKey:   formatSessionKey(providerName, ref),
		ProviderName: providerName,
		RawStatus:    rawStatus,
	})
}

func (s *Store) GetByRef(ref string, providerName engine.Provider) (*PaymentSession, error) {
	if s.DB == nil {
		return nil, reform.ErrNoRows
	}
	so := &PaymentSession{SessionKey: formatSessionKey(providerName, ref)}
	err := s.DB.Reload(so)
	if err != nil {
		if err == reform.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(err, "Failed get payment session")
	}
	return so, nil
}

func (s *Store) SetStatus(ref string, providerName engine.Provider, newStatus string) error {
	if s.DB == nil {
		return nil
	}
	o := &PaymentSession{SessionKey: formatSessionKey(providerName, ref)}
	err := s.DB.Reload(o)
	if err != nil {
		return err
	}
	o.RawStatus = newStatus
	return s.DB.Save(o)
}

//go:generate reform

//reform:payment_sessions
type PaymentSession struct {
	SessionKey   string          `reform:"session_key,pk"`
	ProviderName engine.Provider `reform:"provider_name"`
	RawStatus    string          `reform:"raw_status"`
	CreatedAt    time.Time       `reform:"created_at"`
	UpdatedAt    time.Time       `reform:"updated_at"`
}

func (o *PaymentSession) BeforeInsert() error {
	o.UpdatedAt = time.Now()
	o.CreatedAt = time.Now()
	return nil
}

func (o *PaymentSession) BeforeUpdate() error {
	o.UpdatedAt = time.Now()
	return nil
}

func formatSessionKey(p engine.Provider, ref string) string {
	return prefixSessionID + fmt.Sprintf("-%s-%s", p, ref)
}

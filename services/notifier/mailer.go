package notifier

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/walsatpay/walsatpay/engine"
)

// Mailer sends a rendered receipt.
type Mailer interface {
	SendReceipt(toEmail, toName string, inv *engine.Invoice, pay *engine.Payment) error
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

func NewSendGridMailer(cfg SendGridConfig) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (m *SendGridMailer) SendReceipt(toEmail, toName string, inv *engine.Invoice, pay *engine.Payment) error {
	subject := fmt.Sprintf("Payment received for invoice %s", inv.Number)
	body := fmt.Sprintf(
		"Dear %s,\n\nWe have received your payment of %s %s for invoice %s.\nPayment reference: %s.\n\nThank you for supporting our work.\nWasat Humanitarian Foundation",
		toName,
		formatAmount(pay.Amount),
		pay.Currency,
		inv.Number,
		pay.UUID,
	)
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail(toName, toEmail), body, "")
	resp, err := m.client.Send(msg)
	if err != nil {
		return errors.Wrap(err, "Failed send receipt email")
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("Failed send receipt email: status %d", resp.StatusCode)
	}
	return nil
}

// formatAmount renders minor units as a decimal string.
func formatAmount(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

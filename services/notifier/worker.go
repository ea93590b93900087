package notifier

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"gopkg.in/reform.v1"

	"github.com/walsatpay/walsatpay/engine"
)

// SubToNATS subscribes the receipt queue worker. The queue group keeps
// delivery at one worker per message across scaled instances.
func SubToNATS(nc *nats.Conn, db *reform.DB, mailer Mailer) (*nats.Subscription, error) {
	l := zap.L().Named("receipt_worker")
	return nc.QueueSubscribe(ReceiptSubject, "queue", func(msg *nats.Msg) {
		var m ReceiptMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			l.Warn("Failed unmarshal receipt message", zap.Error(err))
			return
		}

		pay := &engine.Payment{PaymentID: m.PaymentID}
		if err := db.Reload(pay); err != nil {
			l.Error("Failed load payment", zap.Int64("payment_id", m.PaymentID), zap.Error(err))
			return
		}
		inv := &engine.Invoice{InvoiceID: m.InvoiceID}
		if err := db.Reload(inv); err != nil {
			l.Error("Failed load invoice", zap.Int64("invoice_id", m.InvoiceID), zap.Error(err))
			return
		}

		if pay.PayerEmail == nil || *pay.PayerEmail == "" {
			l.Debug("Payment without payer email, skip receipt", zap.String("payment_uuid", pay.UUID))
			return
		}
		name := ""
		if pay.PayerName != nil {
			name = *pay.PayerName
		}

		if err := mailer.SendReceipt(*pay.PayerEmail, name, inv, pay); err != nil {
			l.Error(
				"Failed send receipt",
				zap.String("payment_uuid", pay.UUID),
				zap.String("invoice_number", inv.Number),
				zap.Error(err),
			)
			return
		}
		l.Info(
			"Receipt sent",
			zap.String("payment_uuid", pay.UUID),
			zap.String("invoice_number", inv.Number),
		)
	})
}

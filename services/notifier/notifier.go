// Package notifier delivers payment receipts to donors. The service
// publishes a message to NATS and a queue worker renders and sends the
// email, so a slow mail API never holds up webhook reconciliation.
package notifier

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/walsatpay/walsatpay/engine/orchestrator"
)

const ReceiptSubject = "walsatpay.receipts"

type ReceiptMessage struct {
	InvoiceID int64 `json:"invoice_id"`
	PaymentID int64 `json:"payment_id"`
}

var _ orchestrator.Notifier = (*NATSNotifier)(nil)

func NewNATSNotifier(nc *nats.Conn) *NATSNotifier {
	return &NATSNotifier{
		nc: nc,
		l:  zap.L().Named("receipt_notifier"),
	}
}

type NATSNotifier struct {
	nc *nats.Conn
	l  *zap.Logger
}

// SendReceipt fire-and-forget. A lost message means a missing receipt
// email, never a broken reconciliation.
func (n *NATSNotifier) SendReceipt(invoiceID, paymentID int64) {
	b, err := json.Marshal(ReceiptMessage{
		InvoiceID: invoiceID,
		PaymentID: paymentID,
	})
	if err != nil {
		n.l.Error("Failed marshal receipt message", zap.Error(err))
		return
	}
	if err := n.nc.Publish(ReceiptSubject, b); err != nil {
		n.l.Error(
			"Failed publish receipt message",
			zap.Int64("invoice_id", invoiceID),
			zap.Int64("payment_id", paymentID),
			zap.Error(err),
		)
	}
}

// NopNotifier used when NATS is not configured.
type NopNotifier struct{}

func (NopNotifier) SendReceipt(invoiceID, paymentID int64) {}

var _ orchestrator.Notifier = NopNotifier{}

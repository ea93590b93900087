package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"gopkg.in/reform.v1"

	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/engine/orchestrator"
)

var _ orchestrator.InvoiceStore = (*InvoicesPostgres)(nil)

func NewInvoicesPostgres(db *reform.DB) *InvoicesPostgres {
	return &InvoicesPostgres{db: db}
}

type InvoicesPostgres struct {
	db *reform.DB
}

func (s *InvoicesPostgres) GetByUUID(ctx context.Context, uid string) (*engine.Invoice, error) {
	var inv engine.Invoice
	err := s.db.WithContext(ctx).SelectOneTo(&inv, "WHERE uuid = $1", uid)
	if err != nil {
		if err == reform.ErrNoRows {
			return nil, errors.Wrap(engine.ErrNotFound, "invoice not found")
		}
		return nil, errors.Wrap(err, "Failed get invoice by uuid")
	}
	return &inv, nil
}

func (s *InvoicesPostgres) RemainingBalance(ctx context.Context, invoiceID int64) (int64, error) {
	var balance int64
	err := s.db.WithContext(ctx).QueryRow(
		`SELECT i.total - COALESCE(SUM(p.amount) FILTER (WHERE p.status = $1), 0)
		FROM invoices i
		LEFT JOIN payments p ON p.invoice_id = i.invoice_id
		WHERE i.invoice_id = $2
		GROUP BY i.total`,
		engine.SUCCEEDED_P,
		invoiceID,
	).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.Wrap(engine.ErrNotFound, "invoice not found")
		}
		return 0, errors.Wrap(err, "Failed get invoice balance")
	}
	return balance, nil
}

// MarkPaid compare-and-set: only payable statuses advance to paid, so a
// redelivered success webhook cannot double-apply.
func (s *InvoicesPostgres) MarkPaid(ctx context.Context, invoiceID int64) (bool, error) {
	res, err := s.db.WithContext(ctx).Exec(
		`UPDATE invoices
		SET status = $1, paid_at = now(), updated_at = now()
		WHERE invoice_id = $2 AND status IN ($3, $4)`,
		engine.PAID_I,
		invoiceID,
		engine.SENT_I,
		engine.OVERDUE_I,
	)
	if err != nil {
		return false, errors.Wrap(err, "Failed mark invoice paid")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "Failed get affected rows")
	}
	return n == 1, nil
}

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gopkg.in/reform.v1"

	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/engine/orchestrator"
)

var _ orchestrator.PaymentStore = (*PaymentsPostgres)(nil)

func NewPaymentsPostgres(db *reform.DB) *PaymentsPostgres {
	return &PaymentsPostgres{db: db}
}

type PaymentsPostgres struct {
	db *reform.DB
}

// Create inserts the pending payment. The partial unique index
// payments_one_pending_per_provider turns a concurrent duplicate into a
// unique violation, mapped to engine.ErrConflict.
func (s *PaymentsPostgres) Create(ctx context.Context, p *engine.Payment) error {
	if err := s.db.WithContext(ctx).Insert(p); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.Wrap(engine.ErrConflict, "pending payment already exists for this invoice and provider")
		}
		return errors.Wrap(err, "Failed insert payment")
	}
	return nil
}

func (s *PaymentsPostgres) GetByUUID(ctx context.Context, uid string) (*engine.Payment, error) {
	var p engine.Payment
	err := s.db.WithContext(ctx).SelectOneTo(&p, "WHERE uuid = $1", uid)
	if err != nil {
		if err == reform.ErrNoRows {
			return nil, errors.Wrap(engine.ErrNotFound, "payment not found")
		}
		return nil, errors.Wrap(err, "Failed get payment by uuid")
	}
	return &p, nil
}

// GetByProviderRef resolves a webhook reference. The lookup spans the
// provider family: flutterwave posts mpesa outcomes under its own name.
func (s *PaymentsPostgres) GetByProviderRef(ctx context.Context, prov engine.Provider, ref string) (*engine.Payment, error) {
	family := engine.ProviderFamily(prov)
	names := make([]string, len(family))
	for i, f := range family {
		names[i] = string(f)
	}
	var p engine.Payment
	err := s.db.WithContext(ctx).SelectOneTo(&p, "WHERE provider = ANY($1) AND provider_ref = $2", pq.Array(names), ref)
	if err != nil {
		if err == reform.ErrNoRows {
			return nil, errors.Wrap(engine.ErrNotFound, "payment not found for provider reference")
		}
		return nil, errors.Wrap(err, "Failed get payment by provider reference")
	}
	return &p, nil
}

func (s *PaymentsPostgres) AttachProviderSession(ctx context.Context, paymentID int64, ref, redirectURL string) error {
	var url *string
	if redirectURL != "" {
		url = &redirectURL
	}
	_, err := s.db.WithContext(ctx).Exec(
		`UPDATE payments
		SET provider_ref = $1, redirect_url = $2, updated_at = now()
		WHERE payment_id = $3`,
		ref,
		url,
		paymentID,
	)
	return errors.Wrap(err, "Failed attach provider session")
}

// Transition compare-and-set status update. The WHERE clause on the
// current status serializes concurrent reconciliations of one payment:
// exactly one UPDATE reports an affected row.
func (s *PaymentsPostgres) Transition(ctx context.Context, paymentID int64, from, to engine.PaymentStatus, reason *string) (bool, error) {
	if !engine.PaymentTransitionAllowed(from, to) {
		return false, nil
	}
	res, err := s.db.WithContext(ctx).Exec(
		`UPDATE payments
		SET status = $1, failure_reason = COALESCE($2, failure_reason), completed_at = now(), updated_at = now()
		WHERE payment_id = $3 AND status = $4`,
		to,
		reason,
		paymentID,
		from,
	)
	if err != nil {
		return false, errors.Wrap(err, "Failed transition payment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "Failed get affected rows")
	}
	return n == 1, nil
}

// ExpireStale moves pending payments older than the TTL to expired.
// Returns the number of payments swept.
func (s *PaymentsPostgres) ExpireStale(ctx context.Context, olderThan string) (int64, error) {
	res, err := s.db.WithContext(ctx).Exec(
		`UPDATE payments
		SET status = $1, updated_at = now(), completed_at = now()
		WHERE status = $2 AND created_at < now() - $3::interval`,
		engine.EXPIRED_P,
		engine.PENDING_P,
		olderThan,
	)
	if err != nil {
		return 0, errors.Wrap(err, "Failed expire stale payments")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "Failed get affected rows")
	}
	return n, nil
}

type ListFilter struct {
	Status    engine.PaymentStatus
	Provider  engine.Provider
	InvoiceID int64
	Limit     int
	Offset    int
}

// List staff-facing payment listing, newest first.
func (s *PaymentsPostgres) List(ctx context.Context, f ListFilter) ([]engine.Payment, int64, error) {
	conds := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Provider != engine.UNKNOWN_PROVIDER {
		args = append(args, f.Provider)
		conds = append(conds, fmt.Sprintf("provider = $%d", len(args)))
	}
	if f.InvoiceID != 0 {
		args = append(args, f.InvoiceID)
		conds = append(conds, fmt.Sprintf("invoice_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	err := s.db.WithContext(ctx).QueryRow(
		"SELECT COUNT(*) FROM payments "+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "Failed count payments")
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	tail := fmt.Sprintf("%s ORDER BY created_at DESC LIMIT $%d", where, len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		tail = fmt.Sprintf("%s OFFSET $%d", tail, len(args))
	}

	rows, err := s.db.WithContext(ctx).SelectAllFrom(engine.PaymentTable, tail, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "Failed list payments")
	}
	payments := make([]engine.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, *row.(*engine.Payment))
	}
	return payments, total, nil
}

type StatusStat struct {
	Count  int64
	Amount int64
}

type Stats struct {
	Total       int64
	TotalAmount int64
	ByStatus    map[engine.PaymentStatus]StatusStat
	ByProvider  map[engine.Provider]StatusStat
}

// Stats aggregate counters for the staff dashboard.
func (s *PaymentsPostgres) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		ByStatus:   make(map[engine.PaymentStatus]StatusStat),
		ByProvider: make(map[engine.Provider]StatusStat),
	}

	rows, err := s.db.WithContext(ctx).Query(
		`SELECT status, COUNT(*), COALESCE(SUM(amount), 0) FROM payments GROUP BY status`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "Failed query payment stats by status")
	}
	defer rows.Close()
	for rows.Next() {
		var status engine.PaymentStatus
		var stat StatusStat
		if err := rows.Scan(&status, &stat.Count, &stat.Amount); err != nil {
			return nil, errors.Wrap(err, "Failed scan payment stats")
		}
		st.ByStatus[status] = stat
		st.Total += stat.Count
		st.TotalAmount += stat.Amount
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "Failed iterate payment stats")
	}

	provRows, err := s.db.WithContext(ctx).Query(
		`SELECT provider, COUNT(*), COALESCE(SUM(amount), 0) FROM payments GROUP BY provider`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "Failed query payment stats by provider")
	}
	defer provRows.Close()
	for provRows.Next() {
		var prov engine.Provider
		var stat StatusStat
		if err := provRows.Scan(&prov, &stat.Count, &stat.Amount); err != nil {
			return nil, errors.Wrap(err, "Failed scan payment stats")
		}
		st.ByProvider[prov] = stat
	}
	if err := provRows.Err(); err != nil {
		return nil, errors.Wrap(err, "Failed iterate payment stats")
	}
	return st, nil
}

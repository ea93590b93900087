package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/provider"
)

// memStore in-memory implementation of the store interfaces, shared
// across them so the balance queries see the payments.
type memStore struct {
	mu       sync.Mutex
	invoices map[int64]*engine.Invoice
	payments map[int64]*engine.Payment
	events   map[string]*engine.WebhookEvent
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		invoices: map[int64]*engine.Invoice{},
		payments: map[int64]*engine.Payment{},
		events:   map[string]*engine.WebhookEvent{},
	}
}

func (m *memStore) addInvoice(inv *engine.Invoice) *engine.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	inv.InvoiceID = m.nextID
	m.invoices[inv.InvoiceID] = inv
	return inv
}

// invoiceStore and paymentStore give the shared memStore the two
// differently typed GetByUUID methods of the store interfaces.
type invoiceStore struct{ *memStore }

func (s invoiceStore) GetByUUID(ctx context.Context, uid string) (*engine.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.UUID == uid {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, pkgerrors.Wrap(engine.ErrNotFound, "invoice not found")
}

type paymentStore struct{ *memStore }

func (s paymentStore) GetByUUID(ctx context.Context, uid string) (*engine.Payment, error) {
	if p := s.PaymentByUUID(uid); p != nil {
		return p, nil
	}
	return nil, pkgerrors.Wrap(engine.ErrNotFound, "payment not found")
}

func (m *memStore) invoiceByUUID(uid string) *engine.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.UUID == uid {
			cp := *inv
			return &cp
		}
	}
	return nil
}

func (m *memStore) RemainingBalance(ctx context.Context, invoiceID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return 0, pkgerrors.Wrap(engine.ErrNotFound, "invoice not found")
	}
	balance := inv.Total
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID && p.Status.Match(engine.SUCCEEDED_P) {
			balance -= p.Amount
		}
	}
	return balance, nil
}

func (m *memStore) MarkPaid(ctx context.Context, invoiceID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return false, pkgerrors.Wrap(engine.ErrNotFound, "invoice not found")
	}
	if !inv.Status.Payable() {
		return false, nil
	}
	inv.Status = engine.PAID_I
	now := time.Now()
	inv.PaidAt = &now
	return true, nil
}

func (m *memStore) Create(ctx context.Context, p *engine.Payment) error {
	if err := p.BeforeInsert(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.payments {
		if other.InvoiceID == p.InvoiceID && other.Provider.Match(p.Provider) && other.Status.Match(engine.PENDING_P) {
			return pkgerrors.Wrap(engine.ErrConflict, "pending payment already exists for this invoice and provider")
		}
	}
	m.nextID++
	p.PaymentID = m.nextID
	cp := *p
	m.payments[p.PaymentID] = &cp
	return nil
}

func (m *memStore) PaymentByUUID(uid string) *engine.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.UUID == uid {
			cp := *p
			return &cp
		}
	}
	return nil
}

func (m *memStore) GetByProviderRef(ctx context.Context, prov engine.Provider, ref string) (*engine.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ProviderRef == nil || *p.ProviderRef != ref {
			continue
		}
		for _, f := range engine.ProviderFamily(prov) {
			if p.Provider.Match(f) {
				cp := *p
				return &cp, nil
			}
		}
	}
	return nil, pkgerrors.Wrap(engine.ErrNotFound, "payment not found for provider reference")
}

func (m *memStore) AttachProviderSession(ctx context.Context, paymentID int64, ref, redirectURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok {
		return pkgerrors.Wrap(engine.ErrNotFound, "payment not found")
	}
	p.ProviderRef = &ref
	if redirectURL != "" {
		p.RedirectURL = &redirectURL
	}
	return nil
}

func (m *memStore) Transition(ctx context.Context, paymentID int64, from, to engine.PaymentStatus, reason *string) (bool, error) {
	if !engine.PaymentTransitionAllowed(from, to) {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok {
		return false, pkgerrors.Wrap(engine.ErrNotFound, "payment not found")
	}
	if !p.Status.Match(from) {
		return false, nil
	}
	p.Status = to
	if reason != nil {
		p.FailureReason = reason
	}
	now := time.Now()
	p.CompletedAt = &now
	return true, nil
}

func (m *memStore) Applied(ctx context.Context, key string) (*engine.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.events[key]; ok {
		cp := *ev
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) MarkApplied(ctx context.Context, ev *engine.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[ev.IdemKey]; !ok {
		cp := *ev
		m.events[ev.IdemKey] = &cp
	}
	return nil
}

var (
	_ InvoiceStore = invoiceStore{}
	_ PaymentStore = paymentStore{}
	_ EventStore   = (*memStore)(nil)
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []int64
}

func (n *recordingNotifier) SendReceipt(invoiceID, paymentID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, paymentID)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type fakeGateway struct {
	name    engine.Provider
	session *provider.Session
	err     error
}

func (g *fakeGateway) Name() engine.Provider { return g.name }

func (g *fakeGateway) CreateSession(ctx context.Context, params provider.CreateSessionParams) (*provider.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.session != nil {
		return g.session, nil
	}
	return &provider.Session{
		ProviderRef: "ref-" + params.PaymentUUID,
		RedirectURL: "https://checkout.example/" + params.PaymentUUID,
	}, nil
}

func (g *fakeGateway) SignatureHeader() string { return "X-Test-Signature" }

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*engine.ProviderEvent, error) {
	return nil, nil
}

func setup(t *testing.T, gw provider.Gateway) (*Orchestrator, *memStore, *recordingNotifier) {
	t.Helper()
	m := newMemStore()
	n := &recordingNotifier{}
	reg := provider.Registry{}
	reg.Register(gw)
	orc := New(Config{
		PublicBaseURL:  "https://pay.wasatfoundation.org",
		SessionTimeout: time.Second,
	}, invoiceStore{m}, paymentStore{m}, m, reg, n)
	return orc, m, n
}

func sentInvoice(m *memStore, total int64) *engine.Invoice {
	return m.addInvoice(&engine.Invoice{
		UUID:     "inv-uuid-1",
		Number:   "INV-2026-0001",
		Currency: engine.USD,
		Total:    total,
		Status:   engine.SENT_I,
	})
}

func TestInitiate(t *testing.T) {
	orc, m, _ := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := sentInvoice(m, 50000)

	pay, err := orc.Initiate(context.Background(), inv.UUID, engine.STRIPE, Payer{Email: "donor@example.org"})
	require.NoError(t, err)
	assert.Equal(t, engine.PENDING_P, pay.Status)
	assert.Equal(t, int64(50000), pay.Amount)
	assert.Equal(t, engine.USD, pay.Currency)
	require.NotNil(t, pay.ProviderRef)
	assert.Equal(t, "ref-"+pay.UUID, *pay.ProviderRef)
	require.NotNil(t, pay.RedirectURL)

	stored := m.PaymentByUUID(pay.UUID)
	require.NotNil(t, stored)
	assert.Equal(t, engine.PENDING_P, stored.Status)
}

func TestInitiate_UnsupportedProvider(t *testing.T) {
	orc, m, _ := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := sentInvoice(m, 50000)

	_, err := orc.Initiate(context.Background(), inv.UUID, engine.FLUTTERWAVE, Payer{})
	assert.True(t, errors.Is(err, engine.ErrValidation))
}

func TestInitiate_NotPayable(t *testing.T) {
	orc, m, _ := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := m.addInvoice(&engine.Invoice{
		UUID:     "inv-uuid-draft",
		Number:   "INV-2026-0002",
		Currency: engine.USD,
		Total:    1000,
		Status:   engine.DRAFT_I,
	})

	_, err := orc.Initiate(context.Background(), inv.UUID, engine.STRIPE, Payer{})
	assert.True(t, errors.Is(err, engine.ErrValidation))
}

func TestInitiate_SecondPendingConflicts(t *testing.T) {
	orc, m, _ := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := sentInvoice(m, 50000)

	_, err := orc.Initiate(context.Background(), inv.UUID, engine.STRIPE, Payer{})
	require.NoError(t, err)
	_, err = orc.Initiate(context.Background(), inv.UUID, engine.STRIPE, Payer{})
	assert.True(t, errors.Is(err, engine.ErrConflict))
}

func TestInitiate_GatewayFailure(t *testing.T) {
	orc, m, _ := setup(t, &fakeGateway{name: engine.STRIPE, err: errors.New("api unavailable")})
	inv := sentInvoice(m, 50000)

	_, err := orc.Initiate(context.Background(), inv.UUID, engine.STRIPE, Payer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrProvider))

	// The failed attempt is kept for audit and no longer blocks the
	// pending slot.
	var failed *engine.Payment
	m.mu.Lock()
	for _, p := range m.payments {
		failed = p
	}
	m.mu.Unlock()
	require.NotNil(t, failed)
	assert.Equal(t, engine.FAILED_P, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "api unavailable", *failed.FailureReason)

	_, err = orc.Initiate(context.Background(), inv.UUID, engine.STRIPE, Payer{})
	require.True(t, errors.Is(err, engine.ErrProvider))
}

func initiated(t *testing.T, orc *Orchestrator, invUUID string) *engine.Payment {
	t.Helper()
	pay, err := orc.Initiate(context.Background(), invUUID, engine.STRIPE, Payer{Email: "donor@example.org"})
	require.NoError(t, err)
	return pay
}

func successEvent(ref string) *engine.ProviderEvent {
	return &engine.ProviderEvent{
		Provider: engine.STRIPE,
		Ref:      ref,
		Type:     "checkout.session.completed",
		Kind:     engine.EVENT_SUCCEEDED,
	}
}

func TestReconcileWebhook_Success(t *testing.T) {
	orc, m, n := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := sentInvoice(m, 50000)
	pay := initiated(t, orc, inv.UUID)

	res, err := orc.ReconcileWebhook(context.Background(), successEvent(*pay.ProviderRef))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, engine.SUCCEEDED_P, res.Status)
	assert.True(t, res.InvoicePaid)

	stored := m.PaymentByUUID(pay.UUID)
	assert.Equal(t, engine.SUCCEEDED_P, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	got := m.invoiceByUUID(inv.UUID)
	require.NotNil(t, got)
	assert.Equal(t, engine.PAID_I, got.Status)
	require.NotNil(t, got.PaidAt)

	assert.Equal(t, 1, n.count())
}

func TestReconcileWebhook_Redelivery(t *testing.T) {
	orc, m, n := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := sentInvoice(m, 50000)
	pay := initiated(t, orc, inv.UUID)

	ev := successEvent(*pay.ProviderRef)
	res, err := orc.ReconcileWebhook(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, res.Outcome)

	res, err = orc.ReconcileWebhook(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Equal(t, engine.SUCCEEDED_P, res.Status)

	assert.Equal(t, 1, n.count())
}

func TestReconcileWebhook_FailedEvent(t *testing.T) {
	orc, m, n := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := sentInvoice(m, 50000)
	pay := initiated(t, orc, inv.UUID)

	reason := "card declined"
	res, err := orc.ReconcileWebhook(context.Background(), &engine.ProviderEvent{
		Provider: engine.STRIPE,
		Ref:      *pay.ProviderRef,
		Type:     "checkout.session.async_payment_failed",
		Kind:     engine.EVENT_FAILED,
		Reason:   &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, engine.FAILED_P, res.Status)
	assert.False(t, res.InvoicePaid)

	stored := m.PaymentByUUID(pay.UUID)
	assert.Equal(t, engine.FAILED_P, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Equal(t, reason, *stored.FailureReason)

	got := m.invoiceByUUID(inv.UUID)
	require.NotNil(t, got)
	assert.Equal(t, engine.SENT_I, got.Status)
	assert.Equal(t, 0, n.count())
}

func TestReconcileWebhook_ConflictAfterTerminal(t *testing.T) {
	orc, m, _ := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := sentInvoice(m, 50000)
	pay := initiated(t, orc, inv.UUID)

	res, err := orc.ReconcileWebhook(context.Background(), successEvent(*pay.ProviderRef))
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, res.Outcome)

	// A contradicting event arrives later under its own idempotency
	// key. It is absorbed, the terminal status stays.
	res, err = orc.ReconcileWebhook(context.Background(), &engine.ProviderEvent{
		Provider: engine.STRIPE,
		Ref:      *pay.ProviderRef,
		Type:     "checkout.session.expired",
		Kind:     engine.EVENT_EXPIRED,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConflict, res.Outcome)
	assert.Equal(t, engine.SUCCEEDED_P, res.Status)

	stored := m.PaymentByUUID(pay.UUID)
	assert.Equal(t, engine.SUCCEEDED_P, stored.Status)
}

func TestReconcileWebhook_MpesaUnderFlutterwaveName(t *testing.T) {
	// Flutterwave posts every account event to one webhook URL, so an
	// mpesa payment outcome arrives stamped with the flutterwave name.
	orc, m, n := setup(t, &fakeGateway{name: engine.MPESA})
	inv := sentInvoice(m, 50000)
	pay, err := orc.Initiate(context.Background(), inv.UUID, engine.MPESA, Payer{})
	require.NoError(t, err)

	res, err := orc.ReconcileWebhook(context.Background(), &engine.ProviderEvent{
		Provider: engine.FLUTTERWAVE,
		Ref:      *pay.ProviderRef,
		Type:     "charge.completed.successful",
		Kind:     engine.EVENT_SUCCEEDED,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, engine.SUCCEEDED_P, res.Status)
	assert.True(t, res.InvoicePaid)

	stored := m.PaymentByUUID(pay.UUID)
	assert.Equal(t, engine.MPESA, stored.Provider)
	assert.Equal(t, engine.SUCCEEDED_P, stored.Status)
	assert.Equal(t, 1, n.count())
}

func TestReconcileWebhook_UnknownRef(t *testing.T) {
	orc, m, _ := setup(t, &fakeGateway{name: engine.STRIPE})
	sentInvoice(m, 50000)

	_, err := orc.ReconcileWebhook(context.Background(), successEvent("no-such-ref"))
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

func TestReconcileWebhook_ConcurrentDeliveries(t *testing.T) {
	orc, m, n := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := sentInvoice(m, 50000)
	pay := initiated(t, orc, inv.UUID)

	const workers = 16
	outcomes := make(chan Outcome, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := orc.ReconcileWebhook(context.Background(), successEvent(*pay.ProviderRef))
			if !assert.NoError(t, err) {
				return
			}
			outcomes <- res.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	applied := 0
	for o := range outcomes {
		if o == OutcomeApplied {
			applied++
		}
	}
	assert.Equal(t, 1, applied, "exactly one delivery applies the transition")

	stored := m.PaymentByUUID(pay.UUID)
	assert.Equal(t, engine.SUCCEEDED_P, stored.Status)
	got := m.invoiceByUUID(inv.UUID)
	require.NotNil(t, got)
	assert.Equal(t, engine.PAID_I, got.Status)
	assert.Equal(t, 1, n.count(), "receipt sent exactly once")
}

func TestPollStatus(t *testing.T) {
	orc, m, _ := setup(t, &fakeGateway{name: engine.STRIPE})
	inv := sentInvoice(m, 50000)
	pay := initiated(t, orc, inv.UUID)

	got, err := orc.PollStatus(context.Background(), pay.UUID)
	require.NoError(t, err)
	assert.Equal(t, engine.PENDING_P, got.Status)

	_, err = orc.PollStatus(context.Background(), "missing")
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

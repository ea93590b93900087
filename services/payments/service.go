// Package payments exposes the HTTP surface of the payment service:
// initiation, provider webhooks and staff-facing read endpoints.
package payments

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/engine/orchestrator"
	"github.com/walsatpay/walsatpay/provider"
	"github.com/walsatpay/walsatpay/store"
)

var (
	initiatedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walsatpay",
		Subsystem: "payments",
		Name:      "initiated_total",
		Help:      "Payment initiations by provider and result.",
	}, []string{"provider", "result"})

	webhookCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walsatpay",
		Subsystem: "payments",
		Name:      "webhooks_total",
		Help:      "Webhook deliveries by provider and outcome.",
	}, []string{"provider", "outcome"})
)

func init() {
	prometheus.MustRegister(initiatedCounter, webhookCounter)
}

// PaymentDirectory staff-facing read queries over recorded payments.
type PaymentDirectory interface {
	List(ctx context.Context, f store.ListFilter) ([]engine.Payment, int64, error)
	Stats(ctx context.Context) (*store.Stats, error)
}

func NewService(orc *orchestrator.Orchestrator, payments PaymentDirectory, reg provider.Registry) *Service {
	return &Service{
		orc:      orc,
		payments: payments,
		reg:      reg,
		l:        zap.L().Named("payments_service"),
	}
}

type Service struct {
	orc      *orchestrator.Orchestrator
	payments PaymentDirectory
	reg      provider.Registry
	l        *zap.Logger
}

// Register mounts the routes on the echo instance.
func (s *Service) Register(e *echo.Echo) {
	api := e.Group("/api/payments")
	api.POST("/initiate", s.initiateHandler)
	api.POST("/webhook/:provider", s.webhookHandler)
	api.GET("", s.listHandler)
	api.GET("/stats", s.statsHandler)
	api.GET("/:uuid", s.statusHandler)
}

type initiateRequest struct {
	InvoiceUUID string `json:"invoice_uuid"`
	Provider    string `json:"provider"`
	PayerEmail  string `json:"payer_email"`
	PayerName   string `json:"payer_name"`
	PayerPhone  string `json:"payer_phone"`
}

type paymentResponse struct {
	UUID          string  `json:"uuid"`
	Provider      string  `json:"provider"`
	Status        string  `json:"status"`
	Amount        int64   `json:"amount"`
	Currency      string  `json:"currency"`
	RedirectURL   *string `json:"redirect_url,omitempty"`
	ProviderRef   *string `json:"provider_ref,omitempty"`
	FailureReason *string `json:"failure_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
	CompletedAt   *string `json:"completed_at,omitempty"`
}

func toPaymentResponse(p *engine.Payment) paymentResponse {
	resp := paymentResponse{
		UUID:        p.UUID,
		Provider:    string(p.Provider),
		Status:      string(p.Status),
		Amount:      p.Amount,
		Currency:    string(p.Currency),
		RedirectURL: p.RedirectURL,
		ProviderRef: p.ProviderRef,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	if p.FailureReason != nil {
		resp.FailureReason = p.FailureReason
	}
	if p.CompletedAt != nil {
		v := p.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &v
	}
	return resp
}

func (s *Service) initiateHandler(c echo.Context) error {
	var req initiateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad request body"})
	}
	if req.InvoiceUUID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invoice_uuid is required"})
	}
	prov := engine.Provider(req.Provider)
	if !prov.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported provider"})
	}

	pay, err := s.orc.Initiate(c.Request().Context(), req.InvoiceUUID, prov, orchestrator.Payer{
		Email: req.PayerEmail,
		Name:  req.PayerName,
		Phone: req.PayerPhone,
	})
	if err != nil {
		initiatedCounter.WithLabelValues(string(prov), "error").Inc()
		return s.errorResponse(c, err)
	}
	initiatedCounter.WithLabelValues(string(prov), "ok").Inc()
	return c.JSON(http.StatusCreated, toPaymentResponse(pay))
}

// webhookHandler receives provider deliveries. The raw body is needed
// for signature verification, so the payload is read before any parsing.
// Duplicates and conflicts answer 200: providers retry anything else.
func (s *Service) webhookHandler(c echo.Context) error {
	prov := engine.Provider(c.Param("provider"))
	gw := s.reg.Get(prov)
	if gw == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		s.l.Warn("Failed read webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed read body"})
	}

	ev, err := gw.ParseWebhook(payload, c.Request().Header.Get(gw.SignatureHeader()))
	if err != nil {
		webhookCounter.WithLabelValues(string(prov), "rejected").Inc()
		return s.errorResponse(c, err)
	}
	if ev == nil {
		// Event type we do not track. Acknowledge so the provider
		// stops redelivering.
		webhookCounter.WithLabelValues(string(prov), "ignored").Inc()
		return c.JSON(http.StatusOK, echo.Map{"outcome": "ignored"})
	}

	res, err := s.orc.ReconcileWebhook(c.Request().Context(), ev)
	if err != nil {
		webhookCounter.WithLabelValues(string(prov), "error").Inc()
		return s.errorResponse(c, err)
	}
	webhookCounter.WithLabelValues(string(prov), string(res.Outcome)).Inc()
	return c.JSON(http.StatusOK, echo.Map{
		"outcome":      string(res.Outcome),
		"status":       string(res.Status),
		"payment_uuid": res.PaymentUUID,
		"invoice_paid": res.InvoicePaid,
	})
}

func (s *Service) statusHandler(c echo.Context) error {
	pay, err := s.orc.PollStatus(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResponse(pay))
}

func (s *Service) listHandler(c echo.Context) error {
	f := store.ListFilter{
		Status:   engine.PaymentStatus(c.QueryParam("status")),
		Provider: engine.Provider(c.QueryParam("provider")),
	}
	if v := c.QueryParam("invoice_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad invoice_id"})
		}
		f.InvoiceID = id
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad limit"})
		}
		f.Limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad offset"})
		}
		f.Offset = n
	}

	list, total, err := s.payments.List(c.Request().Context(), f)
	if err != nil {
		return s.errorResponse(c, err)
	}
	items := make([]paymentResponse, 0, len(list))
	for i := range list {
		items = append(items, toPaymentResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"items": items,
	})
}

func (s *Service) statsHandler(c echo.Context) error {
	st, err := s.payments.Stats(c.Request().Context())
	if err != nil {
		return s.errorResponse(c, err)
	}
	byStatus := make(map[string]echo.Map, len(st.ByStatus))
	for status, stat := range st.ByStatus {
		byStatus[string(status)] = echo.Map{"count": stat.Count, "amount": stat.Amount}
	}
	byProvider := make(map[string]echo.Map, len(st.ByProvider))
	for prov, stat := range st.ByProvider {
		byProvider[string(prov)] = echo.Map{"count": stat.Count, "amount": stat.Amount}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total":        st.Total,
		"total_amount": st.TotalAmount,
		"by_status":    byStatus,
		"by_provider":  byProvider,
	})
}

// errorResponse maps engine sentinels to HTTP statuses.
func (s *Service) errorResponse(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, engine.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case stderrors.Is(err, engine.ErrAuthentication):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication failed"})
	case stderrors.Is(err, engine.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case stderrors.Is(err, engine.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case stderrors.Is(err, engine.ErrProvider):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	}
	s.l.Error("Internal error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

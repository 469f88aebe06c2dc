package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/clock"
	"invoicepro/internal/core/entity"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/numerator"
	"invoicepro/internal/core/tx"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain"
	"invoicepro/internal/domain/audit"
	"invoicepro/internal/domain/auth"
	"invoicepro/internal/domain/catalogs/client"
	"invoicepro/internal/domain/catalogs/product"
	"invoicepro/internal/domain/documents/invoice"
	"invoicepro/internal/domain/documents/payment"
	"invoicepro/internal/domain/documents/quotation"
	"invoicepro/internal/domain/reports"
	"invoicepro/internal/infrastructure/http/v1/dto"
	"invoicepro/internal/infrastructure/http/v1/handlers"
	"invoicepro/internal/infrastructure/http/v1/middleware"
	"invoicepro/internal/infrastructure/storage/postgres"
	"invoicepro/pkg/logger"
)

var today = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

type clientRepo struct{ rows map[id.ID]*client.Client }

func (r *clientRepo) GetByID(_ context.Context, accountID, clientID id.ID) (*client.Client, error) {
	c, ok := r.rows[clientID]
	if !ok || c.AccountID != accountID {
		return nil, apperror.NewNotFound(client.EntityName, clientID)
	}
	return c, nil
}

func (r *clientRepo) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*client.Client], error) {
	var out []*client.Client
	for _, c := range r.rows {
		if c.AccountID == f.AccountID {
			out = append(out, c)
		}
	}
	return domain.ListResult[*client.Client]{Items: out, TotalCount: int64(len(out)), Limit: f.Limit}, nil
}

type productRepo struct{ rows map[id.ID]*product.Product }

func (r *productRepo) GetByID(_ context.Context, accountID, productID id.ID) (*product.Product, error) {
	p, ok := r.rows[productID]
	if !ok || p.AccountID != accountID {
		return nil, apperror.NewNotFound(product.EntityName, productID)
	}
	return p, nil
}

func (r *productRepo) List(_ context.Context, f product.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

type staticDashboard struct{ d reports.Dashboard }

func (s staticDashboard) GetDashboard(context.Context, id.ID) (*reports.Dashboard, error) {
	d := s.d
	return &d, nil
}

// memoryIdempotency replays completed keys without hashing checks.
type memoryIdempotency struct {
	mu       sync.Mutex
	done     map[string]*postgres.IdempotencyReplay
	released []string
}

func (m *memoryIdempotency) AcquireKey(_ context.Context, accountID id.ID, key, _, _ string) (*postgres.IdempotencyReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done[accountID.String()+key], nil
}

func (m *memoryIdempotency) CompleteKey(_ context.Context, accountID id.ID, key string, status int, contentType string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[accountID.String()+key] = &postgres.IdempotencyReplay{StatusCode: status, ContentType: contentType, Body: bytes.Clone(body)}
	return nil
}

func (m *memoryIdempotency) ReleaseKey(_ context.Context, _ id.ID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, key)
	return nil
}

type apiFixture struct {
	router   *gin.Engine
	token    string
	account  id.ID
	clientID id.ID
	product  id.ID
	idem     *memoryIdempotency
	payments *payment.MemoryRepository
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, dto.RegisterValidators())

	f := &apiFixture{
		account:  id.New(),
		clientID: id.New(),
		product:  id.New(),
		idem:     &memoryIdempotency{done: map[string]*postgres.IdempotencyReplay{}},
		payments: payment.NewMemoryRepository(),
	}
	clk := clock.NewFixed(today)
	recorder := &audit.MemoryRecorder{}
	gen := &numerator.MockGenerator{}

	acme := &client.Client{BaseDocument: entity.NewBaseDocument(f.account, today), Name: "Acme"}
	acme.ID = f.clientID
	clients := client.NewService(&clientRepo{rows: map[id.ID]*client.Client{f.clientID: acme}})

	prod := &product.Product{
		BaseDocument:   entity.NewBaseDocument(f.account, today),
		Name:           "Consulting hour",
		UnitPrice:      types.MustMoney("100.00"),
		TaxRatePercent: types.MustMoney("10"),
		Currency:       "USD",
		IsActive:       true,
	}
	prod.ID = f.product

	invRepo := invoice.NewMemoryRepository()
	invoices := invoice.NewService(invRepo, gen, tx.NoopManager{}, clk, recorder)
	quotations := quotation.NewService(quotation.Deps{
		Repo:      quotation.NewMemoryRepository(),
		Invoices:  invoices,
		Numerator: gen,
		TxManager: tx.NoopManager{},
		Clock:     clk,
		Audit:     recorder,
	})
	payments := payment.NewService(f.payments, invRepo, tx.NoopManager{}, clk, recorder)

	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	token, _, err := jwtSvc.GenerateAccessToken(f.account, "user-1", "", "owner")
	require.NoError(t, err)
	f.token = token

	f.router = NewRouter(RouterConfig{
		Logger:       logger.Default(),
		JWTValidator: jwtSvc,
		Clock:        clk,
		Services: Services{
			Quotations: quotations,
			Invoices:   invoices,
			Payments:   payments,
			Clients:    clients,
			Products:   product.NewService(&productRepo{rows: map[id.ID]*product.Product{f.product: prod}}),
			Dashboard:  staticDashboard{d: reports.Dashboard{ConversionRate: 0.5}},
			History:    recorder,
		},
		Idempotency: f.idem,
		HealthChecks: map[string]handlers.Check{
			"database": func(context.Context) error { return nil },
		},
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[middleware.ErrorBody](t, w).Error.Code
}

// Two consulting lines, the second zero-rated, plus 10.00 shipping: 409.00.
func (f *apiFixture) documentBody() map[string]any {
	return map[string]any{
		"clientId":       f.clientID,
		"issueDate":      "2026-04-01",
		"currency":       "USD",
		"shippingCharge": "10.00",
		"items": []map[string]any{
			{"description": "Consulting", "quantity": 2, "unitPrice": "100.00", "taxRate": "10", "discount": "5"},
			{"description": "Consulting", "quantity": 2, "unitPrice": "100.00", "taxRate": "0", "discount": "5"},
		},
	}
}

func TestHealth(t *testing.T) {
	f := newAPI(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	failing := NewRouter(RouterConfig{
		Logger: logger.Default(),
		HealthChecks: map[string]handlers.Check{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		},
	})
	w = httptest.NewRecorder()
	failing.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestAuthRequired(t *testing.T) {
	f := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotations", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, errorCode(t, w))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/quotations", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuotationToPaidInvoice(t *testing.T) {
	f := newAPI(t)

	body := f.documentBody()
	body["expiryDate"] = "2026-04-30"
	body["send"] = true
	w := f.do(t, http.MethodPost, "/api/v1/quotations", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	q := decode[quotation.Quotation](t, w)
	assert.Equal(t, quotation.StatusSent, q.Status)
	assert.Equal(t, types.MinorUnits(40900), q.GrandTotal)

	w = f.do(t, http.MethodPost, "/api/v1/quotations/"+q.ID.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/quotations/"+q.ID.String()+"/convert-to-invoice", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	conv := decode[dto.ConversionResponse](t, w)
	assert.Equal(t, quotation.StatusConverted, conv.Quotation.Status)
	assert.Equal(t, invoice.StatusDraft, conv.Invoice.Status)
	assert.Equal(t, q.GrandTotal, conv.Invoice.GrandTotal)
	invID := conv.Invoice.ID.String()

	// Converting twice is an invalid transition.
	w = f.do(t, http.MethodPost, "/api/v1/quotations/"+q.ID.String()+"/convert-to-invoice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInvalidTransition, errorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/invoices/"+invID+"/send", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/invoices/"+invID+"/mark-paid", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[payment.Result](t, w)
	assert.Equal(t, invoice.StatusPaid, res.Invoice.Status)
	assert.Equal(t, types.MinorUnits(0), res.Invoice.AmountDue)
	assert.Equal(t, payment.MethodBankTransfer, res.Payment.Method)

	w = f.do(t, http.MethodGet, "/api/v1/invoices/"+invID+"/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Items []payment.Payment `json:"items"`
	}](t, w)
	assert.Len(t, list.Items, 1)

	w = f.do(t, http.MethodGet, "/api/v1/quotations/"+q.ID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[struct {
		Items []audit.Record `json:"items"`
	}](t, w)
	require.NotEmpty(t, hist.Items)
	assert.Equal(t, audit.ActionConvert, hist.Items[0].Action)
}

func TestCreateValidation(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, http.MethodPost, "/api/v1/invoices", map[string]any{"currency": "usd"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, errorCode(t, w))

	body := f.documentBody()
	body["currency"] = "XYZ"
	w = f.do(t, http.MethodPost, "/api/v1/invoices", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = f.documentBody()
	body["clientId"] = id.New()
	w = f.do(t, http.MethodPost, "/api/v1/invoices", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/invoices/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceDueDateDefaultsToTerms(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, http.MethodPost, "/api/v1/invoices", f.documentBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[invoice.Invoice](t, w)
	assert.Equal(t, "2026-05-01", inv.DueDate.Format("2006-01-02"))
}

func TestAmountsBeyondMinorUnitRange(t *testing.T) {
	f := newAPI(t)

	body := f.documentBody()
	body["items"] = []map[string]any{{"description": "x", "quantity": 1000, "unitPrice": "100000000000000000"}}
	w := f.do(t, http.MethodPost, "/api/v1/totals/preview", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInvalidLineItem, errorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/invoices", f.documentBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[invoice.Invoice](t, w)
	w = f.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/send", nil)
	require.Equal(t, http.StatusOK, w.Code)

	pay := map[string]any{"invoiceId": inv.ID, "amount": "184467440737095516.17", "method": "cash"}
	w = f.do(t, http.MethodPost, "/api/v1/payments", pay)
	assert.Equal(t, apperror.CodeInvalidAmount, errorCode(t, w))
}

func TestTotalsPreview(t *testing.T) {
	f := newAPI(t)

	body := f.documentBody()
	body["items"] = append(body["items"].([]map[string]any), map[string]any{"productId": f.product, "quantity": 1})
	w := f.do(t, http.MethodPost, "/api/v1/totals/preview", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[dto.TotalsPreviewResponse](t, w)
	// 409.00 plus one catalog hour at 100.00 with 10% tax.
	assert.Equal(t, types.MinorUnits(51900), res.Totals.GrandTotal)
	assert.Equal(t, "519.00", res.Formatted["grandTotal"])
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Consulting hour", res.Items[2].Description)

	body["items"] = []map[string]any{{"description": "x", "quantity": 0, "unitPrice": "1.00"}}
	w = f.do(t, http.MethodPost, "/api/v1/totals/preview", body)
	assert.Equal(t, apperror.CodeInvalidLineItem, errorCode(t, w))
}

func TestPaymentIdempotency(t *testing.T) {
	f := newAPI(t)

	body := f.documentBody()
	body["dueDate"] = "2026-05-01"
	w := f.do(t, http.MethodPost, "/api/v1/invoices", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[invoice.Invoice](t, w)
	w = f.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/send", nil)
	require.Equal(t, http.StatusOK, w.Code)

	pay := map[string]any{"invoiceId": inv.ID, "amount": "100.00", "method": "cash"}
	first := f.do(t, http.MethodPost, "/api/v1/payments", pay, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := f.do(t, http.MethodPost, "/api/v1/payments", pay, "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	res, err := f.payments.List(context.Background(), payment.ListFilter{ListFilter: domain.DefaultListFilter(f.account)})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	// Rejections are stored and replayed too.
	over := map[string]any{"invoiceId": inv.ID, "amount": "1000.00", "method": "cash"}
	w = f.do(t, http.MethodPost, "/api/v1/payments", over, "Idempotency-Key", "k-2")
	assert.Equal(t, apperror.CodeOverpaymentRejected, errorCode(t, w))
	w = f.do(t, http.MethodPost, "/api/v1/payments", over, "Idempotency-Key", "k-2")
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	assert.Empty(t, f.idem.released)
}

func TestDashboard(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[reports.Dashboard](t, w)
	assert.InDelta(t, 0.5, d.ConversionRate, 1e-9)
}

func TestTracingSpanPerRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	router := NewRouter(RouterConfig{Logger: logger.Default(), Tracing: true})

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, traceID, w.Header().Get(middleware.HeaderTraceID))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, traceID, spans[0].SpanContext().TraceID().String())
}

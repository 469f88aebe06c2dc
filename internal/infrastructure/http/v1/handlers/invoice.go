package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
	"invoicepro/internal/domain/documents/invoice"
	"invoicepro/internal/domain/documents/payment"
	"invoicepro/internal/infrastructure/http/v1/dto"
)

// InvoiceService is implemented by invoice.Service.
type InvoiceService interface {
	Create(ctx context.Context, accountID id.ID, d invoice.Draft) (*invoice.Invoice, error)
	Get(ctx context.Context, accountID, invoiceID id.ID) (*invoice.Invoice, error)
	List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error)
	Update(ctx context.Context, accountID, invoiceID id.ID, d invoice.Draft, expectedVersion int) (*invoice.Invoice, error)
	Delete(ctx context.Context, accountID, invoiceID id.ID) error
	Send(ctx context.Context, accountID, invoiceID id.ID) (*invoice.Invoice, error)
	Cancel(ctx context.Context, accountID, invoiceID id.ID) (*invoice.Invoice, error)
}

// InvoicePayments is the part of payment.Service the invoice routes use.
type InvoicePayments interface {
	SettleInvoice(ctx context.Context, accountID, invoiceID id.ID, method payment.Method, reference string) (*payment.Result, error)
	ListByInvoice(ctx context.Context, accountID, invoiceID id.ID) ([]*payment.Payment, error)
}

// DefaultSettleMethod is recorded by mark-paid when the body names none.
const DefaultSettleMethod = payment.MethodBankTransfer

// InvoiceHandler serves /invoices.
type InvoiceHandler struct {
	*BaseHandler
	service  InvoiceService
	payments InvoicePayments
	docs     *DocumentSupport
}

func NewInvoiceHandler(base *BaseHandler, service InvoiceService, payments InvoicePayments, docs *DocumentSupport) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service, payments: payments, docs: docs}
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	var q dto.InvoiceListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.service.List(c.Request.Context(), q.ToFilter(accountID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	action(h.BaseHandler, c, h.service.Get)
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	var req dto.InvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	items, err := h.docs.prepare(ctx, accountID, &req.DocumentRequest)
	if err != nil {
		h.Error(c, err)
		return
	}
	inv, err := h.service.Create(ctx, accountID, req.ToDraft(items))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, inv)
}

// Update handles PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	accountID, invoiceID, ok := h.Target(c)
	if !ok {
		return
	}
	var req dto.InvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	items, err := h.docs.prepare(ctx, accountID, &req.DocumentRequest)
	if err != nil {
		h.Error(c, err)
		return
	}
	inv, err := h.service.Update(ctx, accountID, invoiceID, req.ToDraft(items), req.Version)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// Delete handles DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	accountID, invoiceID, ok := h.Target(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), accountID, invoiceID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *InvoiceHandler) Send(c *gin.Context)   { action(h.BaseHandler, c, h.service.Send) }
func (h *InvoiceHandler) Cancel(c *gin.Context) { action(h.BaseHandler, c, h.service.Cancel) }

// MarkPaid handles POST /invoices/:id/mark-paid. It records a completed
// payment for the outstanding amount.
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	accountID, invoiceID, ok := h.Target(c)
	if !ok {
		return
	}
	var req dto.MarkPaidRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	method := payment.Method(req.Method)
	if method == "" {
		method = DefaultSettleMethod
	}
	res, err := h.payments.SettleInvoice(c.Request.Context(), accountID, invoiceID, method, req.TransactionReference)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Payments handles GET /invoices/:id/payments
func (h *InvoiceHandler) Payments(c *gin.Context) {
	accountID, invoiceID, ok := h.Target(c)
	if !ok {
		return
	}
	list, err := h.payments.ListByInvoice(c.Request.Context(), accountID, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if list == nil {
		list = []*payment.Payment{}
	}
	h.OK(c, gin.H{"items": list})
}

// History handles GET /invoices/:id/history
func (h *InvoiceHandler) History(c *gin.Context) {
	h.docs.history(c, h.BaseHandler, invoice.EntityName, func(ctx context.Context, accountID, docID id.ID) error {
		_, err := h.service.Get(ctx, accountID, docID)
		return err
	})
}

// RegisterRoutes registers invoice routes.
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/history", h.History)
	rg.GET("/:id/payments", h.Payments)
	rg.POST("/:id/send", h.Send)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/mark-paid", h.MarkPaid)
}

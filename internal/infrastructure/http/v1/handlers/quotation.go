package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
	"invoicepro/internal/domain/documents/invoice"
	"invoicepro/internal/domain/documents/quotation"
	"invoicepro/internal/infrastructure/http/v1/dto"
)

// QuotationService is implemented by quotation.Service.
type QuotationService interface {
	Create(ctx context.Context, accountID id.ID, d quotation.Draft, send bool) (*quotation.Quotation, error)
	Get(ctx context.Context, accountID, quotationID id.ID) (*quotation.Quotation, error)
	List(ctx context.Context, filter quotation.ListFilter) (domain.ListResult[*quotation.Quotation], error)
	Update(ctx context.Context, accountID, quotationID id.ID, d quotation.Draft, expectedVersion int) (*quotation.Quotation, error)
	Delete(ctx context.Context, accountID, quotationID id.ID) error
	Send(ctx context.Context, accountID, quotationID id.ID) (*quotation.Quotation, error)
	Approve(ctx context.Context, accountID, quotationID id.ID) (*quotation.Quotation, error)
	Reject(ctx context.Context, accountID, quotationID id.ID) (*quotation.Quotation, error)
	ConvertToInvoice(ctx context.Context, accountID, quotationID id.ID) (*quotation.Quotation, *invoice.Invoice, error)
}

// QuotationHandler serves /quotations.
type QuotationHandler struct {
	*BaseHandler
	service QuotationService
	docs    *DocumentSupport
}

func NewQuotationHandler(base *BaseHandler, service QuotationService, docs *DocumentSupport) *QuotationHandler {
	return &QuotationHandler{BaseHandler: base, service: service, docs: docs}
}

// List handles GET /quotations
func (h *QuotationHandler) List(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	var q dto.QuotationListQuery
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

// Get handles GET /quotations/:id
func (h *QuotationHandler) Get(c *gin.Context) {
	action(h.BaseHandler, c, h.service.Get)
}

// Create handles POST /quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	var req dto.QuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	items, err := h.docs.prepare(ctx, accountID, &req.DocumentRequest)
	if err != nil {
		h.Error(c, err)
		return
	}
	q, err := h.service.Create(ctx, accountID, req.ToDraft(items), req.Send)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, q)
}

// Update handles PUT /quotations/:id
func (h *QuotationHandler) Update(c *gin.Context) {
	accountID, quotationID, ok := h.Target(c)
	if !ok {
		return
	}
	var req dto.QuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	items, err := h.docs.prepare(ctx, accountID, &req.DocumentRequest)
	if err != nil {
		h.Error(c, err)
		return
	}
	q, err := h.service.Update(ctx, accountID, quotationID, req.ToDraft(items), req.Version)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, q)
}

// Delete handles DELETE /quotations/:id
func (h *QuotationHandler) Delete(c *gin.Context) {
	accountID, quotationID, ok := h.Target(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), accountID, quotationID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *QuotationHandler) Send(c *gin.Context)    { action(h.BaseHandler, c, h.service.Send) }
func (h *QuotationHandler) Approve(c *gin.Context) { action(h.BaseHandler, c, h.service.Approve) }
func (h *QuotationHandler) Reject(c *gin.Context)  { action(h.BaseHandler, c, h.service.Reject) }

// Convert handles POST /quotations/:id/convert-to-invoice
func (h *QuotationHandler) Convert(c *gin.Context) {
	accountID, quotationID, ok := h.Target(c)
	if !ok {
		return
	}
	q, inv, err := h.service.ConvertToInvoice(c.Request.Context(), accountID, quotationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.ConversionResponse{Quotation: q, Invoice: inv})
}

// History handles GET /quotations/:id/history
func (h *QuotationHandler) History(c *gin.Context) {
	h.docs.history(c, h.BaseHandler, quotation.EntityName, func(ctx context.Context, accountID, docID id.ID) error {
		_, err := h.service.Get(ctx, accountID, docID)
		return err
	})
}

// RegisterRoutes registers quotation routes.
func (h *QuotationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/history", h.History)
	rg.POST("/:id/send", h.Send)
	rg.POST("/:id/approve", h.Approve)
	rg.POST("/:id/reject", h.Reject)
	rg.POST("/:id/convert-to-invoice", h.Convert)
}

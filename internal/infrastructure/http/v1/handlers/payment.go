package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
	"invoicepro/internal/domain/documents/payment"
	"invoicepro/internal/infrastructure/http/v1/dto"
)

// PaymentService is implemented by payment.Service.
type PaymentService interface {
	Record(ctx context.Context, accountID id.ID, in payment.Input) (*payment.Result, error)
	Get(ctx context.Context, accountID, paymentID id.ID) (*payment.Payment, error)
	List(ctx context.Context, filter payment.ListFilter) (domain.ListResult[*payment.Payment], error)
	Complete(ctx context.Context, accountID, paymentID id.ID) (*payment.Result, error)
	Fail(ctx context.Context, accountID, paymentID id.ID) (*payment.Result, error)
	Refund(ctx context.Context, accountID, paymentID id.ID) (*payment.Result, error)
}

// PaymentHandler serves /payments.
type PaymentHandler struct {
	*BaseHandler
	service PaymentService
	docs    *DocumentSupport
}

func NewPaymentHandler(base *BaseHandler, service PaymentService, docs *DocumentSupport) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, service: service, docs: docs}
}

// List handles GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	var q dto.PaymentListQuery
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

// Get handles GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	action(h.BaseHandler, c, h.service.Get)
}

// Create handles POST /payments. Retries with the same Idempotency-Key are
// answered by the idempotency middleware.
func (h *PaymentHandler) Create(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.service.Record(c.Request.Context(), accountID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, res)
}

func (h *PaymentHandler) Complete(c *gin.Context) { action(h.BaseHandler, c, h.service.Complete) }
func (h *PaymentHandler) Fail(c *gin.Context)     { action(h.BaseHandler, c, h.service.Fail) }
func (h *PaymentHandler) Refund(c *gin.Context)   { action(h.BaseHandler, c, h.service.Refund) }

// History handles GET /payments/:id/history
func (h *PaymentHandler) History(c *gin.Context) {
	h.docs.history(c, h.BaseHandler, payment.EntityName, func(ctx context.Context, accountID, docID id.ID) error {
		_, err := h.service.Get(ctx, accountID, docID)
		return err
	})
}

// RegisterRoutes registers payment routes. idempotent wraps the create route.
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup, idempotent gin.HandlerFunc) {
	rg.GET("", h.List)
	if idempotent != nil {
		rg.POST("", idempotent, h.Create)
	} else {
		rg.POST("", h.Create)
	}
	rg.GET("/:id", h.Get)
	rg.GET("/:id/history", h.History)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/fail", h.Fail)
	rg.POST("/:id/refund", h.Refund)
}

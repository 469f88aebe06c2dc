package handlers

import (
	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/types"
	"invoicepro/internal/domain/billing"
	"invoicepro/internal/infrastructure/http/v1/dto"
)

// TotalsHandler prices a document without storing it.
type TotalsHandler struct {
	*BaseHandler
	items *ItemResolver
}

func NewTotalsHandler(base *BaseHandler, items *ItemResolver) *TotalsHandler {
	return &TotalsHandler{BaseHandler: base, items: items}
}

// Preview handles POST /totals/preview
func (h *TotalsHandler) Preview(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	var req dto.TotalsPreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	currency := types.DefaultCurrency
	if req.Currency != "" {
		parsed, err := types.ParseCurrency(req.Currency)
		if err != nil {
			h.Error(c, err)
			return
		}
		currency = parsed
	}

	items, err := h.items.Resolve(c.Request.Context(), accountID, req.Items)
	if err != nil {
		h.Error(c, err)
		return
	}
	priced, err := billing.PriceLineItems(items, currency)
	if err != nil {
		h.Error(c, err)
		return
	}
	totals, err := billing.ComputeTotals(items, billing.Adjustments{
		Currency:         currency,
		ShippingCharge:   req.ShippingCharge,
		DocumentDiscount: req.DocumentDiscount,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	if priced == nil {
		priced = billing.LineItems{}
	}
	h.OK(c, dto.TotalsPreviewResponse{
		Currency:  currency,
		Items:     priced,
		Totals:    totals,
		Formatted: dto.FormatTotals(totals, currency),
	})
}

package dto

import (
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain/billing"
)

// LineItemRequest is one line of a quotation or invoice. With ProductID set
// and UnitPrice omitted, price, tax rate and description come from the
// product catalog.
type LineItemRequest struct {
	ProductID   *id.ID       `json:"productId"`
	Description string       `json:"description" binding:"max=500"`
	Quantity    int64        `json:"quantity"`
	UnitPrice   *types.Money `json:"unitPrice"`
	TaxRate     types.Money  `json:"taxRate"`
	Discount    types.Money  `json:"discount"`
	Currency    string       `json:"currency" binding:"omitempty,currency"`
}

// UsesCatalogPrice reports whether the item is to be priced from its product.
func (r LineItemRequest) UsesCatalogPrice() bool {
	return r.ProductID != nil && r.UnitPrice == nil
}

// ToLineItem maps an explicitly priced line.
func (r LineItemRequest) ToLineItem() billing.LineItem {
	item := billing.LineItem{
		ProductID:       r.ProductID,
		Description:     r.Description,
		Quantity:        r.Quantity,
		TaxRatePercent:  r.TaxRate,
		DiscountPercent: r.Discount,
		Currency:        normalizeCurrency(r.Currency),
	}
	if r.UnitPrice != nil {
		item.UnitPrice = *r.UnitPrice
	}
	return item
}

// DocumentRequest holds the fields shared by quotation and invoice bodies.
type DocumentRequest struct {
	ClientID         id.ID             `json:"clientId" binding:"required"`
	IssueDate        Date              `json:"issueDate"`
	Currency         string            `json:"currency" binding:"omitempty,currency"`
	Items            []LineItemRequest `json:"items" binding:"max=500,dive"`
	ShippingCharge   types.Money       `json:"shippingCharge"`
	DocumentDiscount types.Money       `json:"documentDiscount"`
	Notes            string            `json:"notes" binding:"max=5000"`

	// Version is the version the client edited; 0 skips the check on update.
	Version int `json:"version" binding:"min=0"`
}

func normalizeCurrency(code string) types.Currency {
	if code == "" {
		return ""
	}
	c, err := types.ParseCurrency(code)
	if err != nil {
		return types.Currency(code)
	}
	return c
}

// TotalsPreviewRequest is the body of POST /totals/preview.
type TotalsPreviewRequest struct {
	Currency         string            `json:"currency" binding:"omitempty,currency"`
	Items            []LineItemRequest `json:"items" binding:"max=500,dive"`
	ShippingCharge   types.Money       `json:"shippingCharge"`
	DocumentDiscount types.Money       `json:"documentDiscount"`
}

// TotalsPreviewResponse carries priced items and totals in minor units, plus
// the same totals formatted in the currency.
type TotalsPreviewResponse struct {
	Currency  types.Currency         `json:"currency"`
	Items     billing.LineItems      `json:"items"`
	Totals    billing.DocumentTotals `json:"totals"`
	Formatted map[string]string      `json:"formatted"`
}

// FormatTotals renders each total with the currency's decimals.
func FormatTotals(t billing.DocumentTotals, currency types.Currency) map[string]string {
	exp := currency.MinorUnitExponent()
	return map[string]string{
		"subtotal":         t.Subtotal.Format(exp),
		"discountAmount":   t.DiscountAmount.Format(exp),
		"taxAmount":        t.TaxAmount.Format(exp),
		"shippingCharge":   t.ShippingCharge.Format(exp),
		"documentDiscount": t.DocumentDiscount.Format(exp),
		"grandTotal":       t.GrandTotal.Format(exp),
	}
}

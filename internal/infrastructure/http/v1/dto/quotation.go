package dto

import (
	"invoicepro/internal/core/id"
	"invoicepro/internal/domain/billing"
	"invoicepro/internal/domain/documents/invoice"
	"invoicepro/internal/domain/documents/quotation"
)

// QuotationRequest is the body of POST /quotations and PUT /quotations/:id.
type QuotationRequest struct {
	DocumentRequest
	ExpiryDate Date `json:"expiryDate"`

	// Send moves the new quotation to sent in the same request.
	Send bool `json:"send"`
}

// ToDraft maps the request onto a draft with already priced items.
func (r QuotationRequest) ToDraft(items []billing.LineItem) quotation.Draft {
	return quotation.Draft{
		ClientID:         r.ClientID,
		IssueDate:        r.IssueDate.Time,
		ExpiryDate:       r.ExpiryDate.Time,
		Currency:         normalizeCurrency(r.Currency),
		Items:            items,
		ShippingCharge:   r.ShippingCharge,
		DocumentDiscount: r.DocumentDiscount,
		Notes:            r.Notes,
	}
}

// QuotationListQuery adds quotation filters to ListQuery.
type QuotationListQuery struct {
	ListQuery
}

// ConversionResponse is returned by POST /quotations/:id/convert-to-invoice.
type ConversionResponse struct {
	Quotation *quotation.Quotation `json:"quotation"`
	Invoice   *invoice.Invoice     `json:"invoice"`
}

// ToFilter builds the quotation filter.
func (q QuotationListQuery) ToFilter(accountID id.ID) quotation.ListFilter {
	return quotation.ListFilter{ListFilter: q.ListQuery.ToFilter(accountID)}
}

package dto

import (
	"time"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain/billing"
	"invoicepro/internal/domain/documents/invoice"
)

// InvoiceRequest is the body of POST /invoices and PUT /invoices/:id.
type InvoiceRequest struct {
	DocumentRequest
	// DueDate defaults from the payment terms when omitted.
	DueDate Date `json:"dueDate"`
}

// ToDraft maps the request onto a draft with already priced items.
func (r InvoiceRequest) ToDraft(items []billing.LineItem) invoice.Draft {
	return invoice.Draft{
		ClientID:         r.ClientID,
		IssueDate:        r.IssueDate.Time,
		DueDate:          r.DueDate.Time,
		Currency:         normalizeCurrency(r.Currency),
		Items:            items,
		ShippingCharge:   r.ShippingCharge,
		DocumentDiscount: r.DocumentDiscount,
		Notes:            r.Notes,
	}
}

// InvoiceListQuery adds invoice filters to ListQuery.
type InvoiceListQuery struct {
	ListQuery
	QuotationID string     `form:"quotationId" binding:"omitempty,uuid"`
	DueBefore   *time.Time `form:"dueBefore" time_format:"2006-01-02"`
}

// ToFilter builds the invoice filter.
func (q InvoiceListQuery) ToFilter(accountID id.ID) invoice.ListFilter {
	f := invoice.ListFilter{ListFilter: q.ListQuery.ToFilter(accountID), DueBefore: q.DueBefore}
	if q.QuotationID != "" {
		f.QuotationID = id.Ptr(id.MustParse(q.QuotationID))
	}
	return f
}

// MarkPaidRequest is the optional body of POST /invoices/:id/mark-paid.
type MarkPaidRequest struct {
	Method               string `json:"method" binding:"omitempty,oneof=stripe paystack flutterwave bank_transfer cash"`
	TransactionReference string `json:"transactionReference" binding:"max=255"`
}

package dto

import (
	"time"

	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain/documents/payment"
)

// PaymentRequest is the body of POST /payments.
type PaymentRequest struct {
	InvoiceID            id.ID       `json:"invoiceId" binding:"required"`
	Amount               types.Money `json:"amount"`
	Currency             string      `json:"currency" binding:"omitempty,currency"`
	Method               string      `json:"method" binding:"required,oneof=stripe paystack flutterwave bank_transfer cash"`
	Pending              bool        `json:"pending"`
	TransactionReference string      `json:"transactionReference" binding:"max=255"`
	PaidAt               *time.Time  `json:"paidAt"`
	Notes                string      `json:"notes" binding:"max=2000"`
}

// ToInput maps the request onto a payment input.
func (r PaymentRequest) ToInput() payment.Input {
	return payment.Input{
		InvoiceID:            r.InvoiceID,
		Amount:               r.Amount,
		Currency:             normalizeCurrency(r.Currency),
		Method:               payment.Method(r.Method),
		Pending:              r.Pending,
		TransactionReference: r.TransactionReference,
		PaidAt:               r.PaidAt,
		Notes:                r.Notes,
	}
}

// PaymentListQuery adds payment filters to ListQuery. Dates bound paidAt.
type PaymentListQuery struct {
	ListQuery
	InvoiceID string   `form:"invoiceId" binding:"omitempty,uuid"`
	Method    []string `form:"method" binding:"dive,oneof=stripe paystack flutterwave bank_transfer cash"`
}

// ToFilter builds the payment filter. Payments default to newest first.
func (q PaymentListQuery) ToFilter(accountID id.ID) payment.ListFilter {
	f := payment.ListFilter{ListFilter: q.ListQuery.ToFilter(accountID)}
	if q.ListQuery.OrderBy == "" {
		f.OrderBy = "-created_at"
	}
	if q.InvoiceID != "" {
		f.InvoiceID = id.Ptr(id.MustParse(q.InvoiceID))
	}
	for _, m := range q.Method {
		f.Methods = append(f.Methods, payment.Method(m))
	}
	return f
}

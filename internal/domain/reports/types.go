// Package reports builds the account dashboard from invoice, quotation and
// payment data.
package reports

import (
	"time"

	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
)

// CurrencyTotals aggregates the invoices of one currency. Cancelled and draft
// invoices are excluded from every amount.
type CurrencyTotals struct {
	Currency      types.Currency   `db:"currency" json:"currency"`
	TotalInvoiced types.MinorUnits `db:"total_invoiced" json:"totalInvoiced"`
	TotalPaid     types.MinorUnits `db:"total_paid" json:"totalPaid"`
	Outstanding   types.MinorUnits `db:"outstanding" json:"outstanding"`
	OverdueCount  int64            `db:"overdue_count" json:"overdueCount"`
	OverdueAmount types.MinorUnits `db:"overdue_amount" json:"overdueAmount"`
}

// StatusCount is the number of documents in one status.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int64  `db:"count" json:"count"`
}

// RecentPayment is a completed payment with its invoice number.
type RecentPayment struct {
	ID            id.ID            `db:"id" json:"id"`
	InvoiceID     id.ID            `db:"invoice_id" json:"invoiceId"`
	InvoiceNumber string           `db:"invoice_number" json:"invoiceNumber"`
	Amount        types.MinorUnits `db:"amount" json:"amount"`
	Currency      types.Currency   `db:"currency" json:"currency"`
	Method        string           `db:"method" json:"method"`
	PaidAt        time.Time        `db:"paid_at" json:"paidAt"`
}

// TopClient ranks clients by amount paid in one currency.
type TopClient struct {
	ClientID     id.ID            `db:"client_id" json:"clientId"`
	Name         string           `db:"name" json:"name"`
	Currency     types.Currency   `db:"currency" json:"currency"`
	TotalPaid    types.MinorUnits `db:"total_paid" json:"totalPaid"`
	InvoiceCount int64            `db:"invoice_count" json:"invoiceCount"`
}

// Dashboard is the summary shown on the account home page. Amounts are never
// summed across currencies.
type Dashboard struct {
	Totals          []CurrencyTotals `json:"totals"`
	InvoiceCounts   []StatusCount    `json:"invoiceCounts"`
	QuotationCounts []StatusCount    `json:"quotationCounts"`

	// ConversionRate is converted quotations over quotations that left draft.
	ConversionRate float64 `json:"conversionRate"`

	RecentPayments []RecentPayment `json:"recentPayments"`
	TopClients     []TopClient     `json:"topClients"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

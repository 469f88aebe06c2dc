// Package report_repo provides the PostgreSQL dashboard queries.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain/reports"
	"invoicepro/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository. Every query runs on the pool or
// the caller's transaction and is scoped by account.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ reports.Repository = (*ReportRepo)(nil)

// billedStatuses are the invoice statuses that count as invoiced.
var billedStatuses = []string{"sent", "overdue", "paid"}

func (r *ReportRepo) selectInto(ctx context.Context, dst any, q squirrel.Sqlizer, what string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", what, err)
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), dst, sql, args...); err != nil {
		return fmt.Errorf("query %s: %w", what, err)
	}
	return nil
}

func (r *ReportRepo) invoiceTotalsQuery(accountID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"currency",
			"COALESCE(SUM(grand_total), 0) AS total_invoiced",
			"COALESCE(SUM(amount_paid), 0) AS total_paid",
			"COALESCE(SUM(amount_due) FILTER (WHERE status IN ('sent', 'overdue')), 0) AS outstanding",
			"COUNT(*) FILTER (WHERE status = 'overdue') AS overdue_count",
			"COALESCE(SUM(amount_due) FILTER (WHERE status = 'overdue'), 0) AS overdue_amount",
		).
		From("invoices").
		Where(squirrel.Eq{"account_id": accountID, "status": billedStatuses}).
		GroupBy("currency").
		OrderBy("currency")
}

// InvoiceTotals aggregates billed invoices per currency.
func (r *ReportRepo) InvoiceTotals(ctx context.Context, accountID id.ID) ([]reports.CurrencyTotals, error) {
	out := []reports.CurrencyTotals{}
	if err := r.selectInto(ctx, &out, r.invoiceTotalsQuery(accountID), "invoice totals"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReportRepo) countsQuery(table string, accountID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select("status", "COUNT(*) AS count").
		From(table).
		Where(squirrel.Eq{"account_id": accountID}).
		GroupBy("status").
		OrderBy("status")
}

// InvoiceCountsByStatus counts invoices per status.
func (r *ReportRepo) InvoiceCountsByStatus(ctx context.Context, accountID id.ID) ([]reports.StatusCount, error) {
	out := []reports.StatusCount{}
	if err := r.selectInto(ctx, &out, r.countsQuery("invoices", accountID), "invoice counts"); err != nil {
		return nil, err
	}
	return out, nil
}

// QuotationCountsByStatus counts quotations per status.
func (r *ReportRepo) QuotationCountsByStatus(ctx context.Context, accountID id.ID) ([]reports.StatusCount, error) {
	out := []reports.StatusCount{}
	if err := r.selectInto(ctx, &out, r.countsQuery("quotations", accountID), "quotation counts"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReportRepo) recentPaymentsQuery(accountID id.ID, limit int) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"p.id", "p.invoice_id", "i.number AS invoice_number",
			"p.amount", "p.currency", "p.method", "p.paid_at",
		).
		From("payments p").
		Join("invoices i ON i.id = p.invoice_id").
		Where(squirrel.Eq{"p.account_id": accountID, "p.status": "completed"}).
		OrderBy("p.paid_at DESC", "p.id DESC").
		Limit(uint64(limit))
}

// RecentPayments returns the latest completed payments.
func (r *ReportRepo) RecentPayments(ctx context.Context, accountID id.ID, limit int) ([]reports.RecentPayment, error) {
	out := []reports.RecentPayment{}
	if err := r.selectInto(ctx, &out, r.recentPaymentsQuery(accountID, limit), "recent payments"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReportRepo) topClientsQuery(accountID id.ID, limit int) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"c.id AS client_id", "c.name", "p.currency",
			"SUM(p.amount) AS total_paid",
			"COUNT(DISTINCT p.invoice_id) AS invoice_count",
		).
		From("payments p").
		Join("invoices i ON i.id = p.invoice_id").
		Join("clients c ON c.id = i.client_id").
		Where(squirrel.Eq{"p.account_id": accountID, "p.status": "completed"}).
		GroupBy("c.id", "c.name", "p.currency").
		OrderBy("total_paid DESC", "c.name").
		Limit(uint64(limit))
}

// TopClients ranks clients by completed payments per currency.
func (r *ReportRepo) TopClients(ctx context.Context, accountID id.ID, limit int) ([]reports.TopClient, error) {
	out := []reports.TopClient{}
	if err := r.selectInto(ctx, &out, r.topClientsQuery(accountID, limit), "top clients"); err != nil {
		return nil, err
	}
	return out, nil
}

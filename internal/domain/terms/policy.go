// Package terms decides invoice due dates. Quotation conversion asks the
// configured Policy for the due date of the new invoice.
package terms

import (
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
)

// DefaultNetDays is used when no term is configured.
const DefaultNetDays = 30

// Input describes the invoice being scheduled.
type Input struct {
	IssueDate  time.Time
	GrandTotal types.Money
	Currency   types.Currency
	ClientID   id.ID
}

// Policy computes the due date of an invoice.
type Policy interface {
	DueDate(in Input) (time.Time, error)
}

// NetDays is the usual "net N" term: due N calendar days after issue.
type NetDays int

func (n NetDays) DueDate(in Input) (time.Time, error) {
	return in.IssueDate.AddDate(0, 0, int(n)), nil
}

// Expression evaluates a CEL expression returning a timestamp. Available
// variables: issue_date (timestamp), grand_total (double), currency (string),
// client_id (string).
//
//	issue_date + duration(grand_total > 10000.0 ? "1080h" : "720h")
type Expression struct {
	source  string
	program cel.Program
}

// NewExpression compiles src and checks it against a sample input.
func NewExpression(src string) (*Expression, error) {
	env, err := cel.NewEnv(
		cel.Variable("issue_date", cel.TimestampType),
		cel.Variable("grand_total", cel.DoubleType),
		cel.Variable("currency", cel.StringType),
		cel.Variable("client_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("terms env: %w", err)
	}

	ast, iss := env.Compile(src)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile term expression: %w", iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build term program: %w", err)
	}

	e := &Expression{source: src, program: prg}
	sample := Input{
		IssueDate:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		GrandTotal: types.Zero(),
		Currency:   types.DefaultCurrency,
	}
	if _, err := e.DueDate(sample); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Expression) DueDate(in Input) (time.Time, error) {
	total, _ := in.GrandTotal.Float64()
	out, _, err := e.program.Eval(map[string]any{
		"issue_date":  in.IssueDate,
		"grand_total": total,
		"currency":    in.Currency.String(),
		"client_id":   in.ClientID.String(),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("evaluate term %q: %w", e.source, err)
	}
	due, ok := out.Value().(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("term %q returned %s, want timestamp", e.source, out.Type().TypeName())
	}
	if due.Before(in.IssueDate) {
		return time.Time{}, fmt.Errorf("term %q produced a due date before the issue date", e.source)
	}
	return due.UTC(), nil
}

// FromConfig builds the policy from INVOICE_TERM_EXPR, falling back to
// INVOICE_TERM_DAYS when no expression is set.
func FromConfig(days int, expr string) (Policy, error) {
	if expr != "" {
		return NewExpression(expr)
	}
	if days < 0 {
		return nil, fmt.Errorf("invoice term days must not be negative: %d", days)
	}
	if days == 0 {
		days = DefaultNetDays
	}
	return NetDays(days), nil
}

// Package billing computes line-item and document totals for quotations and
// invoices. Every entry point that prices a document goes through
// ComputeLineItemTotal and ComputeTotals; nothing else does money math.
package billing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
)

var hundred = types.NewMoneyFromInt(100)

// LineItem is one priced row of a quotation or invoice.
// Discount is applied before tax: tax is charged on the discounted price.
type LineItem struct {
	ProductID       *id.ID         `json:"productId,omitempty"`
	Description     string         `json:"description"`
	Quantity        int64          `json:"quantity"`
	UnitPrice       types.Money    `json:"unitPrice"`
	TaxRatePercent  types.Money    `json:"taxRate"`
	DiscountPercent types.Money    `json:"discount"`
	Currency        types.Currency `json:"currency,omitempty"`

	// LineTotal is the rounded taxed amount, filled by PriceLineItems.
	LineTotal types.MinorUnits `json:"lineTotal"`
}

// LineItems is stored as a JSONB array on the parent document.
type LineItems []LineItem

// Value implements driver.Valuer. A nil slice is stored as an empty array.
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]LineItem(l))
}

// Scan implements sql.Scanner.
func (l *LineItems) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = LineItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("line items: cannot scan %T", src)
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("line items: %w", err)
	}
	*l = items
	return nil
}

// Validate checks the field invariants of the item at position index.
func (li LineItem) Validate(index int) error {
	if li.Quantity < 1 {
		return apperror.NewInvalidLineItem(index, "quantity", "must be at least 1")
	}
	if li.UnitPrice.IsNegative() {
		return apperror.NewInvalidLineItem(index, "unitPrice", "must not be negative")
	}
	if !isPercent(li.TaxRatePercent) {
		return apperror.NewInvalidLineItem(index, "taxRate", "must be between 0 and 100")
	}
	if !isPercent(li.DiscountPercent) {
		return apperror.NewInvalidLineItem(index, "discount", "must be between 0 and 100")
	}
	return nil
}

func isPercent(p types.Money) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// lineAmounts holds the unrounded intermediate values of one item.
type lineAmounts struct {
	base       types.Money
	discount   types.Money
	discounted types.Money
	tax        types.Money
}

func (li LineItem) amounts() lineAmounts {
	base := li.UnitPrice.Mul(types.NewMoneyFromInt(li.Quantity))
	discount := types.MultiplyByPercent(base, li.DiscountPercent)
	discounted := types.Subtract(base, discount)
	tax := types.MultiplyByPercent(discounted, li.TaxRatePercent)
	return lineAmounts{
		base:       base,
		discount:   discount,
		discounted: discounted,
		tax:        tax,
	}
}

// ComputeLineItemTotal returns round(qty × price × (1 − discount%) × (1 + tax%))
// at the given currency exponent.
func ComputeLineItemTotal(item LineItem, exponent int32) (types.Money, error) {
	if err := item.Validate(0); err != nil {
		return types.Zero(), err
	}
	a := item.amounts()
	return types.RoundToCurrency(types.Add(a.discounted, a.tax), exponent), nil
}

// PriceLineItems validates items against the document currency and returns a
// copy with LineTotal filled and Currency normalized to the document's.
func PriceLineItems(items []LineItem, currency types.Currency) (LineItems, error) {
	exp := currency.MinorUnitExponent()
	out := make(LineItems, len(items))
	for i, item := range items {
		if err := checkItem(i, item, currency); err != nil {
			return nil, err
		}
		total, err := lineTotal(i, item, exp)
		if err != nil {
			return nil, err
		}
		item.Currency = ""
		item.LineTotal = total
		out[i] = item
	}
	return out, nil
}

// lineTotal is the rounded taxed amount of the item at position index.
func lineTotal(index int, item LineItem, exp int32) (types.MinorUnits, error) {
	a := item.amounts()
	total, err := types.ToMinorUnits(types.Add(a.discounted, a.tax), exp)
	if err != nil {
		return 0, apperror.NewInvalidLineItem(index, "lineTotal", "is out of range")
	}
	return total, nil
}

func checkItem(index int, item LineItem, currency types.Currency) error {
	if err := item.Validate(index); err != nil {
		return err
	}
	if item.Currency != "" && item.Currency != currency {
		return apperror.NewCurrencyMismatch(currency.String(), item.Currency.String()).
			WithDetail("line", index)
	}
	return nil
}

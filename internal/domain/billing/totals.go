package billing

import (
	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/types"
)

// DocumentTotals is derived from a document's items and adjustments and is
// stored on the parent row only.
//
// Subtotal is the sum of post-discount, pre-tax line bases. DiscountAmount
// covers line discounts plus DocumentDiscount, a flat document-level
// reduction. GrandTotal = Subtotal − DocumentDiscount + TaxAmount + ShippingCharge.
type DocumentTotals struct {
	Subtotal         types.MinorUnits `db:"subtotal" json:"subtotal"`
	DiscountAmount   types.MinorUnits `db:"discount_amount" json:"discountAmount"`
	TaxAmount        types.MinorUnits `db:"tax_amount" json:"taxAmount"`
	ShippingCharge   types.MinorUnits `db:"shipping_charge" json:"shippingCharge"`
	DocumentDiscount types.MinorUnits `db:"document_discount" json:"documentDiscount"`
	GrandTotal       types.MinorUnits `db:"grand_total" json:"grandTotal"`
}

// Adjustments are the document-level inputs to ComputeTotals, in major units.
type Adjustments struct {
	Currency         types.Currency
	ShippingCharge   types.Money
	DocumentDiscount types.Money
}

// GrossSubtotal is the pre-discount, pre-tax amount implied by the totals.
func (t DocumentTotals) GrossSubtotal() types.MinorUnits {
	return t.Subtotal + t.DiscountAmount - t.DocumentDiscount
}

// Balanced reports whether the totals identity holds:
// grandTotal = grossSubtotal − discountAmount + taxAmount + shippingCharge.
func (t DocumentTotals) Balanced() bool {
	return t.GrandTotal == t.GrossSubtotal()-t.DiscountAmount+t.TaxAmount+t.ShippingCharge
}

// ComputeTotals aggregates items into DocumentTotals. Per-line values are
// carried unrounded and each field is rounded once. An empty item list yields
// zero totals plus shipping.
func ComputeTotals(items []LineItem, adj Adjustments) (DocumentTotals, error) {
	currency := adj.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	exp := currency.MinorUnitExponent()

	if adj.ShippingCharge.IsNegative() {
		return DocumentTotals{}, apperror.NewValidation("shipping charge must not be negative").
			WithDetail("field", "shippingCharge")
	}
	if adj.DocumentDiscount.IsNegative() {
		return DocumentTotals{}, apperror.NewValidation("discount must not be negative").
			WithDetail("field", "discountAmount")
	}

	subtotal, discount, tax := types.Zero(), types.Zero(), types.Zero()
	for i, item := range items {
		if err := checkItem(i, item, currency); err != nil {
			return DocumentTotals{}, err
		}
		if _, err := lineTotal(i, item, exp); err != nil {
			return DocumentTotals{}, err
		}
		a := item.amounts()
		subtotal = types.Add(subtotal, a.discounted)
		discount = types.Add(discount, a.discount)
		tax = types.Add(tax, a.tax)
	}

	var (
		t   DocumentTotals
		err error
	)
	if t.Subtotal, err = minorField("subtotal", subtotal, exp); err != nil {
		return DocumentTotals{}, err
	}
	if t.TaxAmount, err = minorField("taxAmount", tax, exp); err != nil {
		return DocumentTotals{}, err
	}
	if t.ShippingCharge, err = minorField("shippingCharge", adj.ShippingCharge, exp); err != nil {
		return DocumentTotals{}, err
	}
	if t.DocumentDiscount, err = minorField("discountAmount", adj.DocumentDiscount, exp); err != nil {
		return DocumentTotals{}, err
	}
	if t.DocumentDiscount > t.Subtotal {
		return DocumentTotals{}, apperror.NewValidation("discount exceeds subtotal").
			WithDetail("field", "discountAmount").
			WithDetail("subtotal", t.Subtotal.Format(exp))
	}

	lineDiscount, err := minorField("discountAmount", discount, exp)
	if err != nil {
		return DocumentTotals{}, err
	}
	if t.DiscountAmount, err = types.SumMinorUnits(lineDiscount, t.DocumentDiscount); err != nil {
		return DocumentTotals{}, outOfRange("discountAmount")
	}
	t.GrandTotal, err = types.SumMinorUnits(t.Subtotal, -t.DocumentDiscount, t.TaxAmount, t.ShippingCharge)
	if err != nil {
		return DocumentTotals{}, outOfRange("grandTotal")
	}
	return t, nil
}

// minorField converts one aggregated amount, naming the field on overflow.
func minorField(field string, amount types.Money, exp int32) (types.MinorUnits, error) {
	m, err := types.ToMinorUnits(amount, exp)
	if err != nil {
		return 0, outOfRange(field)
	}
	return m, nil
}

func outOfRange(field string) error {
	return apperror.NewValidation(field+" is out of range").WithDetail("field", field)
}

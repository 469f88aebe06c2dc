package product

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/entity"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain/billing"
)

func newProduct() *Product {
	return &Product{
		BaseDocument:   entity.NewBaseDocument(id.New(), time.Now()),
		Name:           "Consulting hour",
		UnitPrice:      types.MustMoney("100.00"),
		TaxRatePercent: types.MustMoney("10"),
		Currency:       "USD",
		IsActive:       true,
	}
}

func TestLineItem_PrefillsPrice(t *testing.T) {
	p := newProduct()

	item, err := p.LineItem(2, types.MustMoney("5"))
	require.NoError(t, err)
	assert.Equal(t, p.ID, *item.ProductID)
	assert.Equal(t, "Consulting hour", item.Description)

	total, err := billing.ComputeLineItemTotal(item, 2)
	require.NoError(t, err)
	assert.Equal(t, "209.00", total.StringFixed(2))

	_, err = billing.PriceLineItems([]billing.LineItem{item}, "EUR")
	assert.True(t, errors.Is(err, apperror.ErrCurrencyMismatch))
}

func TestLineItem_Rejections(t *testing.T) {
	p := newProduct()
	_, err := p.LineItem(0, types.Zero())
	assert.True(t, errors.Is(err, apperror.ErrInvalidLineItem))

	p.IsActive = false
	_, err = p.LineItem(1, types.Zero())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "PRODUCT_INACTIVE", appErr.Code)
}

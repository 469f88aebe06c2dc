package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/entity"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain/catalogs/product"
	"invoicepro/internal/infrastructure/http/v1/dto"
)

type productMap map[id.ID]*product.Product

func (m productMap) Get(_ context.Context, _, productID id.ID) (*product.Product, error) {
	p, ok := m[productID]
	if !ok {
		return nil, apperror.NewNotFound(product.EntityName, productID)
	}
	return p, nil
}

func catalogProduct(active bool) *product.Product {
	return &product.Product{
		BaseDocument:   entity.NewBaseDocument(id.New(), time.Now()),
		Name:           "Consulting hour",
		UnitPrice:      types.MustMoney("100.00"),
		TaxRatePercent: types.MustMoney("10"),
		Currency:       "USD",
		IsActive:       active,
	}
}

func TestItemResolver_PricesCatalogLines(t *testing.T) {
	p := catalogProduct(true)
	r := NewItemResolver(productMap{p.ID: p})

	items, err := r.Resolve(context.Background(), id.New(), []dto.LineItemRequest{
		{Description: "manual", Quantity: 1, UnitPrice: ptrMoney("5")},
		{ProductID: id.Ptr(p.ID), Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "manual", items[0].Description)
	assert.True(t, p.UnitPrice.Equal(items[1].UnitPrice))
	assert.Equal(t, "Consulting hour", items[1].Description)
}

func TestItemResolver_ReportsCatalogLineErrors(t *testing.T) {
	active, inactive := catalogProduct(true), catalogProduct(false)
	r := NewItemResolver(productMap{active.ID: active, inactive.ID: inactive})
	manual := dto.LineItemRequest{Description: "manual", Quantity: 1, UnitPrice: ptrMoney("5")}

	tests := []struct {
		name  string
		line  dto.LineItemRequest
		code  string
		field string
	}{
		{"inactive product", dto.LineItemRequest{ProductID: id.Ptr(inactive.ID), Quantity: 1}, product.CodeInactive, ""},
		{"zero quantity", dto.LineItemRequest{ProductID: id.Ptr(active.ID)}, apperror.CodeInvalidLineItem, "quantity"},
		{"discount above 100", dto.LineItemRequest{ProductID: id.Ptr(active.ID), Quantity: 1, Discount: types.MustMoney("150")}, apperror.CodeInvalidLineItem, "discount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), id.New(), []dto.LineItemRequest{manual, tt.line})
			require.Error(t, err)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, 1, appErr.Details["line"])
			if tt.field != "" {
				assert.Equal(t, tt.field, appErr.Details["field"])
			}
		})
	}
}

func TestItemResolver_UnknownProduct(t *testing.T) {
	r := NewItemResolver(productMap{})
	_, err := r.Resolve(context.Background(), id.New(), []dto.LineItemRequest{{ProductID: id.Ptr(id.New()), Quantity: 1}})
	assert.True(t, apperror.IsNotFound(err))
	assert.False(t, errors.Is(err, apperror.ErrInvalidLineItem))
}

func ptrMoney(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

// Package product provides the read-only Product catalog used to prefill
// line items.
package product

import (
	"context"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/entity"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
	"invoicepro/internal/domain"
	"invoicepro/internal/domain/billing"
)

// EntityName is used in errors.
const EntityName = "product"

// CodeInactive is returned when an inactive product is added to a document.
const CodeInactive = "PRODUCT_INACTIVE"

// Product is a sellable good or service of the account.
type Product struct {
	entity.BaseDocument

	Name           string         `db:"name" json:"name"`
	Description    *string        `db:"description" json:"description,omitempty"`
	SKU            *string        `db:"sku" json:"sku,omitempty"`
	UnitPrice      types.Money    `db:"unit_price" json:"unitPrice"`
	TaxRatePercent types.Money    `db:"tax_rate" json:"taxRate"`
	Currency       types.Currency `db:"currency" json:"currency"`
	IsActive       bool           `db:"is_active" json:"isActive"`
}

// LineItem prefills a line item with the product's price and tax rate.
// Inactive products cannot be added to new documents.
func (p *Product) LineItem(quantity int64, discountPercent types.Money) (billing.LineItem, error) {
	if !p.IsActive {
		return billing.LineItem{}, apperror.NewBusinessRule(CodeInactive, "product is inactive").
			WithDetail("productId", p.ID.String())
	}
	description := p.Name
	if p.Description != nil && *p.Description != "" {
		description = *p.Description
	}
	item := billing.LineItem{
		ProductID:       id.Ptr(p.ID),
		Description:     description,
		Quantity:        quantity,
		UnitPrice:       p.UnitPrice,
		TaxRatePercent:  p.TaxRatePercent,
		DiscountPercent: discountPercent,
		Currency:        p.Currency,
	}
	return item, item.Validate(0)
}

// ListFilter for filtering products.
type ListFilter struct {
	domain.ListFilter

	ActiveOnly bool
}

// Repository reads products. Products are maintained outside this service.
type Repository interface {
	GetByID(ctx context.Context, accountID, productID id.ID) (*Product, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)
}

// Service provides product lookups.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, accountID, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, accountID, productID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}

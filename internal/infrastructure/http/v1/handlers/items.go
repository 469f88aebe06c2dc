package handlers

import (
	"context"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/id"
	"invoicepro/internal/domain/billing"
	"invoicepro/internal/domain/catalogs/product"
	"invoicepro/internal/infrastructure/http/v1/dto"
)

// ProductLookup finds catalog products.
type ProductLookup interface {
	Get(ctx context.Context, accountID, productID id.ID) (*product.Product, error)
}

// ItemResolver turns request lines into line items, pricing catalog lines
// from the product.
type ItemResolver struct {
	products ProductLookup
}

func NewItemResolver(products ProductLookup) *ItemResolver {
	return &ItemResolver{products: products}
}

func (r *ItemResolver) Resolve(ctx context.Context, accountID id.ID, in []dto.LineItemRequest) ([]billing.LineItem, error) {
	out := make([]billing.LineItem, 0, len(in))
	for i, req := range in {
		if !req.UsesCatalogPrice() {
			out = append(out, req.ToLineItem())
			continue
		}
		p, err := r.products.Get(ctx, accountID, *req.ProductID)
		if err != nil {
			return nil, err
		}
		item, err := p.LineItem(req.Quantity, req.Discount)
		if err != nil {
			return nil, lineError(i, item, err)
		}
		if req.Description != "" {
			item.Description = req.Description
		}
		out = append(out, item)
	}
	return out, nil
}

// lineError points an error from the catalog at the request line.
func lineError(index int, item billing.LineItem, err error) error {
	appErr, ok := apperror.AsAppError(err)
	switch {
	case !ok:
		return err
	case appErr.Code == apperror.CodeInvalidLineItem:
		if verr := item.Validate(index); verr != nil {
			return verr
		}
	}
	return appErr.WithDetail("line", index)
}

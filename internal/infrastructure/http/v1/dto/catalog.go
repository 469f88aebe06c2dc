package dto

import (
	"invoicepro/internal/core/id"
	"invoicepro/internal/domain/catalogs/product"
)

// ProductListQuery adds the active filter to ListQuery.
type ProductListQuery struct {
	ListQuery
	ActiveOnly bool `form:"activeOnly"`
}

// ToFilter builds the product filter.
func (q ProductListQuery) ToFilter(accountID id.ID) product.ListFilter {
	return product.ListFilter{ListFilter: q.ListQuery.ToFilter(accountID), ActiveOnly: q.ActiveOnly}
}

// HistoryQuery limits audit history responses.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

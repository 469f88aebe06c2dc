package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
	"invoicepro/internal/domain/catalogs/client"
	"invoicepro/internal/domain/catalogs/product"
	"invoicepro/internal/infrastructure/http/v1/dto"
)

// ClientService is implemented by client.Service.
type ClientService interface {
	Get(ctx context.Context, accountID, clientID id.ID) (*client.Client, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*client.Client], error)
}

// ProductService is implemented by product.Service.
type ProductService interface {
	Get(ctx context.Context, accountID, productID id.ID) (*product.Product, error)
	List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error)
}

// CatalogHandler serves the read-only client and product catalogs.
type CatalogHandler struct {
	*BaseHandler
	clients  ClientService
	products ProductService
}

func NewCatalogHandler(base *BaseHandler, clients ClientService, products ProductService) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, clients: clients, products: products}
}

func (h *CatalogHandler) ListClients(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.clients.List(c.Request.Context(), q.ToFilter(accountID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

func (h *CatalogHandler) GetClient(c *gin.Context) {
	action(h.BaseHandler, c, h.clients.Get)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	var q dto.ProductListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.products.List(c.Request.Context(), q.ToFilter(accountID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	action(h.BaseHandler, c, h.products.Get)
}

// RegisterRoutes registers /clients and /products.
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/clients", h.ListClients)
	rg.GET("/clients/:id", h.GetClient)
	rg.GET("/products", h.ListProducts)
	rg.GET("/products/:id", h.GetProduct)
}

// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/apperror"
	appctx "invoicepro/internal/core/context"
	"invoicepro/internal/core/id"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindOptionalJSON binds the body when one was sent.
func (h *BaseHandler) BindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.BindJSON(c, obj)
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the context and aborts. middleware.ErrorHandler
// writes the response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// AccountID returns the caller's account set by the auth middleware.
func (h *BaseHandler) AccountID(c *gin.Context) (id.ID, bool) {
	accountID, ok := appctx.GetAccountID(c.Request.Context())
	if !ok {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
	}
	return accountID, ok
}

// PathID parses the :id path parameter.
func (h *BaseHandler) PathID(c *gin.Context) (id.ID, bool) {
	v, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("id", c.Param("id")))
		return id.ID{}, false
	}
	return v, true
}

// Target resolves the account and the :id parameter.
func (h *BaseHandler) Target(c *gin.Context) (accountID, docID id.ID, ok bool) {
	if accountID, ok = h.AccountID(c); !ok {
		return
	}
	docID, ok = h.PathID(c)
	return
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// action runs a state change on the document named by :id and returns the
// result with 200.
func action[T any](h *BaseHandler, c *gin.Context, fn func(ctx context.Context, accountID, docID id.ID) (T, error)) {
	accountID, docID, ok := h.Target(c)
	if !ok {
		return
	}
	out, err := fn(c.Request.Context(), accountID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, out)
}

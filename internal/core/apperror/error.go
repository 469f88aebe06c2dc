// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Billing rule violations (422)
	CodeInvalidLineItem     = "INVALID_LINE_ITEM"
	CodeEmptyDocument       = "EMPTY_DOCUMENT"
	CodeCurrencyMismatch    = "CURRENCY_MISMATCH"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeOverpaymentRejected = "OVERPAYMENT_REJECTED"

	// Optimistic locking (409)
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, amounts, statuses)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so callers can write
// errors.Is(err, apperror.ErrOverpaymentRejected).
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Sentinels for errors.Is comparisons. Never return these directly,
// use the factory functions so every error gets its own Details map.
var (
	ErrInvalidLineItem        = &AppError{Code: CodeInvalidLineItem}
	ErrEmptyDocument          = &AppError{Code: CodeEmptyDocument}
	ErrCurrencyMismatch       = &AppError{Code: CodeCurrencyMismatch}
	ErrInvalidTransition      = &AppError{Code: CodeInvalidTransition}
	ErrInvalidAmount          = &AppError{Code: CodeInvalidAmount}
	ErrOverpaymentRejected    = &AppError{Code: CodeOverpaymentRejected}
	ErrConcurrentModification = &AppError{Code: CodeConcurrentModification}
	ErrNotFound               = &AppError{Code: CodeNotFound}
	ErrValidation             = &AppError{Code: CodeValidation}
)

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidLineItem reports the offending line (zero-based) and field.
func NewInvalidLineItem(index int, field, reason string) *AppError {
	return NewBusinessRule(CodeInvalidLineItem, fmt.Sprintf("line %d: %s %s", index+1, field, reason)).
		WithDetail("line", index).
		WithDetail("field", field)
}

// NewEmptyDocument is returned when an operation needs at least one line item.
func NewEmptyDocument(entity string, id any) *AppError {
	return NewBusinessRule(CodeEmptyDocument, fmt.Sprintf("%s has no line items", entity)).
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewCurrencyMismatch is returned when amounts of one document disagree on currency.
func NewCurrencyMismatch(expected, actual string) *AppError {
	return NewBusinessRule(CodeCurrencyMismatch, fmt.Sprintf("currency %s does not match %s", actual, expected)).
		WithDetail("expected", expected).
		WithDetail("actual", actual)
}

// NewInvalidTransition is returned when a lifecycle operation is not allowed
// from the current status.
func NewInvalidTransition(entity, action string, from any) *AppError {
	return NewBusinessRule(CodeInvalidTransition, fmt.Sprintf("cannot %s %s in status %v", action, entity, from)).
		WithDetail("entity", entity).
		WithDetail("action", action).
		WithDetail("status", from)
}

// NewInvalidAmount is returned for non-positive payment amounts.
func NewInvalidAmount(amount string) *AppError {
	return NewBusinessRule(CodeInvalidAmount, "Amount must be greater than zero").
		WithDetail("amount", amount)
}

// NewOverpaymentRejected is returned when a payment exceeds the outstanding balance.
func NewOverpaymentRejected(amount, amountDue string) *AppError {
	return NewBusinessRule(CodeOverpaymentRejected, "Payment exceeds the outstanding balance").
		WithDetail("amount", amount).
		WithDetail("amount_due", amountDue)
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewIdempotencyConflict creates error when operation is already in progress
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different account/operation/body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

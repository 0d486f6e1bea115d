// Package errors provides the application error type for the Erario API.
// Every service-layer failure is an *AppError so handlers can map it to a
// status code without leaking internal details, and so callers can tell
// definitive rejections (validation, not found) from transient conflicts.
package errors

import (
	"fmt"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so errors.Is(err, ErrX)
// works for copies made by Wrap, WithMessage and Newf.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Newf is WithMessage with a format string.
func Newf(sentinel *AppError, format string, args ...any) *AppError {
	return WithMessage(sentinel, fmt.Sprintf(format, args...))
}

// Authentication & authorization errors.
var (
	ErrUnauthorized  = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidAPIKey = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Budget errors.
var (
	ErrBudgetNotFound          = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrDuplicateFiscalYear     = &AppError{Code: "DUPLICATE_FISCAL_YEAR", Message: "A budget for this fiscal year already exists", StatusCode: http.StatusConflict}
	ErrBudgetNotActive         = &AppError{Code: "BUDGET_NOT_ACTIVE", Message: "Budget is not active", StatusCode: http.StatusBadRequest}
	ErrBudgetClosed            = &AppError{Code: "BUDGET_CLOSED", Message: "Budget is closed", StatusCode: http.StatusConflict}
	ErrIllegalBudgetTransition = &AppError{Code: "ILLEGAL_BUDGET_TRANSITION", Message: "Budget status change not allowed", StatusCode: http.StatusConflict}
)

// Line item errors.
var (
	ErrLineItemNotFound       = &AppError{Code: "LINE_ITEM_NOT_FOUND", Message: "Budget line item not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCode          = &AppError{Code: "DUPLICATE_CODE", Message: "A line item with this code already exists in the budget", StatusCode: http.StatusConflict}
	ErrInsufficientAllocation = &AppError{Code: "INSUFFICIENT_ALLOCATION", Message: "Allocation cannot drop below the committed amount", StatusCode: http.StatusBadRequest}
	ErrInvalidOperation       = &AppError{Code: "INVALID_OPERATION", Message: "Unknown line item operation", StatusCode: http.StatusBadRequest}
	ErrHasTransactions        = &AppError{Code: "HAS_TRANSACTIONS", Message: "Line item has transactions", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrIllegalTransition   = &AppError{Code: "ILLEGAL_TRANSITION", Message: "Transaction status change not allowed", StatusCode: http.StatusConflict}
	ErrInsufficientBudget  = &AppError{Code: "INSUFFICIENT_BUDGET", Message: "Insufficient budget available", StatusCode: http.StatusBadRequest}
	ErrConcurrencyConflict = &AppError{Code: "CONCURRENCY_CONFLICT", Message: "The line item was modified concurrently; retry the operation", StatusCode: http.StatusConflict}
)

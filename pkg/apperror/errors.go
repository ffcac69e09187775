package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error independently of its transport status.
type Kind string

const (
	KindUnauthorized        Kind = "Unauthorized"
	KindForbidden           Kind = "Forbidden"
	KindNotFound            Kind = "NotFound"
	KindValidation          Kind = "ValidationError"
	KindInsufficientStock   Kind = "InsufficientStock"
	KindInsufficientPayment Kind = "InsufficientPayment"
	KindShiftAlreadyOpen    Kind = "ShiftAlreadyOpen"
	KindAlreadyClosed       Kind = "AlreadyClosed"
	KindInvalidSignature    Kind = "InvalidSignature"
	KindPersistence         Kind = "PersistenceError"
	KindDuplicateEntry      Kind = "DuplicateEntry"
	KindInvoiceExhausted    Kind = "InvoiceExhausted"
	KindGateway             Kind = "GatewayError"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`

	cause error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches errors of the same kind, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind != "" && t.Kind == e.Kind
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Kind: KindForbidden, Message: "Forbidden"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Invalid email or password"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Invalid token"}
	ErrInvalidSignature   = &AppError{Code: http.StatusForbidden, Kind: KindInvalidSignature, Message: "Invalid signature"}
	ErrShiftAlreadyOpen   = &AppError{Code: http.StatusConflict, Kind: KindShiftAlreadyOpen, Message: "An active shift is already open for this user"}
	ErrAlreadyClosed      = &AppError{Code: http.StatusConflict, Kind: KindAlreadyClosed, Message: "Shift is already closed"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewBadRequestError creates a validation error carrying a single message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: message,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a duplicate entry error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindDuplicateEntry,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Kind:    KindUnauthorized,
		Message: message,
	}
}

// NewInsufficientStockError reports that a product cannot cover the requested quantity.
func NewInsufficientStockError(productName string, available, requested int) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for %s: available %d, requested %d", productName, available, requested),
	}
}

// NewInsufficientPaymentError reports that the tendered amount is below the total.
func NewInsufficientPaymentError(total, paid string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindInsufficientPayment,
		Message: fmt.Sprintf("Insufficient payment: total %s, paid %s", total, paid),
	}
}

// Persistence wraps a storage failure. The cause is kept for logging only; clients
// see a generic message.
func Persistence(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindPersistence,
		Message: "Failed to persist data",
		cause:   err,
	}
}

func NewInvoiceExhaustedError(prefix string, attempts int) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindInvoiceExhausted,
		Message: fmt.Sprintf("Could not allocate a unique %s number after %d attempts", prefix, attempts),
	}
}

// NewGatewayError wraps a payment gateway failure.
func NewGatewayError(message string, cause error) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Kind:    KindGateway,
		Message: message,
		cause:   cause,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindPersistence,
		Message: "Internal server error",
		cause:   err,
	}
}

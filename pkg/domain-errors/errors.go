// Package domainerrors provides code-tagged errors for the ledger core.
//
// Every fallible operation returns one of these so callers receive the specific
// failure kind, never a generic error. Stores return sentinel errors
// (pkg/platform/sentinel); services translate them into coded errors here.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind in the ledger error taxonomy.
type Code string

const (
	// Initialization
	CodeAlreadyInitialized Code = "already_initialized"
	CodeNotInitialized     Code = "not_initialized"

	// Authorization
	CodeUnauthorized         Code = "unauthorized"
	CodeUnauthorizedHospital Code = "unauthorized_hospital"
	CodeNotAuthorizedBank    Code = "not_authorized_blood_bank"

	// Validation
	CodeInvalidQuantity        Code = "invalid_quantity"
	CodeInvalidExpiration      Code = "invalid_expiration"
	CodeInvalidRequiredBy      Code = "invalid_required_by"
	CodeInvalidDeliveryAddress Code = "invalid_delivery_address"
	CodeInvalidStatus          Code = "invalid_status"

	// Not found
	CodeUnitNotFound    Code = "unit_not_found"
	CodeRequestNotFound Code = "request_not_found"
	CodeNotFound        Code = "not_found"

	// State
	CodeUnitExpired             Code = "unit_expired"
	CodeInvalidStatusTransition Code = "invalid_status_transition"
	CodeAlreadyAllocated        Code = "already_allocated"
	CodeDuplicateRequest        Code = "duplicate_request"
	CodeRequestExpired          Code = "request_expired"

	// Limits
	CodeBatchSizeExceeded Code = "batch_size_exceeded"
	CodeBadRequest        Code = "bad_request"

	// Infrastructure
	CodeInternal Code = "internal"
)

// Error carries a taxonomy code alongside the message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.Err
		if err == nil {
			return false
		}
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in tests.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code carried by err, or CodeInternal when err is
// not a coded error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Package apperr defines the error taxonomy shared by the billing engine, the
// ingestion pipeline and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for HTTP status mapping.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindInvalidAmount
	KindAmountMismatch
	KindNotFound
	KindPermissionDenied
	KindUnauthorized
)

// Error is the application error. Code is a stable snake_case identifier
// rendered to clients; message is human readable.
type Error struct {
	kind    Kind
	code    string
	message string
	details any
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.err }
func (e *Error) Kind() Kind    { return e.kind }
func (e *Error) Code() string  { return e.code }
func (e *Error) Message() string {
	return e.message
}

// Details carries structured information such as field violations.
func (e *Error) Details() any { return e.details }

// New builds an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{kind: kind, code: code, message: message}
}

// WithDetails returns a copy carrying details.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.details = details
	return &cp
}

func Validation(message string, details any) *Error {
	return &Error{kind: KindValidation, code: "validation_failed", message: message, details: details}
}

func InvalidAmount(message string) *Error {
	return &Error{kind: KindInvalidAmount, code: "invalid_amount", message: message}
}

func AmountMismatch(message string) *Error {
	return &Error{kind: KindAmountMismatch, code: "amount_mismatch", message: message}
}

func NotFound(what string) *Error {
	return &Error{kind: KindNotFound, code: "not_found", message: what + " not found"}
}

func PermissionDenied(message string) *Error {
	return &Error{kind: KindPermissionDenied, code: "forbidden", message: message}
}

func Unauthorized() *Error {
	return &Error{kind: KindUnauthorized, code: "unauthorized", message: "authentication required"}
}

// Unexpected wraps an internal failure. The cause is never shown to clients.
func Unexpected(message string, err error) *Error {
	return &Error{kind: KindUnexpected, code: "internal_error", message: message, err: err}
}

// Wrap annotates err with message, keeping its kind and code when err is already
// an *Error, otherwise classifying it as unexpected.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return &Error{kind: ae.kind, code: ae.code, message: message, details: ae.details, err: err}
	}
	return Unexpected(message, err)
}

// KindOf reports the kind of err; plain errors are unexpected.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind
	}
	return KindUnexpected
}

// Is reports whether err has the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a kind to its HTTP status.
func Status(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidAmount:
		return http.StatusBadRequest
	case KindAmountMismatch:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf is Status(KindOf(err)).
func StatusOf(err error) int { return Status(KindOf(err)) }

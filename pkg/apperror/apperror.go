// Package apperror is the error taxonomy shared by services and handlers.
package apperror

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindOutOfStock          Kind = "out_of_stock"
	KindInvalidQuantity     Kind = "invalid_quantity"
	KindEmptyCart           Kind = "empty_cart"
	KindConcurrencyConflict Kind = "concurrency_conflict"
	KindExternalService     Kind = "external_service_failure"
	KindInvalidInput        Kind = "invalid_input"
	KindInvalidTransition   Kind = "invalid_transition"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindInternal            Kind = "internal"
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status code handlers reply with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindOutOfStock, KindConcurrencyConflict, KindInvalidTransition, KindConflict:
		return http.StatusConflict
	case KindInvalidQuantity, KindInvalidInput:
		return http.StatusBadRequest
	case KindEmptyCart:
		return http.StatusUnprocessableEntity
	case KindExternalService:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage hides internal error text from clients.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "Internal Server Error"
}

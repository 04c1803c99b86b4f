// Package apperr carries the error kinds shared by the ordering pipeline and
// the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers. Client-fault kinds are safe to show.
type Kind string

const (
	KindItemNotFound        Kind = "ItemNotFound"
	KindInvalidSize         Kind = "InvalidSize"
	KindInvalidQuantity     Kind = "InvalidQuantity"
	KindCartTooLarge        Kind = "CartTooLarge"
	KindInvalidContact      Kind = "InvalidContact"
	KindPriceMismatch       Kind = "PriceMismatch"
	KindPaymentNotCompleted Kind = "PaymentNotCompleted"
	KindInvalidSignature    Kind = "InvalidSignature"
	KindMalformedMetadata   Kind = "MalformedMetadata"
	KindSessionNotFound     Kind = "SessionNotFound"
	KindOrderNotFound       Kind = "OrderNotFound"
	KindInvalidStatus       Kind = "InvalidStatus"
	KindInvalidTransition   Kind = "InvalidTransition"
	KindUnauthorized        Kind = "Unauthorized"
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	KindDuplicateReference  Kind = "DuplicateReference"
	KindInternal            Kind = "Internal"
)

// HTTPStatus maps a kind onto the response code used by the handlers.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindItemNotFound, KindSessionNotFound, KindOrderNotFound:
		return http.StatusNotFound
	case KindInvalidSize, KindInvalidQuantity, KindCartTooLarge, KindInvalidContact, KindPaymentNotCompleted,
		KindInvalidSignature, KindMalformedMetadata, KindInvalidStatus:
		return http.StatusBadRequest
	case KindPriceMismatch, KindInvalidTransition:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ClientFault reports whether the caller caused the error.
func (k Kind) ClientFault() bool {
	return k.HTTPStatus() < http.StatusInternalServerError
}

// Error is an error tagged with a Kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags err with kind. A nil err yields nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when none is present.
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

// Message returns the client-safe message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Msg != "" {
		return appErr.Msg
	}
	return "internal server error"
}

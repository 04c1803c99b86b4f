package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfFindsWrappedError(t *testing.T) {
	base := New(KindInvalidSize, "size %q not offered", "Jumbo")
	wrapped := fmt.Errorf("pricing line 2: %w", base)

	if got := KindOf(wrapped); got != KindInvalidSize {
		t.Fatalf("expected InvalidSize, got %s", got)
	}
	if !Is(wrapped, KindInvalidSize) {
		t.Fatal("expected Is to match InvalidSize")
	}
	if Message(wrapped) != `size "Jumbo" not offered` {
		t.Fatalf("unexpected message %q", Message(wrapped))
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	err := errors.New("boom")
	if got := KindOf(err); got != KindInternal {
		t.Fatalf("expected Internal, got %s", got)
	}
	if Message(err) != "internal server error" {
		t.Fatalf("internal detail leaked: %q", Message(err))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindInternal, nil, "x") != nil {
		t.Fatal("expected nil when wrapping nil")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindUpstreamUnavailable, cause, "payment processor unavailable")
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "payment processor unavailable: connection reset" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindItemNotFound:        http.StatusNotFound,
		KindInvalidSize:         http.StatusBadRequest,
		KindInvalidQuantity:     http.StatusBadRequest,
		KindPaymentNotCompleted: http.StatusBadRequest,
		KindInvalidSignature:    http.StatusBadRequest,
		KindInvalidStatus:       http.StatusBadRequest,
		KindInvalidTransition:   http.StatusConflict,
		KindPriceMismatch:       http.StatusConflict,
		KindUpstreamUnavailable: http.StatusServiceUnavailable,
		KindDuplicateReference:  http.StatusInternalServerError,
		KindInternal:            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Fatalf("%s: expected %d, got %d", kind, want, got)
		}
	}
	if KindDuplicateReference.ClientFault() {
		t.Fatal("DuplicateReference must be a server fault")
	}
	if !KindInvalidTransition.ClientFault() {
		t.Fatal("InvalidTransition must be a client fault")
	}
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsKind(t *testing.T) {
	base := NotFound("invoice")
	wrapped := Wrap(base, "download")
	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("kind lost: %v", KindOf(wrapped))
	}
	if StatusOf(wrapped) != http.StatusNotFound {
		t.Fatalf("status = %d", StatusOf(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("wrapped error should unwrap to base")
	}
}

func TestWrapPlainErrorIsUnexpected(t *testing.T) {
	err := Wrap(errors.New("disk full"), "save pdf")
	if KindOf(err) != KindUnexpected || StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("plain error should be unexpected, got %v", KindOf(err))
	}
	if Wrap(nil, "x") != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
}

func TestStatusMapping(t *testing.T) {
	cases := map[error]int{
		Validation("bad", nil):              http.StatusBadRequest,
		InvalidAmount("neg"):                http.StatusBadRequest,
		AmountMismatch("off"):               http.StatusUnprocessableEntity,
		PermissionDenied("no"):              http.StatusForbidden,
		Unauthorized():                      http.StatusUnauthorized,
		fmt.Errorf("ctx: %w", NotFound("x")): http.StatusNotFound,
	}
	for err, want := range cases {
		if got := StatusOf(err); got != want {
			t.Errorf("StatusOf(%v) = %d, want %d", err, got, want)
		}
	}
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("missing"), http.StatusNotFound},
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusConflict},
		{Unprocessable("ref"), http.StatusUnprocessableEntity},
		{Unavailable("db down", errors.New("timeout")), http.StatusServiceUnavailable},
		{Internal("boom"), http.StatusInternalServerError},
		{New(KindUnknown, "?"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("%q: expected status %d, got %d", tc.err.Message, tc.want, got)
		}
	}
}

func TestGetKindFindsWrappedErrors(t *testing.T) {
	base := NotFound("lead not found")
	wrapped := fmt.Errorf("recompute: %w", base)

	if GetKind(wrapped) != KindNotFound {
		t.Fatalf("expected KindNotFound through wrapping, got %v", GetKind(wrapped))
	}
	if GetCode(wrapped) != CodeNotFound {
		t.Fatalf("expected code %s, got %s", CodeNotFound, GetCode(wrapped))
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("expected KindUnknown for untyped error")
	}
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Unavailable("recompute failed", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable via errors.Is")
	}
	if err.Code != CodeTransientStorageFailure {
		t.Fatalf("expected transient storage code, got %s", err.Code)
	}
}

func TestErrorIncludesOp(t *testing.T) {
	err := Conflict("invalid transition").WithOp("lifecycle.UpdateStatus")
	if err.Error() != "lifecycle.UpdateStatus: invalid transition" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

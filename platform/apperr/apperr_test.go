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
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{New(KindUnauthorized, "x"), http.StatusUnauthorized},
		{Unavailable("db down", errors.New("dial")), http.StatusServiceUnavailable},
		{New(KindUnknown, "x"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err.Kind, got, tc.want)
		}
	}
}

func TestGetKindFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("service: %w", NotFound("lookup not found"))
	if !Is(err, KindNotFound) {
		t.Errorf("Is(wrapped, KindNotFound) = false, want true")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Errorf("GetKind(plain) should be KindUnknown")
	}
}

func TestErrorIncludesCauseButPublicMessageDoesNot(t *testing.T) {
	err := Wrap(KindInternal, "failed to save", errors.New("pq: secret detail")).WithOp("credentials.Save")
	if got := err.Error(); got != "credentials.Save: failed to save: pq: secret detail" {
		t.Errorf("Error() = %q", got)
	}
	if got := err.PublicMessage(); got != "failed to save" {
		t.Errorf("PublicMessage() = %q, want %q", got, "failed to save")
	}
}

package external

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": body["name"]})
	}))
	defer srv.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := NewHTTPClient(srv.Client()).Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Query:  url.Values{"page": {"2"}},
		Header: http.Header{"X-Api-Key": {"k"}},
		Body:   map[string]string{"name": "ana"},
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "ana", out.Echo)
}

func TestHTTPClientSendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.Client()).Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Form:   url.Values{"grant_type": {"client_credentials"}},
	}, nil)
	require.NoError(t, err)
}

func TestHTTPClientReturnsSanitizedHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "slow down, Bearer sk_test_999")
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.Client()).Do(context.Background(), Request{URL: srv.URL}, nil)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, "30", httpErr.RetryAfter)
	assert.NotContains(t, httpErr.Error(), "sk_test_999")
	assert.Equal(t, CategoryRateLimit, Classify(ServiceApollo, err).Category)
}

func TestHTTPClientMalformedBodyIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}))
	defer srv.Close()

	var out map[string]any
	err := NewHTTPClient(srv.Client()).Do(context.Background(), Request{URL: srv.URL}, &out)

	assert.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Equal(t, CategoryUnknown, Classify(ServiceApollo, err).Category)
}

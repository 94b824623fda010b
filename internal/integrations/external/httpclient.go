package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prospecting_backend/platform/sanitize"
)

const (
	userAgent       = "prospecting-backend/1.0"
	maxResponseBody = 4 << 20
)

// HTTPError is a sanitized summary of a non-2xx provider response.
// Raw bodies are never kept; Snippet is redacted and truncated.
type HTTPError struct {
	StatusCode int
	Status     string
	RetryAfter string
	Snippet    string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "provider http error"
	}
	parts := []string{"provider http error: status=" + strings.TrimSpace(e.Status)}
	if e.RetryAfter != "" {
		parts = append(parts, "retryAfter="+e.RetryAfter)
	}
	if e.Snippet != "" {
		parts = append(parts, "body="+e.Snippet)
	}
	return strings.Join(parts, " ")
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		RetryAfter: resp.Header.Get("Retry-After"),
		Snippet:    sanitize.Snippet(body),
	}
}

// Request describes one JSON call. Form takes precedence over Body.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   any
	Form   url.Values
}

// HTTPClient performs JSON requests for the provider adapters.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient wraps client; nil gets a client whose timeout only guards against
// Execute being bypassed, since Execute enforces the real per-attempt bound.
func NewHTTPClient(client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPClient{client: client}
}

// Do sends req and decodes a 2xx JSON body into out when out is non-nil.
// Non-2xx responses return *HTTPError.
func (c *HTTPClient) Do(ctx context.Context, req Request, out any) error {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

func (c *HTTPClient) build(ctx context.Context, req Request) (*http.Request, error) {
	target := req.URL
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode: %v", ErrInvalidInput, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrInvalidInput, err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	return httpReq, nil
}

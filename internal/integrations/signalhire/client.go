// Package signalhire integrates the SignalHire contact search API.
// Searches are asynchronous: the provider accepts a request and later POSTs results to a callback URL.
package signalhire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"prospecting_backend/internal/integrations/external"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://www.signalhire.com/api/v1"
	maxItems       = 100
)

// Credits is the remaining balance reported by the provider.
type Credits struct {
	Credits int `json:"credits"`
}

// LookupAccepted is the provider's acknowledgement of a search request.
type LookupAccepted struct {
	RequestID string
}

type searchRequest struct {
	Items       []string `json:"items"`
	CallbackURL string   `json:"callbackUrl"`
}

type searchResponse struct {
	RequestID json.RawMessage `json:"requestId"`
}

type Client struct {
	baseURL string
	http    *external.HTTPClient
	exec    *external.Executor
	creds   external.CredentialSource
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = external.NewHTTPClient(h) }
}

func New(exec *external.Executor, creds external.CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    external.NewHTTPClient(nil),
		exec:    exec,
		creds:   creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() external.ServiceName { return external.ServiceSignalHire }

func (c *Client) TestConnection(ctx context.Context, tenantID uuid.UUID) external.ConnectionResult {
	return external.Connection(c.exec, c.Name(), c.Credits(ctx, tenantID))
}

// Credits returns the remaining search credits.
func (c *Client) Credits(ctx context.Context, tenantID uuid.UUID) external.Result[Credits] {
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "credits", func(ctx context.Context, key string) (Credits, error) {
		var out Credits
		err := c.http.Do(ctx, external.Request{URL: c.baseURL + "/credits", Header: headers(key)}, &out)
		return out, err
	})
}

// RequestLookup submits items (LinkedIn URLs, emails or phones) for an asynchronous search.
// Results arrive later at callbackURL tagged with the returned request id.
func (c *Client) RequestLookup(ctx context.Context, tenantID uuid.UUID, items []string, callbackURL string) external.Result[LookupAccepted] {
	if len(items) == 0 || len(items) > maxItems {
		return external.Fail[LookupAccepted](c.exec, c.Name(), "candidate_search",
			fmt.Errorf("%w: between 1 and %d items are required", external.ErrInvalidInput, maxItems))
	}
	if callbackURL == "" {
		return external.Fail[LookupAccepted](c.exec, c.Name(), "candidate_search",
			fmt.Errorf("%w: callback url is required", external.ErrInvalidInput))
	}

	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "candidate_search", func(ctx context.Context, key string) (LookupAccepted, error) {
		var out searchResponse
		err := c.http.Do(ctx, external.Request{
			Method: http.MethodPost,
			URL:    c.baseURL + "/candidate/search",
			Header: headers(key),
			Body:   searchRequest{Items: items, CallbackURL: callbackURL},
		}, &out)
		if err != nil {
			return LookupAccepted{}, err
		}
		id := parseRequestID(out.RequestID)
		if id == "" {
			return LookupAccepted{}, fmt.Errorf("%w: missing requestId", external.ErrUnexpectedResponse)
		}
		return LookupAccepted{RequestID: id}, nil
	})
}

// parseRequestID accepts the id as a JSON number or string.
func parseRequestID(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func headers(key string) http.Header {
	return http.Header{"apikey": {key}}
}

var _ external.Adapter = (*Client)(nil)

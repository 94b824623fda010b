// Package apollo integrates the Apollo.io people search and enrichment API.
package apollo

import (
	"context"
	"fmt"
	"net/http"

	"prospecting_backend/internal/integrations/external"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://api.apollo.io/api/v1"
	maxPerPage     = 100
)

// Client calls Apollo with the tenant's API key.
type Client struct {
	baseURL string
	http    *external.HTTPClient
	exec    *external.Executor
	creds   external.CredentialSource
}

type Option func(*Client)

// WithBaseURL points the client at another host, used by tests.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the transport.
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

func (c *Client) Name() external.ServiceName { return external.ServiceApollo }

// TestConnection checks the key against the health endpoint.
// Apollo answers 200 with is_logged_in=false for unknown keys, which is treated as auth.
func (c *Client) TestConnection(ctx context.Context, tenantID uuid.UUID) external.ConnectionResult {
	res := external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "health", func(ctx context.Context, key string) (healthResponse, error) {
		var out healthResponse
		if err := c.http.Do(ctx, external.Request{URL: c.baseURL + "/auth/health", Header: c.headers(key)}, &out); err != nil {
			return out, err
		}
		if !out.IsLoggedIn {
			return out, &external.HTTPError{StatusCode: http.StatusUnauthorized, Status: "401 not logged in"}
		}
		return out, nil
	})
	return external.Connection(c.exec, c.Name(), res)
}

// SearchPeople runs a mixed people search.
func (c *Client) SearchPeople(ctx context.Context, tenantID uuid.UUID, q PeopleSearch) external.Result[PeopleSearchResult] {
	if q.PerPage <= 0 || q.PerPage > maxPerPage {
		q.PerPage = 25
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "search_people", func(ctx context.Context, key string) (PeopleSearchResult, error) {
		var out PeopleSearchResult
		err := c.http.Do(ctx, external.Request{
			Method: http.MethodPost,
			URL:    c.baseURL + "/mixed_people/search",
			Header: c.headers(key),
			Body:   q,
		}, &out)
		return out, err
	})
}

// EnrichPerson matches one person and reveals contact data.
func (c *Client) EnrichPerson(ctx context.Context, tenantID uuid.UUID, req EnrichRequest) external.Result[Person] {
	if !req.identifiable() {
		return external.Fail[Person](c.exec, c.Name(), "enrich_person",
			fmt.Errorf("%w: email, linkedin url or name with domain is required", external.ErrInvalidInput))
	}
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "enrich_person", func(ctx context.Context, key string) (Person, error) {
		var out matchResponse
		err := c.http.Do(ctx, external.Request{
			Method: http.MethodPost,
			URL:    c.baseURL + "/people/match",
			Header: c.headers(key),
			Body:   req,
		}, &out)
		if err != nil {
			return Person{}, err
		}
		if out.Person == nil {
			return Person{}, &external.HTTPError{StatusCode: http.StatusNotFound, Status: "404 no match"}
		}
		return *out.Person, nil
	})
}

func (c *Client) headers(key string) http.Header {
	return http.Header{
		"X-Api-Key":     {key},
		"Cache-Control": {"no-cache"},
	}
}

var _ external.Adapter = (*Client)(nil)

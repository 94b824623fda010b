// Package apify integrates the Apify actor platform used for scraping lead sources.
package apify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"prospecting_backend/internal/integrations/external"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.apify.com/v2"

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

func (c *Client) Name() external.ServiceName { return external.ServiceApify }

func (c *Client) TestConnection(ctx context.Context, tenantID uuid.UUID) external.ConnectionResult {
	return external.Connection(c.exec, c.Name(), c.Me(ctx, tenantID))
}

// Me returns the account that owns the token.
func (c *Client) Me(ctx context.Context, tenantID uuid.UUID) external.Result[User] {
	return get[User](ctx, c, tenantID, "me", "/users/me")
}

// RunActor starts an actor run with the given input and returns immediately.
// actorID may be "username/actor"; the slash is encoded as Apify expects.
func (c *Client) RunActor(ctx context.Context, tenantID uuid.UUID, actorID string, input any) external.Result[Run] {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return external.Fail[Run](c.exec, c.Name(), "run_actor",
			fmt.Errorf("%w: actor id is required", external.ErrInvalidInput))
	}
	if input == nil {
		input = map[string]any{}
	}
	path := "/acts/" + url.PathEscape(strings.ReplaceAll(actorID, "/", "~")) + "/runs"
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "run_actor", func(ctx context.Context, token string) (Run, error) {
		var out envelope[Run]
		err := c.http.Do(ctx, external.Request{
			Method: http.MethodPost,
			URL:    c.baseURL + path,
			Header: bearer(token),
			Body:   input,
		}, &out)
		return out.Data, err
	})
}

func (c *Client) GetRun(ctx context.Context, tenantID uuid.UUID, runID string) external.Result[Run] {
	if strings.TrimSpace(runID) == "" {
		return external.Fail[Run](c.exec, c.Name(), "get_run",
			fmt.Errorf("%w: run id is required", external.ErrInvalidInput))
	}
	return get[Run](ctx, c, tenantID, "get_run", "/actor-runs/"+url.PathEscape(runID))
}

// DatasetItems reads the cleaned items of a dataset.
func (c *Client) DatasetItems(ctx context.Context, tenantID uuid.UUID, datasetID string, limit int) external.Result[DatasetItems] {
	if strings.TrimSpace(datasetID) == "" {
		return external.Fail[DatasetItems](c.exec, c.Name(), "dataset_items",
			fmt.Errorf("%w: dataset id is required", external.ErrInvalidInput))
	}
	query := url.Values{"format": {"json"}, "clean": {"true"}}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "dataset_items", func(ctx context.Context, token string) (DatasetItems, error) {
		var out DatasetItems
		err := c.http.Do(ctx, external.Request{
			URL:    c.baseURL + "/datasets/" + url.PathEscape(datasetID) + "/items",
			Query:  query,
			Header: bearer(token),
		}, &out)
		return out, err
	})
}

func get[T any](ctx context.Context, c *Client, tenantID uuid.UUID, op, path string) external.Result[T] {
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), op, func(ctx context.Context, token string) (T, error) {
		var out envelope[T]
		err := c.http.Do(ctx, external.Request{URL: c.baseURL + path, Header: bearer(token)}, &out)
		return out.Data, err
	})
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

var _ external.Adapter = (*Client)(nil)

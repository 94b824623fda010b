// Package snovio integrates the Snov.io email finder API.
// Snov.io uses OAuth client credentials; a fresh token is fetched for every operation.
package snovio

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"prospecting_backend/internal/integrations/credentials"
	"prospecting_backend/internal/integrations/external"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.snov.io"

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

func (c *Client) Name() external.ServiceName { return external.ServiceSnovio }

func (c *Client) TestConnection(ctx context.Context, tenantID uuid.UUID) external.ConnectionResult {
	return external.Connection(c.exec, c.Name(), c.Balance(ctx, tenantID))
}

// Balance returns the remaining credits.
func (c *Client) Balance(ctx context.Context, tenantID uuid.UUID) external.Result[Balance] {
	return call(ctx, c, tenantID, "balance", func(ctx context.Context, token string) (Balance, error) {
		var out balanceResponse
		err := c.http.Do(ctx, external.Request{URL: c.baseURL + "/v1/get-balance", Header: bearer(token)}, &out)
		if err != nil {
			return Balance{}, err
		}
		if !out.Success {
			return Balance{}, rejected("balance unavailable")
		}
		return out.Data, nil
	})
}

// FindEmail finds addresses for a person at a company domain.
func (c *Client) FindEmail(ctx context.Context, tenantID uuid.UUID, req FindEmailRequest) external.Result[FindEmailResult] {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" || strings.TrimSpace(req.Domain) == "" {
		return external.Fail[FindEmailResult](c.exec, c.Name(), "find_email",
			fmt.Errorf("%w: first name, last name and domain are required", external.ErrInvalidInput))
	}
	return call(ctx, c, tenantID, "find_email", func(ctx context.Context, token string) (FindEmailResult, error) {
		var out findEmailResponse
		err := c.http.Do(ctx, external.Request{
			Method: http.MethodPost,
			URL:    c.baseURL + "/v1/get-emails-from-names",
			Header: bearer(token),
			Form: url.Values{
				"firstName": {req.FirstName},
				"lastName":  {req.LastName},
				"domain":    {req.Domain},
			},
		}, &out)
		if err != nil {
			return FindEmailResult{}, err
		}
		if !out.Success {
			return FindEmailResult{}, rejected(out.Status.Description)
		}
		return out.Data, nil
	})
}

// ProfileByEmail returns the public profile behind an email address.
func (c *Client) ProfileByEmail(ctx context.Context, tenantID uuid.UUID, email string) external.Result[Profile] {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return external.Fail[Profile](c.exec, c.Name(), "profile_by_email",
			fmt.Errorf("%w: invalid email", external.ErrInvalidInput))
	}
	return call(ctx, c, tenantID, "profile_by_email", func(ctx context.Context, token string) (Profile, error) {
		var out profileResponse
		err := c.http.Do(ctx, external.Request{
			Method: http.MethodPost,
			URL:    c.baseURL + "/v1/get-profile-by-email",
			Header: bearer(token),
			Form:   url.Values{"email": {addr.Address}},
		}, &out)
		if err != nil {
			return Profile{}, err
		}
		if !out.Success {
			return Profile{}, &external.HTTPError{StatusCode: http.StatusNotFound, Status: "404 profile not found"}
		}
		return out.Profile, nil
	})
}

// call wraps an operation with the credential parse and token exchange so both run inside one Execute.
func call[T any](ctx context.Context, c *Client, tenantID uuid.UUID, op string, fn func(ctx context.Context, token string) (T, error)) external.Result[T] {
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), op, func(ctx context.Context, secret string) (T, error) {
		var zero T
		cred, err := credentials.ParseSnovio(secret)
		if err != nil {
			return zero, err
		}
		token, err := c.accessToken(ctx, cred)
		if err != nil {
			return zero, err
		}
		return fn(ctx, token)
	})
}

func (c *Client) accessToken(ctx context.Context, cred credentials.SnovioCredential) (string, error) {
	var out tokenResponse
	err := c.http.Do(ctx, external.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/v1/oauth/access_token",
		Form: url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {cred.ClientID},
			"client_secret": {cred.ClientSecret},
		},
	}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: token response carried no access_token", external.ErrInvalidCredential)
	}
	return out.AccessToken, nil
}

func rejected(reason string) error {
	return &external.HTTPError{StatusCode: http.StatusUnprocessableEntity, Status: "422 rejected", Snippet: reason}
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

var _ external.Adapter = (*Client)(nil)

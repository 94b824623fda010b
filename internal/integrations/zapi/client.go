// Package zapi integrates the Z-API WhatsApp gateway.
package zapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"prospecting_backend/internal/integrations/credentials"
	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/platform/phone"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.z-api.io"

// InstanceStatus reports whether the WhatsApp session behind an instance is live.
type InstanceStatus struct {
	Connected           bool   `json:"connected"`
	SmartphoneConnected bool   `json:"smartphoneConnected"`
	Session             bool   `json:"session"`
	Error               string `json:"error,omitempty"`
}

type SentMessage struct {
	ZaapID    string `json:"zaapId"`
	MessageID string `json:"messageId"`
	ID        string `json:"id"`
}

type PhoneExists struct {
	Exists bool   `json:"exists"`
	Phone  string `json:"phone"`
	LID    string `json:"lid,omitempty"`
}

type sendTextRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
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

func (c *Client) Name() external.ServiceName { return external.ServiceZAPI }

// TestConnection succeeds only when the instance session is connected.
func (c *Client) TestConnection(ctx context.Context, tenantID uuid.UUID) external.ConnectionResult {
	res := c.Status(ctx, tenantID)
	if res.OK() && !res.Value.Connected {
		res = external.Fail[InstanceStatus](c.exec, c.Name(), "status",
			&external.HTTPError{StatusCode: http.StatusUnauthorized, Status: "401 instance disconnected", Snippet: res.Value.Error})
	}
	return external.Connection(c.exec, c.Name(), res)
}

func (c *Client) Status(ctx context.Context, tenantID uuid.UUID) external.Result[InstanceStatus] {
	return call(ctx, c, tenantID, "status", func(ctx context.Context, base string, header http.Header) (InstanceStatus, error) {
		var out InstanceStatus
		err := c.http.Do(ctx, external.Request{URL: base + "/status", Header: header}, &out)
		return out, err
	})
}

// SendText sends a WhatsApp text message. The phone is normalized to digits first.
func (c *Client) SendText(ctx context.Context, tenantID uuid.UUID, to, message string) external.Result[SentMessage] {
	digits, ok := phone.Digits(to)
	if !ok {
		return external.Fail[SentMessage](c.exec, c.Name(), "send_text",
			fmt.Errorf("%w: invalid phone number", external.ErrInvalidInput))
	}
	if strings.TrimSpace(message) == "" {
		return external.Fail[SentMessage](c.exec, c.Name(), "send_text",
			fmt.Errorf("%w: message is empty", external.ErrInvalidInput))
	}
	return call(ctx, c, tenantID, "send_text", func(ctx context.Context, base string, header http.Header) (SentMessage, error) {
		var out SentMessage
		err := c.http.Do(ctx, external.Request{
			Method: http.MethodPost,
			URL:    base + "/send-text",
			Header: header,
			Body:   sendTextRequest{Phone: digits, Message: message},
		}, &out)
		return out, err
	})
}

// PhoneExists checks whether a number has a WhatsApp account.
func (c *Client) PhoneExists(ctx context.Context, tenantID uuid.UUID, number string) external.Result[PhoneExists] {
	digits, ok := phone.Digits(number)
	if !ok {
		return external.Fail[PhoneExists](c.exec, c.Name(), "phone_exists",
			fmt.Errorf("%w: invalid phone number", external.ErrInvalidInput))
	}
	return call(ctx, c, tenantID, "phone_exists", func(ctx context.Context, base string, header http.Header) (PhoneExists, error) {
		var out PhoneExists
		err := c.http.Do(ctx, external.Request{URL: base + "/phone-exists/" + digits, Header: header}, &out)
		return out, err
	})
}

func call[T any](ctx context.Context, c *Client, tenantID uuid.UUID, op string, fn func(ctx context.Context, base string, header http.Header) (T, error)) external.Result[T] {
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), op, func(ctx context.Context, secret string) (T, error) {
		var zero T
		cred, err := credentials.ParseZAPI(secret)
		if err != nil {
			return zero, err
		}
		base := c.baseURL + "/instances/" + url.PathEscape(cred.InstanceID) + "/token/" + url.PathEscape(cred.Token)
		return fn(ctx, base, http.Header{"Client-Token": {cred.ClientToken}})
	})
}

var _ external.Adapter = (*Client)(nil)

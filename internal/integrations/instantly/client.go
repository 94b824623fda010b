// Package instantly integrates the Instantly v2 cold outreach API.
package instantly

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"prospecting_backend/internal/integrations/external"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://api.instantly.ai/api/v2"
	maxLeadsPerAdd = 1000
)

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

func (c *Client) Name() external.ServiceName { return external.ServiceInstantly }

// TestConnection lists a single campaign.
func (c *Client) TestConnection(ctx context.Context, tenantID uuid.UUID) external.ConnectionResult {
	return external.Connection(c.exec, c.Name(), c.ListCampaigns(ctx, tenantID, 1))
}

func (c *Client) ListCampaigns(ctx context.Context, tenantID uuid.UUID, limit int) external.Result[CampaignPage] {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "list_campaigns", func(ctx context.Context, key string) (CampaignPage, error) {
		var out CampaignPage
		err := c.http.Do(ctx, external.Request{
			URL:    c.baseURL + "/campaigns",
			Query:  url.Values{"limit": {fmt.Sprint(limit)}},
			Header: bearer(key),
		}, &out)
		return out, err
	})
}

func (c *Client) CreateCampaign(ctx context.Context, tenantID uuid.UUID, in NewCampaign) external.Result[Campaign] {
	if strings.TrimSpace(in.Name) == "" {
		return external.Fail[Campaign](c.exec, c.Name(), "create_campaign",
			fmt.Errorf("%w: campaign name is required", external.ErrInvalidInput))
	}
	if len(in.CampaignSchedule.Schedules) == 0 {
		in.CampaignSchedule.Schedules = []Schedule{defaultSchedule()}
	}
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "create_campaign", func(ctx context.Context, key string) (Campaign, error) {
		var out Campaign
		err := c.http.Do(ctx, external.Request{
			Method: http.MethodPost,
			URL:    c.baseURL + "/campaigns",
			Header: bearer(key),
			Body:   in,
		}, &out)
		return out, err
	})
}

// AddLeads pushes leads into a campaign. Invalid addresses are rejected before any call.
func (c *Client) AddLeads(ctx context.Context, tenantID uuid.UUID, campaignID string, leads []Lead) external.Result[AddLeadsResult] {
	if err := validateLeads(campaignID, leads); err != nil {
		return external.Fail[AddLeadsResult](c.exec, c.Name(), "add_leads", err)
	}
	return external.Call(ctx, c.exec, c.creds, tenantID, c.Name(), "add_leads", func(ctx context.Context, key string) (AddLeadsResult, error) {
		var out AddLeadsResult
		err := c.http.Do(ctx, external.Request{
			Method: http.MethodPost,
			URL:    c.baseURL + "/leads/add",
			Header: bearer(key),
			Body:   addLeadsRequest{CampaignID: campaignID, Leads: leads},
		}, &out)
		return out, err
	})
}

func validateLeads(campaignID string, leads []Lead) error {
	if strings.TrimSpace(campaignID) == "" {
		return fmt.Errorf("%w: campaign id is required", external.ErrInvalidInput)
	}
	if len(leads) == 0 || len(leads) > maxLeadsPerAdd {
		return fmt.Errorf("%w: between 1 and %d leads are required", external.ErrInvalidInput, maxLeadsPerAdd)
	}
	for i, lead := range leads {
		if _, err := mail.ParseAddress(lead.Email); err != nil {
			return fmt.Errorf("%w: lead %d has an invalid email", external.ErrInvalidInput, i)
		}
	}
	return nil
}

func defaultSchedule() Schedule {
	return Schedule{
		Name:     "Business hours",
		Timing:   ScheduleTiming{From: "09:00", To: "17:00"},
		Days:     map[string]bool{"1": true, "2": true, "3": true, "4": true, "5": true},
		Timezone: "America/Sao_Paulo",
	}
}

func bearer(key string) http.Header {
	return http.Header{"Authorization": {"Bearer " + key}}
}

var _ external.Adapter = (*Client)(nil)

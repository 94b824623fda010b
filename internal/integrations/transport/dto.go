package transport

import "prospecting_backend/internal/integrations/external"

// SaveCredentialRequest carries the raw secret. Snov.io and Z-API secrets are JSON objects encoded as a string.
type SaveCredentialRequest struct {
	Secret string `json:"secret" validate:"required,min=1,max=4096"`
}

// TestAllResponse lists the connection test of every configured integration.
type TestAllResponse struct {
	Results []external.ConnectionResult `json:"results"`
}

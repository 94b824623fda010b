package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// WebhookRoute is the callback route under the v1 group; WebhookPath is its absolute path.
const (
	WebhookRoute = "/webhook/signalhire"
	WebhookPath  = "/api/v1" + WebhookRoute
)

// CallbackSigner builds and verifies tenant-bound webhook URLs.
// The signature is hex(HMAC-SHA256(secret, tenantID)).
type CallbackSigner struct {
	baseURL string
	secret  []byte
}

func NewCallbackSigner(publicBaseURL, secret string) *CallbackSigner {
	return &CallbackSigner{
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		secret:  []byte(secret),
	}
}

// URL returns the callback URL handed to the provider for tenantID.
func (s *CallbackSigner) URL(tenantID uuid.UUID) string {
	q := url.Values{}
	q.Set("tenant", tenantID.String())
	q.Set("sig", s.sign(tenantID))
	return s.baseURL + WebhookPath + "?" + q.Encode()
}

// Verify returns the tenant when sig matches.
func (s *CallbackSigner) Verify(tenant, sig string) (uuid.UUID, bool) {
	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		return uuid.Nil, false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return uuid.Nil, false
	}
	want, _ := hex.DecodeString(s.sign(tenantID))
	if !hmac.Equal(got, want) {
		return uuid.Nil, false
	}
	return tenantID, true
}

func (s *CallbackSigner) sign(tenantID uuid.UUID) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(tenantID.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

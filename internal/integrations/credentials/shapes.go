package credentials

import (
	"encoding/json"
	"fmt"
	"strings"

	"prospecting_backend/internal/integrations/external"
)

// SnovioCredential is the JSON secret stored for Snov.io (OAuth client credentials).
type SnovioCredential struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// ZAPICredential is the JSON secret stored for a Z-API WhatsApp instance.
type ZAPICredential struct {
	InstanceID  string `json:"instanceId"`
	Token       string `json:"token"`
	ClientToken string `json:"clientToken"`
}

// ParseSnovio decodes and checks a stored Snov.io secret.
func ParseSnovio(secret string) (SnovioCredential, error) {
	var cred SnovioCredential
	if err := decodeShape(secret, &cred); err != nil {
		return cred, err
	}
	if cred.ClientID == "" || cred.ClientSecret == "" {
		return cred, fmt.Errorf("%w: clientId and clientSecret are required", external.ErrInvalidCredential)
	}
	return cred, nil
}

// ParseZAPI decodes and checks a stored Z-API secret.
func ParseZAPI(secret string) (ZAPICredential, error) {
	var cred ZAPICredential
	if err := decodeShape(secret, &cred); err != nil {
		return cred, err
	}
	if cred.InstanceID == "" || cred.Token == "" || cred.ClientToken == "" {
		return cred, fmt.Errorf("%w: instanceId, token and clientToken are required", external.ErrInvalidCredential)
	}
	return cred, nil
}

// ValidateSecret checks that secret has the shape service expects before it is stored.
func ValidateSecret(service external.ServiceName, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("%w: secret is empty", external.ErrInvalidCredential)
	}
	switch service {
	case external.ServiceSnovio:
		_, err := ParseSnovio(secret)
		return err
	case external.ServiceZAPI:
		_, err := ParseZAPI(secret)
		return err
	default:
		return nil
	}
}

func decodeShape(secret string, out any) error {
	dec := json.NewDecoder(strings.NewReader(secret))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: malformed JSON", external.ErrInvalidCredential)
	}
	return nil
}

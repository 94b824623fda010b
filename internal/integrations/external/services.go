package external

import (
	"fmt"
	"strings"
)

// ServiceName identifies a third-party provider. Values are stored in the database.
type ServiceName string

const (
	ServiceApollo     ServiceName = "apollo"
	ServiceSignalHire ServiceName = "signalhire"
	ServiceSnovio     ServiceName = "snovio"
	ServiceInstantly  ServiceName = "instantly"
	ServiceApify      ServiceName = "apify"
	ServiceZAPI       ServiceName = "zapi"
)

var displayNames = map[ServiceName]string{
	ServiceApollo:     "Apollo",
	ServiceSignalHire: "SignalHire",
	ServiceSnovio:     "Snov.io",
	ServiceInstantly:  "Instantly",
	ServiceApify:      "Apify",
	ServiceZAPI:       "Z-API",
}

// AllServices lists every supported provider in display order.
func AllServices() []ServiceName {
	return []ServiceName{ServiceApollo, ServiceSignalHire, ServiceSnovio, ServiceInstantly, ServiceApify, ServiceZAPI}
}

// Valid reports whether s is a supported provider.
func (s ServiceName) Valid() bool {
	_, ok := displayNames[s]
	return ok
}

// DisplayName is the human-readable provider name used in messages.
func (s ServiceName) DisplayName() string {
	if name, ok := displayNames[s]; ok {
		return name
	}
	return string(s)
}

func (s ServiceName) String() string { return string(s) }

// ParseServiceName accepts a case-insensitive provider identifier.
func ParseServiceName(raw string) (ServiceName, error) {
	name := ServiceName(strings.ToLower(strings.TrimSpace(raw)))
	if !name.Valid() {
		return "", fmt.Errorf("unknown service %q", raw)
	}
	return name, nil
}

// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"prospecting_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Integration Domain Events
// =============================================================================

// IntegrationCredentialChanged is published when a tenant saves or removes a provider credential.
// It never carries the secret.
type IntegrationCredentialChanged struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	Service  string    `json:"service"`
	Removed  bool      `json:"removed"`
}

func (e IntegrationCredentialChanged) EventName() string { return "integrations.credential.changed" }

// =============================================================================
// Lookup Domain Events
// =============================================================================

// LookupInitiated is published after the provider accepted a lookup request.
type LookupInitiated struct {
	BaseEvent
	LookupID          uuid.UUID `json:"lookupId"`
	TenantID          uuid.UUID `json:"tenantId"`
	Service           string    `json:"service"`
	ExternalRequestID string    `json:"externalRequestId"`
}

func (e LookupInitiated) EventName() string { return "lookups.lookup.initiated" }

// LookupResolved is published once per lookup when its callback moves it to completed or failed.
type LookupResolved struct {
	BaseEvent
	LookupID uuid.UUID `json:"lookupId"`
	TenantID uuid.UUID `json:"tenantId"`
	Status   string    `json:"status"`
}

func (e LookupResolved) EventName() string { return "lookups.lookup.resolved" }

// LookupExpired is published when a lookup is abandoned without a callback.
type LookupExpired struct {
	BaseEvent
	LookupID       uuid.UUID `json:"lookupId"`
	TenantID       uuid.UUID `json:"tenantId"`
	PreviousStatus string    `json:"previousStatus"`
}

func (e LookupExpired) EventName() string { return "lookups.lookup.expired" }

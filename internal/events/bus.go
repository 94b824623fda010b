// Package events re-exports the platform event bus for convenience.
// This allows internal modules to import events from internal/events
// while the implementation lives in platform/events.
package events

import (
	"context"

	platformevents "prospecting_backend/platform/events"
	"prospecting_backend/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// SubscribeAuditLog logs every integration and lookup event at info level.
func SubscribeAuditLog(bus Bus, log *logger.Logger) {
	audit := HandlerFunc(func(ctx context.Context, event Event) error {
		log.WithContext(ctx).Info("domain event", "event", event.EventName(), "payload", event)
		return nil
	})
	for _, name := range []string{
		IntegrationCredentialChanged{}.EventName(),
		LookupInitiated{}.EventName(),
		LookupResolved{}.EventName(),
		LookupExpired{}.EventName(),
	} {
		bus.Subscribe(name, audit)
	}
}

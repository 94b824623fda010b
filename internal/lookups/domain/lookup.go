// Package domain holds the lookup state machine types shared by the repository, service and handlers.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("lookup not found")
	ErrDuplicate         = errors.New("lookup already exists")
	ErrInvalidTransition = errors.New("invalid lookup transition")
)

// LookupRequest is one asynchronous provider lookup.
// ResultPayload is set exactly when Status is completed.
type LookupRequest struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenantId"`
	Service           string          `json:"service"`
	SubjectIdentifier string          `json:"subjectIdentifier"`
	ExternalRequestID string          `json:"externalRequestId"`
	Status            Status          `json:"status"`
	ResultPayload     json.RawMessage `json:"resultPayload,omitempty"`
	ErrorMessage      *string         `json:"errorMessage,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Validate checks the invariants the database also enforces.
func (l LookupRequest) Validate() error {
	if !l.Status.Valid() {
		return fmt.Errorf("unknown status %q", l.Status)
	}
	if (l.Status == StatusCompleted) != (len(l.ResultPayload) > 0) {
		return fmt.Errorf("result payload must be present exactly when completed (status %s)", l.Status)
	}
	if l.SubjectIdentifier == "" || l.ExternalRequestID == "" {
		return errors.New("subject identifier and external request id are required")
	}
	return nil
}

// Transition is one recorded status change.
type Transition struct {
	LookupID   uuid.UUID `json:"lookupId"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewTransition returns ErrInvalidTransition for edges outside the state diagram.
func NewTransition(id uuid.UUID, from, to Status, at time.Time) (Transition, error) {
	if !from.CanTransitionTo(to) {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return Transition{LookupID: id, From: from, To: to, OccurredAt: at}, nil
}

// Resolution is the terminal outcome a callback carries for one lookup.
type Resolution struct {
	Status       Status
	Payload      json.RawMessage
	ErrorMessage string
}

func Completed(payload json.RawMessage) Resolution {
	return Resolution{Status: StatusCompleted, Payload: payload}
}

func Failed(reason string) Resolution {
	return Resolution{Status: StatusFailed, ErrorMessage: reason}
}

// Expired describes a lookup moved to expired by the deadline sweep.
type Expired struct {
	LookupID       uuid.UUID
	TenantID       uuid.UUID
	PreviousStatus Status
}

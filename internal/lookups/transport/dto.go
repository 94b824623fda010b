package transport

import (
	"encoding/json"
	"time"

	"prospecting_backend/internal/lookups/domain"

	"github.com/google/uuid"
)

// InitiateLookupRequest starts a lookup for an email, phone or LinkedIn profile URL.
type InitiateLookupRequest struct {
	Subject string `json:"subject" validate:"required,min=3,max=512"`
}

// WaitQuery bounds a long-poll. Durations use Go syntax ("30s").
type WaitQuery struct {
	Timeout  string `form:"timeout" validate:"omitempty,max=16"`
	Interval string `form:"interval" validate:"omitempty,max=16"`
}

// LookupResponse is a lookup snapshot. Message is set for statuses the user has to act on.
type LookupResponse struct {
	ID                uuid.UUID       `json:"id"`
	Service           string          `json:"service"`
	SubjectIdentifier string          `json:"subjectIdentifier"`
	Status            domain.Status   `json:"status"`
	Terminal          bool            `json:"terminal"`
	ResultPayload     json.RawMessage `json:"resultPayload,omitempty"`
	ErrorMessage      *string         `json:"errorMessage,omitempty"`
	Message           string          `json:"message,omitempty"`
	CanRetry          bool            `json:"canRetry"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// WaitResponse is the result of a long-poll. Outcome is the lookup status or "client_timeout".
type WaitResponse struct {
	Outcome string         `json:"outcome"`
	Polls   int            `json:"polls"`
	Lookup  LookupResponse `json:"lookup"`
}

// DeliveriesResponse lists archived callback bodies, oldest first.
type DeliveriesResponse struct {
	RequestID  string            `json:"requestId"`
	Deliveries []json.RawMessage `json:"deliveries"`
}

type TransitionResponse struct {
	From       domain.Status `json:"from"`
	To         domain.Status `json:"to"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// CallbackAck is returned to the provider.
type CallbackAck struct {
	Resolved   int `json:"resolved"`
	Duplicates int `json:"duplicates"`
	Unmatched  int `json:"unmatched"`
}

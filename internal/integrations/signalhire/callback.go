package signalhire

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HeaderRequestID carries the provider request id on callback deliveries.
const HeaderRequestID = "Request-Id"

// ItemStatus is the per-item outcome reported in a callback.
type ItemStatus string

const (
	ItemSuccess        ItemStatus = "success"
	ItemFailed         ItemStatus = "failed"
	ItemCreditsAreOver ItemStatus = "credits_are_over"
	ItemTimeout        ItemStatus = "timeout_exceeded"
	ItemDuplicateQuery ItemStatus = "duplicate_query"
)

// CallbackItem is one resolved search item.
type CallbackItem struct {
	Item      string          `json:"item"`
	Status    ItemStatus      `json:"status"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Succeeded reports whether the item carries a usable candidate.
func (i CallbackItem) Succeeded() bool {
	return i.Status == ItemSuccess && len(i.Candidate) > 0 && string(i.Candidate) != "null"
}

// FailureReason is a short description for unsuccessful items.
func (i CallbackItem) FailureReason() string {
	switch i.Status {
	case ItemCreditsAreOver:
		return "provider credits are exhausted"
	case ItemTimeout:
		return "provider timed out searching for the contact"
	case ItemDuplicateQuery:
		return "provider rejected a duplicate query"
	case ItemSuccess:
		return "provider returned no candidate"
	default:
		return "provider could not find the contact"
	}
}

// Callback is a parsed delivery.
type Callback struct {
	RequestID string
	Items     []CallbackItem
}

// ParseCallback decodes a callback body. requestID comes from the Request-Id header.
func ParseCallback(requestID string, body []byte) (Callback, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return Callback{}, fmt.Errorf("missing %s header", HeaderRequestID)
	}
	var items []CallbackItem
	if err := json.Unmarshal(body, &items); err != nil {
		return Callback{}, fmt.Errorf("decode callback: %w", err)
	}
	for i := range items {
		items[i].Item = strings.TrimSpace(items[i].Item)
		if items[i].Item == "" {
			return Callback{}, fmt.Errorf("callback item %d has no identifier", i)
		}
	}
	return Callback{RequestID: requestID, Items: items}, nil
}

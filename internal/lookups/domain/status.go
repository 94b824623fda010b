package domain

// Status is the lifecycle state of a lookup. The zero value is invalid.
type Status string

const (
	StatusInitiated        Status = "initiated"
	StatusCallbackReceived Status = "callback_received"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
	StatusExpired          Status = "expired"
)

// PendingStatuses are the states a callback or the expiry sweep may still move.
var PendingStatuses = []Status{StatusInitiated, StatusCallbackReceived}

var transitions = map[Status][]Status{
	StatusInitiated:        {StatusCallbackReceived, StatusExpired},
	StatusCallbackReceived: {StatusCompleted, StatusFailed, StatusExpired},
}

func (s Status) Valid() bool {
	switch s {
	case StatusInitiated, StatusCallbackReceived, StatusCompleted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// CanTransitionTo reports whether s -> next is an edge of the lookup state diagram.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Strings returns statuses as plain strings for SQL array parameters.
func Strings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

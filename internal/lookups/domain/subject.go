package domain

import (
	"errors"
	"net/mail"
	"net/url"
	"strings"

	"prospecting_backend/platform/phone"
)

var ErrInvalidSubject = errors.New("subject must be an email, a phone number or a LinkedIn profile URL")

type SubjectKind string

const (
	SubjectEmail    SubjectKind = "email"
	SubjectPhone    SubjectKind = "phone"
	SubjectLinkedIn SubjectKind = "linkedin"
)

// Subject is a normalized lookup identifier.
type Subject struct {
	Kind  SubjectKind
	Value string
}

// NormalizeSubject canonicalizes raw so equal subjects compare equal:
// lowercase emails, E.164 phones and https://www.linkedin.com/in/<slug> profiles.
func NormalizeSubject(raw string) (Subject, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > 512 {
		return Subject{}, ErrInvalidSubject
	}

	if strings.Contains(strings.ToLower(raw), "linkedin.com/") {
		return normalizeLinkedIn(raw)
	}
	if strings.Contains(raw, "@") {
		addr, err := mail.ParseAddress(raw)
		if err != nil || addr.Name != "" {
			return Subject{}, ErrInvalidSubject
		}
		return Subject{Kind: SubjectEmail, Value: strings.ToLower(addr.Address)}, nil
	}
	if e164, ok := phone.ParsePossibleE164(raw); ok {
		return Subject{Kind: SubjectPhone, Value: e164}, nil
	}
	return Subject{}, ErrInvalidSubject
}

func normalizeLinkedIn(raw string) (Subject, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Subject{}, ErrInvalidSubject
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return Subject{}, ErrInvalidSubject
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "in" || parts[1] == "" {
		return Subject{}, ErrInvalidSubject
	}
	return Subject{Kind: SubjectLinkedIn, Value: "https://www.linkedin.com/in/" + strings.ToLower(parts[1])}, nil
}

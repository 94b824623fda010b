package snovio

import "encoding/json"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Balance is the account credit state.
type Balance struct {
	Balance          json.Number `json:"balance"`
	Teamwork         bool        `json:"teamwork"`
	RecipientsUsed   int         `json:"unique_recipients_used"`
	LimitResetsInDay int         `json:"limit_resets_in"`
}

type balanceResponse struct {
	Success bool    `json:"success"`
	Data    Balance `json:"data"`
}

// FindEmailRequest looks up addresses for a person at a domain.
type FindEmailRequest struct {
	FirstName string
	LastName  string
	Domain    string
}

type FoundEmail struct {
	Email       string `json:"email"`
	EmailStatus string `json:"emailStatus"`
}

type FindEmailResult struct {
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Emails    []FoundEmail `json:"emails"`
}

type findEmailResponse struct {
	Success bool            `json:"success"`
	Data    FindEmailResult `json:"data"`
	Status  struct {
		Identifier  string `json:"identifier"`
		Description string `json:"description"`
	} `json:"status"`
}

type Job struct {
	CompanyName string `json:"companyName"`
	Position    string `json:"position"`
	Site        string `json:"site"`
}

type SocialLink struct {
	Link string `json:"link"`
	Type string `json:"type"`
}

// Profile is the person behind an email address.
type Profile struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Industry    string       `json:"industry"`
	Country     string       `json:"country"`
	Locality    string       `json:"locality"`
	Social      []SocialLink `json:"social"`
	CurrentJobs []Job        `json:"currentJobs"`
}

type profileResponse struct {
	Success bool `json:"success"`
	Profile
}

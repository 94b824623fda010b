package apollo

// PeopleSearch filters a people search. Empty fields are omitted.
type PeopleSearch struct {
	Titles              []string `json:"person_titles,omitempty"`
	Locations           []string `json:"person_locations,omitempty"`
	Seniorities         []string `json:"person_seniorities,omitempty"`
	OrganizationDomains []string `json:"q_organization_domains_list,omitempty"`
	Keywords            string   `json:"q_keywords,omitempty"`
	Page                int      `json:"page,omitempty"`
	PerPage             int      `json:"per_page,omitempty"`
}

// EnrichRequest identifies one person to enrich. At least one identifying field is required.
type EnrichRequest struct {
	Email       string `json:"email,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

func (r EnrichRequest) identifiable() bool {
	return r.Email != "" || r.LinkedInURL != "" || (r.FirstName != "" && r.LastName != "" && r.Domain != "")
}

type Organization struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PrimaryDomain string `json:"primary_domain"`
	WebsiteURL    string `json:"website_url"`
}

type Person struct {
	ID           string        `json:"id"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Email        string        `json:"email"`
	EmailStatus  string        `json:"email_status"`
	LinkedInURL  string        `json:"linkedin_url"`
	City         string        `json:"city"`
	State        string        `json:"state"`
	Country      string        `json:"country"`
	Organization *Organization `json:"organization,omitempty"`
}

type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
	TotalPages   int `json:"total_pages"`
}

type PeopleSearchResult struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

type healthResponse struct {
	Healthy    bool `json:"healthy"`
	IsLoggedIn bool `json:"is_logged_in"`
}

type matchResponse struct {
	Person *Person `json:"person"`
}

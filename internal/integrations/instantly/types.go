package instantly

// Campaign is an Instantly outreach campaign.
type Campaign struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status int    `json:"status"`
}

type CampaignPage struct {
	Items             []Campaign `json:"items"`
	NextStartingAfter string     `json:"next_starting_after,omitempty"`
}

// NewCampaign is the minimal campaign payload; Instantly requires a schedule.
type NewCampaign struct {
	Name             string           `json:"name"`
	CampaignSchedule CampaignSchedule `json:"campaign_schedule"`
}

type CampaignSchedule struct {
	Schedules []Schedule `json:"schedules"`
}

type Schedule struct {
	Name     string          `json:"name"`
	Timing   ScheduleTiming  `json:"timing"`
	Days     map[string]bool `json:"days"`
	Timezone string          `json:"timezone"`
}

type ScheduleTiming struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Lead is one recipient pushed into a campaign.
type Lead struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
}

type addLeadsRequest struct {
	CampaignID string `json:"campaign_id"`
	Leads      []Lead `json:"leads"`
}

// AddLeadsResult summarizes a bulk lead import.
type AddLeadsResult struct {
	Status            string `json:"status"`
	TotalSent         int    `json:"total_sent"`
	LeadsUploaded     int    `json:"leads_uploaded"`
	AlreadyInCampaign int    `json:"already_in_campaign"`
	InvalidEmails     int    `json:"invalid_email_count"`
	DuplicatedLeads   int    `json:"duplicated_leads"`
}

package model

// RawContact is one contact row as exported by the listing scraper.
type RawContact struct {
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// RawLead mirrors one record in a scraper export file. Fields arrive as
// free text and are normalized before anything downstream touches them.
type RawLead struct {
	ProjectName       string       `json:"project_name"`
	SourceID          string       `json:"source_id,omitempty"`
	Stage             string       `json:"stage,omitempty"`
	EstimatedValue    string       `json:"estimated_value,omitempty"`
	Companies         string       `json:"companies,omitempty"`
	Address           string       `json:"address,omitempty"`
	DetailURL         string       `json:"detail_url,omitempty"`
	ConstructionStart string       `json:"construction_start,omitempty"`
	ConstructionEnd   string       `json:"construction_end,omitempty"`
	DetailContacts    []RawContact `json:"detail_contacts,omitempty"`
}

// CompanyRef names a company attached to a lead together with its role.
type CompanyRef struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Lead is a normalized project lead ready for research and scoring.
type Lead struct {
	ProjectName       string       `json:"project_name"`
	SourceID          string       `json:"source_id,omitempty"`
	Stage             string       `json:"stage,omitempty"`
	EstimatedValue    string       `json:"estimated_value,omitempty"`
	ValueMillions     float64      `json:"value_millions"`
	Address           string       `json:"address,omitempty"`
	DetailURL         string       `json:"detail_url,omitempty"`
	ConstructionStart string       `json:"construction_start,omitempty"`
	Companies         []CompanyRef `json:"companies,omitempty"`
	DetailContacts    []Contact    `json:"detail_contacts,omitempty"`
	Focus             Focus        `json:"focus"`
	StageScore        int          `json:"stage_score"`
}

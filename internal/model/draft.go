package model

// Draft is a fully rendered outreach email waiting on disk for a send run.
type Draft struct {
	Project     string  `json:"project"`
	Company     string  `json:"company"`
	CompanyRole Role    `json:"company_role"`
	ContactName string  `json:"contact_name"`
	ContactRole string  `json:"contact_role,omitempty"`
	ToEmail     string  `json:"to_email"`
	Phone       string  `json:"phone,omitempty"`
	Subject     string  `json:"subject"`
	Body        string  `json:"body"`
	Focus       Focus   `json:"focus"`
	Score       float64 `json:"score"`
	// File is the on-disk path when the draft was loaded from a draft dir.
	File string `json:"-"`
}

package model

// Contact is a person reachable at a company, either lifted verbatim from
// a listing detail page or guessed from public search results.
type Contact struct {
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Source  string `json:"source,omitempty"`
	// Verified is true only for contacts taken from a listing itself,
	// never for researched guesses.
	Verified bool `json:"verified,omitempty"`
}

// CompanyResearch is the research result for one company: its best role
// across all leads plus the contacts found for it.
type CompanyResearch struct {
	Role     Role      `json:"role"`
	Contacts []Contact `json:"contacts"`
}

// BestContact returns the most promising contact: the first one with an
// email address, else the first contact at all.
func (cr CompanyResearch) BestContact() (Contact, bool) {
	for _, c := range cr.Contacts {
		if c.Email != "" {
			return c, true
		}
	}
	if len(cr.Contacts) > 0 {
		return cr.Contacts[0], true
	}
	return Contact{}, false
}

// HasVerifiedEmail reports whether any contact carries a listing-sourced
// email address.
func (cr CompanyResearch) HasVerifiedEmail() bool {
	for _, c := range cr.Contacts {
		if c.Verified && c.Email != "" {
			return true
		}
	}
	return false
}

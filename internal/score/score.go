// Package score ranks leads for outreach priority. The score blends
// construction stage, project value, contact quality, and which roles
// are attached to the project.
package score

import (
	"math"
	"sort"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

const (
	valueDivisor  = 10.0
	valueCap      = 5.0
	verifiedBonus = 3.0
	devOwnerBonus = 2.0
	partnerBonus  = 1.0
)

// Score computes the outreach priority for a lead. Research results are
// consulted for verified contact emails found on other leads for the
// same companies.
func Score(lead model.Lead, research map[string]model.CompanyResearch) float64 {
	s := float64(lead.StageScore)

	s += math.Min(lead.ValueMillions/valueDivisor, valueCap)

	if hasVerifiedEmail(lead, research) {
		s += verifiedBonus
	}

	// Only the first company with a recognized role contributes.
	for _, c := range lead.Companies {
		if c.Role.IsDeveloperFamily() {
			s += devOwnerBonus
			break
		}
		if c.Role.IsContractorFamily() || c.Role == model.RoleArchitect {
			s += partnerBonus
			break
		}
	}

	return math.Round(s*100) / 100
}

func hasVerifiedEmail(lead model.Lead, research map[string]model.CompanyResearch) bool {
	for _, c := range lead.DetailContacts {
		if c.Verified && c.Email != "" {
			return true
		}
	}
	for _, ref := range lead.Companies {
		if research[ref.Name].HasVerifiedEmail() {
			return true
		}
	}
	return false
}

// ScoredLead pairs a lead with its score and original scrape position.
type ScoredLead struct {
	Lead  model.Lead
	Score float64
	Index int
}

// Rank scores every lead and sorts descending. Ties keep scrape order
// so reruns produce identical reports.
func Rank(leads []model.Lead, research map[string]model.CompanyResearch) []ScoredLead {
	ranked := make([]ScoredLead, len(leads))
	for i, lead := range leads {
		ranked[i] = ScoredLead{Lead: lead, Score: Score(lead, research), Index: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// TopN returns the first n ranked leads, or all of them if fewer exist.
func TopN(ranked []ScoredLead, n int) []ScoredLead {
	if n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

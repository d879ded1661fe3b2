// Package normalize turns raw scraper exports into normalized leads:
// role markers become canonical roles, stages map to a service focus,
// and estimated values parse into millions of dollars.
package normalize

import (
	"strings"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// RolePrefix binds a listing role marker to its canonical role.
type RolePrefix struct {
	Prefix string
	Role   model.Role
}

// DefaultRolePrefixes returns the marker table in match order. Longer
// markers come first so "(D/O)" wins over "(D)" and "(O)".
func DefaultRolePrefixes() []RolePrefix {
	return []RolePrefix{
		{"(D/O)", model.RoleDeveloperOwner},
		{"(C/M)", model.RoleConstructionManager},
		{"(CM)", model.RoleConstructionManager},
		{"(SE)", model.RoleStructuralEngineer},
		{"(ME)", model.RoleMEPEngineer},
		{"(D)", model.RoleDeveloper},
		{"(O)", model.RoleOwner},
		{"(C)", model.RoleGCContractor},
		{"(A)", model.RoleArchitect},
	}
}

// Normalizer converts raw leads using injected marker and stage tables.
type Normalizer struct {
	prefixes []RolePrefix
	stages   *StageTable
}

// New creates a Normalizer. Nil arguments fall back to the defaults.
func New(prefixes []RolePrefix, stages *StageTable) *Normalizer {
	if prefixes == nil {
		prefixes = DefaultRolePrefixes()
	}
	if stages == nil {
		stages = DefaultStageTable()
	}
	return &Normalizer{prefixes: prefixes, stages: stages}
}

// Normalize converts one raw lead into its normalized form.
func (n *Normalizer) Normalize(raw model.RawLead) model.Lead {
	focus, stageScore := n.stages.Lookup(raw.Stage)

	lead := model.Lead{
		ProjectName:       strings.TrimSpace(raw.ProjectName),
		SourceID:          raw.SourceID,
		Stage:             strings.TrimSpace(raw.Stage),
		EstimatedValue:    strings.TrimSpace(raw.EstimatedValue),
		ValueMillions:     ParseValueMillions(raw.EstimatedValue),
		Address:           strings.TrimSpace(raw.Address),
		DetailURL:         raw.DetailURL,
		ConstructionStart: strings.TrimSpace(raw.ConstructionStart),
		Companies:         n.ParseCompanies(raw.Companies),
		Focus:             focus,
		StageScore:        stageScore,
	}

	for _, rc := range raw.DetailContacts {
		lead.DetailContacts = append(lead.DetailContacts, model.Contact{
			Name:     strings.TrimSpace(rc.Name),
			Role:     strings.TrimSpace(rc.Role),
			Email:    strings.ToLower(strings.TrimSpace(rc.Email)),
			Phone:    strings.TrimSpace(rc.Phone),
			Company:  CleanCompanyName(rc.Company),
			Source:   "listing",
			Verified: true,
		})
	}

	return lead
}

// ParseCompanies splits a company cell into company references. Each line
// may open with a role marker; lines without one get the fallback role.
func (n *Normalizer) ParseCompanies(cell string) []model.CompanyRef {
	var refs []model.CompanyRef
	for line := range strings.SplitSeq(cell, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		role := model.RoleCompany
		name := line
		for _, rp := range n.prefixes {
			if strings.HasPrefix(line, rp.Prefix) {
				role = rp.Role
				name = strings.TrimSpace(line[len(rp.Prefix):])
				break
			}
		}
		if name == "" {
			continue
		}
		refs = append(refs, model.CompanyRef{Name: CleanCompanyName(name), Role: role})
	}
	return refs
}

// CleanCompanyName keeps only the first line of a scraped company cell.
// Detail pages often append addresses and phone numbers after a newline
// or tab.
func CleanCompanyName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexAny(name, "\n\t"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// MapDetailRole maps a free-text contact role from a detail page onto a
// canonical role. Unrecognized roles fall back to the generic company
// role, which selects the generic email template downstream.
func MapDetailRole(raw string) model.Role {
	r := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case r == "":
		return model.RoleCompany
	case strings.Contains(r, "general contractor"),
		strings.Contains(r, "contractor"),
		strings.Contains(r, "bidding"),
		strings.Contains(r, "gc"):
		return model.RoleGCContractor
	case strings.Contains(r, "construction manager"),
		r == "cm":
		return model.RoleConstructionManager
	case strings.Contains(r, "developer") && strings.Contains(r, "owner"):
		return model.RoleDeveloperOwner
	case strings.Contains(r, "developer"):
		return model.RoleDeveloper
	case strings.Contains(r, "owner"):
		return model.RoleOwner
	case strings.Contains(r, "architect"):
		return model.RoleArchitect
	case strings.Contains(r, "structural"):
		return model.RoleStructuralEngineer
	case strings.Contains(r, "mep"), strings.Contains(r, "mechanical"):
		return model.RoleMEPEngineer
	default:
		return model.RoleCompany
	}
}

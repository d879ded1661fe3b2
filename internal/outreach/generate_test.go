package outreach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func testLead() model.Lead {
	return model.Lead{
		ProjectName: "Union Market Tower",
		Stage:       "Design Development",
		Focus:       model.FocusPlanReview,
		StageScore:  9,
		Companies: []model.CompanyRef{
			{Name: "Hines", Role: model.RoleDeveloperOwner},
		},
		DetailContacts: []model.Contact{
			{Name: "Jane Doe", Role: "Project Manager", Email: "jdoe@clark.com", Company: "Clark Construction", Verified: true},
		},
	}
}

func TestGenerate_ListingAndResearchContacts(t *testing.T) {
	g := NewGenerator(0)
	research := map[string]model.CompanyResearch{
		"Hines": {Role: model.RoleDeveloperOwner, Contacts: []model.Contact{
			{Name: "John Smith", Role: "Principal", Email: "jsmith@hines.com"},
		}},
	}

	drafts := g.Generate([]model.Lead{testLead()}, research, &sendlog.Ledger{}, now)
	require.Len(t, drafts, 2)

	assert.Equal(t, "jdoe@clark.com", drafts[0].ToEmail)
	assert.Equal(t, "Clark Construction", drafts[0].Company)
	assert.Equal(t, model.RoleCompany, drafts[0].CompanyRole, "free-text PM role maps to the generic template")

	assert.Equal(t, "jsmith@hines.com", drafts[1].ToEmail)
	assert.Equal(t, model.RoleDeveloperOwner, drafts[1].CompanyRole)
	assert.Contains(t, drafts[1].Subject, "Plan Review")
}

func TestGenerate_DedupByEmailAndProject(t *testing.T) {
	g := NewGenerator(0)
	lead := testLead()
	research := map[string]model.CompanyResearch{
		"Hines": {Contacts: []model.Contact{
			// Same address the listing already carries.
			{Name: "Jane Doe", Email: "jdoe@clark.com"},
		}},
	}

	drafts := g.Generate([]model.Lead{lead}, research, &sendlog.Ledger{}, now)
	assert.Len(t, drafts, 1, "the listing contact wins the dedup key")

	// The same address on a different project is a separate draft.
	other := testLead()
	other.ProjectName = "Capitol Yards"
	drafts = g.Generate([]model.Lead{lead, other}, nil, &sendlog.Ledger{}, now)
	assert.Len(t, drafts, 2)
}

func TestGenerate_SuppressionWindow(t *testing.T) {
	g := NewGenerator(0)
	ledger := &sendlog.Ledger{Entries: []model.SendLogEntry{
		{ContactEmail: "jdoe@clark.com", SentAt: now.AddDate(0, 0, -10)},
	}}

	drafts := g.Generate([]model.Lead{testLead()}, nil, ledger, now)
	assert.Empty(t, drafts)

	// Beyond the window the contact is fair game again.
	ledger.Entries[0].SentAt = now.AddDate(0, 0, -90)
	drafts = g.Generate([]model.Lead{testLead()}, nil, ledger, now)
	assert.Len(t, drafts, 1)
}

func TestGenerate_SkipsInvalidContacts(t *testing.T) {
	g := NewGenerator(0)
	lead := model.Lead{
		ProjectName: "Capitol Yards",
		Focus:       model.FocusBoth,
		DetailContacts: []model.Contact{
			{Name: "No Email", Company: "Acme"},
			{Name: "Bad Email", Email: "not-an-address", Company: "Acme"},
			{Name: "No Company", Email: "x@y.com"},
		},
	}

	drafts := g.Generate([]model.Lead{lead}, nil, &sendlog.Ledger{}, now)
	assert.Empty(t, drafts)
}

func TestGenerate_SkipsUnnamedProjects(t *testing.T) {
	g := NewGenerator(0)
	lead := testLead()
	lead.ProjectName = ""

	drafts := g.Generate([]model.Lead{lead}, nil, &sendlog.Ledger{}, now)
	assert.Empty(t, drafts)
}

package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/score"
)

func testRanked() ([]score.ScoredLead, map[string]model.CompanyResearch) {
	leads := []score.ScoredLead{
		{
			Lead: model.Lead{
				ProjectName:   "Harbor Tower Mixed-Use Development Phase Two Alpha",
				Stage:         "Planning",
				Focus:         model.FocusPlanReview,
				ValueMillions: 120,
				Companies: []model.CompanyRef{
					{Name: "Acme Development", Role: model.RoleDeveloper},
				},
			},
			Score: 24.5,
		},
		{
			Lead: model.Lead{
				ProjectName:   "Pier 9",
				Stage:         "Under Construction",
				Focus:         model.FocusInspectionActive,
				ValueMillions: 30,
				Companies: []model.CompanyRef{
					{Name: "BuildRight", Role: model.RoleGCContractor},
				},
			},
			Score: 12,
		},
	}
	research := map[string]model.CompanyResearch{
		"Acme Development": {
			Role: model.RoleDeveloper,
			Contacts: []model.Contact{
				{Name: "Dana Reyes", Role: "Principal", Email: "dana@acme.com", Phone: "555-0100"},
			},
		},
	}
	return leads, research
}

func TestTopNReport(t *testing.T) {
	ranked, research := testRanked()
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	out := TopNReport(ranked, research, now)

	assert.Contains(t, out, "# Top 2 Leads")
	assert.Contains(t, out, "Generated: 2026-03-10 09:30")
	assert.Contains(t, out, "Pipeline value: $150M")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	var rows []string
	for _, l := range lines {
		if strings.HasPrefix(l, "| 1 ") || strings.HasPrefix(l, "| 2 ") {
			rows = append(rows, l)
		}
	}
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "Harbor Tower Mixed-Use Development Phase Two")
	assert.NotContains(t, rows[0], "Phase Two Alpha") // clipped at 45 chars
	assert.Contains(t, rows[0], "dana@acme.com")
	assert.Contains(t, rows[0], "24.50")
	// No research for BuildRight, the row falls back to the company ref.
	assert.Contains(t, rows[1], "BuildRight")
}

func TestLeadsReport(t *testing.T) {
	ranked, research := testRanked()
	out := LeadsReport(ranked, research, time.Now())

	assert.Contains(t, out, "# Lead Research Report")
	assert.Contains(t, out, "## 1. Harbor Tower Mixed-Use Development Phase Two Alpha (score 24.50)")
	assert.Contains(t, out, "Dana Reyes, Principal, dana@acme.com, 555-0100")
	assert.Contains(t, out, "no contacts found")
}

func TestPipelineValueFormatting(t *testing.T) {
	ranked := []score.ScoredLead{{Lead: model.Lead{ValueMillions: 1250}}}
	assert.Contains(t, pipelineValueLine(ranked), "$1,250M")
}

func TestSummary(t *testing.T) {
	ranked, _ := testRanked()
	s := Summary(20, 10, 8, ranked)
	assert.Contains(t, s, "20 leads scored")
	assert.Contains(t, s, "8 drafts ready")
}

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

func TestStageTable_Lookup(t *testing.T) {
	table := DefaultStageTable()

	tests := []struct {
		stage     string
		wantFocus model.Focus
		wantScore int
	}{
		{"Planning", model.FocusPlanReview, 9},
		{"Proposed", model.FocusPlanReview, 9},
		{"Design Development", model.FocusPlanReview, 9},
		{"Construction starts in 1-3 months", model.FocusBothInspectionLead, 10},
		{"Construction starts in 1–3 months", model.FocusBothInspectionLead, 10},
		{"Starts in 1 month", model.FocusBothInspectionLead, 10},
		{"Construction 1 to 3 months away", model.FocusBothInspectionLead, 10},
		{"Starts in 4-6 months", model.FocusInspection, 8},
		{"Starts in 4 to 6 months", model.FocusInspection, 8},
		{"Starts in 4–6 months", model.FocusInspection, 8},
		{"Starts in 7–12 months", model.FocusInspection, 8},
		{"Starts in 7-12 months", model.FocusInspection, 8},
		{"Starts in 7 to 12 months", model.FocusInspection, 8},
		{"Groundbreaking", model.FocusInspectionImminent, 9},
		{"Breaking Ground", model.FocusInspectionImminent, 9},
		{"Under Construction", model.FocusInspectionActive, 7},
		{"Early Construction", model.FocusInspectionActive, 7},
		{"Construction", model.FocusInspectionActive, 7},
		{"", model.FocusBoth, 6},
		{"Completed", model.FocusBoth, 6},
	}
	for _, tt := range tests {
		focus, score := table.Lookup(tt.stage)
		assert.Equal(t, tt.wantFocus, focus, "stage=%q", tt.stage)
		assert.Equal(t, tt.wantScore, score, "stage=%q", tt.stage)
	}
}

func TestParseValueMillions(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$2.5 million", 2.5},
		{"$2.5M", 2.5},
		{"15m", 15},
		{"$1.2 billion", 1200},
		{"2B", 2000},
		{"$500K", 0.5},
		{"$500 thousand", 0.5},
		{"750k", 0.75},
		{"$3,500,000", 3.5},
		{"500000", 0.5},
		{"", 0},
		{"TBD", 0},
		{"$", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ParseValueMillions(tt.in), 1e-9, "in=%q", tt.in)
	}
}

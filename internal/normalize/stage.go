package normalize

import (
	"strings"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// StageRule maps stage keywords to a service focus and a base score.
type StageRule struct {
	Keywords []string
	Focus    model.Focus
	Score    int
}

// StageTable resolves a free-text construction stage. Rules are checked
// in order; the first rule with a matching keyword wins.
type StageTable struct {
	Rules        []StageRule
	DefaultFocus model.Focus
	DefaultScore int
}

// DefaultStageTable returns the stage mapping used for plan review and
// inspection lead qualification.
func DefaultStageTable() *StageTable {
	return &StageTable{
		Rules: []StageRule{
			{
				Keywords: []string{"planning", "proposed", "pre-design", "design development"},
				Focus:    model.FocusPlanReview,
				Score:    9,
			},
			{
				Keywords: []string{"1-3", "1 to 3", "starts in 1", "1–3"},
				Focus:    model.FocusBothInspectionLead,
				Score:    10,
			},
			{
				Keywords: []string{"4-6", "4 to 6", "4–6", "4-12", "4 to 12", "7-12", "7 to 12", "7–12"},
				Focus:    model.FocusInspection,
				Score:    8,
			},
			{
				Keywords: []string{"groundbreaking", "breaking ground"},
				Focus:    model.FocusInspectionImminent,
				Score:    9,
			},
			{
				Keywords: []string{"under construction", "early construction", "construction"},
				Focus:    model.FocusInspectionActive,
				Score:    7,
			},
		},
		DefaultFocus: model.FocusBoth,
		DefaultScore: 6,
	}
}

// Lookup returns the focus and base score for a stage string.
func (t *StageTable) Lookup(stage string) (model.Focus, int) {
	s := strings.ToLower(strings.TrimSpace(stage))
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(s, kw) {
				return rule.Focus, rule.Score
			}
		}
	}
	return t.DefaultFocus, t.DefaultScore
}

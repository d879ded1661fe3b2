// Package checkpoint persists pipeline progress so an interrupted run
// resumes at the first incomplete phase instead of starting over.
package checkpoint

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/fsx"
	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// NumPhases is the number of pipeline phases tracked by the checkpoint.
const NumPhases = 7

// PhaseNames labels each phase for status output, indexed by phase-1.
var PhaseNames = [NumPhases]string{
	"ingest leads",
	"research contacts",
	"build reports",
	"notify reports",
	"generate drafts",
	"save drafts",
	"notify drafts",
}

// State is the persisted progress of one pipeline run. Research keeps
// per-company results so phase 2 resumes mid-phase.
type State struct {
	RunToken string `json:"run_token,omitempty"`

	Phase1Done bool `json:"phase1_done,omitempty"`
	Phase2Done bool `json:"phase2_done,omitempty"`
	Phase3Done bool `json:"phase3_done,omitempty"`
	Phase4Done bool `json:"phase4_done,omitempty"`
	Phase5Done bool `json:"phase5_done,omitempty"`
	Phase6Done bool `json:"phase6_done,omitempty"`
	Phase7Done bool `json:"phase7_done,omitempty"`

	LeadsFile string `json:"phase1_leads_file,omitempty"`

	Research            map[string]model.CompanyResearch `json:"phase2_company_research,omitempty"`
	ResearchedCompanies []string                         `json:"phase2_researched,omitempty"`

	ReportFile string `json:"phase3_report_file,omitempty"`
	TopFile    string `json:"phase3_top_file,omitempty"`

	DraftCount int `json:"phase5_draft_count,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
}

// PhaseDone reports whether phase n (1-based) has completed.
func (s *State) PhaseDone(n int) bool {
	switch n {
	case 1:
		return s.Phase1Done
	case 2:
		return s.Phase2Done
	case 3:
		return s.Phase3Done
	case 4:
		return s.Phase4Done
	case 5:
		return s.Phase5Done
	case 6:
		return s.Phase6Done
	case 7:
		return s.Phase7Done
	}
	return false
}

// SetPhaseDone marks phase n (1-based) as completed.
func (s *State) SetPhaseDone(n int) {
	s.setPhase(n, true)
}

// ResetFrom clears the done flags for phase n and everything after it,
// forcing those phases to run again.
func (s *State) ResetFrom(n int) {
	for p := n; p <= NumPhases; p++ {
		s.setPhase(p, false)
	}
}

func (s *State) setPhase(n int, done bool) {
	switch n {
	case 1:
		s.Phase1Done = done
	case 2:
		s.Phase2Done = done
	case 3:
		s.Phase3Done = done
	case 4:
		s.Phase4Done = done
	case 5:
		s.Phase5Done = done
	case 6:
		s.Phase6Done = done
	case 7:
		s.Phase7Done = done
	}
}

// ResumePhase returns the first incomplete phase, or NumPhases+1 when
// every phase is done.
func (s *State) ResumePhase() int {
	for n := 1; n <= NumPhases; n++ {
		if !s.PhaseDone(n) {
			return n
		}
	}
	return NumPhases + 1
}

// ResearchedSet returns the per-company done set as a map.
func (s *State) ResearchedSet() map[string]bool {
	done := make(map[string]bool, len(s.ResearchedCompanies))
	for _, c := range s.ResearchedCompanies {
		done[c] = true
	}
	return done
}

// MarkResearched records a finished company, keeping the done list
// duplicate-free.
func (s *State) MarkResearched(company string, research model.CompanyResearch) {
	if s.Research == nil {
		s.Research = make(map[string]model.CompanyResearch)
	}
	s.Research[company] = research
	for _, c := range s.ResearchedCompanies {
		if c == company {
			return
		}
	}
	s.ResearchedCompanies = append(s.ResearchedCompanies, company)
}

// Store reads and writes checkpoint state at a fixed path.
type Store struct {
	path string
}

// NewStore creates a Store persisting at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the checkpoint file location.
func (st *Store) Path() string {
	return st.path
}

// Load reads the checkpoint. A missing or corrupt file yields a fresh
// empty state so a damaged checkpoint restarts the pipeline rather than
// wedging it.
func (st *Store) Load() *State {
	data, err := os.ReadFile(st.path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("checkpoint: unreadable, starting fresh",
				zap.String("path", st.path), zap.Error(err))
		}
		return &State{}
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		zap.L().Warn("checkpoint: corrupt, starting fresh",
			zap.String("path", st.path), zap.Error(err))
		return &State{}
	}
	return &s
}

// Save writes the state atomically, stamping LastUpdated.
func (st *Store) Save(s *State) error {
	s.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return eris.Wrap(err, "checkpoint: marshal state")
	}
	if err := fsx.WriteFileAtomic(st.path, data, 0o644); err != nil {
		return eris.Wrap(err, "checkpoint: write state")
	}
	return nil
}

// Update loads the current state, applies fn, and saves the result.
func (st *Store) Update(fn func(*State)) (*State, error) {
	s := st.Load()
	fn(s)
	if err := st.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Clear removes the checkpoint file. A missing file is not an error.
func (st *Store) Clear() error {
	if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
		return eris.Wrap(err, "checkpoint: remove state")
	}
	return nil
}

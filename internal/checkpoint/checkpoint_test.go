package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "checkpoint.json"))
}

func TestStore_LoadMissingReturnsEmpty(t *testing.T) {
	st := newTestStore(t)

	s := st.Load()
	assert.Equal(t, 1, s.ResumePhase())
	assert.Empty(t, s.RunToken)
}

func TestStore_LoadCorruptReturnsEmpty(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, os.WriteFile(st.Path(), []byte("{not json"), 0o644))

	s := st.Load()
	assert.Equal(t, 1, s.ResumePhase())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	st := newTestStore(t)

	s := &State{RunToken: "20260828_0930"}
	s.SetPhaseDone(1)
	s.SetPhaseDone(2)
	s.LeadsFile = "leads_20260828_0930.json"
	s.MarkResearched("Clark Construction", model.CompanyResearch{
		Role:     model.RoleGCContractor,
		Contacts: []model.Contact{{Name: "Jane Doe", Email: "jdoe@clark.com"}},
	})
	require.NoError(t, st.Save(s))

	got := st.Load()
	assert.Equal(t, "20260828_0930", got.RunToken)
	assert.Equal(t, 3, got.ResumePhase())
	assert.True(t, got.ResearchedSet()["Clark Construction"])
	assert.Len(t, got.Research["Clark Construction"].Contacts, 1)
	assert.False(t, got.LastUpdated.IsZero())
}

func TestState_ResumePhase(t *testing.T) {
	s := &State{}
	assert.Equal(t, 1, s.ResumePhase())

	for n := 1; n <= NumPhases; n++ {
		s.SetPhaseDone(n)
	}
	assert.Equal(t, NumPhases+1, s.ResumePhase())

	// A later phase done without its predecessors still resumes early.
	s2 := &State{Phase3Done: true}
	assert.Equal(t, 1, s2.ResumePhase())
}

func TestState_MarkResearchedIsIdempotent(t *testing.T) {
	s := &State{}
	s.MarkResearched("Acme", model.CompanyResearch{Role: model.RoleArchitect})
	s.MarkResearched("Acme", model.CompanyResearch{Role: model.RoleArchitect})

	assert.Len(t, s.ResearchedCompanies, 1)
}

func TestStore_Update(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Update(func(s *State) {
		s.RunToken = "tok"
		s.SetPhaseDone(1)
	})
	require.NoError(t, err)

	_, err = st.Update(func(s *State) {
		s.SetPhaseDone(2)
	})
	require.NoError(t, err)

	got := st.Load()
	assert.Equal(t, "tok", got.RunToken)
	assert.True(t, got.Phase1Done)
	assert.True(t, got.Phase2Done)
}

func TestStore_Clear(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Save(&State{RunToken: "tok"}))
	require.NoError(t, st.Clear())
	require.NoError(t, st.Clear())

	assert.Equal(t, 1, st.Load().ResumePhase())
}

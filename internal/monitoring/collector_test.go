package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcc-consulting/outreach-cli/internal/checkpoint"
	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
)

func writeLedger(t *testing.T, path string, entries []model.SendLogEntry) {
	t.Helper()
	ledger := sendlog.Load(path)
	for _, e := range entries {
		ledger.Append(e)
	}
	require.NoError(t, ledger.Save())
}

func TestCollect_LedgerMetrics(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "sent_log.csv")
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	writeLedger(t, ledgerPath, []model.SendLogEntry{
		{
			ContactEmail: "dana@acme.com",
			Subject:      "Code consulting for Harbor Tower | BCC",
			SentAt:       now.Add(-2 * time.Hour),
			SentFrom:     "alex@bcc.example",
		},
		{
			ContactEmail: "lee@buildright.com",
			Subject:      "Code consulting for Pier 9 | BCC",
			SentAt:       now.Add(-3 * time.Hour),
			SentFrom:     "sam@bcc.example",
			Replied:      true,
		},
		{
			ContactEmail: "pat@harborcm.com",
			Subject:      "Code consulting for Pier 9 | BCC",
			SentAt:       now.Add(-6 * 24 * time.Hour),
			SentFrom:     "alex@bcc.example",
		},
		{
			ContactEmail:   "kim@oldco.com",
			Subject:        "Code consulting for Depot | BCC",
			SentAt:         now.Add(-20 * 24 * time.Hour),
			SentFrom:       "alex@bcc.example",
			FollowupSentAt: now.Add(-15 * 24 * time.Hour),
		},
	})

	c := &Collector{
		LedgerPath:   ledgerPath,
		FollowupWait: 4 * 24 * time.Hour,
		Now:          func() time.Time { return now },
	}

	snap, err := c.Collect()
	require.NoError(t, err)

	assert.Equal(t, 4, snap.TotalSent)
	assert.Equal(t, 2, snap.SentToday)
	assert.Equal(t, 1, snap.SentByIdentity["alex@bcc.example"])
	assert.Equal(t, 1, snap.SentByIdentity["sam@bcc.example"])
	assert.Equal(t, 1, snap.Replied)
	assert.InDelta(t, 0.25, snap.ReplyRate, 1e-9)
	assert.Equal(t, 1, snap.FollowupsSent)
	// Only pat is overdue: dana is too recent, lee replied, kim was nudged.
	assert.Equal(t, 1, snap.FollowupBacklog)
	assert.Equal(t, 0, snap.PipelinePhase)
	assert.Equal(t, now, snap.CollectedAt)
}

func TestCollect_EmptyLedger(t *testing.T) {
	dir := t.TempDir()
	c := &Collector{LedgerPath: filepath.Join(dir, "missing.csv")}

	snap, err := c.Collect()
	require.NoError(t, err)

	assert.Equal(t, 0, snap.TotalSent)
	assert.Equal(t, 0.0, snap.ReplyRate)
	assert.Empty(t, snap.SentByIdentity)
}

func TestCollect_DraftBacklog(t *testing.T) {
	dir := t.TempDir()
	draftDir := filepath.Join(dir, "outbound")
	require.NoError(t, os.MkdirAll(draftDir, 0o755))
	for _, name := range []string{"OUT_abc_acme_dana.md", "OUT_abc_buildright_lee.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(draftDir, name), []byte("Subject: x\n"), 0o644))
	}
	// Non-draft files are not counted.
	require.NoError(t, os.WriteFile(filepath.Join(draftDir, "notes.md"), []byte("x"), 0o644))

	c := &Collector{
		LedgerPath: filepath.Join(dir, "sent_log.csv"),
		DraftDir:   draftDir,
	}

	snap, err := c.Collect()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.DraftBacklog)
}

func TestCollect_PipelinePhase(t *testing.T) {
	dir := t.TempDir()
	store := checkpoint.NewStore(filepath.Join(dir, "checkpoint.json"))

	state := store.Load()
	state.RunToken = "abc12345"
	state.SetPhaseDone(1)
	state.SetPhaseDone(2)
	require.NoError(t, store.Save(state))

	c := &Collector{
		LedgerPath:  filepath.Join(dir, "sent_log.csv"),
		Checkpoints: store,
	}

	snap, err := c.Collect()
	require.NoError(t, err)
	assert.Equal(t, 3, snap.PipelinePhase)
}

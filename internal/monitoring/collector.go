// Package monitoring reports outreach pipeline health: send volume,
// reply rate, follow-up backlog, and draft backlog.
package monitoring

import (
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bcc-consulting/outreach-cli/internal/checkpoint"
	"github.com/bcc-consulting/outreach-cli/internal/outreach"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
)

// MetricsSnapshot holds a point-in-time view of outreach health.
type MetricsSnapshot struct {
	// Send ledger metrics.
	TotalSent       int            `json:"total_sent"`
	SentToday       int            `json:"sent_today"`
	SentByIdentity  map[string]int `json:"sent_by_identity"`
	Replied         int            `json:"replied"`
	ReplyRate       float64        `json:"reply_rate"`
	FollowupsSent   int            `json:"followups_sent"`
	FollowupBacklog int            `json:"followup_backlog"`

	// Draft backlog.
	DraftBacklog int `json:"draft_backlog"`

	// Pipeline progress, 0 when no run is in flight.
	PipelinePhase int `json:"pipeline_phase,omitempty"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collector gathers metrics from the ledger, draft dir, and checkpoint.
type Collector struct {
	LedgerPath   string
	DraftDir     string
	Checkpoints  *checkpoint.Store
	FollowupWait time.Duration
	Now          func() time.Time
}

func (c *Collector) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Collect gathers a snapshot of outreach metrics.
func (c *Collector) Collect() (*MetricsSnapshot, error) {
	now := c.now()
	snap := &MetricsSnapshot{
		SentByIdentity: make(map[string]int),
		CollectedAt:    now.UTC(),
	}

	ledger := sendlog.Load(c.LedgerPath)
	snap.TotalSent = len(ledger.Entries)
	snap.Replied = ledger.RepliedCount()
	if snap.TotalSent > 0 {
		snap.ReplyRate = float64(snap.Replied) / float64(snap.TotalSent)
	}
	for ident, n := range ledger.CountsOn(now) {
		snap.SentByIdentity[ident] = n
		snap.SentToday += n
	}
	for _, e := range ledger.Entries {
		if !e.FollowupSentAt.IsZero() {
			snap.FollowupsSent++
		}
	}
	snap.FollowupBacklog = len(ledger.DueFollowups(now, c.FollowupWait))

	if c.DraftDir != "" {
		matches, err := filepath.Glob(filepath.Join(c.DraftDir, outreach.DraftPrefix+"*.md"))
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: glob drafts")
		}
		snap.DraftBacklog = len(matches)
	}

	if c.Checkpoints != nil {
		state := c.Checkpoints.Load()
		if phase := state.ResumePhase(); phase <= checkpoint.NumPhases && !state.LastUpdated.IsZero() {
			snap.PipelinePhase = phase
		}
	}

	return snap, nil
}

// Package pipeline orchestrates the seven-phase lead pipeline: ingest,
// research, report, notify, draft, save, and summarize. Progress is
// checkpointed after every phase so a crashed run picks up where it left
// off instead of repeating paid research calls.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/checkpoint"
	"github.com/bcc-consulting/outreach-cli/internal/fetcher"
	"github.com/bcc-consulting/outreach-cli/internal/fsx"
	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/normalize"
	"github.com/bcc-consulting/outreach-cli/internal/outreach"
	"github.com/bcc-consulting/outreach-cli/internal/report"
	"github.com/bcc-consulting/outreach-cli/internal/research"
	"github.com/bcc-consulting/outreach-cli/internal/score"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
	"github.com/bcc-consulting/outreach-cli/pkg/telegram"
)

// Options configures a pipeline run.
type Options struct {
	Input        string // lead export path or URL
	StateDir     string
	DraftDir     string
	LedgerPath   string
	MaxLeads     int
	TopN         int
	Suppression  time.Duration
	SkipResearch bool
	SkipNotify   bool
	// FromPhase forces re-execution starting at the given phase. Every
	// earlier phase must already be complete in the checkpoint.
	FromPhase int
}

// Pipeline wires the phase implementations together.
type Pipeline struct {
	Checkpoints *checkpoint.Store
	Normalizer  *normalize.Normalizer
	Research    *research.Engine
	Notifier    telegram.Client
	Now         func() time.Time
}

// Result reports what a run produced.
type Result struct {
	Leads      int
	Companies  int
	ReportFile string
	TopFile    string
	DraftCount int
	Resumed    bool
}

const draftPreviewLimit = 20

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run executes all seven phases, resuming from the checkpoint when one
// exists. A fully completed checkpoint is cleared and the run starts over.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	state := p.Checkpoints.Load()
	start := state.ResumePhase()
	if start > checkpoint.NumPhases && opts.FromPhase == 0 {
		zap.L().Info("previous run complete, starting fresh")
		if err := p.Checkpoints.Clear(); err != nil {
			return nil, err
		}
		state = &checkpoint.State{}
		start = 1
	}
	if opts.FromPhase > 0 {
		if opts.FromPhase > checkpoint.NumPhases {
			return nil, eris.Errorf("pipeline: no phase %d", opts.FromPhase)
		}
		if opts.FromPhase > start {
			return nil, eris.Errorf("pipeline: cannot jump to phase %d, phase %d is incomplete", opts.FromPhase, start)
		}
		state.ResetFrom(opts.FromPhase)
		start = opts.FromPhase
		zap.L().Info("forcing phase", zap.Int("phase", start))
	}
	if state.RunToken == "" {
		state.RunToken = uuid.New().String()[:8]
	}

	res := &Result{Resumed: start > 1}
	if res.Resumed {
		zap.L().Info("resuming pipeline",
			zap.Int("phase", start),
			zap.String("name", checkpoint.PhaseNames[start-1]))
	}

	// Phase 1: ingest and normalize leads.
	var leads []model.Lead
	if !state.PhaseDone(1) {
		var err error
		leads, err = p.ingest(ctx, opts, state)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		leads, err = p.loadLeadsFile(state.LeadsFile)
		if err != nil {
			return nil, err
		}
	}
	res.Leads = len(leads)

	// Phase 2: research company contacts.
	if !state.PhaseDone(2) {
		if err := p.researchPhase(ctx, leads, state, opts); err != nil {
			return nil, err
		}
	}
	res.Companies = len(state.Research)

	ranked := score.Rank(leads, state.Research)
	top := score.TopN(ranked, opts.TopN)

	// Phase 3: write reports.
	if !state.PhaseDone(3) {
		if err := p.reportPhase(ranked, top, state, opts); err != nil {
			return nil, err
		}
	}
	res.ReportFile = state.ReportFile
	res.TopFile = state.TopFile

	// Phase 4: send the top leads report.
	if !state.PhaseDone(4) {
		p.notifyReport(ctx, state, opts)
		state.SetPhaseDone(4)
		if err := p.Checkpoints.Save(state); err != nil {
			return nil, err
		}
	}

	// Phase 5: generate outreach drafts.
	var drafts []model.Draft
	if !state.PhaseDone(5) {
		ledger := sendlog.Load(opts.LedgerPath)
		gen := outreach.NewGenerator(opts.Suppression)
		drafts = gen.Generate(leads, state.Research, ledger, p.now())
		state.DraftCount = len(drafts)
		state.SetPhaseDone(5)
		if err := p.Checkpoints.Save(state); err != nil {
			return nil, err
		}

		if len(drafts) == 0 {
			zap.L().Info("no drafts to write, pipeline complete")
			if err := p.Checkpoints.Clear(); err != nil {
				return nil, err
			}
			return res, nil
		}
	}
	res.DraftCount = state.DraftCount

	// Phase 6: write draft files.
	if !state.PhaseDone(6) {
		if len(drafts) == 0 {
			// Phase 5 completed in an earlier run; regenerate from the
			// same inputs so phase 6 has drafts to write.
			ledger := sendlog.Load(opts.LedgerPath)
			gen := outreach.NewGenerator(opts.Suppression)
			drafts = gen.Generate(leads, state.Research, ledger, p.now())
		}
		files, err := outreach.SaveDrafts(opts.DraftDir, state.RunToken, drafts)
		if err != nil {
			return nil, err
		}
		zap.L().Info("drafts written",
			zap.Int("count", len(files)),
			zap.String("dir", opts.DraftDir))
		state.SetPhaseDone(6)
		if err := p.Checkpoints.Save(state); err != nil {
			return nil, err
		}
	}

	// Phase 7: run summary.
	if !state.PhaseDone(7) {
		p.notifySummary(ctx, res, ranked, drafts, opts)
		state.SetPhaseDone(7)
		if err := p.Checkpoints.Save(state); err != nil {
			return nil, err
		}
	}

	if err := p.Checkpoints.Clear(); err != nil {
		return nil, err
	}
	zap.L().Info("pipeline complete",
		zap.Int("leads", res.Leads),
		zap.Int("companies", res.Companies),
		zap.Int("drafts", res.DraftCount))
	return res, nil
}

func (p *Pipeline) ingest(ctx context.Context, opts Options, state *checkpoint.State) ([]model.Lead, error) {
	raws, err := fetcher.LoadLeads(ctx, opts.Input)
	if err != nil {
		return nil, err
	}
	if opts.MaxLeads > 0 && len(raws) > opts.MaxLeads {
		zap.L().Info("truncating lead list",
			zap.Int("total", len(raws)),
			zap.Int("max", opts.MaxLeads))
		raws = raws[:opts.MaxLeads]
	}

	leads := make([]model.Lead, 0, len(raws))
	for _, raw := range raws {
		if raw.ProjectName == "" {
			continue
		}
		leads = append(leads, p.Normalizer.Normalize(raw))
	}
	zap.L().Info("leads ingested",
		zap.String("source", opts.Input),
		zap.Int("raw", len(raws)),
		zap.Int("normalized", len(leads)))

	path := filepath.Join(opts.StateDir, "leads_normalized.json")
	data, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: marshal leads")
	}
	if err := fsx.WriteFileAtomic(path, data, 0o644); err != nil {
		return nil, eris.Wrap(err, "pipeline: write leads file")
	}

	state.LeadsFile = path
	state.SetPhaseDone(1)
	if err := p.Checkpoints.Save(state); err != nil {
		return nil, err
	}
	return leads, nil
}

func (p *Pipeline) loadLeadsFile(path string) ([]model.Lead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read leads file %s", path)
	}
	var leads []model.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse leads file %s", path)
	}
	return leads, nil
}

func (p *Pipeline) researchPhase(ctx context.Context, leads []model.Lead, state *checkpoint.State, opts Options) error {
	if opts.SkipResearch || p.Research == nil {
		zap.L().Info("research skipped, using listing contacts only")
	} else {
		if _, err := p.Research.Run(ctx, leads, state); err != nil {
			return err
		}
	}
	state.SetPhaseDone(2)
	return p.Checkpoints.Save(state)
}

func (p *Pipeline) reportPhase(ranked, top []score.ScoredLead, state *checkpoint.State, opts Options) error {
	now := p.now()
	reportPath := filepath.Join(opts.StateDir, "leads_report.md")
	topPath := filepath.Join(opts.StateDir, fmt.Sprintf("top_%d_leads.md", len(top)))

	if err := fsx.WriteFileAtomic(reportPath,
		[]byte(report.LeadsReport(ranked, state.Research, now)), 0o644); err != nil {
		return eris.Wrap(err, "pipeline: write leads report")
	}
	if err := fsx.WriteFileAtomic(topPath,
		[]byte(report.TopNReport(top, state.Research, now)), 0o644); err != nil {
		return eris.Wrap(err, "pipeline: write top report")
	}

	state.ReportFile = reportPath
	state.TopFile = topPath
	state.SetPhaseDone(3)
	return p.Checkpoints.Save(state)
}

func (p *Pipeline) notifyReport(ctx context.Context, state *checkpoint.State, opts Options) {
	if opts.SkipNotify || p.Notifier == nil || !p.Notifier.Enabled() {
		return
	}
	if err := p.Notifier.SendDocument(ctx, state.TopFile, "Top leads report"); err != nil {
		zap.L().Warn("report notification failed", zap.Error(err))
	}
}

func (p *Pipeline) notifySummary(ctx context.Context, res *Result, ranked []score.ScoredLead, drafts []model.Draft, opts Options) {
	if opts.SkipNotify || p.Notifier == nil || !p.Notifier.Enabled() {
		return
	}

	msg := report.Summary(res.Leads, opts.TopN, res.DraftCount, ranked)
	if len(drafts) > 0 && len(drafts) <= draftPreviewLimit {
		msg += "\n\nDrafts:"
		for _, d := range drafts {
			msg += fmt.Sprintf("\n- %s (%s) for %s", d.ContactName, d.Company, d.Project)
		}
	}
	if err := p.Notifier.SendMessage(ctx, msg); err != nil {
		zap.L().Warn("summary notification failed", zap.Error(err))
	}
}

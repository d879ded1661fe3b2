package replies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/resilience"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
	"github.com/bcc-consulting/outreach-cli/pkg/inbox"
	"github.com/bcc-consulting/outreach-cli/pkg/telegram"
)

// Tracker marks ledger entries replied when a response shows up in any
// of the sending identities' inboxes.
type Tracker struct {
	Ledger   *sendlog.Ledger
	Readers  []inbox.Reader
	Notifier telegram.Client
	Lookback time.Duration
	DryRun   bool
	Now      func() time.Time
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Scan checks every inbox for replies and records them in the ledger.
// It returns the matches it found. An inbox that fails to scan is logged
// and skipped so one bad account does not block the others.
func (t *Tracker) Scan(ctx context.Context) ([]Match, error) {
	unreplied := t.Ledger.Unreplied()
	if len(unreplied) == 0 {
		zap.L().Info("no unreplied sends to track")
		return nil, nil
	}

	since := t.now().Add(-t.Lookback)
	var msgs []inbox.Message
	for _, r := range t.Readers {
		retryCfg := resilience.DefaultRetryConfig()
		retryCfg.OnRetry = resilience.RetryLogger("imap", "fetch")
		batch, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]inbox.Message, error) {
			return r.FetchSince(ctx, since)
		})
		if err != nil {
			zap.L().Warn("inbox scan failed, skipping account", zap.Error(err))
			continue
		}
		msgs = append(msgs, batch...)
	}

	matches := FindMatches(msgs, unreplied)
	if len(matches) == 0 {
		zap.L().Info("no new replies found",
			zap.Int("inbox_messages", len(msgs)),
			zap.Int("unreplied", len(unreplied)))
		return nil, nil
	}

	for _, m := range matches {
		if t.DryRun {
			zap.L().Info("dry run, would mark replied",
				zap.String("email", m.Entry.ContactEmail),
				zap.String("subject", m.Message.Subject))
			continue
		}
		t.Ledger.MarkReplied(m.Entry.ContactEmail)
		zap.L().Info("reply recorded",
			zap.String("email", m.Entry.ContactEmail),
			zap.String("company", m.Entry.Company))
	}
	if !t.DryRun {
		if err := t.Ledger.Save(); err != nil {
			return matches, err
		}
		t.notify(ctx, matches)
	}
	return matches, nil
}

func (t *Tracker) notify(ctx context.Context, matches []Match) {
	if t.Notifier == nil || !t.Notifier.Enabled() {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d new replies:\n", len(matches))
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s (%s) re: %s\n", m.Entry.ContactName, m.Entry.Company, m.Entry.Project)
	}
	if err := t.Notifier.SendMessage(ctx, b.String()); err != nil {
		zap.L().Warn("reply notification failed", zap.Error(err))
	}
}

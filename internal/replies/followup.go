package replies

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/dispatch"
	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/resilience"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
	"github.com/bcc-consulting/outreach-cli/pkg/mailer"
)

var subjectProjectRe = regexp.MustCompile(`(?:for|:)\s+(.+?)\s*\|`)

// ExtractProject recovers the project name from an outreach subject line
// when the ledger row predates the project column.
func ExtractProject(subject string) string {
	if m := subjectProjectRe.FindStringSubmatch(subject); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// FollowupSubject threads the nudge onto the original email.
func FollowupSubject(original string) string {
	return "Re: " + original
}

// FollowupBody is the short nudge sent once per contact.
func FollowupBody(contactName, project string) string {
	first := contactName
	if i := strings.IndexAny(first, " \t"); i > 0 {
		first = first[:i]
	}
	if first == "" {
		first = "there"
	}
	about := "your project"
	if project != "" {
		about = project
	}
	return fmt.Sprintf(`Hi %s,

Just following up on my note below about %s. I know inboxes get busy.

If third-party inspections or plan review are on your radar for this one, I'm happy to set up a quick call. If the timing is off or you're covered, no problem at all, just let me know.

Best,
Building Code Consulting LLC
`, first, about)
}

// Followuper sends one follow-up to contacts that never replied.
type Followuper struct {
	Ledger     *sendlog.Ledger
	Identities []*dispatch.Identity
	CC         []string
	Attachment string
	Wait       time.Duration
	DryRun     bool
	Now        func() time.Time
}

func (f *Followuper) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Run sends follow-ups for entries whose initial send is at least Wait old,
// has no reply, and no earlier follow-up. Each nudge goes out from the same
// identity that sent the original email.
func (f *Followuper) Run(ctx context.Context) (int, error) {
	due := f.Ledger.DueFollowups(f.now(), f.Wait)
	if len(due) == 0 {
		zap.L().Info("no follow-ups due")
		return 0, nil
	}

	// Ledger From addresses are lowercased; match config casing to them.
	byFrom := make(map[string]*dispatch.Identity, len(f.Identities))
	for _, ident := range f.Identities {
		byFrom[strings.ToLower(ident.From)] = ident
	}

	sent := 0
	for _, e := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		ident := byFrom[e.SentFrom]
		if ident == nil {
			// Original identity no longer configured, fall back to the first.
			if len(f.Identities) == 0 {
				break
			}
			ident = f.Identities[0]
		}

		project := e.Project
		if project == "" {
			project = ExtractProject(e.Subject)
		}
		msg := followupMessage(e, ident.From, f.CC, project)
		msg.Attachment = f.Attachment

		log := zap.L().With(
			zap.String("to", e.ContactEmail),
			zap.String("project", project))
		if f.DryRun {
			log.Info("dry run, would send follow-up")
			sent++
			continue
		}
		retryCfg := resilience.DefaultRetryConfig()
		retryCfg.OnRetry = resilience.RetryLogger("smtp", "followup")
		err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
			return ident.Sender.Send(ctx, msg)
		})
		if err != nil {
			log.Warn("follow-up send failed", zap.Error(err))
			continue
		}
		e.FollowupSentAt = f.now()
		if err := f.Ledger.Save(); err != nil {
			return sent, err
		}
		sent++
		log.Info("follow-up sent")
	}
	return sent, nil
}

func followupMessage(e *model.SendLogEntry, from string, cc []string, project string) mailer.Message {
	return mailer.Message{
		From:    from,
		To:      e.ContactEmail,
		CC:      cc,
		Subject: FollowupSubject(e.Subject),
		Body:    FollowupBody(e.ContactName, project),
	}
}

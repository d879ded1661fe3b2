// Package dispatch sends generated drafts through the configured SMTP
// identities, enforcing per-identity daily caps recorded in the send ledger.
package dispatch

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/resilience"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
	"github.com/bcc-consulting/outreach-cli/pkg/mailer"
)

// Identity is one sending account.
type Identity struct {
	Name   string
	From   string
	Sender mailer.Sender
}

// Assignment pairs a draft with the identity that will send it.
type Assignment struct {
	Draft    *model.Draft
	Identity *Identity
}

// Result summarizes one dispatch run.
type Result struct {
	Sent        int
	Failed      int
	Skipped     int
	SentByIdent map[string]int
}

// SplitCap divides a total daily cap across n identities. Each identity
// gets the floor share and the remainder goes to the first one.
func SplitCap(total, n int) []int {
	if n <= 0 {
		return nil
	}
	caps := make([]int, n)
	base := total / n
	for i := range caps {
		caps[i] = base
	}
	caps[0] += total % n
	return caps
}

// BuildPlan assigns drafts to identities round-robin up to each identity's
// remaining capacity for today. Drafts are consumed in the order given, so
// callers should pass them highest score first. sentToday is keyed by
// lowercased From address, as the ledger stores it.
func BuildPlan(drafts []*model.Draft, identities []*Identity, caps []int, sentToday map[string]int) []Assignment {
	remaining := make([]int, len(identities))
	for i, ident := range identities {
		remaining[i] = caps[i] - sentToday[strings.ToLower(ident.From)]
		if remaining[i] < 0 {
			remaining[i] = 0
		}
	}

	var plan []Assignment
	idx := 0
	for _, d := range drafts {
		assigned := false
		for range identities {
			i := idx % len(identities)
			idx++
			if remaining[i] > 0 {
				remaining[i]--
				plan = append(plan, Assignment{Draft: d, Identity: identities[i]})
				assigned = true
				break
			}
		}
		if !assigned {
			break
		}
	}
	return plan
}

// Account-level failure markers. A rejected recipient is a per-draft
// problem; these repeat for every draft on the same identity.
var systemicMarkers = []string{
	"535",
	"534",
	"auth",
	"dial",
	"connection refused",
	"connection reset",
	"no such host",
	"tls",
}

// systemicFailure reports whether a send error affects the whole account
// rather than one recipient.
func systemicFailure(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range systemicMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Dispatcher executes a dispatch plan against the ledger.
type Dispatcher struct {
	Ledger     *sendlog.Ledger
	CC         []string
	Attachment string
	DryRun     bool
	Now        func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Run sends every assignment in plan. A failed send is logged and skipped,
// it does not abort the run. The ledger is saved after every successful
// send so an interrupted run never double-sends.
func (d *Dispatcher) Run(ctx context.Context, plan []Assignment) (*Result, error) {
	res := &Result{SentByIdent: make(map[string]int)}
	dead := make(map[string]bool)

	for _, a := range plan {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if dead[a.Identity.From] {
			res.Skipped++
			continue
		}

		log := zap.L().With(
			zap.String("to", a.Draft.ToEmail),
			zap.String("project", a.Draft.Project),
			zap.String("identity", a.Identity.Name))

		if d.DryRun {
			log.Info("dry run, would send", zap.String("subject", a.Draft.Subject))
			res.Sent++
			res.SentByIdent[a.Identity.From]++
			continue
		}

		msg := mailer.Message{
			From:       a.Identity.From,
			To:         a.Draft.ToEmail,
			CC:         d.CC,
			Subject:    a.Draft.Subject,
			Body:       a.Draft.Body,
			Attachment: d.Attachment,
		}
		// Transient SMTP errors are retried with backoff. Auth and
		// address errors fail fast so the retirement check below sees
		// them on the first draft.
		retryCfg := resilience.DefaultRetryConfig()
		retryCfg.OnRetry = resilience.RetryLogger("smtp", "send")
		err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
			return a.Identity.Sender.Send(ctx, msg)
		})
		if err != nil {
			log.Warn("send failed, skipping draft", zap.Error(err))
			res.Failed++
			if systemicFailure(err) {
				dead[a.Identity.From] = true
				log.Warn("identity retired for this run")
			}
			continue
		}

		d.Ledger.Append(model.SendLogEntry{
			ContactEmail: a.Draft.ToEmail,
			ContactName:  a.Draft.ContactName,
			Company:      a.Draft.Company,
			Project:      a.Draft.Project,
			Subject:      a.Draft.Subject,
			SentAt:       d.now(),
			SentFrom:     a.Identity.From,
		})
		if err := d.Ledger.Save(); err != nil {
			return res, err
		}
		res.Sent++
		res.SentByIdent[a.Identity.From]++
		log.Info("sent")
	}
	return res, nil
}

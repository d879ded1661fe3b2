// Package sendlog maintains the append-style CSV ledger of every
// outreach email sent. All reply and follow-up state is derived from
// this one file, so it stays human-inspectable.
package sendlog

import (
	"bytes"
	"encoding/csv"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/fsx"
	"github.com/bcc-consulting/outreach-cli/internal/model"
)

var header = []string{
	"contact_email", "contact_name", "company", "project", "subject",
	"sent_at", "sent_from", "replied", "followup_sent_at",
}

// Ledger is the in-memory view of the send log CSV.
type Ledger struct {
	path    string
	Entries []model.SendLogEntry
}

// Load reads the ledger at path. A missing file yields an empty ledger;
// a corrupt file is logged and treated as empty rather than aborting a
// send run.
func Load(path string) *Ledger {
	l := &Ledger{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("sendlog: unreadable, treating as empty",
				zap.String("path", path), zap.Error(err))
		}
		return l
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		zap.L().Warn("sendlog: corrupt, treating as empty",
			zap.String("path", path), zap.Error(err))
		return l
	}

	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "contact_email" {
			continue
		}
		if e, ok := parseRow(row); ok {
			l.Entries = append(l.Entries, e)
		}
	}
	return l
}

// parseRow tolerates ledgers written before the reply-tracking columns
// existed; missing trailing fields default to empty.
func parseRow(row []string) (model.SendLogEntry, bool) {
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	email := strings.ToLower(field(0))
	if email == "" {
		return model.SendLogEntry{}, false
	}

	return model.SendLogEntry{
		ContactEmail:   email,
		ContactName:    field(1),
		Company:        field(2),
		Project:        field(3),
		Subject:        field(4),
		SentAt:         parseTime(field(5)),
		SentFrom:       strings.ToLower(field(6)),
		Replied:        parseBool(field(7)),
		FollowupSentAt: parseTime(field(8)),
	}, true
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Append adds an entry to the in-memory ledger. Call Save to persist.
// Addresses are lowercased so the in-memory view matches a reload.
func (l *Ledger) Append(e model.SendLogEntry) {
	e.ContactEmail = strings.ToLower(strings.TrimSpace(e.ContactEmail))
	e.SentFrom = strings.ToLower(strings.TrimSpace(e.SentFrom))
	l.Entries = append(l.Entries, e)
}

// Save rewrites the full CSV atomically.
func (l *Ledger) Save() error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "sendlog: write header")
	}
	for _, e := range l.Entries {
		row := []string{
			e.ContactEmail, e.ContactName, e.Company, e.Project, e.Subject,
			formatTime(e.SentAt), e.SentFrom, formatBool(e.Replied),
			formatTime(e.FollowupSentAt),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "sendlog: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "sendlog: flush")
	}

	if err := fsx.WriteFileAtomic(l.path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrap(err, "sendlog: write file")
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SuppressedSince returns the set of addresses contacted on or after
// cutoff, counting both initial sends and follow-ups.
func (l *Ledger) SuppressedSince(cutoff time.Time) map[string]bool {
	out := make(map[string]bool)
	for _, e := range l.Entries {
		if !e.SentAt.IsZero() && !e.SentAt.Before(cutoff) {
			out[e.ContactEmail] = true
		}
		if !e.FollowupSentAt.IsZero() && !e.FollowupSentAt.Before(cutoff) {
			out[e.ContactEmail] = true
		}
	}
	return out
}

// CountsOn returns per-sender send counts for the UTC day containing
// now. Follow-ups count against the same daily budget.
func (l *Ledger) CountsOn(now time.Time) map[string]int {
	day := now.UTC().Format("2006-01-02")
	out := make(map[string]int)
	for _, e := range l.Entries {
		if e.SentFrom == "" {
			continue
		}
		if !e.SentAt.IsZero() && e.SentAt.UTC().Format("2006-01-02") == day {
			out[e.SentFrom]++
		}
		if !e.FollowupSentAt.IsZero() && e.FollowupSentAt.UTC().Format("2006-01-02") == day {
			out[e.SentFrom]++
		}
	}
	return out
}

// Unreplied returns pointers to the entries with no recorded reply, in
// ledger order. Mutations through the pointers are persisted by Save.
func (l *Ledger) Unreplied() []*model.SendLogEntry {
	var out []*model.SendLogEntry
	for i := range l.Entries {
		if !l.Entries[i].Replied {
			out = append(out, &l.Entries[i])
		}
	}
	return out
}

// MarkReplied flags every entry for the address as replied and returns
// how many rows changed. Already-replied rows stay untouched, so the
// operation is idempotent.
func (l *Ledger) MarkReplied(email string) int {
	email = strings.ToLower(strings.TrimSpace(email))
	changed := 0
	for i := range l.Entries {
		if l.Entries[i].ContactEmail == email && !l.Entries[i].Replied {
			l.Entries[i].Replied = true
			changed++
		}
	}
	return changed
}

// DueFollowups returns entries eligible for the single follow-up: sent
// at least wait ago, never replied, never followed up.
func (l *Ledger) DueFollowups(now time.Time, wait time.Duration) []*model.SendLogEntry {
	var out []*model.SendLogEntry
	for i := range l.Entries {
		e := &l.Entries[i]
		if e.Replied || !e.FollowupSentAt.IsZero() || e.SentAt.IsZero() {
			continue
		}
		if now.Sub(e.SentAt) >= wait {
			out = append(out, e)
		}
	}
	return out
}

// RepliedCount returns how many entries have a recorded reply.
func (l *Ledger) RepliedCount() int {
	n := 0
	for _, e := range l.Entries {
		if e.Replied {
			n++
		}
	}
	return n
}

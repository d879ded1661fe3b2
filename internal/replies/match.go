// Package replies scans inboxes for responses to sent outreach and
// drives the single follow-up nudge for leads that stay quiet.
package replies

import (
	"regexp"
	"strings"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/pkg/inbox"
)

var replyPrefixRe = regexp.MustCompile(`(?i)^(re|fwd|fw)(\[\d+\])?:\s*`)

// StripReplyPrefix removes leading Re:/Fwd: markers from a subject.
func StripReplyPrefix(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		stripped := replyPrefixRe.ReplaceAllString(s, "")
		if stripped == s {
			return s
		}
		s = stripped
	}
}

// SubjectsMatch reports whether an inbox subject plausibly answers the
// subject we sent. Either subject containing the other counts, and so
// does sharing at least 30% of the sent subject's words.
func SubjectsMatch(inboxSubject, sentSubject string) bool {
	a := strings.ToLower(StripReplyPrefix(inboxSubject))
	b := strings.ToLower(strings.TrimSpace(sentSubject))
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	sentWords := strings.Fields(b)
	if len(sentWords) == 0 {
		return false
	}
	hits := 0
	for _, w := range sentWords {
		if strings.Contains(a, w) {
			hits++
		}
	}
	return float64(hits)/float64(len(sentWords)) >= 0.3
}

// Match pairs an inbox message with the ledger entry it answers.
type Match struct {
	Entry   *model.SendLogEntry
	Message inbox.Message
}

// FindMatches returns at most one match per contact email, pairing inbox
// messages against entries that have not replied yet.
func FindMatches(msgs []inbox.Message, unreplied []*model.SendLogEntry) []Match {
	byEmail := make(map[string]*model.SendLogEntry, len(unreplied))
	for _, e := range unreplied {
		byEmail[strings.ToLower(e.ContactEmail)] = e
	}

	var matches []Match
	seen := make(map[string]bool)
	for _, m := range msgs {
		from := strings.ToLower(strings.TrimSpace(m.From))
		entry, ok := byEmail[from]
		if !ok || seen[from] {
			continue
		}
		if !SubjectsMatch(m.Subject, entry.Subject) {
			continue
		}
		seen[from] = true
		matches = append(matches, Match{Entry: entry, Message: m})
	}
	return matches
}

package outreach

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/normalize"
	"github.com/bcc-consulting/outreach-cli/internal/score"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
)

// DefaultSuppressionWindow is how long a contacted address stays off
// limits for new outreach.
const DefaultSuppressionWindow = 60 * 24 * time.Hour

// Generator builds one draft per (contact email, project), skipping
// anyone contacted within the suppression window.
type Generator struct {
	suppression time.Duration
}

// NewGenerator creates a Generator. A zero window means the default.
func NewGenerator(suppression time.Duration) *Generator {
	if suppression <= 0 {
		suppression = DefaultSuppressionWindow
	}
	return &Generator{suppression: suppression}
}

// Generate renders drafts for every reachable contact across the leads.
// Listing contacts come first per lead, then researched contacts, so
// the (email, project) dedup key favors verified sources.
func (g *Generator) Generate(
	leads []model.Lead,
	research map[string]model.CompanyResearch,
	ledger *sendlog.Ledger,
	now time.Time,
) []model.Draft {
	suppressed := ledger.SuppressedSince(now.Add(-g.suppression))
	if len(suppressed) > 0 {
		zap.L().Info("outreach: suppressing recently contacted addresses",
			zap.Int("count", len(suppressed)))
	}

	var drafts []model.Draft
	seen := make(map[[2]string]bool)

	add := func(lead model.Lead, company string, role model.Role, contactName, contactRole, email, phone string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || !strings.Contains(email, "@") {
			return
		}
		key := [2]string{email, lead.ProjectName}
		if seen[key] || suppressed[email] {
			return
		}
		seen[key] = true

		drafts = append(drafts, model.Draft{
			Project:     lead.ProjectName,
			Company:     company,
			CompanyRole: role,
			ContactName: contactName,
			ContactRole: contactRole,
			ToEmail:     email,
			Phone:       phone,
			Subject:     Subject(lead.ProjectName, lead.Focus, role),
			Body:        Body(contactName, company, role, lead.ProjectName, lead.Focus),
			Focus:       lead.Focus,
			Score:       score.Score(lead, research),
		})
	}

	for _, lead := range leads {
		if lead.ProjectName == "" {
			continue
		}

		for _, dc := range lead.DetailContacts {
			company := normalize.CleanCompanyName(dc.Company)
			if company == "" {
				continue
			}
			add(lead, company, normalize.MapDetailRole(dc.Role), dc.Name, dc.Role, dc.Email, dc.Phone)
		}

		for _, ref := range lead.Companies {
			cr, ok := research[ref.Name]
			if !ok {
				continue
			}
			for _, contact := range cr.Contacts {
				contactRole := contact.Role
				if contactRole == "" {
					contactRole = string(ref.Role)
				}
				add(lead, ref.Name, ref.Role, contact.Name, contactRole, contact.Email, contact.Phone)
			}
		}
	}

	zap.L().Info("outreach: drafts generated", zap.Int("count", len(drafts)))
	return drafts
}

var (
	slugBadRe      = regexp.MustCompile(`[^\w]`)
	slugCollapseRe = regexp.MustCompile(`_+`)
)

// Slug builds the filename-safe identifier for a draft.
func Slug(company, contactName string) string {
	if contactName == "" {
		contactName = "Contact"
	}
	s := slugBadRe.ReplaceAllString(company+"_"+contactName, "_")
	if len(s) > 48 {
		s = s[:48]
	}
	s = slugCollapseRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

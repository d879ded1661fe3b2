// Package report renders the pipeline's markdown deliverables.
package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/score"
)

var printer = message.NewPrinter(language.English)

// LeadsReport renders the full scored lead list with the contacts found
// for each company.
func LeadsReport(ranked []score.ScoredLead, research map[string]model.CompanyResearch, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Lead Research Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Leads: %d | Companies researched: %d | %s\n\n",
		len(ranked), len(research), pipelineValueLine(ranked))

	for i, sl := range ranked {
		lead := sl.Lead
		fmt.Fprintf(&b, "## %d. %s (score %.2f)\n\n", i+1, lead.ProjectName, sl.Score)
		fmt.Fprintf(&b, "- Stage: %s\n", orDash(lead.Stage))
		fmt.Fprintf(&b, "- Focus: %s\n", lead.Focus)
		fmt.Fprintf(&b, "- Value: %s\n", valueCell(lead))
		if lead.Address != "" {
			fmt.Fprintf(&b, "- Address: %s\n", lead.Address)
		}
		if lead.ConstructionStart != "" {
			fmt.Fprintf(&b, "- Construction start: %s\n", lead.ConstructionStart)
		}
		b.WriteString("\n")

		for _, ref := range lead.Companies {
			fmt.Fprintf(&b, "**%s** (%s)\n\n", ref.Name, ref.Role)
			cr, ok := research[ref.Name]
			if !ok || len(cr.Contacts) == 0 {
				b.WriteString("- no contacts found\n\n")
				continue
			}
			for _, c := range cr.Contacts {
				fmt.Fprintf(&b, "- %s%s%s%s\n",
					orDash(c.Name),
					suffix(", ", c.Role),
					suffix(", ", c.Email),
					suffix(", ", c.Phone))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// TopNReport renders the ranked shortlist as a markdown table, one row
// per lead using its best contact.
func TopNReport(top []score.ScoredLead, research map[string]model.CompanyResearch, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Top %d Leads\n\n", len(top))
	fmt.Fprintf(&b, "Generated: %s | %s\n\n", now.Format("2006-01-02 15:04"), pipelineValueLine(top))
	b.WriteString("| # | Project | Stage | Focus | Value | Company | Role | Contact | Email | Score |\n")
	b.WriteString("|---|---------|-------|-------|-------|---------|------|---------|-------|-------|\n")

	for i, sl := range top {
		lead := sl.Lead
		company, role, contact := bestCompanyContact(lead, research)
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s | %.2f |\n",
			i+1,
			clip(lead.ProjectName, 45),
			clip(orDash(lead.Stage), 25),
			clip(string(lead.Focus), 20),
			clip(valueCell(lead), 12),
			clip(orDash(company), 30),
			clip(orDash(role), 20),
			clip(orDash(contact.Name), 20),
			clip(orDash(contact.Email), 35),
			sl.Score)
	}
	return b.String()
}

// Summary is a short plain-text digest suitable for a chat notification.
func Summary(total, top, drafts int, ranked []score.ScoredLead) string {
	return fmt.Sprintf("Lead pipeline finished: %d leads scored, top %d reported, %d drafts ready. %s",
		total, top, drafts, pipelineValueLine(ranked))
}

func pipelineValueLine(ranked []score.ScoredLead) string {
	var total float64
	for _, sl := range ranked {
		total += sl.Lead.ValueMillions
	}
	return printer.Sprintf("Pipeline value: $%.0fM", total)
}

// bestCompanyContact walks the lead's companies in role-priority order and
// returns the first one with a usable contact.
func bestCompanyContact(lead model.Lead, research map[string]model.CompanyResearch) (string, string, model.Contact) {
	var fallbackCompany, fallbackRole string
	for _, ref := range lead.Companies {
		cr, ok := research[ref.Name]
		if !ok {
			if fallbackCompany == "" {
				fallbackCompany, fallbackRole = ref.Name, string(ref.Role)
			}
			continue
		}
		if c, ok := cr.BestContact(); ok {
			return ref.Name, string(ref.Role), c
		}
		if fallbackCompany == "" {
			fallbackCompany, fallbackRole = ref.Name, string(ref.Role)
		}
	}
	if len(lead.DetailContacts) > 0 {
		c := lead.DetailContacts[0]
		return c.Company, "", c
	}
	return fallbackCompany, fallbackRole, model.Contact{}
}

func valueCell(lead model.Lead) string {
	if lead.ValueMillions > 0 {
		return printer.Sprintf("$%.1fM", lead.ValueMillions)
	}
	return orDash(lead.EstimatedValue)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func suffix(sep, s string) string {
	if s == "" {
		return ""
	}
	return sep + s
}

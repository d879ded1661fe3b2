// Package outreach renders cold outreach emails and manages the draft
// files a send run picks up.
package outreach

import (
	"fmt"
	"strings"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

const firmName = "Building Code Consulting LLC"

const (
	bulletExpertise = "Multi-Discipline Expertise: Our team brings together licensed Professional Engineers " +
		"across all major disciplines and multiple ICC Master Code Professionals (MCP). We handle " +
		"Building, Mechanical, Electrical, Plumbing, and Fire Protection code inspections and plan " +
		"review, and serve as a hands-on technical resource for code compliance questions, " +
		"providing professional guidance when issues arise."

	bulletScheduling = "Responsive Scheduling: We offer same-day or next-business-day inspection availability " +
		"to keep your project milestones on track."

	bulletBilling = "Fair, Visit-Based Billing: Billing is based on actual visits completed. Our fee is a " +
		"flat rate per inspection visit actually performed. You will never be billed based on an " +
		"upfront estimate. If your project wraps up in fewer inspections than projected, you pay " +
		"only for what was done."

	bulletPlanReview = "Plan Review Services: We provide expedited Third-Party Plan Review for DC and " +
		"nationwide jurisdictions. Our reviews identify code deficiencies before submission, " +
		"reducing agency review cycles and keeping your schedule on track."

	bulletPeerReview = "Plan Review and Peer Review: We provide expedited Third-Party Plan Review for " +
		"DC and nationwide jurisdictions. Our team can review drawings for code compliance " +
		"before submission, catching issues early and protecting your project schedule."
)

// Subject builds the email subject line. Early-stage leads get the plan
// review subject unless the recipient is a contractor, who only ever
// buys inspections.
func Subject(project string, focus model.Focus, role model.Role) string {
	if focus.IsPlanReview() && !role.IsContractorFamily() {
		return fmt.Sprintf("Third-Party Plan Review & Inspection Services for %s | %s", project, firmName)
	}
	return fmt.Sprintf("Third-Party Inspection Services for %s | %s", project, firmName)
}

// Body renders the role-matched email body. Contractors get an
// inspection-only pitch regardless of stage; developers, owners, and
// architects get a stage-aware pitch. No signature is appended.
func Body(contactName, company string, role model.Role, project string, focus model.Focus) string {
	salutation := "Hi,"
	if first := firstName(contactName); first != "" {
		salutation = fmt.Sprintf("Hi %s,", first)
	}
	planReviewLead := focus.IsPlanReview() && !role.IsContractorFamily()

	var parts []string
	switch {
	case role.IsContractorFamily():
		parts = []string{
			salutation,
			"",
			fmt.Sprintf("I noticed %s is working on %s in Washington, DC and wanted "+
				"to take a moment to introduce Building Code Consulting LLC (BCC) as a potential "+
				"resource for your Third-Party Inspection needs.", company, project),
			"",
			fmt.Sprintf("BCC is a DC-based engineering firm focused exclusively on Washington, D.C. "+
				"Third-Party Code Compliance Inspections. A few reasons %s may find us "+
				"a strong fit for this project:", company),
			"",
			bulletExpertise,
			"",
			bulletScheduling,
			"",
			bulletBilling,
			"",
			"We are not submitting a formal proposal at this stage, but if you are still " +
				"finalizing your inspection vendor list for this project, we would welcome the " +
				"opportunity to provide a competitive quote.",
			"",
			"Are you open to a quick 5-minute call or a brief capability overview?",
		}

	case role.IsDeveloperFamily() && planReviewLead:
		parts = []string{
			salutation,
			"",
			fmt.Sprintf("I came across %s and wanted to briefly introduce Building Code "+
				"Consulting LLC (BCC) as a resource for %s's Third-Party Plan Review "+
				"and Code Compliance Inspection needs.", project, company),
			"",
			"BCC is a DC-based firm specializing in Third-Party Plan Review and Code " +
				"Compliance Inspections. At this stage of the project, our plan review services " +
				"can help identify and resolve code issues before submission, saving time and " +
				"avoiding costly revision cycles. A few highlights:",
			"",
			bulletExpertise,
			"",
			bulletPlanReview,
			"",
			bulletBilling,
			"",
			fmt.Sprintf("We are not submitting a formal proposal at this stage, but if you would like "+
				"to learn more about how BCC can support %s through plan review or "+
				"future inspections, we would welcome the conversation.", project),
			"",
			"Are you open to a quick 5-minute call?",
		}

	case role.IsDeveloperFamily():
		parts = []string{
			salutation,
			"",
			fmt.Sprintf("I came across %s and wanted to briefly introduce Building Code "+
				"Consulting LLC (BCC) as a resource for %s's Third-Party Inspection "+
				"and Plan Review needs.", project, company),
			"",
			"BCC is a DC-based firm specializing in Third-Party Code Compliance Inspections " +
				"and Plan Review. A few highlights:",
			"",
			bulletExpertise,
			"",
			bulletScheduling,
			"",
			bulletBilling,
			"",
			"Also, as a quick note: BCC also offers Third-Party Plan Review Services for DC " +
				"and nationwide jurisdictions. If your team needs expedited pre-submission code " +
				"review or peer review, we would be glad to assist.",
			"",
			fmt.Sprintf("We are not submitting a formal proposal at this stage, but if you would like to "+
				"learn more about our services for %s, we would welcome the conversation.", project),
			"",
			"Are you open to a quick 5-minute call?",
		}

	case role == model.RoleArchitect && planReviewLead:
		parts = []string{
			salutation,
			"",
			fmt.Sprintf("I came across %s and wanted to briefly introduce Building Code "+
				"Consulting LLC (BCC). We frequently collaborate with architects on Third-Party "+
				"Plan Review and peer review for DC projects, particularly at the design stage "+
				"when code issues are most efficiently resolved.", project),
			"",
			fmt.Sprintf("BCC is a DC-based firm specializing in DC Third-Party Code Compliance and Plan "+
				"Review. A few highlights relevant to %s:", company),
			"",
			bulletExpertise,
			"",
			bulletPeerReview,
			"",
			bulletBilling,
			"",
			fmt.Sprintf("We are not submitting a formal proposal at this stage, but would welcome the "+
				"opportunity to discuss how BCC can support %s during design and "+
				"into construction.", project),
			"",
			"Are you open to a quick 5-minute call?",
		}

	case role == model.RoleArchitect:
		parts = []string{
			salutation,
			"",
			fmt.Sprintf("I came across %s and wanted to briefly introduce Building Code "+
				"Consulting LLC (BCC). We often collaborate with architects on Third-Party Code "+
				"Compliance reviews and inspections for DC projects.", project),
			"",
			fmt.Sprintf("BCC is a DC-based firm specializing in DC Third-Party Code Compliance and Plan "+
				"Review. A few highlights relevant to %s:", company),
			"",
			bulletExpertise,
			"",
			bulletScheduling,
			"",
			bulletBilling,
			"",
			"We also offer Third-Party Plan Review and peer review services that can help " +
				"identify code issues before submission, reducing revision cycles and protecting " +
				"your project schedule.",
			"",
			fmt.Sprintf("We are not submitting a formal proposal at this stage, but would welcome the "+
				"opportunity to discuss how BCC can support %s.", project),
			"",
			"Are you open to a quick 5-minute call?",
		}

	case planReviewLead:
		parts = []string{
			salutation,
			"",
			fmt.Sprintf("I came across %s and wanted to briefly introduce Building Code "+
				"Consulting LLC (BCC) as a resource for Third-Party Plan Review and Inspection needs.", project),
			"",
			"BCC is a DC-based engineering firm specializing in Washington, D.C. Third-Party " +
				"Code Compliance Plan Review and Inspections. A few reasons we may be a strong fit:",
			"",
			bulletExpertise,
			"",
			"Plan Review Services: We offer expedited Third-Party Plan Review for DC and " +
				"nationwide jurisdictions, helping identify code issues before submission.",
			"",
			bulletBilling,
			"",
			"We are not submitting a formal proposal at this stage, but if you are exploring " +
				"plan review or inspection resources for this project, we would welcome a brief conversation.",
			"",
			"Are you open to a quick 5-minute call?",
		}

	default:
		parts = []string{
			salutation,
			"",
			fmt.Sprintf("I came across %s and wanted to briefly introduce Building Code "+
				"Consulting LLC (BCC) as a potential resource for Third-Party Inspection needs.", project),
			"",
			"BCC is a DC-based engineering firm specializing in Washington, D.C. Third-Party " +
				"Code Compliance Inspections. A few reasons we may be a strong fit:",
			"",
			bulletExpertise,
			"",
			bulletScheduling,
			"",
			bulletBilling,
			"",
			"We are not submitting a formal proposal at this stage, but if you are exploring " +
				"inspection vendors for this project, we would welcome a brief conversation.",
			"",
			"Are you open to a quick 5-minute call?",
		}
	}

	return strings.Join(parts, "\n")
}

func firstName(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Package export pushes ranked leads into a shared Notion database so
// the rest of the team can work the list outside the CLI.
package export

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/score"
	"github.com/bcc-consulting/outreach-cli/pkg/notion"
)

// Result summarizes one export run.
type Result struct {
	Created int
	Updated int
}

// Exporter upserts leads into a Notion database keyed by source ID, so
// re-running the export refreshes scores instead of duplicating rows.
type Exporter struct {
	Client notion.Client
	DBID   string
	Now    func() time.Time
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Export writes every ranked lead to the database. Existing pages are
// matched on the Source ID column and updated in place.
func (e *Exporter) Export(ctx context.Context, ranked []score.ScoredLead, research map[string]model.CompanyResearch) (*Result, error) {
	existing, err := e.existingPages(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, sl := range ranked {
		props := leadProperties(sl, research, e.now())

		key := sl.Lead.SourceID
		if key == "" {
			key = sl.Lead.ProjectName
		}
		if pageID, ok := existing[key]; ok {
			_, err := e.Client.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props})
			if err != nil {
				return res, eris.Wrapf(err, "export: update page for %s", sl.Lead.ProjectName)
			}
			res.Updated++
			continue
		}

		_, err := e.Client.CreatePage(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(e.DBID),
			},
			Properties: props,
		})
		if err != nil {
			return res, eris.Wrapf(err, "export: create page for %s", sl.Lead.ProjectName)
		}
		res.Created++
	}

	zap.L().Info("notion export complete",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated))
	return res, nil
}

// existingPages maps Source ID to page ID for every page in the database.
func (e *Exporter) existingPages(ctx context.Context) (map[string]string, error) {
	pages, err := notion.QueryAll(ctx, e.Client, e.DBID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "export: list existing pages")
	}

	existing := make(map[string]string, len(pages))
	for _, p := range pages {
		if id := richTextValue(p.Properties["Source ID"]); id != "" {
			existing[id] = string(p.ID)
			continue
		}
		if title := titleValue(p.Properties["Project"]); title != "" {
			existing[title] = string(p.ID)
		}
	}
	return existing, nil
}

func leadProperties(sl score.ScoredLead, research map[string]model.CompanyResearch, now time.Time) notionapi.Properties {
	lead := sl.Lead
	company, contact := bestOutreachTarget(lead, research)
	exportedAt := notionapi.Date(now)

	props := notionapi.Properties{
		"Project": notionapi.TitleProperty{
			Title: richText(lead.ProjectName),
		},
		"Source ID": notionapi.RichTextProperty{
			RichText: richText(lead.SourceID),
		},
		"Stage": notionapi.SelectProperty{
			Select: notionapi.Option{Name: orUnknown(lead.Stage)},
		},
		"Focus": notionapi.SelectProperty{
			Select: notionapi.Option{Name: orUnknown(string(lead.Focus))},
		},
		"Value ($M)": notionapi.NumberProperty{
			Number: lead.ValueMillions,
		},
		"Score": notionapi.NumberProperty{
			Number: sl.Score,
		},
		"Company": notionapi.RichTextProperty{
			RichText: richText(company.Name),
		},
		"Role": notionapi.SelectProperty{
			Select: notionapi.Option{Name: orUnknown(string(company.Role))},
		},
		"Contact": notionapi.RichTextProperty{
			RichText: richText(contact.Name),
		},
		"Email": notionapi.EmailProperty{
			Email: contact.Email,
		},
		"Exported": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &exportedAt},
		},
	}
	if lead.DetailURL != "" {
		props["Listing"] = notionapi.URLProperty{URL: lead.DetailURL}
	}
	return props
}

// bestOutreachTarget picks the company and contact the team would email
// first, preferring researched companies with an address on file.
func bestOutreachTarget(lead model.Lead, research map[string]model.CompanyResearch) (model.CompanyRef, model.Contact) {
	for _, ref := range lead.Companies {
		if c, ok := research[ref.Name].BestContact(); ok {
			return ref, c
		}
	}
	if len(lead.DetailContacts) > 0 {
		c := lead.DetailContacts[0]
		ref := model.CompanyRef{Name: c.Company}
		if len(lead.Companies) > 0 {
			ref = lead.Companies[0]
		}
		return ref, c
	}
	if len(lead.Companies) > 0 {
		return lead.Companies[0], model.Contact{}
	}
	return model.CompanyRef{}, model.Contact{}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func richText(s string) []notionapi.RichText {
	if s == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

func titleValue(prop notionapi.Property) string {
	tp, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(tp.Title) == 0 {
		return ""
	}
	return tp.Title[0].PlainText
}

func richTextValue(prop notionapi.Property) string {
	rtp, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rtp.RichText) == 0 {
		return ""
	}
	return rtp.RichText[0].PlainText
}

package export

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/score"
)

type fakeNotion struct {
	pages   []notionapi.Page
	created []*notionapi.PageCreateRequest
	updated map[string]*notionapi.PageUpdateRequest
}

func (f *fakeNotion) QueryDatabase(_ context.Context, _ string, _ *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: f.pages}, nil
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.created = append(f.created, req)
	return &notionapi.Page{}, nil
}

func (f *fakeNotion) UpdatePage(_ context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	if f.updated == nil {
		f.updated = make(map[string]*notionapi.PageUpdateRequest)
	}
	f.updated[pageID] = req
	return &notionapi.Page{}, nil
}

func rankedFixture() ([]score.ScoredLead, map[string]model.CompanyResearch) {
	ranked := []score.ScoredLead{
		{
			Lead: model.Lead{
				ProjectName:   "Harbor Tower",
				SourceID:      "CW-1001",
				Stage:         "Construction Documents",
				ValueMillions: 120,
				DetailURL:     "https://app.constructionwire.com/projects/1001",
				Focus:         model.Focus("Commercial"),
				Companies: []model.CompanyRef{
					{Name: "Acme Development", Role: model.RoleDeveloper},
				},
			},
			Score: 24.5,
		},
		{
			Lead: model.Lead{
				ProjectName: "Pier 9 Rehab",
				SourceID:    "CW-1002",
				Stage:       "Planning",
				Focus:       model.Focus("Infrastructure"),
			},
			Score: 11.0,
		},
	}
	research := map[string]model.CompanyResearch{
		"Acme Development": {
			Role: model.RoleDeveloper,
			Contacts: []model.Contact{
				{Name: "Dana Reyes", Email: "dana@acme.com", Company: "Acme Development"},
			},
		},
	}
	return ranked, research
}

func TestExport_CreatesPages(t *testing.T) {
	client := &fakeNotion{}
	e := &Exporter{
		Client: client,
		DBID:   "db-123",
		Now:    func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	}

	ranked, research := rankedFixture()
	res, err := e.Export(context.Background(), ranked, research)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Updated)
	require.Len(t, client.created, 2)

	props := client.created[0].Properties
	title := props["Project"].(notionapi.TitleProperty)
	require.Len(t, title.Title, 1)
	assert.Equal(t, "Harbor Tower", title.Title[0].Text.Content)
	assert.Equal(t, 24.5, props["Score"].(notionapi.NumberProperty).Number)
	assert.Equal(t, "dana@acme.com", props["Email"].(notionapi.EmailProperty).Email)
	assert.Equal(t, "Acme Development", props["Company"].(notionapi.RichTextProperty).RichText[0].Text.Content)
	assert.Equal(t, "https://app.constructionwire.com/projects/1001", props["Listing"].(notionapi.URLProperty).URL)
	assert.Equal(t, notionapi.DatabaseID("db-123"), client.created[0].Parent.DatabaseID)

	// The second lead has no contacts at all, the row still exports.
	props = client.created[1].Properties
	assert.Equal(t, "Unknown", props["Role"].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "", props["Email"].(notionapi.EmailProperty).Email)
}

func TestExport_UpdatesExistingBySourceID(t *testing.T) {
	client := &fakeNotion{
		pages: []notionapi.Page{
			{
				ID: "page-1",
				Properties: notionapi.Properties{
					"Project":   &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: "Harbor Tower"}}},
					"Source ID": &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "CW-1001"}}},
				},
			},
		},
	}
	e := &Exporter{Client: client, DBID: "db-123"}

	ranked, research := rankedFixture()
	res, err := e.Export(context.Background(), ranked, research)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	req, ok := client.updated["page-1"]
	require.True(t, ok)
	assert.Equal(t, 24.5, req.Properties["Score"].(notionapi.NumberProperty).Number)
}

func TestExport_FallsBackToProjectNameKey(t *testing.T) {
	client := &fakeNotion{
		pages: []notionapi.Page{
			{
				ID: "page-2",
				Properties: notionapi.Properties{
					"Project": &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: "No ID Job"}}},
				},
			},
		},
	}
	e := &Exporter{Client: client, DBID: "db-123"}

	ranked := []score.ScoredLead{{Lead: model.Lead{ProjectName: "No ID Job"}, Score: 3}}
	res, err := e.Export(context.Background(), ranked, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Updated)
}

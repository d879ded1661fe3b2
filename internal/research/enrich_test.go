package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/pkg/anthropic"
	"github.com/bcc-consulting/outreach-cli/pkg/jina"
)

type fakeSearch struct {
	results []jina.SearchResult
}

func (f *fakeSearch) Search(context.Context, string, ...jina.SearchOption) (*jina.SearchResponse, error) {
	return &jina.SearchResponse{Code: 200, Data: f.results}, nil
}

type fakeAI struct {
	text string
	reqs []anthropic.MessageRequest
}

func (f *fakeAI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.reqs = append(f.reqs, req)
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

func TestAIEnricher_ExtractsContacts(t *testing.T) {
	search := &fakeSearch{results: []jina.SearchResult{
		{Title: "Acme leadership", URL: "https://acme.com/team", Description: "Pat Ito, Principal"},
	}}
	ai := &fakeAI{text: "```json\n[{\"name\":\"Pat Ito\",\"title\":\"Principal\",\"email\":\"Pat@Acme.com\",\"phone\":\"\"}]\n```"}

	e := NewAIEnricher(search, ai, "claude-haiku-4-5-20251001", 10)
	contacts, err := e.Enrich(context.Background(), "Acme Development", model.RoleDeveloper)
	require.NoError(t, err)

	require.Len(t, contacts, 1)
	assert.Equal(t, "Pat Ito", contacts[0].Name)
	assert.Equal(t, "Principal", contacts[0].Role)
	assert.Equal(t, "pat@acme.com", contacts[0].Email)
	assert.Equal(t, "Acme Development", contacts[0].Company)
	assert.Equal(t, "search", contacts[0].Source)

	require.Len(t, ai.reqs, 1)
	assert.Contains(t, ai.reqs[0].Messages[0].Content, "Acme Development")
}

func TestAIEnricher_NoAIFallsBackToEmailScrape(t *testing.T) {
	search := &fakeSearch{results: []jina.SearchResult{
		{Title: "Contact us", Description: "Reach Pat at pat@acme.com or call the office."},
		{Title: "Team", Description: "pat@acme.com again, plus info@acme.com"},
	}}

	e := NewAIEnricher(search, nil, "", 10)
	contacts, err := e.Enrich(context.Background(), "Acme Development", model.RoleDeveloper)
	require.NoError(t, err)

	require.Len(t, contacts, 2)
	assert.Equal(t, "pat@acme.com", contacts[0].Email)
	assert.Equal(t, "info@acme.com", contacts[1].Email)
}

func TestAIEnricher_BadJSONFallsBack(t *testing.T) {
	search := &fakeSearch{results: []jina.SearchResult{
		{Description: "write to sam@buildright.com"},
	}}
	ai := &fakeAI{text: "I could not find any contacts, sorry."}

	e := NewAIEnricher(search, ai, "claude-haiku-4-5-20251001", 10)
	contacts, err := e.Enrich(context.Background(), "BuildRight", model.RoleGCContractor)
	require.NoError(t, err)

	require.Len(t, contacts, 1)
	assert.Equal(t, "sam@buildright.com", contacts[0].Email)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `[{"a":1}]`, stripFences("```json\n[{\"a\":1}]\n```"))
	assert.Equal(t, `[{"a":1}]`, stripFences("```\n[{\"a\":1}]\n```"))
	assert.Equal(t, `[{"a":1}]`, stripFences(`[{"a":1}]`))
}

// Package research finds decision-maker contacts for the companies
// attached to scored leads.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/resilience"
	"github.com/bcc-consulting/outreach-cli/pkg/anthropic"
	"github.com/bcc-consulting/outreach-cli/pkg/jina"
)

// Enricher looks up additional contacts for one company.
type Enricher interface {
	Enrich(ctx context.Context, company string, role model.Role) ([]model.Contact, error)
}

const (
	maxSnippets      = 15
	extractMaxTokens = 1024
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// AIEnricher searches the web for a company's leadership and extracts
// contacts from the snippets with a language model. With no AI client it
// degrades to scraping email addresses straight out of the snippets.
type AIEnricher struct {
	Search   jina.Client
	AI       anthropic.Client
	Model    string
	Limiter  *rate.Limiter
	Breakers *resilience.ServiceBreakers
}

// NewAIEnricher builds an enricher searching at searchRPS requests per second.
func NewAIEnricher(search jina.Client, ai anthropic.Client, modelName string, searchRPS int) *AIEnricher {
	if searchRPS <= 0 {
		searchRPS = 2
	}
	return &AIEnricher{
		Search:   search,
		AI:       ai,
		Model:    modelName,
		Limiter:  rate.NewLimiter(rate.Limit(searchRPS), 1),
		Breakers: resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
	}
}

func (e *AIEnricher) queries(company string, role model.Role) []string {
	return []string{
		fmt.Sprintf("%s Project Manager", company),
		fmt.Sprintf("%s Principal construction", company),
		fmt.Sprintf("%s key contacts construction leadership", company),
	}
}

func (e *AIEnricher) Enrich(ctx context.Context, company string, role model.Role) ([]model.Contact, error) {
	var snippets []string
	for _, q := range e.queries(company, role) {
		if err := e.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := resilience.ExecuteVal(ctx, e.Breakers.Get("jina"),
			func(ctx context.Context) (*jina.SearchResponse, error) {
				return e.Search.Search(ctx, q)
			})
		if err != nil {
			zap.L().Warn("contact search failed",
				zap.String("company", company),
				zap.String("query", q),
				zap.Error(err))
			continue
		}
		for _, r := range resp.Data {
			snippets = append(snippets, fmt.Sprintf("%s\n%s\n%s", r.Title, r.URL, snippet(r)))
			if len(snippets) >= maxSnippets {
				break
			}
		}
		if len(snippets) >= maxSnippets {
			break
		}
	}
	if len(snippets) == 0 {
		return nil, nil
	}

	if e.AI == nil {
		return emailsFromSnippets(company, snippets), nil
	}
	return e.extract(ctx, company, role, snippets)
}

func snippet(r jina.SearchResult) string {
	s := r.Description
	if s == "" {
		s = r.Content
	}
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}

const extractSystem = `You extract named contacts at construction industry firms from web search snippets. Respond with a JSON array only, no prose. Each element: {"name": "...", "title": "...", "email": "...", "phone": ""}. Use "" for unknown fields. Only include people who plausibly work at the named company. Do not invent email addresses.`

func (e *AIEnricher) extract(ctx context.Context, company string, role model.Role, snippets []string) ([]model.Contact, error) {
	prompt := fmt.Sprintf("Company: %s (role on project: %s)\n\nSearch snippets:\n\n%s",
		company, role, strings.Join(snippets, "\n---\n"))

	resp, err := resilience.ExecuteVal(ctx, e.Breakers.Get("anthropic"),
		func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return e.AI.CreateMessage(ctx, anthropic.MessageRequest{
				Model:     e.Model,
				MaxTokens: extractMaxTokens,
				System:    []anthropic.SystemBlock{{Text: extractSystem}},
				Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
			})
		})
	if err != nil {
		return nil, eris.Wrapf(err, "research: extract contacts for %s", company)
	}
	resp.Usage.LogCost(e.Model, "contact extraction")

	var raw []struct {
		Name  string `json:"name"`
		Title string `json:"title"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	text := stripFences(resp.Text())
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		zap.L().Warn("unparseable contact extraction",
			zap.String("company", company),
			zap.Error(err))
		return emailsFromSnippets(company, snippets), nil
	}

	contacts := make([]model.Contact, 0, len(raw))
	for _, c := range raw {
		if c.Name == "" && c.Email == "" {
			continue
		}
		contacts = append(contacts, model.Contact{
			Name:    c.Name,
			Role:    c.Title,
			Email:   strings.ToLower(strings.TrimSpace(c.Email)),
			Phone:   c.Phone,
			Company: company,
			Source:  "search",
		})
	}
	return contacts, nil
}

// stripFences tolerates models that wrap JSON in a markdown code fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func emailsFromSnippets(company string, snippets []string) []model.Contact {
	seen := make(map[string]bool)
	var contacts []model.Contact
	for _, s := range snippets {
		for _, email := range emailRe.FindAllString(s, -1) {
			email = strings.ToLower(email)
			if seen[email] {
				continue
			}
			seen[email] = true
			contacts = append(contacts, model.Contact{
				Email:   email,
				Company: company,
				Source:  "search",
			})
		}
	}
	return contacts
}

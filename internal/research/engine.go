package research

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/checkpoint"
	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// Cache stores finished company research between runs. A nil Cache is fine.
type Cache interface {
	// GetCachedResearch returns (nil, nil) on a cache miss.
	GetCachedResearch(ctx context.Context, company string) (*model.CompanyResearch, error)
	SetCachedResearch(ctx context.Context, company string, r model.CompanyResearch, ttl time.Duration) error
}

// Engine researches contacts for every company referenced by the leads,
// checkpointing after each company so an interrupted run resumes where
// it stopped.
type Engine struct {
	Enricher     Enricher
	Cache        Cache
	Checkpoints  *checkpoint.Store
	MaxCompanies int
	MaxContacts  int
	CacheTTL     time.Duration
}

// CompanyRoleMap collects the companies attached to the leads in first-seen
// order, deduplicated case-insensitively under the first-seen spelling.
// When a company appears under several roles the highest-priority role
// wins. Companies known only from detail-page contacts are included too,
// under the fallback role, so they still get researched.
func CompanyRoleMap(leads []model.Lead) ([]string, map[string]model.Role) {
	var order []string
	display := make(map[string]string)
	roles := make(map[string]model.Role)

	add := func(name string, role model.Role) {
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		canon, ok := display[key]
		if !ok {
			display[key] = name
			order = append(order, name)
			roles[name] = role
			return
		}
		if role.Priority() < roles[canon].Priority() {
			roles[canon] = role
		}
	}

	for _, lead := range leads {
		for _, ref := range lead.Companies {
			add(ref.Name, ref.Role)
		}
	}
	for _, lead := range leads {
		for _, c := range lead.DetailContacts {
			add(c.Company, model.RoleCompany)
		}
	}
	return order, roles
}

// Run researches every company the leads reference, up to MaxCompanies,
// and returns the accumulated research map from the checkpoint state.
func (e *Engine) Run(ctx context.Context, leads []model.Lead, state *checkpoint.State) (map[string]model.CompanyResearch, error) {
	companies, roles := CompanyRoleMap(leads)
	if e.MaxCompanies > 0 && len(companies) > e.MaxCompanies {
		zap.L().Info("truncating company list",
			zap.Int("total", len(companies)),
			zap.Int("max", e.MaxCompanies))
		companies = companies[:e.MaxCompanies]
	}

	detailByCompany := collectDetailContacts(leads)
	done := state.ResearchedSet()

	for i, company := range companies {
		if err := ctx.Err(); err != nil {
			return state.Research, err
		}
		if done[company] {
			continue
		}

		research := e.researchCompany(ctx, company, roles[company], detailByCompany[strings.ToLower(company)])
		state.MarkResearched(company, research)
		if e.Checkpoints != nil {
			if err := e.Checkpoints.Save(state); err != nil {
				return state.Research, err
			}
		}
		zap.L().Info("company researched",
			zap.String("company", company),
			zap.String("role", string(roles[company])),
			zap.Int("contacts", len(research.Contacts)),
			zap.Int("progress", i+1),
			zap.Int("total", len(companies)))
	}
	return state.Research, nil
}

func (e *Engine) researchCompany(ctx context.Context, company string, role model.Role, detail []model.Contact) model.CompanyResearch {
	research := model.CompanyResearch{Role: role, Contacts: detail}

	if e.Cache != nil {
		cached, err := e.Cache.GetCachedResearch(ctx, company)
		if err != nil {
			zap.L().Warn("research cache read failed", zap.String("company", company), zap.Error(err))
		} else if cached != nil {
			research.Contacts = mergeContacts(research.Contacts, cached.Contacts, e.MaxContacts)
			return research
		}
	}

	if e.Enricher != nil && len(research.Contacts) < e.maxContacts() {
		found, err := e.Enricher.Enrich(ctx, company, role)
		if err != nil {
			zap.L().Warn("enrichment failed, keeping listing contacts",
				zap.String("company", company),
				zap.Error(err))
		} else {
			research.Contacts = mergeContacts(research.Contacts, found, e.MaxContacts)
		}
	} else {
		research.Contacts = mergeContacts(research.Contacts, nil, e.MaxContacts)
	}

	if e.Cache != nil && len(research.Contacts) > 0 {
		if err := e.Cache.SetCachedResearch(ctx, company, research, e.CacheTTL); err != nil {
			zap.L().Warn("research cache write failed", zap.String("company", company), zap.Error(err))
		}
	}
	return research
}

func (e *Engine) maxContacts() int {
	if e.MaxContacts <= 0 {
		return 3
	}
	return e.MaxContacts
}

// collectDetailContacts groups the verified listing contacts by lowercased
// company name so casing differences between the listing table and the
// detail page land in the same bucket.
func collectDetailContacts(leads []model.Lead) map[string][]model.Contact {
	out := make(map[string][]model.Contact)
	for _, lead := range leads {
		for _, c := range lead.DetailContacts {
			if c.Company == "" {
				continue
			}
			key := strings.ToLower(c.Company)
			out[key] = append(out[key], c)
		}
	}
	return out
}

// mergeContacts appends extra contacts not already present by email, then
// stable-sorts contacts with an email address first and truncates to max.
func mergeContacts(base, extra []model.Contact, max int) []model.Contact {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		if c.Email != "" {
			seen[c.Email] = true
		}
	}
	merged := append([]model.Contact(nil), base...)
	for _, c := range extra {
		if c.Email != "" && seen[c.Email] {
			continue
		}
		if c.Email != "" {
			seen[c.Email] = true
		}
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Email != "" && merged[j].Email == ""
	})
	if max <= 0 {
		max = 3
	}
	if len(merged) > max {
		merged = merged[:max]
	}
	return merged
}

package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bcc-consulting/outreach-cli/internal/checkpoint"
	"github.com/bcc-consulting/outreach-cli/internal/dispatch"
	"github.com/bcc-consulting/outreach-cli/internal/normalize"
	"github.com/bcc-consulting/outreach-cli/internal/research"
	"github.com/bcc-consulting/outreach-cli/internal/store"
	"github.com/bcc-consulting/outreach-cli/pkg/anthropic"
	"github.com/bcc-consulting/outreach-cli/pkg/inbox"
	"github.com/bcc-consulting/outreach-cli/pkg/jina"
	"github.com/bcc-consulting/outreach-cli/pkg/mailer"
	"github.com/bcc-consulting/outreach-cli/pkg/telegram"
)

func checkpointPath() string {
	return filepath.Join(cfg.State.Dir, "pipeline_checkpoint.json")
}

func newCheckpointStore() *checkpoint.Store {
	return checkpoint.NewStore(checkpointPath())
}

func newNotifier() telegram.Client {
	return telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.ChatID)
}

func newNormalizer() *normalize.Normalizer {
	return normalize.New(nil, nil)
}

// newResearchEngine builds the research phase with its enrichment cache.
// The returned closer releases the cache store; it is a no-op when no
// store driver is configured.
func newResearchEngine(ctx context.Context, checkpoints *checkpoint.Store) (*research.Engine, func(), error) {
	searchClient := jina.NewClient(cfg.Jina.Key,
		jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))

	var aiClient anthropic.Client
	if cfg.Anthropic.Key != "" {
		aiClient = anthropic.NewClient(cfg.Anthropic.Key)
	}

	enricher := research.NewAIEnricher(searchClient, aiClient, cfg.Anthropic.Model, cfg.Research.SearchRPS)

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {}
	var cache research.Cache
	if st != nil {
		cache = st
		closer = func() { _ = st.Close() }
	}

	engine := &research.Engine{
		Enricher:     enricher,
		Cache:        cache,
		Checkpoints:  checkpoints,
		MaxCompanies: cfg.Research.MaxCompanies,
		MaxContacts:  cfg.Research.MaxContactsPerFirm,
		CacheTTL:     time.Duration(cfg.Store.TTLHours) * time.Hour,
	}
	return engine, closer, nil
}

// identities builds one dispatch identity per configured mail account.
func identities() []*dispatch.Identity {
	idents := make([]*dispatch.Identity, 0, len(cfg.Mail.Identities))
	for _, ic := range cfg.Mail.Identities {
		idents = append(idents, &dispatch.Identity{
			Name: ic.Name,
			From: ic.From,
			Sender: mailer.NewSender(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort,
				ic.Username, ic.Password),
		})
	}
	return idents
}

// inboxReaders builds one IMAP reader per configured mail account.
func inboxReaders() []inbox.Reader {
	readers := make([]inbox.Reader, 0, len(cfg.Mail.Identities))
	for _, ic := range cfg.Mail.Identities {
		readers = append(readers, inbox.NewReader(cfg.Mail.IMAPHost, cfg.Mail.IMAPPort,
			ic.Username, ic.Password))
	}
	return readers
}

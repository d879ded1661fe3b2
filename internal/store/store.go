// Package store caches company research between pipeline runs so a
// re-run does not repeat web searches for companies seen recently.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bcc-consulting/outreach-cli/internal/config"
	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// Store defines the research cache persistence interface.
type Store interface {
	// GetCachedResearch returns (nil, nil) when the company has no
	// unexpired cache entry.
	GetCachedResearch(ctx context.Context, company string) (*model.CompanyResearch, error)
	SetCachedResearch(ctx context.Context, company string, r model.CompanyResearch, ttl time.Duration) error
	DeleteExpiredResearch(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the store named by cfg.Driver. An empty driver disables
// caching and returns (nil, nil).
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS research_cache (
	id            TEXT PRIMARY KEY,
	company       TEXT NOT NULL,
	research      TEXT NOT NULL,
	researched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_research_cache_company ON research_cache(company);
CREATE INDEX IF NOT EXISTS idx_research_cache_expires_at ON research_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCachedResearch(ctx context.Context, company string) (*model.CompanyResearch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT research FROM research_cache
		 WHERE company = ? AND expires_at > datetime('now')
		 ORDER BY researched_at DESC LIMIT 1`,
		company,
	)

	var researchJSON string
	err := row.Scan(&researchJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached research")
	}

	var cr model.CompanyResearch
	if err := json.Unmarshal([]byte(researchJSON), &cr); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached research")
	}
	return &cr, nil
}

func (s *SQLiteStore) SetCachedResearch(ctx context.Context, company string, r model.CompanyResearch, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	researchJSON, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal research")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO research_cache (id, company, research, researched_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		id, company, string(researchJSON), now, expiresAt,
	)
	return eris.Wrap(err, "sqlite: set cached research")
}

func (s *SQLiteStore) DeleteExpiredResearch(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM research_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired research")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

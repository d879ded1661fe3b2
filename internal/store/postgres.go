package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/bcc-consulting/outreach-cli/internal/db"
	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot cache operations.
var preparedStatements = map[string]string{
	"get_cached_research":     `SELECT research FROM research_cache WHERE company = $1 AND expires_at > now() ORDER BY researched_at DESC LIMIT 1`,
	"set_cached_research":     `INSERT INTO research_cache (id, company, research, researched_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (company) DO UPDATE SET research = $3, researched_at = $4, expires_at = $5`,
	"delete_expired_research": `DELETE FROM research_cache WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS research_cache (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company       TEXT NOT NULL UNIQUE,
	research      JSONB NOT NULL,
	researched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_research_cache_company ON research_cache(company);
CREATE INDEX IF NOT EXISTS idx_research_cache_expires_at ON research_cache(expires_at);

CREATE TABLE IF NOT EXISTS send_log_archive (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	contact_email     TEXT NOT NULL,
	contact_name      TEXT,
	company           TEXT,
	project           TEXT,
	subject           TEXT,
	sent_at           TIMESTAMPTZ NOT NULL,
	sent_from         TEXT NOT NULL,
	replied           BOOLEAN NOT NULL DEFAULT false,
	followup_sent_at  TIMESTAMPTZ,
	archived_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_send_log_archive_email ON send_log_archive(contact_email);
CREATE INDEX IF NOT EXISTS idx_send_log_archive_sent_at ON send_log_archive(sent_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetCachedResearch(ctx context.Context, company string) (*model.CompanyResearch, error) {
	var researchJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT research FROM research_cache
		 WHERE company = $1 AND expires_at > now()
		 ORDER BY researched_at DESC LIMIT 1`,
		company,
	).Scan(&researchJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached research")
	}

	var cr model.CompanyResearch
	if err := json.Unmarshal(researchJSON, &cr); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached research")
	}
	return &cr, nil
}

func (s *PostgresStore) SetCachedResearch(ctx context.Context, company string, r model.CompanyResearch, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	researchJSON, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal research")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO research_cache (id, company, research, researched_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (company) DO UPDATE SET research = $3, researched_at = $4, expires_at = $5`,
		id, company, researchJSON, now, expiresAt,
	)
	return eris.Wrap(err, "postgres: set cached research")
}

// ArchiveSendLog bulk-copies ledger entries into the archive table so
// send history survives CSV rotation.
func (s *PostgresStore) ArchiveSendLog(ctx context.Context, entries []model.SendLogEntry) (int64, error) {
	columns := []string{
		"id", "contact_email", "contact_name", "company", "project",
		"subject", "sent_at", "sent_from", "replied", "followup_sent_at",
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		var followup any
		if !e.FollowupSentAt.IsZero() {
			followup = e.FollowupSentAt
		}
		rows = append(rows, []any{
			uuid.New().String(), e.ContactEmail, e.ContactName, e.Company, e.Project,
			e.Subject, e.SentAt, e.SentFrom, e.Replied, followup,
		})
	}
	return db.CopyFrom(ctx, s.pool, "send_log_archive", columns, rows)
}

func (s *PostgresStore) DeleteExpiredResearch(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM research_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired research")
	}
	return int(tag.RowsAffected()), nil
}

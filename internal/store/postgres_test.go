package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetCachedResearch_Miss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT research FROM research_cache`).
		WithArgs("Acme Development").
		WillReturnError(pgx.ErrNoRows)

	cr, err := s.GetCachedResearch(context.Background(), "Acme Development")
	require.NoError(t, err)
	assert.Nil(t, cr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedResearch_Hit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	research := model.CompanyResearch{
		Role: model.RoleDeveloper,
		Contacts: []model.Contact{
			{Name: "Dana Reyes", Email: "dana@acme.com", Company: "Acme Development"},
		},
	}
	researchJSON, err := json.Marshal(research)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT research FROM research_cache`).
		WithArgs("Acme Development").
		WillReturnRows(pgxmock.NewRows([]string{"research"}).AddRow(researchJSON))

	cr, err := s.GetCachedResearch(context.Background(), "Acme Development")
	require.NoError(t, err)
	require.NotNil(t, cr)
	assert.Equal(t, model.RoleDeveloper, cr.Role)
	require.Len(t, cr.Contacts, 1)
	assert.Equal(t, "dana@acme.com", cr.Contacts[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCachedResearch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO research_cache`).
		WithArgs(pgxmock.AnyArg(), "Acme Development", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetCachedResearch(context.Background(), "Acme Development",
		model.CompanyResearch{Role: model.RoleDeveloper}, time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpiredResearch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM research_cache WHERE expires_at <= now\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.DeleteExpiredResearch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ArchiveSendLog(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"send_log_archive"}, []string{
		"id", "contact_email", "contact_name", "company", "project",
		"subject", "sent_at", "sent_from", "replied", "followup_sent_at",
	}).WillReturnResult(2)

	entries := []model.SendLogEntry{
		{ContactEmail: "dana@acme.com", SentAt: time.Now(), SentFrom: "alex@firm.com"},
		{ContactEmail: "sam@buildright.com", SentAt: time.Now(), SentFrom: "sam@firm.com", Replied: true},
	}
	n, err := s.ArchiveSendLog(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

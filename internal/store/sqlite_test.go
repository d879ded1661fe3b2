package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcc-consulting/outreach-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testResearch() model.CompanyResearch {
	return model.CompanyResearch{
		Role: model.RoleDeveloper,
		Contacts: []model.Contact{
			{Name: "Dana Reyes", Role: "Principal", Email: "dana@acme.com", Company: "Acme Development"},
		},
	}
}

func TestSQLite_ResearchCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedResearch(ctx, "Acme Development", testResearch(), time.Hour))

	cr, err := st.GetCachedResearch(ctx, "Acme Development")
	require.NoError(t, err)
	require.NotNil(t, cr)
	assert.Equal(t, model.RoleDeveloper, cr.Role)
	require.Len(t, cr.Contacts, 1)
	assert.Equal(t, "dana@acme.com", cr.Contacts[0].Email)
}

func TestSQLite_ResearchCache_Miss(t *testing.T) {
	st := newTestSQLiteStore(t)

	cr, err := st.GetCachedResearch(context.Background(), "Unknown Co")
	require.NoError(t, err)
	assert.Nil(t, cr)
}

func TestSQLite_ResearchCache_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedResearch(ctx, "Acme Development", testResearch(), -time.Hour))

	cr, err := st.GetCachedResearch(ctx, "Acme Development")
	require.NoError(t, err)
	assert.Nil(t, cr)
}

func TestSQLite_DeleteExpiredResearch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedResearch(ctx, "Fresh Co", testResearch(), time.Hour))
	require.NoError(t, st.SetCachedResearch(ctx, "Stale Co", testResearch(), -time.Hour))

	n, err := st.DeleteExpiredResearch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cr, err := st.GetCachedResearch(ctx, "Fresh Co")
	require.NoError(t, err)
	assert.NotNil(t, cr)
}

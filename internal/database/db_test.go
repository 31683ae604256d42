package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: ProfileStandard,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_CreatesMarketTables(t *testing.T) {
	db := newTestDB(t, "market")
	require.NoError(t, db.Migrate())

	for _, table := range []string{"index", "industry", "stock", "stock_industry"} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}

	// idempotent
	assert.NoError(t, db.Migrate())
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newTestDB(t, "scratch")
	assert.NoError(t, db.Migrate())
}

func TestNew_DefaultsToStandardProfile(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "x.db"), Name: "x"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileStandard, db.Profile())
	assert.Equal(t, "x", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
}

func TestReadOnlyProfileRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")

	rw, err := New(Config{Path: path, Profile: ProfileStandard, Name: "market"})
	require.NoError(t, err)
	require.NoError(t, rw.Migrate())
	require.NoError(t, rw.Close())

	ro, err := New(Config{Path: path, Profile: ProfileReadOnly, Name: "market"})
	require.NoError(t, err)
	defer ro.Close()

	assert.NoError(t, ro.Migrate())
	_, err = ro.Conn().Exec(`INSERT INTO stock_industry (stock, industry_name) VALUES ('A', 'B')`)
	assert.Error(t, err)
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t, "market")
	require.NoError(t, db.Migrate())

	t.Run("commits on success", func(t *testing.T) {
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			_, err := tx.Exec(`INSERT INTO stock_industry (stock, industry_name) VALUES ('600036.XSHG', 'Banks')`)
			return err
		})
		require.NoError(t, err)

		var industry string
		require.NoError(t, db.QueryRowContext(context.Background(),
			`SELECT industry_name FROM stock_industry WHERE stock = '600036.XSHG'`).Scan(&industry))
		assert.Equal(t, "Banks", industry)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			if _, err := tx.Exec(`INSERT INTO stock_industry (stock, industry_name) VALUES ('000001.XSHE', 'Banks')`); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var n int
		require.NoError(t, db.Conn().QueryRow(
			`SELECT COUNT(*) FROM stock_industry WHERE stock = '000001.XSHE'`).Scan(&n))
		assert.Equal(t, 0, n)
	})

	t.Run("recovers from panic", func(t *testing.T) {
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			panic("bad")
		})
		assert.ErrorContains(t, err, "panic in transaction")
	})

	t.Run("nil connection", func(t *testing.T) {
		assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
	})
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t, "market")
	require.NoError(t, db.Migrate())
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestBuildConnectionString(t *testing.T) {
	s := buildConnectionString("/tmp/a.db", ProfileReadOnly)
	assert.Contains(t, s, "/tmp/a.db?_pragma=busy_timeout(5000)")
	assert.Contains(t, s, "query_only(1)")
	assert.NotContains(t, s, "journal_mode")

	s = buildConnectionString("file:mem?mode=memory", ProfileStandard)
	assert.Contains(t, s, "file:mem?mode=memory&_pragma=busy_timeout(5000)")
	assert.Contains(t, s, "journal_mode(WAL)")
}

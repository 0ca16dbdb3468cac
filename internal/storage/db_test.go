package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestDB creates a migrated SQLite database in a temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liftlog.db")
	require.NoError(t, RunMigrations(DriverSQLite, "sqlite://"+path))

	db, err := New(context.Background(), DriverSQLite, "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

// TestRebind verifies ? placeholders become $n only for PostgreSQL.
func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	lite := &DB{driver: DriverSQLite}
	q := `SELECT a FROM t WHERE x = ? AND y = ? LIMIT ?`

	require.Equal(t, `SELECT a FROM t WHERE x = $1 AND y = $2 LIMIT $3`, pg.rebind(q))
	require.Equal(t, q, lite.rebind(q))
}

// TestNewUnsupportedDriver verifies unknown drivers are rejected before connecting.
func TestNewUnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), "mysql", "whatever")
	require.Error(t, err)
}

// TestRunMigrationsIdempotent verifies that re-running migrations is a no-op.
func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liftlog.db")
	require.NoError(t, RunMigrations(DriverSQLite, "sqlite://"+path))
	require.NoError(t, RunMigrations(DriverSQLite, "sqlite://"+path))
}

package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/001_create_problems.up.sql":   {Data: []byte(`CREATE TABLE problems (id INTEGER PRIMARY KEY, name TEXT);`)},
		"migrations/001_create_problems.down.sql": {Data: []byte(`DROP TABLE problems;`)},
		"migrations/002_create_streams.up.sql":    {Data: []byte(`CREATE TABLE streams (id INTEGER PRIMARY KEY, problem_id INTEGER);`)},
		"migrations/002_create_streams.down.sql":  {Data: []byte(`DROP TABLE streams;`)},
		"migrations/README":                       {Data: []byte(`ignored`)},
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&count); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return count == 1
}

func TestFSProviderGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testFS(), "migrations", "").GetMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create problems" {
		t.Errorf("unexpected first migration %+v", migrations[0])
	}
	if migrations[1].Up == "" || migrations[1].Down == "" {
		t.Errorf("second migration is missing SQL: %+v", migrations[1])
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), "migrations", ""), nil)

	pending, err := m.GetPendingMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending migrations, got %d", len(pending))
	}

	if err := m.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if !tableExists(t, db, "problems") || !tableExists(t, db, "streams") {
		t.Fatal("expected both tables after MigrateUp")
	}

	version, err := m.GetCurrentVersion()
	if err != nil || version != 2 {
		t.Fatalf("expected version 2, got %d (%v)", version, err)
	}

	// A second run is a no-op.
	if err := m.MigrateUp(); err != nil {
		t.Fatalf("second MigrateUp: %v", err)
	}

	if err := m.MigrateDown(1); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	if tableExists(t, db, "streams") {
		t.Error("streams table should be dropped")
	}
	if version, _ := m.GetCurrentVersion(); version != 1 {
		t.Errorf("expected version 1 after rollback, got %d", version)
	}

	if err := m.MigrateDown(1); err == nil {
		t.Error("expected an error rolling back to the current version")
	}

	if err := m.MigrateTo(0); err != nil {
		t.Fatalf("MigrateTo(0): %v", err)
	}
	if tableExists(t, db, "problems") {
		t.Error("problems table should be dropped")
	}
}

func TestMigrationWithoutDownSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"m/001_only_up.up.sql": {Data: []byte(`CREATE TABLE t (id INTEGER);`)},
	}
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(fsys, "m", "versions"), nil)

	if err := m.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if err := m.MigrateDown(0); err == nil {
		t.Error("expected an error for a migration without down SQL")
	}
}

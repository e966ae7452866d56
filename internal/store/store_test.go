package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"assets", "imports"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.want); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSchema_Tables(t *testing.T) {
	s := createTestStore(t)

	expected := map[string][]string{
		"assets":  {"guid", "path", "kind", "type_name", "origin", "fingerprint", "seq"},
		"imports": {"seq", "guid", "state", "stale_count", "malformed", "rewritten", "fingerprint", "messages"},
	}
	for table, want := range expected {
		columns := getTableColumns(t, s.db, table)
		for _, col := range want {
			if !contains(columns, col) {
				t.Errorf("%s table missing column %q", table, col)
			}
		}
	}

	indexes := getTableIndexes(t, s.db, "assets")
	for _, idx := range []string{"idx_assets_origin", "idx_assets_kind"} {
		if !contains(indexes, idx) {
			t.Errorf("assets table missing index %q", idx)
		}
	}
}

// versionZeroSchema is the index layout before the import log kept
// fingerprints and messages.
const versionZeroSchema = `
CREATE TABLE assets (
    guid        TEXT PRIMARY KEY,
    path        TEXT NOT NULL UNIQUE,
    kind        TEXT NOT NULL CHECK (kind IN ('asset', 'variant')),
    type_name   TEXT NOT NULL DEFAULT '',
    origin      TEXT NOT NULL DEFAULT '',
    fingerprint TEXT NOT NULL,
    seq         INTEGER NOT NULL
);
CREATE TABLE imports (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    guid        TEXT NOT NULL,
    state       TEXT NOT NULL,
    stale_count INTEGER NOT NULL DEFAULT 0,
    malformed   INTEGER NOT NULL DEFAULT 0,
    rewritten   INTEGER NOT NULL DEFAULT 0
);
INSERT INTO imports (guid, state, stale_count) VALUES ('v-old', 'Materialized', 2);
`

func TestMigration_FromVersionZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	old, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open raw database: %v", err)
	}
	if _, err := old.Exec(versionZeroSchema); err != nil {
		t.Fatalf("create version 0 schema: %v", err)
	}
	old.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	columns := getTableColumns(t, s.db, "imports")
	for _, col := range []string{"fingerprint", "messages"} {
		if !contains(columns, col) {
			t.Errorf("migration did not add imports.%s", col)
		}
	}
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}

	imp, err := s.LatestImport(context.Background(), "v-old")
	if err != nil {
		t.Fatalf("LatestImport() on migrated row: %v", err)
	}
	if imp.StaleCount != 2 || imp.Fingerprint != "" || len(imp.Messages) != 0 {
		t.Errorf("migrated row = %+v", imp)
	}
	if _, err := s.RecordImport(context.Background(), Import{GUID: "v-old", State: "Materialized", Messages: []string{"ok"}}); err != nil {
		t.Errorf("RecordImport() after migration: %v", err)
	}
}

func TestMigration_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("reset user_version: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("rerunning migration on a current schema failed: %v", err)
	}
	defer s.Close()
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestConstraint_KindCheck(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO assets (guid, path, kind, fingerprint, seq)
		VALUES ('g1', 'a.asset', 'texture', 'fp', 1)
	`)
	if err == nil {
		t.Error("expected CHECK constraint violation for unknown kind")
	}
}

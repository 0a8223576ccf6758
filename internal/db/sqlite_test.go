package db_test

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"pomorix/internal/db"
	"pomorix/migrations"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	applied, err := db.RunMigrations(database, migrations.Source(""))
	if err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected the embedded schema to be applied")
	}

	applied, err = db.RunMigrations(database, migrations.Source(""))
	if err != nil {
		t.Fatalf("rerun migrations: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected nothing to apply on rerun, got %v", applied)
	}

	var tables int
	if err := database.QueryRow(
		`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'settings', 'tasks', 'sessions', 'user_badges', 'bug_reports')`,
	).Scan(&tables); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if tables != 6 {
		t.Fatalf("expected 6 tables, got %d", tables)
	}
}

func TestRunMigrationsRollsBackFailedFile(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	source := fstest.MapFS{
		"0001_ok.sql":     {Data: []byte(`CREATE TABLE one (id TEXT);`)},
		"0002_broken.sql": {Data: []byte(`CREATE TABLE two (;`)},
		"README.md":       {Data: []byte(`ignored`)},
	}
	applied, err := db.RunMigrations(database, source)
	if err == nil {
		t.Fatal("expected the broken migration to fail")
	}
	if len(applied) != 1 || applied[0] != "0001_ok.sql" {
		t.Fatalf("expected only the first file applied, got %v", applied)
	}

	var count int
	if err := database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one recorded migration, got %d", count)
	}
}

package db_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinyakov/rivone/internal/db"
)

func TestInitPostgres_ErrorPaths(t *testing.T) {
	cases := []struct {
		name       string
		dsn        string
		wantSubstr string
	}{
		{"invalid DSN", "some=random", "ping postgres"},
		{"empty DSN", "", "ping postgres"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.InitPostgres(tc.dsn)
			if err == nil {
				t.Fatalf("InitPostgres(%q) did not return error", tc.dsn)
			}
			if !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("InitPostgres(%q) error = %q; want substring %q", tc.dsn, err.Error(), tc.wantSubstr)
			}
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := db.Open("mysql", "x")
	if err == nil || !strings.Contains(err.Error(), "unsupported store driver") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	conn, err := db.Open(db.DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(`INSERT INTO kv (key, value) VALUES ('songs', '[]')`); err != nil {
		t.Fatalf("insert into kv: %v", err)
	}

	var value string
	if err := conn.QueryRow(`SELECT value FROM kv WHERE key = 'songs'`).Scan(&value); err != nil {
		t.Fatalf("select from kv: %v", err)
	}
	if value != "[]" {
		t.Errorf("value = %q; want []", value)
	}

	// Reopening an existing database keeps the schema idempotent.
	again, err := db.Open(db.DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	again.Close()
}

func TestInitSQLite_EmptyPath(t *testing.T) {
	if _, err := db.InitSQLite(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

package shared

import (
	"path/filepath"
	"testing"
)

func TestSchema(t *testing.T) {
	t.Run("splitStatements", func(t *testing.T) {
		statements := splitStatements(schemaSQL)
		if len(statements) != 1 {
			t.Fatalf("expected 1 statement, got %d", len(statements))
		}

		for _, stmt := range statements {
			if removeComments(stmt) != stmt {
				t.Errorf("statement still contains comments: %s", stmt)
			}
		}
	})

	t.Run("removeComments", func(t *testing.T) {
		got := removeComments("-- header\nSELECT 1 -- trailing\n\n")
		if got != "SELECT 1" {
			t.Errorf("expected 'SELECT 1', got %q", got)
		}
	})

	t.Run("EnsureSchema creates table", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := EnsureSchema(db); err != nil {
			t.Fatalf("failed to ensure schema: %v", err)
		}

		if _, err := db.Exec("SELECT id, titulo, letra, ruta_foto, url_web_foto FROM canciones LIMIT 1"); err != nil {
			t.Errorf("canciones table should exist: %v", err)
		}
	})

	t.Run("EnsureSchema is idempotent", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := EnsureSchema(db); err != nil {
			t.Fatalf("first run failed: %v", err)
		}

		if _, err := db.Exec("INSERT INTO canciones (titulo, letra) VALUES ('a', 'b')"); err != nil {
			t.Fatalf("failed to insert row: %v", err)
		}

		if err := EnsureSchema(db); err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM canciones").Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 1 {
			t.Errorf("existing rows should survive, got %d", count)
		}
	})

	t.Run("NewDatabase applies pragmas", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "nested", "test.db"))
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		var mode string
		if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("failed to read journal mode: %v", err)
		}
		if mode != "wal" {
			t.Errorf("expected wal journal mode, got %s", mode)
		}

		var fk int
		if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("failed to read foreign_keys: %v", err)
		}
		if fk != 1 {
			t.Errorf("expected foreign keys on, got %d", fk)
		}
	})
}

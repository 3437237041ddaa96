package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"catreport/internal/config"
	"catreport/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "mongo"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataFile: "l.yaml"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.DataFile != "l.yaml" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr string
	}{
		{Config{Type: MemoryBackend}, ""},
		{Config{Type: "bogus"}, "invalid backend type"},
		{Config{Type: SQLiteBackend}, "SQLite database path"},
		{Config{Type: PostgresBackend}, "Postgres DSN"},
		{Config{Type: SheetsBackend}, "Spreadsheet ID"},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tt.cfg.Type, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error = %v, want %q", tt.cfg.Type, err, tt.wantErr)
		}
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, DataFile: filepath.Join(t.TempDir(), "none.yaml")})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if res.Cleanup != nil {
		t.Fatal("memory backend needs no cleanup")
	}
	tree, err := res.Ledger.Categories(context.Background())
	if err != nil || len(tree) == 0 {
		t.Fatalf("expected demo categories, got %v %v", tree, err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "ledger.db")})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Ledger.(*storage.SQLiteRepository); !ok {
		t.Fatalf("ledger type = %T", res.Ledger)
	}
	if p, ok := res.Ledger.(Pinger); !ok || p.Ping(context.Background()) != nil {
		t.Fatal("sqlite ledger should be pingable")
	}
}

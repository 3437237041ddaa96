package cli

import (
	"context"
	"path/filepath"
	"testing"

	"catreport/internal/backend"
	"catreport/internal/config"
	"catreport/internal/log"
)

func TestSetupLoggerFallsBackToInfo(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "chatty"}, log.ComponentWorker)
	if logger.Component() != log.ComponentWorker {
		t.Fatalf("component = %q", logger.Component())
	}
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	logger := SetupLogger(&config.Config{LogLevel: "error"}, log.ComponentApp)

	mem, err := OpenBackend(ctx, &config.Config{DataBackend: "memory", DataFile: filepath.Join(t.TempDir(), "missing.yaml")}, logger)
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if mem.Type != backend.MemoryBackend || mem.Pinger() != nil {
		t.Fatalf("memory backend type=%s pinger=%v", mem.Type, mem.Pinger())
	}
	mem.Close()

	lite, err := OpenBackend(ctx, &config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")}, logger)
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer lite.Close()
	if lite.Pinger() == nil {
		t.Fatal("sqlite backend should expose a pinger")
	}
	if err := lite.Pinger().Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := OpenBackend(ctx, &config.Config{DataBackend: "mongo"}, logger); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

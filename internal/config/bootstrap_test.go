package config_test

import (
	"context"
	"testing"

	"github.com/citybound/citybound-sub001/internal/config"
	"github.com/citybound/citybound-sub001/internal/config/memory"
)

func TestBootstrapSeedsDefaultOnEmptyStore(t *testing.T) {
	store := memory.NewStore()
	cfg, err := config.Bootstrap(context.Background(), store)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if cfg.RunID == "" {
		t.Fatal("expected a generated RunID")
	}
	if cfg.Storage.Backend != "heap" {
		t.Fatalf("Backend = %q, want heap", cfg.Storage.Backend)
	}

	saved, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved == nil || saved.RunID != cfg.RunID {
		t.Fatal("Bootstrap should have saved the default config")
	}
}

func TestBootstrapReturnsExistingConfig(t *testing.T) {
	store := memory.NewStore()
	existing := &config.Config{RunID: "existing-run", Storage: config.StorageConfig{Backend: "mmap", Dir: "/tmp/x"}}
	if err := store.Save(context.Background(), existing); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg, err := config.Bootstrap(context.Background(), store)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if cfg.RunID != "existing-run" {
		t.Fatalf("RunID = %q, want existing-run", cfg.RunID)
	}
	if cfg.Storage.Backend != "mmap" {
		t.Fatalf("Backend = %q, want mmap (Bootstrap must not overwrite an existing config)", cfg.Storage.Backend)
	}
}

func TestDefaultConfigGeneratesDistinctRunIDs(t *testing.T) {
	a := config.DefaultConfig()
	b := config.DefaultConfig()
	if a.RunID == b.RunID {
		t.Fatal("DefaultConfig should generate a fresh RunID each call")
	}
}

package config

import (
	"context"

	"github.com/google/uuid"
)

// DefaultConfig returns the bootstrap configuration for first-run: a
// single heap-backed run with no actor types registered yet. Heap
// storage never persists, so a first run always starts from a clean
// slate regardless of what an embedder's working directory holds.
func DefaultConfig() *Config {
	return &Config{
		RunID:   uuid.NewString(),
		Storage: StorageConfig{Backend: "heap"},
	}
}

// Bootstrap writes the default configuration to store when Load returns
// nil (no config exists yet). Call this once at startup before trying
// to build a registry from whatever store.Load returns.
func Bootstrap(ctx context.Context, store Store) (*Config, error) {
	cfg, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg = DefaultConfig()
	if err := store.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

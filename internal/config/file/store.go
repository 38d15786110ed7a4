// Package file provides a file-based config.Store implementation.
//
// Configuration is persisted as a versioned JSON envelope:
//
//	{"version": 1, "config": { ... }}
//
// Every Save rewrites the whole file: there is no incremental update,
// since a simulation's configuration is small and only ever touched at
// startup.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/citybound/citybound-sub001/internal/config"
)

const currentVersion = 1

type envelope struct {
	Version int            `json:"version"`
	Config  *config.Config `json:"config"`
}

// Store is a file-based config.Store implementation.
type Store struct {
	path string
}

var _ config.Store = (*Store)(nil)

// NewStore creates a Store persisting to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the configuration from disk, returning a nil Config if the
// file does not exist.
func (s *Store) Load(ctx context.Context) (*config.Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %q: %w", s.path, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", s.path, err)
	}
	if env.Version > currentVersion {
		return nil, fmt.Errorf("config: %q has version %d, newer than supported version %d", s.path, env.Version, currentVersion)
	}
	return env.Config, nil
}

// Save atomically writes cfg to disk via a temp file plus rename, with
// round-trip validation before the rename so a crash mid-write never
// leaves a corrupt file in place of a good one.
func (s *Store) Save(ctx context.Context, cfg *config.Config) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create directory %q: %w", dir, err)
	}

	data, err := json.MarshalIndent(envelope{Version: currentVersion, Config: cfg}, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("config: write temp file: %w", err)
	}

	check, err := os.ReadFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: read back temp file: %w", err)
	}
	var verify envelope
	if err := json.Unmarshal(check, &verify); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: round-trip validation failed: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: rename into place: %w", err)
	}
	return nil
}

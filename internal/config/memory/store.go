// Package memory provides an in-memory config.Store implementation.
// Intended for tests and ephemeral runs; configuration is not persisted
// across process restarts.
package memory

import (
	"context"
	"sync"

	"github.com/citybound/citybound-sub001/internal/config"
)

// Store is an in-memory config.Store implementation.
type Store struct {
	mu  sync.RWMutex
	cfg *config.Config
}

var _ config.Store = (*Store)(nil)

// NewStore creates a new in-memory config.Store, with no configuration
// saved yet.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load(ctx context.Context) (*config.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cfg == nil {
		return nil, nil
	}
	c := copyConfig(*s.cfg)
	return &c, nil
}

func (s *Store) Save(ctx context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := copyConfig(*cfg)
	s.cfg = &c
	return nil
}

func copyConfig(cfg config.Config) config.Config {
	out := cfg
	if cfg.Types != nil {
		out.Types = make([]config.ActorTypeConfig, len(cfg.Types))
		copy(out.Types, cfg.Types)
	}
	return out
}

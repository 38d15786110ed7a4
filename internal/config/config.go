// Package config describes the desired shape of a simulation run: which
// actor types a registry should have, how big their swarms and inboxes
// start out, and which chunk handler backs them.
//
// Config is control-plane state, not data-plane state: a Store persists
// and reloads it across restarts, but nothing on the per-turn hot path
// touches it. It is declarative and load-on-start only — there is no
// hot-reload in v1, matching the runtime's documented non-goals.
package config

import "context"

// Store persists and loads a simulation's configuration.
//
// Store is not accessed on the scheduler's turn loop; persistence must
// never block a running simulation.
type Store interface {
	// Load reads the configuration. Returns a nil Config if none exists.
	Load(ctx context.Context) (*Config, error)

	// Save persists the configuration.
	Save(ctx context.Context, cfg *Config) error
}

// Config describes the desired shape of one simulation run. It is
// declarative: it names what actor types and storage should exist, not
// how the embedder wires method handlers onto them.
type Config struct {
	// RunID identifies this run across restarts. It does not namespace
	// storage: OpenHandler ignores it, so two runs pointed at the same
	// mmap Dir or S3 Bucket/Prefix share chunk names.
	RunID string

	// Storage selects and configures the chunk handler backing every
	// registered type's swarm and inboxes.
	Storage StorageConfig

	// Types lists the actor types a registry built from this config
	// should register before the embedder starts driving turns.
	Types []ActorTypeConfig
}

// StorageConfig selects a chunk.Handler backend and its parameters.
type StorageConfig struct {
	// Backend is one of "heap", "mmap", "s3".
	Backend string

	// Dir is the backing directory for the "mmap" backend.
	Dir string

	// CompressOnUnload enables zstd compression of unloaded chunk files
	// for the "mmap" backend, trading Load-time decompression for
	// smaller at-rest size. Ignored by other backends.
	CompressOnUnload bool

	// Bucket and Prefix configure the "s3" backend.
	Bucket string
	Prefix string
}

// ActorTypeConfig describes one actor type's storage sizing. Name must
// match the name the embedder passes to actor.RegisterType for the same
// type; method handlers themselves are registered in code; Config only
// decides whether and how big a type's swarm starts out.
type ActorTypeConfig struct {
	Name      string
	ChunkSize int
	BaseSize  int
}

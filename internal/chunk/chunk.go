// Package chunk provides the lowest storage layer: fixed-size named byte
// regions ("chunks") backed by a pluggable Handler. Everything above this
// package (arenas, vectors, queues, multi-arenas) is built out of chunks
// obtained here; nothing in this package interprets the bytes it stores.
package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// identSeparator joins a parent Ident to a child suffix. It must never
// occur inside a user-supplied name, since Idents are also used verbatim
// as filenames by persistent handlers.
const identSeparator = ":"

// Ident is a hierarchical name that maps one-to-one to a backing chunk.
// Two Idents are the same chunk iff their String() representations match.
type Ident struct {
	name string
}

// NewIdent creates a root Ident from a plain name.
func NewIdent(name string) Ident {
	return Ident{name: name}
}

// Sub derives a child Ident by appending suffix under the separator.
// Used pervasively by higher layers to name the chunks that make up a
// single collection (e.g. "swarm:household:len", "swarm:household:0").
func (id Ident) Sub(suffix any) Ident {
	return Ident{name: id.name + identSeparator + fmt.Sprint(suffix)}
}

// String returns the flattened representation of the Ident, safe to use
// as a map key or a filename.
func (id Ident) String() string {
	return id.name
}

// validate rejects names that would corrupt the hierarchical encoding if
// written back out as a file, or that are simply empty.
func validate(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty ident", ErrInvalidIdent)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidIdent, name)
	}
	return nil
}

var (
	// ErrInvalidIdent is returned when an Ident cannot be used as a chunk key.
	ErrInvalidIdent = errors.New("chunk: invalid ident")

	// ErrChunkNotFound is returned by Handler.Load when no persisted chunk
	// exists for the given Ident. Heap-only handlers never return this;
	// they treat a missing chunk as a fatal configuration error instead.
	ErrChunkNotFound = errors.New("chunk: not found")
)

// Handler is the embedder-supplied strategy for allocating and persisting
// chunks. Implementations must be safe to use from a single goroutine at a
// time; the runtime never calls a Handler concurrently with itself.
//
// Per §4.1 of the runtime contract: allocation failure and persisted-backing
// I/O errors are fatal in the reference policy. Handler implementations are
// expected to panic (via Fatalf, below) rather than return an error
// for those conditions; Load is the only operation with well-defined
// not-found semantics, and only for handlers that support persistence.
type Handler interface {
	// Create allocates a brand-new chunk of size bytes for ident. It is a
	// programmer error to Create an ident that already has a live or
	// persisted chunk; handlers may panic in that case.
	Create(ident Ident, size int) []byte

	// Load reads back a previously created and persisted chunk. Returns
	// ErrChunkNotFound if nothing is persisted for ident and the handler
	// supports persistence; panics (fatal) if the handler is heap-only.
	Load(ident Ident) ([]byte, error)

	// LoadOrCreate loads ident if it already has persisted bytes, or
	// creates a fresh zero-initialised chunk of size bytes otherwise.
	// The second return value reports which branch was taken.
	LoadOrCreate(ident Ident, size int) (data []byte, createdNew bool)

	// Unload releases in-memory resources for a chunk but preserves any
	// persistent image, so a later Load (or LoadOrCreate) recovers it.
	Unload(ident Ident, data []byte)

	// Destroy releases in-memory resources and discards any persisted
	// image. Reusing ident afterwards yields a brand-new, zeroed chunk.
	Destroy(ident Ident, data []byte)
}

// Fatalf reports a fatal configuration or allocation failure per §7 of the
// runtime contract: these abort the process with a single diagnostic that
// names the offending ident and operation. Handlers call this instead of
// returning an error for conditions the runtime is not expected to recover
// from.
func Fatalf(ident Ident, op string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	panic(fmt.Sprintf("chunk: fatal during %s on %q: %s", op, ident.String(), msg))
}

// Package chunky builds the typed storage primitives (value cells, arenas,
// vectors, queues and multi-arenas) on top of the untyped chunk package.
// Every primitive here owns one or more chunks for its whole lifetime and
// must be explicitly closed; nothing in this package assumes a garbage
// collector will release chunk-backed memory for it.
package chunky

import (
	"fmt"

	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/compact"
)

// Cell stores a single fixed-size value of type T in one chunk, loading it
// from persisted storage if present or initialising it to a default value
// otherwise.
type Cell[T any] struct {
	ident   chunk.Ident
	handler chunk.Handler
	codec   compact.Codec[T]
	data    []byte
}

// OpenCell opens (or creates, seeding it with def) the cell named ident.
// codec must describe a fixed-size type; cells have no room for a dynamic
// tail.
func OpenCell[T any](handler chunk.Handler, ident chunk.Ident, codec compact.Codec[T], def T) (*Cell[T], error) {
	if codec.ConstSize < 0 {
		return nil, fmt.Errorf("chunky: cell %q requires a fixed-size codec", ident.String())
	}
	data, createdNew := handler.LoadOrCreate(ident, codec.ConstSize)
	c := &Cell[T]{ident: ident, handler: handler, codec: codec, data: data}
	if createdNew {
		c.Set(def)
	}
	return c, nil
}

// Get decodes the cell's current value.
func (c *Cell[T]) Get() T {
	return c.codec.Decompact(c.data)
}

// Set overwrites the cell's value.
func (c *Cell[T]) Set(v T) {
	c.codec.CompactInto(v, c.data)
}

// Close releases the cell's in-memory resources, preserving any persisted
// image.
func (c *Cell[T]) Close() {
	c.handler.Unload(c.ident, c.data)
}

// Destroy releases the cell's resources and deletes any persisted image.
func (c *Cell[T]) Destroy() {
	c.handler.Destroy(c.ident, c.data)
}

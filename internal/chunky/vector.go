package chunky

import (
	"fmt"

	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/compact"
)

// Vector is a typed facade over an Arena: a persisted, chunk-backed
// append/pop list of a single fixed-size element type.
type Vector[T any] struct {
	arena *Arena
	codec compact.Codec[T]
}

// NewVector opens (or creates) a vector. codec must describe a fixed-size
// type; as in the reference implementation, the arena's chunk size is
// widened to at least one item if the requested chunk size is smaller.
func NewVector[T any](handler chunk.Handler, ident chunk.Ident, chunkSize int, codec compact.Codec[T]) (*Vector[T], error) {
	if codec.ConstSize < 0 {
		return nil, fmt.Errorf("chunky: vector %q requires a fixed-size codec", ident.String())
	}
	effectiveChunkSize := chunkSize
	if codec.ConstSize > effectiveChunkSize {
		effectiveChunkSize = codec.ConstSize
	}
	arena, err := NewArena(handler, ident, effectiveChunkSize, codec.ConstSize)
	if err != nil {
		return nil, err
	}
	return &Vector[T]{arena: arena, codec: codec}, nil
}

// Len returns the number of elements in the vector.
func (v *Vector[T]) Len() uint64 {
	return v.arena.Len()
}

// IsEmpty reports whether the vector holds no elements.
func (v *Vector[T]) IsEmpty() bool {
	return v.arena.IsEmpty()
}

// At decodes and returns the element at index.
func (v *Vector[T]) At(index uint64) T {
	if index >= v.Len() {
		panic(fmt.Sprintf("chunky: vector index %d out of range (len %d)", index, v.Len()))
	}
	return v.codec.Decompact(v.arena.At(index))
}

// Set overwrites the element at index.
func (v *Vector[T]) Set(index uint64, item T) {
	if index >= v.Len() {
		panic(fmt.Sprintf("chunky: vector index %d out of range (len %d)", index, v.Len()))
	}
	v.codec.CompactInto(item, v.arena.At(index))
}

// Push appends an element to the end of the vector.
func (v *Vector[T]) Push(item T) {
	slot, _ := v.arena.Push()
	v.codec.CompactInto(item, slot)
}

// Pop removes and returns the last element, or ok == false if the vector
// was empty.
func (v *Vector[T]) Pop() (item T, ok bool) {
	length := v.Len()
	if length == 0 {
		return item, false
	}
	item = v.codec.Decompact(v.arena.At(length - 1))
	v.arena.PopAway()
	return item, true
}

// SwapRemove removes the element at index, moving the last element into
// its place. It reports whether an element was moved.
func (v *Vector[T]) SwapRemove(index uint64) (moved T, ok bool) {
	data, ok := v.arena.SwapRemove(index)
	if !ok {
		return moved, false
	}
	return v.codec.Decompact(data), true
}

// Close releases the vector's in-memory resources, preserving any
// persisted image.
func (v *Vector[T]) Close() {
	v.arena.Close()
}

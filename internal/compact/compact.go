// Package compact implements the compact-value discipline: a way for a Go
// value to describe, and be reconstructed from, its own serialised form as
// one contiguous byte region with only internal offsets, never pointers.
//
// A Codec[T] plays the role the source language's Compact trait plays for a
// type T: it knows how many bytes a value of T currently needs
// (Size), whether that value is presently stored with its tail immediately
// following its head (StillCompact), how to flatten a value into a
// caller-supplied destination (CompactInto), and how to reconstruct an
// owning value from a previously flattened region (Decompact).
//
// There is no reflection-based derivation here: per the design notes, the
// generated code for a handful of core container shapes (Vec, Option,
// Either) is a straight-line walk over fields, so those are hand-written
// once in this package, and Builder with GetFixed/GetDynamic give product types
// (structs with a mix of fixed and dynamic fields) the same straight-line
// field-chaining shape without needing a macro system.
package compact

// Codec is the compiled-once description of how to (de)serialise values of
// type T into the compact, position-independent wire form.
type Codec[T any] struct {
	// ConstSize is the number of bytes every value of T serialises to,
	// or -1 if the size varies per value (T has a dynamic tail).
	ConstSize int

	// StillCompact reports whether v, as currently held in memory, is
	// already laid out compactly (tail immediately following head at a
	// known offset) or whether it is presently free-heap backed and
	// would need recompaction before becoming resident again.
	StillCompact func(v T) bool

	// Size returns the total number of bytes CompactInto needs to
	// flatten v (head and tail together).
	Size func(v T) int

	// CompactInto flattens v into dest, which must be at least
	// Size(v) bytes, and returns the number of bytes written.
	CompactInto func(v T, dest []byte) int

	// Decompact reconstructs an owning copy of T from a previously
	// flattened region. src must be at least as long as the Size() of
	// the value that produced it.
	Decompact func(src []byte) T
}

// Fixed builds a Codec for a type with no dynamic tail: every value is
// exactly size bytes and is always StillCompact.
func Fixed[T any](size int, encode func(T, []byte), decode func([]byte) T) Codec[T] {
	return Codec[T]{
		ConstSize:    size,
		StillCompact: func(T) bool { return true },
		Size:         func(T) int { return size },
		CompactInto: func(v T, dest []byte) int {
			encode(v, dest[:size])
			return size
		},
		Decompact: func(src []byte) T { return decode(src[:size]) },
	}
}

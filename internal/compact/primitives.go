package compact

import (
	"encoding/binary"
	"math"
)

// Uint8 is the codec for a single byte.
var Uint8 = Fixed[uint8](1,
	func(v uint8, dest []byte) { dest[0] = v },
	func(src []byte) uint8 { return src[0] },
)

// Uint32 is the codec for a little-endian 32-bit unsigned integer.
var Uint32 = Fixed[uint32](4,
	func(v uint32, dest []byte) { binary.LittleEndian.PutUint32(dest, v) },
	func(src []byte) uint32 { return binary.LittleEndian.Uint32(src) },
)

// Uint64 is the codec for a little-endian 64-bit unsigned integer, the
// compact representation of the reference runtime's usize fields (lengths,
// cursors, instance counters).
var Uint64 = Fixed[uint64](8,
	func(v uint64, dest []byte) { binary.LittleEndian.PutUint64(dest, v) },
	func(src []byte) uint64 { return binary.LittleEndian.Uint64(src) },
)

// Bool is the codec for a boolean, stored as a single byte.
var Bool = Fixed[bool](1,
	func(v bool, dest []byte) {
		if v {
			dest[0] = 1
		} else {
			dest[0] = 0
		}
	},
	func(src []byte) bool { return src[0] != 0 },
)

// Float64 is the codec for a little-endian IEEE-754 double.
var Float64 = Fixed[float64](8,
	func(v float64, dest []byte) { binary.LittleEndian.PutUint64(dest, math.Float64bits(v)) },
	func(src []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(src)) },
)

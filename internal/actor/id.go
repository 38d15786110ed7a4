// Package actor implements the runtime's typed-identity, registry,
// swarm-storage, and message-plane layers on top of chunky and compact:
// actor types register a swarm and an inbox, instances spawn into a
// MultiArena-backed swarm and receive messages compacted into a Queue.
package actor

import (
	"encoding/binary"

	"github.com/citybound/citybound-sub001/internal/chunky"
	"github.com/citybound/citybound-sub001/internal/compact"
)

const rawIDSize = 18

// RawID is the fixed-width identity every actor instance carries: which
// type it belongs to, where it currently lives in that type's swarm
// (packed bin/slot), a version distinguishing it from whatever previously
// occupied the same slot, and a reserved machine field (see DESIGN.md for
// why this stays zero in the in-scope runtime).
type RawID struct {
	TypeID     uint32
	InstanceID uint64
	Version    uint32
	Machine    uint16
}

// RawIDCodec is the compact codec for RawID, used both standalone and as
// the fixed-size ID field embedded in every actor's own compact struct.
var RawIDCodec = compact.Fixed[RawID](rawIDSize,
	func(v RawID, dest []byte) {
		binary.LittleEndian.PutUint32(dest[0:4], v.TypeID)
		binary.LittleEndian.PutUint64(dest[4:12], v.InstanceID)
		binary.LittleEndian.PutUint32(dest[12:16], v.Version)
		binary.LittleEndian.PutUint16(dest[16:18], v.Machine)
	},
	func(src []byte) RawID {
		return RawID{
			TypeID:     binary.LittleEndian.Uint32(src[0:4]),
			InstanceID: binary.LittleEndian.Uint64(src[4:12]),
			Version:    binary.LittleEndian.Uint32(src[12:16]),
			Machine:    binary.LittleEndian.Uint16(src[16:18]),
		}
	},
)

// packSlot and unpackSlot encode a swarm address as RawID.InstanceID: the
// high 32 bits are the MultiArena bin, the low 32 the index within it.
func packSlot(idx chunky.MultiArenaIndex) uint64 {
	return uint64(uint32(idx.Bin))<<32 | (idx.Index & 0xffffffff)
}

func unpackSlot(instanceID uint64) chunky.MultiArenaIndex {
	return chunky.MultiArenaIndex{
		Bin:   int(instanceID >> 32),
		Index: instanceID & 0xffffffff,
	}
}

// Actor is the contract every type stored in a swarm must satisfy: it
// carries its own current RawID and lets the runtime overwrite it on
// spawn or relocation.
type Actor interface {
	ID() RawID
	SetID(RawID)
}

// TypedID is a zero-overhead wrapper around a RawID that additionally
// names, at compile time, the actor type or trait it is expected to
// address. Converting between a concrete TypedID and a trait TypedID is
// just reinterpreting the same RawID: NewTypedID and Raw below are the two
// directions of that conversion.
type TypedID[T any] struct {
	Raw RawID
}

// NewTypedID wraps a raw identity with a compile-time target type.
func NewTypedID[T any](raw RawID) TypedID[T] {
	return TypedID[T]{Raw: raw}
}

// Reinterpret converts a TypedID naming one type (typically a concrete
// actor) into one naming another (typically a trait it implements, or vice
// versa), without touching the underlying RawID.
func Reinterpret[From, To any](id TypedID[From]) TypedID[To] {
	return TypedID[To]{Raw: id.Raw}
}

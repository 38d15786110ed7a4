// Package demo provides a minimal actor type used by the simkernel CLI
// to exercise a registry end to end without requiring a real simulation
// domain on top of the runtime.
package demo

import (
	"encoding/binary"

	"github.com/citybound/citybound-sub001/internal/actor"
	"github.com/citybound/citybound-sub001/internal/compact"
)

// Ticker is the demo actor type: it counts how many times it has been
// sent Tick, and dies once it reaches a configured limit.
type Ticker struct {
	id    actor.RawID
	Count uint64
	Limit uint64
}

func (t *Ticker) ID() actor.RawID      { return t.id }
func (t *Ticker) SetID(id actor.RawID) { t.id = id }

const tickerSize = 18 + 8 + 8

// Codec is Ticker's compact codec: a fixed-width record holding its
// RawID, current count, and configured limit.
var Codec = compact.Fixed[*Ticker](tickerSize,
	func(v *Ticker, dest []byte) {
		actor.RawIDCodec.CompactInto(v.id, dest[0:18])
		binary.LittleEndian.PutUint64(dest[18:26], v.Count)
		binary.LittleEndian.PutUint64(dest[26:34], v.Limit)
	},
	func(src []byte) *Ticker {
		return &Ticker{
			id:    actor.RawIDCodec.Decompact(src[0:18]),
			Count: binary.LittleEndian.Uint64(src[18:26]),
			Limit: binary.LittleEndian.Uint64(src[26:34]),
		}
	},
)

// TickMsg carries no data; receiving one just advances a Ticker's count.
type TickMsg struct{}

// TickCodec is TickMsg's compact codec: zero bytes, since TickMsg has no
// fields.
var TickCodec = compact.Fixed[TickMsg](0,
	func(TickMsg, []byte) {},
	func([]byte) TickMsg { return TickMsg{} },
)

// SlotTick is the method slot Tick is registered under.
const SlotTick uint32 = 1

// RegisterType registers the Ticker type and its Tick handler on reg,
// returning the resulting type table so the caller can spawn instances.
func RegisterType(reg *actor.Registry, opts actor.TypeOptions) (*actor.TypeTable[*Ticker], error) {
	tt, err := actor.RegisterType[*Ticker](reg, "ticker", Codec, opts)
	if err != nil {
		return nil, err
	}
	actor.RegisterMethod(tt, SlotTick, false, TickCodec, func(t *Ticker, _ TickMsg, world *actor.World) actor.Fate {
		t.Count++
		if t.Limit > 0 && t.Count >= t.Limit {
			return actor.Die
		}
		// Keep ticking: resend to self. Lands in next turn's inbox via
		// the scheduler's double-buffered delivery.
		self := actor.NewTypedID[*Ticker](t.ID())
		actor.Send(world, self, SlotTick, TickCodec, TickMsg{})
		return actor.Live
	})
	return tt, nil
}

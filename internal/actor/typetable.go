package actor

import (
	"encoding/binary"

	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/chunky"
	"github.com/citybound/citybound-sub001/internal/compact"
)

// messageHeaderSize is the fixed prefix every enqueued message carries
// ahead of its compacted payload: the recipient's packed slot address (8
// bytes), its version (4 bytes) and the method slot (4 bytes), so a stale
// or unknown recipient can be detected and dropped without decoding the
// payload at all. The recipient's type is implicit
// in which type's inbox the message lives in.
const messageHeaderSize = 16

// methodEntry is one registered message handler for a TypeTable[T]:
// whether it must run before any non-critical message this turn, and a
// closure that already knows how to decode its specific Msg type from a
// raw payload.
type methodEntry[T Actor] struct {
	critical bool
	dispatch func(instance T, payload []byte, world *World) Fate
}

// TypeTable is the per-actor-type storage the registry drives each turn:
// a swarm holding every live instance, a pair of inboxes so sends made
// while draining one land in the other, and the method table registered
// handlers are looked up in. T is conventionally the actor's pointer
// type (e.g. *Household), so that codec.Decompact's result satisfies the
// Actor interface's pointer-receiver SetID and handlers mutate the
// decoded instance directly before it is recompacted back into its slot.
type TypeTable[T Actor] struct {
	id      uint32
	name    string
	handler chunk.Handler
	codec   compact.Codec[T]
	swarm   *chunky.MultiArena

	inboxes    [2]*chunky.Queue
	active     int
	activeCell *chunky.Cell[uint8]

	handlers map[uint32]methodEntry[T]
	versions map[uint64]uint32

	pendingDeaths      []RawID
	pendingCritical    []pendingMessage
	pendingNonCritical []pendingMessage
	staleDropsCount    uint64
}

// RegisterType opens (or creates) storage for a new actor type and adds
// it to reg. codec describes how instances of T compact into their swarm
// slots; codec.ConstSize may be -1 for actors with a dynamic tail, since
// MultiArena bins already size themselves to whatever Push asks for.
func RegisterType[T Actor](reg *Registry, name string, codec compact.Codec[T], opts TypeOptions) (*TypeTable[T], error) {
	opts = opts.withDefaults()
	id := reg.allocateTypeID()
	ident := chunk.NewIdent("actor").Sub(name)

	swarm, err := chunky.NewMultiArena(reg.handler, ident.Sub("swarm"), opts.ChunkSize, opts.BaseSize)
	if err != nil {
		return nil, err
	}
	activeCell, err := chunky.OpenCell(reg.handler, ident.Sub("active_inbox"), compact.Uint8, 0)
	if err != nil {
		return nil, err
	}
	inbox0, err := chunky.NewQueue(reg.handler, ident.Sub("inbox").Sub(0), opts.ChunkSize)
	if err != nil {
		return nil, err
	}
	inbox1, err := chunky.NewQueue(reg.handler, ident.Sub("inbox").Sub(1), opts.ChunkSize)
	if err != nil {
		return nil, err
	}

	tt := &TypeTable[T]{
		id:         id,
		name:       name,
		handler:    reg.handler,
		codec:      codec,
		swarm:      swarm,
		inboxes:    [2]*chunky.Queue{inbox0, inbox1},
		active:     int(activeCell.Get()),
		activeCell: activeCell,
		handlers:   make(map[uint32]methodEntry[T]),
		versions:   make(map[uint64]uint32),
	}
	// A reopened swarm's occupied slots take their version from the RawID
	// each stored instance carries, so those instances stay addressable.
	for _, stat := range swarm.PopulatedBins() {
		for i := uint64(0); i < stat.Len; i++ {
			idx := chunky.MultiArenaIndex{Bin: stat.Bin, Index: i}
			tt.versions[packSlot(idx)] = codec.Decompact(swarm.At(idx)).ID().Version
		}
	}
	reg.register(name, tt)
	registerGoType[T](reg, tt)
	return tt, nil
}

// RegisterMethod adds a handler for slot to tt. critical marks it as one
// that must be dispatched, for every type, before any non-critical
// message runs in the same turn.
func RegisterMethod[T Actor, Msg any](tt *TypeTable[T], slot uint32, critical bool, codec compact.Codec[Msg], handle func(T, Msg, *World) Fate) {
	if _, exists := tt.handlers[slot]; exists {
		Fatalf("type %q: method slot %d already registered", tt.name, slot)
	}
	tt.handlers[slot] = methodEntry[T]{
		critical: critical,
		dispatch: func(instance T, payload []byte, world *World) Fate {
			return handle(instance, codec.Decompact(payload), world)
		},
	}
}

func sizeOf[T any](codec compact.Codec[T], v T) int {
	if codec.ConstSize >= 0 {
		return codec.ConstSize
	}
	return codec.Size(v)
}

// Spawn allocates a fresh slot in tt's swarm for instance, assigns it a
// fresh RawID, and writes it into the swarm. Unlike the deferred
// "pending spawn" phase some actor runtimes use, this happens
// immediately: the new instance is addressable and its inbox reachable
// as soon as Spawn returns, with message delivery naturally deferred to
// the next turn by the double-buffered inbox a send into it lands in.
func Spawn[T Actor](tt *TypeTable[T], instance T) (TypedID[T], error) {
	size := sizeOf(tt.codec, instance)
	slot, idx, err := tt.swarm.Push(size)
	if err != nil {
		return TypedID[T]{}, err
	}
	key := packSlot(idx)
	version := tt.versions[key] + 1
	tt.versions[key] = version

	instance.SetID(RawID{TypeID: tt.id, InstanceID: key, Version: version})
	tt.codec.CompactInto(instance, slot)
	return TypedID[T]{Raw: instance.ID()}, nil
}

// Get decodes the instance currently stored at id, or reports ok == false
// if id's version no longer matches what is live in the swarm (the
// instance died, or the slot has since been reused by a different one).
func (tt *TypeTable[T]) Get(id TypedID[T]) (instance T, ok bool) {
	key := id.Raw.InstanceID
	if tt.versions[key] != id.Raw.Version {
		var zero T
		return zero, false
	}
	return tt.codec.Decompact(tt.swarm.At(unpackSlot(key))), true
}

// All decodes every currently live instance of T, in unspecified order.
// Meant for inspection (tooling, tests); handlers within a turn should
// reach other actors through Send/Broadcast rather than iterating the
// swarm directly.
func (tt *TypeTable[T]) All() []T {
	var out []T
	for _, stat := range tt.swarm.PopulatedBins() {
		for i := uint64(0); i < stat.Len; i++ {
			idx := chunky.MultiArenaIndex{Bin: stat.Bin, Index: i}
			out = append(out, tt.codec.Decompact(tt.swarm.At(idx)))
		}
	}
	return out
}

func (tt *TypeTable[T]) typeID() uint32   { return tt.id }
func (tt *TypeTable[T]) typeName() string { return tt.name }

func (tt *TypeTable[T]) enqueueRaw(raw RawID, slot uint32, payload []byte) {
	inbox := tt.inboxes[tt.active]
	entry := inbox.Enqueue(messageHeaderSize + len(payload))
	binary.LittleEndian.PutUint64(entry[0:8], raw.InstanceID)
	binary.LittleEndian.PutUint32(entry[8:12], raw.Version)
	binary.LittleEndian.PutUint32(entry[12:16], slot)
	copy(entry[messageHeaderSize:], payload)
}

func (tt *TypeTable[T]) broadcastRaw(slot uint32, payload []byte) {
	for _, stat := range tt.swarm.PopulatedBins() {
		for i := uint64(0); i < stat.Len; i++ {
			idx := chunky.MultiArenaIndex{Bin: stat.Bin, Index: i}
			instance := tt.codec.Decompact(tt.swarm.At(idx))
			tt.enqueueRaw(instance.ID(), slot, payload)
		}
	}
}

// beginTurn flips the active inbox so sends made during this turn's
// dispatch land in the other buffer, then fully drains the buffer that
// was active until now, splitting its entries into critical and
// non-critical order. chunky.Queue only supports strict FIFO dequeue, so
// splitting "all critical before any non-critical" requires draining
// completely up front rather than selectively skipping entries.
func (tt *TypeTable[T]) beginTurn() {
	toDrain := tt.inboxes[tt.active]
	tt.active = 1 - tt.active
	tt.activeCell.Set(uint8(tt.active))

	tt.pendingCritical = tt.pendingCritical[:0]
	tt.pendingNonCritical = tt.pendingNonCritical[:0]

	for {
		entry, ok := toDrain.Dequeue()
		if !ok {
			break
		}
		instanceID := binary.LittleEndian.Uint64(entry[0:8])
		version := binary.LittleEndian.Uint32(entry[8:12])
		slot := binary.LittleEndian.Uint32(entry[12:16])
		msg := pendingMessage{instanceID: instanceID, version: version, slot: slot, payload: entry[messageHeaderSize:]}

		method, known := tt.handlers[slot]
		if !known {
			Fatalf("type %q: message addressed to unknown method slot %d", tt.name, slot)
		}
		if method.critical {
			tt.pendingCritical = append(tt.pendingCritical, msg)
		} else {
			tt.pendingNonCritical = append(tt.pendingNonCritical, msg)
		}
	}
}

func (tt *TypeTable[T]) dispatch(msgs []pendingMessage, world *World) {
	for _, m := range msgs {
		if tt.versions[m.instanceID] != m.version {
			tt.staleDropsCount++
			continue
		}
		method := tt.handlers[m.slot]

		idx := unpackSlot(m.instanceID)
		slotBytes := tt.swarm.At(idx)
		instance := tt.codec.Decompact(slotBytes)

		fate := method.dispatch(instance, m.payload, world)

		if size := sizeOf(tt.codec, instance); size > len(slotBytes) {
			Fatalf("type %q: instance grew to %d bytes, past its %d-byte slot", tt.name, size, len(slotBytes))
		}
		tt.codec.CompactInto(instance, slotBytes)

		if fate == Die {
			tt.pendingDeaths = append(tt.pendingDeaths, instance.ID())
		}
	}
}

func (tt *TypeTable[T]) runCritical(world *World)    { tt.dispatch(tt.pendingCritical, world) }
func (tt *TypeTable[T]) runNonCritical(world *World) { tt.dispatch(tt.pendingNonCritical, world) }

// applyDeaths terminates every instance a handler marked Die this turn.
// A death is only honored if the instance's version still matches what
// was recorded when Die was returned; anything already gone (e.g. killed
// twice, or relocated and re-killed under a different identity within
// the same turn) is silently skipped.
//
// Removing an instance swap-removes the swarm's last item in its bin
// into the freed slot. If that relocates a different live instance, its
// own RawID is rewritten to its new address and recompacted in place,
// and any later pending death in this same batch that still names the
// relocated instance's old address is patched to follow it to the new
// one, so cascading deaths within a single turn never apply against a
// stale address.
func (tt *TypeTable[T]) applyDeaths() {
	deaths := tt.pendingDeaths
	tt.pendingDeaths = nil

	for i := 0; i < len(deaths); i++ {
		raw := deaths[i]
		key := raw.InstanceID
		if tt.versions[key] != raw.Version {
			continue
		}

		idx := unpackSlot(key)
		moved, relocated := tt.swarm.SwapRemove(idx)
		if !relocated {
			tt.versions[key]++
			continue
		}

		movedInstance := tt.codec.Decompact(moved)
		movedRaw := movedInstance.ID()
		movedKey := movedRaw.InstanceID
		movedVersion := tt.versions[movedKey]

		// The freed slot gets a fresh version, so the dead instance's own
		// TypedID goes stale instead of resolving to the relocated one.
		newVersion := tt.versions[key] + 1
		tt.versions[key] = newVersion
		newRaw := RawID{TypeID: tt.id, InstanceID: key, Version: newVersion}
		movedInstance.SetID(newRaw)
		tt.codec.CompactInto(movedInstance, moved)

		// The relocated instance's old address is no longer backed by
		// it. Bump its version so any TypedID still naming that old
		// address is treated as stale, same as addressing a dead actor,
		// rather than silently reading whatever ends up stored there.
		tt.versions[movedKey]++

		for j := i + 1; j < len(deaths); j++ {
			if deaths[j].InstanceID == movedKey && deaths[j].Version == movedVersion {
				deaths[j] = newRaw
			}
		}
	}
}

func (tt *TypeTable[T]) dropOldChunks() {
	tt.inboxes[0].DropOldChunks()
	tt.inboxes[1].DropOldChunks()
}

func (tt *TypeTable[T]) staleDrops() uint64 { return tt.staleDropsCount }

func (tt *TypeTable[T]) close() {
	tt.swarm.Close()
	tt.inboxes[0].Close()
	tt.inboxes[1].Close()
	tt.activeCell.Close()
}

package actor

import "github.com/citybound/citybound-sub001/internal/compact"

func encodeMessage[Msg any](codec compact.Codec[Msg], msg Msg) []byte {
	size := sizeOf(codec, msg)
	buf := make([]byte, size)
	codec.CompactInto(msg, buf)
	return buf
}

// Send enqueues msg, encoded with codec, into target's inbox addressed
// to slot. If target's version no longer matches what is actually
// stored at its address, the message is silently dropped once drained
// (see TypeTable.dispatch), matching stale-ID delivery semantics rather
// than failing the sender.
func Send[T Actor, Msg any](world *World, target TypedID[T], slot uint32, codec compact.Codec[Msg], msg Msg) {
	rt, ok := world.reg.byID[target.Raw.TypeID]
	if !ok {
		Fatalf("send: type id %d is not registered", target.Raw.TypeID)
	}
	rt.enqueueRaw(target.Raw, slot, encodeMessage(codec, msg))
}

// Broadcast enqueues msg, encoded with codec, into every currently live
// instance of T's inbox addressed to slot.
func Broadcast[T Actor, Msg any](world *World, slot uint32, codec compact.Codec[Msg], msg Msg) {
	tt, ok := lookupGoType[T](world.reg)
	if !ok {
		Fatalf("broadcast: no registered type matches %T", *new(T))
	}
	tt.broadcastRaw(slot, encodeMessage(codec, msg))
}

// SendTrait enqueues msg to target, a handle typed as implementing some
// trait rather than naming a concrete actor type. Since a RawID always
// carries its concrete type ID, dispatch works identically to Send; the
// Trait parameter only exists at the type level. It does not restrict
// slot: a slot the target's concrete type never registered is fatal when
// its inbox is drained.
func SendTrait[Trait any, Msg any](world *World, target TypedID[Trait], slot uint32, codec compact.Codec[Msg], msg Msg) {
	rt, ok := world.reg.byID[target.Raw.TypeID]
	if !ok {
		Fatalf("send: type id %d is not registered", target.Raw.TypeID)
	}
	rt.enqueueRaw(target.Raw, slot, encodeMessage(codec, msg))
}

// BroadcastTrait enqueues msg, encoded with codec, to every live
// instance of every type registered as implementing trait.
func BroadcastTrait[Msg any](world *World, trait *Trait, slot uint32, codec compact.Codec[Msg], msg Msg) {
	payload := encodeMessage(codec, msg)
	for _, member := range trait.members {
		member.broadcastRaw(slot, payload)
	}
}

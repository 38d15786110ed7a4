package compact

// Either is a two-variant tagged sum carrying an A in its first variant or
// a B in its second. It generalises Option to sums where neither variant is
// payload-free, for the same straight-line tag-then-tail layout.
type Either[A, B any] struct {
	IsB bool
	A   A
	B   B
}

// Left builds the first variant.
func Left[A, B any](v A) Either[A, B] {
	return Either[A, B]{A: v}
}

// Right builds the second variant.
func Right[A, B any](v B) Either[A, B] {
	return Either[A, B]{IsB: true, B: v}
}

// EitherCodec builds a Codec[Either[A, B]] out of the two variant codecs.
func EitherCodec[A, B any](a Codec[A], b Codec[B]) Codec[Either[A, B]] {
	return Codec[Either[A, B]]{
		ConstSize: -1,
		StillCompact: func(e Either[A, B]) bool {
			if e.IsB {
				return b.StillCompact(e.B)
			}
			return a.StillCompact(e.A)
		},
		Size: func(e Either[A, B]) int {
			if e.IsB {
				return 1 + b.Size(e.B)
			}
			return 1 + a.Size(e.A)
		},
		CompactInto: func(e Either[A, B], dest []byte) int {
			if e.IsB {
				dest[0] = 1
				return 1 + b.CompactInto(e.B, dest[1:])
			}
			dest[0] = 0
			return 1 + a.CompactInto(e.A, dest[1:])
		},
		Decompact: func(src []byte) Either[A, B] {
			if src[0] == 1 {
				return Either[A, B]{IsB: true, B: b.Decompact(src[1:])}
			}
			return Either[A, B]{A: a.Decompact(src[1:])}
		},
	}
}

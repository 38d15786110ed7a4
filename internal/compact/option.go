package compact

// Option is the compact counterpart of a sum type with two variants, one of
// them payload-free. Compacting writes the tag byte then, for the Valid
// variant, the value's own dynamic tail, exactly as the reference
// discipline describes for sum types in general.
type Option[T any] struct {
	Valid bool
	Value T
}

// Some wraps a present value.
func Some[T any](v T) Option[T] {
	return Option[T]{Valid: true, Value: v}
}

// None returns the absent variant.
func None[T any]() Option[T] {
	return Option[T]{}
}

// OptionCodec builds a Codec[Option[T]] out of the element codec.
func OptionCodec[T any](elem Codec[T]) Codec[Option[T]] {
	return Codec[Option[T]]{
		ConstSize: -1,
		StillCompact: func(o Option[T]) bool {
			if !o.Valid {
				return true
			}
			return elem.StillCompact(o.Value)
		},
		Size: func(o Option[T]) int {
			if !o.Valid {
				return 1
			}
			return 1 + elem.Size(o.Value)
		},
		CompactInto: func(o Option[T], dest []byte) int {
			if !o.Valid {
				dest[0] = 0
				return 1
			}
			dest[0] = 1
			n := elem.CompactInto(o.Value, dest[1:])
			return 1 + n
		},
		Decompact: func(src []byte) Option[T] {
			if src[0] == 0 {
				return Option[T]{}
			}
			return Option[T]{Valid: true, Value: elem.Decompact(src[1:])}
		},
	}
}

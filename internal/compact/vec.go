package compact

import "encoding/binary"

// Vec is the compact counterpart of a growable list: a product of a
// free-heap-backed Go slice before it is flattened, and a dense or
// reference-indexed byte region afterwards. It is always StillCompact ==
// false while held as a Vec value, matching the reference rule that a
// container currently backed by the free heap reports itself as not
// compact; recompaction happens the next time it is written into a chunk
// via CompactInto.
type Vec[T any] struct {
	Items []T
}

// VecOf is a convenience constructor.
func VecOf[T any](items ...T) Vec[T] {
	return Vec[T]{Items: items}
}

// VecCodec builds a Codec[Vec[T]] out of the element codec. When elements
// are fixed-size it lays them out as a dense array (count, then items back
// to back); when elements carry their own dynamic tail it lays out a count,
// an array of (offset, length) references, and the referenced payloads
// packed after them.
func VecCodec[T any](elem Codec[T]) Codec[Vec[T]] {
	return Codec[Vec[T]]{
		ConstSize:    -1,
		StillCompact: func(Vec[T]) bool { return false },
		Size: func(v Vec[T]) int {
			if elem.ConstSize >= 0 {
				return 4 + len(v.Items)*elem.ConstSize
			}
			n := 4 + len(v.Items)*refSize
			for _, it := range v.Items {
				n += elem.Size(it)
			}
			return n
		},
		CompactInto: func(v Vec[T], dest []byte) int {
			binary.LittleEndian.PutUint32(dest[0:4], uint32(len(v.Items)))
			if elem.ConstSize >= 0 {
				off := 4
				for _, it := range v.Items {
					elem.CompactInto(it, dest[off:off+elem.ConstSize])
					off += elem.ConstSize
				}
				return off
			}
			refBase := 4
			cursor := 4 + len(v.Items)*refSize
			for i, it := range v.Items {
				n := elem.Size(it)
				putRef(dest[refBase+i*refSize:refBase+i*refSize+refSize], uint32(cursor), uint32(n))
				elem.CompactInto(it, dest[cursor:cursor+n])
				cursor += n
			}
			return cursor
		},
		Decompact: func(src []byte) Vec[T] {
			count := int(binary.LittleEndian.Uint32(src[0:4]))
			if count == 0 {
				return Vec[T]{}
			}
			items := make([]T, count)
			if elem.ConstSize >= 0 {
				off := 4
				for i := range items {
					items[i] = elem.Decompact(src[off : off+elem.ConstSize])
					off += elem.ConstSize
				}
				return Vec[T]{Items: items}
			}
			refBase := 4
			for i := range items {
				off, n := getRef(src[refBase+i*refSize : refBase+i*refSize+refSize])
				items[i] = elem.Decompact(src[off : off+n])
			}
			return Vec[T]{Items: items}
		},
	}
}

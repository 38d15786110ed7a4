package compact

import "encoding/binary"

// refSize is the width of a (offset, length) reference pair embedded in a
// product's fixed head region to locate one of its dynamic fields.
const refSize = 8

func putRef(dest []byte, offset, length uint32) {
	binary.LittleEndian.PutUint32(dest[0:4], offset)
	binary.LittleEndian.PutUint32(dest[4:8], length)
}

func getRef(src []byte) (offset, length int) {
	return int(binary.LittleEndian.Uint32(src[0:4])), int(binary.LittleEndian.Uint32(src[4:8]))
}

// Builder accumulates the dynamic-field payloads of a product type being
// flattened into dest. Field order determines layout order; the cursor is
// the only state threaded between fields, mirroring what a derive macro
// would generate as a straight-line walk.
type Builder struct {
	dest   []byte
	cursor int
}

// NewBuilder starts a build into dest, whose first headSize bytes are
// reserved for the product's fixed fields and dynamic-field references.
func NewBuilder(dest []byte, headSize int) *Builder {
	return &Builder{dest: dest, cursor: headSize}
}

// PutFixed writes a field with no dynamic tail directly into its head slot.
func PutFixed[T any](b *Builder, headOffset int, codec Codec[T], v T) {
	if codec.ConstSize < 0 {
		panic("compact: PutFixed requires a fixed-size codec")
	}
	codec.CompactInto(v, b.dest[headOffset:headOffset+codec.ConstSize])
}

// PutDynamic appends v's compact form at the builder's current cursor and
// writes a reference to it at headOffset.
func PutDynamic[T any](b *Builder, headOffset int, codec Codec[T], v T) {
	n := codec.Size(v)
	putRef(b.dest[headOffset:headOffset+refSize], uint32(b.cursor), uint32(n))
	codec.CompactInto(v, b.dest[b.cursor:b.cursor+n])
	b.cursor += n
}

// Written returns the total number of bytes the product occupies, including
// its head and every dynamic field appended so far.
func (b *Builder) Written() int {
	return b.cursor
}

// GetFixed reads a fixed-size field directly from its head slot.
func GetFixed[T any](src []byte, headOffset int, codec Codec[T]) T {
	return codec.Decompact(src[headOffset : headOffset+codec.ConstSize])
}

// GetDynamic follows a reference written by PutDynamic and decodes the
// field it points to.
func GetDynamic[T any](src []byte, headOffset int, codec Codec[T]) T {
	off, n := getRef(src[headOffset : headOffset+refSize])
	return codec.Decompact(src[off : off+n])
}

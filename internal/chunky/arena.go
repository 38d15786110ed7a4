package chunky

import (
	"fmt"

	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/compact"
)

// chunkRef pairs a chunk's Ident with its currently loaded bytes, since
// Unload/Destroy need both and a byte slice alone can't reconstruct the
// Ident it came from.
type chunkRef struct {
	ident chunk.Ident
	data  []byte
}

// Arena stores records of one fixed item size consecutively across a chain
// of chunks, appending a new chunk whenever the current one fills up and
// dropping the last chunk as soon as it empties out again.
type Arena struct {
	ident     chunk.Ident
	handler   chunk.Handler
	chunkSize int
	itemSize  int
	chunks    []chunkRef
	len       *Cell[uint64]
}

// NewArena opens (or creates) an arena. Existing chunks are reloaded by
// replaying the same chunk-boundary naming scheme Push uses: a chunk is
// always named after the index of the first item it holds, so a chunk
// exists at every multiple of itemsPerChunk below the persisted length.
func NewArena(handler chunk.Handler, ident chunk.Ident, chunkSize, itemSize int) (*Arena, error) {
	if chunkSize < itemSize {
		return nil, fmt.Errorf("chunky: arena %q chunk size %d smaller than item size %d", ident.String(), chunkSize, itemSize)
	}

	lenCell, err := OpenCell(handler, ident.Sub("len"), compact.Uint64, 0)
	if err != nil {
		return nil, err
	}

	a := &Arena{
		ident:     ident,
		handler:   handler,
		chunkSize: chunkSize,
		itemSize:  itemSize,
		len:       lenCell,
	}

	itemsPerChunk := a.itemsPerChunk()
	length := lenCell.Get()
	for start := uint64(0); start < length; start += uint64(itemsPerChunk) {
		chunkIdent := ident.Sub(start)
		data, err := handler.Load(chunkIdent)
		if err != nil {
			return nil, fmt.Errorf("chunky: arena %q: reload chunk %q: %w", ident.String(), chunkIdent.String(), err)
		}
		a.chunks = append(a.chunks, chunkRef{ident: chunkIdent, data: data})
	}

	return a, nil
}

func (a *Arena) itemsPerChunk() int {
	return a.chunkSize / a.itemSize
}

// Len returns the number of elements currently stored.
func (a *Arena) Len() uint64 {
	return a.len.Get()
}

// IsEmpty reports whether the arena holds no elements.
func (a *Arena) IsEmpty() bool {
	return a.Len() == 0
}

// Push allocates space for one new item and returns the slot to write it
// into along with the index it will have.
func (a *Arena) Push() ([]byte, uint64) {
	itemsPerChunk := uint64(a.itemsPerChunk())
	length := a.len.Get()

	if length+1 > uint64(len(a.chunks))*itemsPerChunk {
		chunkIdent := a.ident.Sub(length)
		data := a.handler.Create(chunkIdent, a.chunkSize)
		a.chunks = append(a.chunks, chunkRef{ident: chunkIdent, data: data})
	}

	offset := (length % itemsPerChunk) * uint64(a.itemSize)
	index := length
	a.len.Set(length + 1)

	last := &a.chunks[len(a.chunks)-1]
	return last.data[offset : offset+uint64(a.itemSize)], index
}

// PopAway removes the last item, discarding its chunk entirely (not merely
// unloading it) once the chunk holding it empties out.
func (a *Arena) PopAway() {
	itemsPerChunk := uint64(a.itemsPerChunk())
	length := a.len.Get() - 1
	a.len.Set(length)

	if length+itemsPerChunk <= uint64(len(a.chunks))*itemsPerChunk {
		last := a.chunks[len(a.chunks)-1]
		a.handler.Destroy(last.ident, last.data)
		a.chunks = a.chunks[:len(a.chunks)-1]
	}
}

// SwapRemove removes the item at index by overwriting it with the current
// last item and popping the end away. It returns the slot the moved item
// now occupies, or ok == false if index already was the last item.
func (a *Arena) SwapRemove(index uint64) (moved []byte, ok bool) {
	length := a.len.Get()
	if length == 0 {
		panic("chunky: SwapRemove on an empty arena")
	}
	last := length - 1
	if last == index {
		a.PopAway()
		return nil, false
	}

	src := a.At(last)
	dst := a.At(index)
	copy(dst, src)
	a.PopAway()
	return a.At(index), true
}

// At returns the slot holding the item at index. The returned slice
// aliases the arena's backing storage, so writes through it are visible to
// subsequent reads.
func (a *Arena) At(index uint64) []byte {
	itemsPerChunk := uint64(a.itemsPerChunk())
	chunkIndex := index / itemsPerChunk
	offset := (index % itemsPerChunk) * uint64(a.itemSize)
	return a.chunks[chunkIndex].data[offset : offset+uint64(a.itemSize)]
}

// Close releases in-memory resources for every chunk the arena owns,
// preserving their persisted images.
func (a *Arena) Close() {
	a.len.Close()
	for _, c := range a.chunks {
		a.handler.Unload(c.ident, c.data)
	}
}

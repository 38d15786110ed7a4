package chunky

import (
	"fmt"
	"math/bits"

	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/compact"
)

// MultiArenaIndex refers to an item in a MultiArena: which bin it lives in,
// and its index within that bin's Arena.
type MultiArenaIndex struct {
	Bin   int
	Index uint64
}

// BinStat reports a populated bin's index and current length, as returned
// by PopulatedBins.
type BinStat struct {
	Bin int
	Len uint64
}

// MultiArena dispatches variable-size records to one of a ladder of
// power-of-two-sized Arena bins, so that items within a few bytes of each
// other in size share a bin instead of each needing its own arena.
//
// The bin at index i holds items of size baseSize * 2^i. Which bin sizes
// have actually been instantiated is itself persisted (usedBinSizes), so a
// freshly reopened MultiArena recreates exactly the bins its previous
// incarnation used.
type MultiArena struct {
	ident            chunk.Ident
	handler          chunk.Handler
	typicalChunkSize int
	baseSize         int
	bins             []*Arena
	usedBinSizes     *Vector[uint64]
}

// NewMultiArena opens (or creates) a multi-arena. baseSize is the smallest
// item size the smallest bin will hold.
func NewMultiArena(handler chunk.Handler, ident chunk.Ident, typicalChunkSize, baseSize int) (*MultiArena, error) {
	usedBinSizes, err := NewVector(handler, ident.Sub("used_bin_sizes"), 1024, compact.Uint64)
	if err != nil {
		return nil, err
	}

	ma := &MultiArena{
		ident:            ident,
		handler:          handler,
		typicalChunkSize: typicalChunkSize,
		baseSize:         baseSize,
		usedBinSizes:     usedBinSizes,
	}

	n := usedBinSizes.Len()
	for i := uint64(0); i < n; i++ {
		size := usedBinSizes.At(i)
		if _, err := ma.getOrInsertBinForSize(int(size)); err != nil {
			return nil, err
		}
	}

	return ma, nil
}

func (ma *MultiArena) sizeRoundedMultiple(size int) int {
	roundedToBase := (size + ma.baseSize - 1) / ma.baseSize
	return nextPowerOfTwo(roundedToBase)
}

// SizeToIndex returns the index of the bin that stores items of size.
func (ma *MultiArena) SizeToIndex(size int) int {
	rounded := ma.sizeRoundedMultiple(size)
	return bits.TrailingZeros(uint(rounded))
}

func (ma *MultiArena) getOrInsertBinForSize(size int) (*Arena, error) {
	index := ma.SizeToIndex(size)
	sizeRoundedUp := ma.sizeRoundedMultiple(size) * ma.baseSize

	if index >= len(ma.bins) {
		grown := make([]*Arena, index+1)
		copy(grown, ma.bins)
		ma.bins = grown
	}

	if ma.bins[index] != nil {
		return ma.bins[index], nil
	}

	ma.usedBinSizes.Push(uint64(sizeRoundedUp))
	chunkSize := ma.typicalChunkSize
	if sizeRoundedUp > chunkSize {
		chunkSize = sizeRoundedUp
	}
	arena, err := NewArena(ma.handler, ma.ident.Sub(sizeRoundedUp), chunkSize, sizeRoundedUp)
	if err != nil {
		return nil, err
	}
	ma.bins[index] = arena
	return arena, nil
}

// At returns the slot holding the item referenced by index.
func (ma *MultiArena) At(index MultiArenaIndex) []byte {
	bin := ma.bins[index.Bin]
	if bin == nil {
		panic(fmt.Sprintf("chunky: no bin at index %d", index.Bin))
	}
	return bin.At(index.Index)
}

// Push allocates space for an item of size bytes in the bin sized to fit
// it, creating that bin on first use.
func (ma *MultiArena) Push(size int) ([]byte, MultiArenaIndex, error) {
	binIndex := ma.SizeToIndex(size)
	bin, err := ma.getOrInsertBinForSize(size)
	if err != nil {
		return nil, MultiArenaIndex{}, err
	}
	slot, itemIndex := bin.Push()
	return slot, MultiArenaIndex{Bin: binIndex, Index: itemIndex}, nil
}

// SwapRemove removes the item referenced by index from its bin, moving the
// bin's last item into its place.
func (ma *MultiArena) SwapRemove(index MultiArenaIndex) (moved []byte, ok bool) {
	bin := ma.bins[index.Bin]
	if bin == nil {
		panic(fmt.Sprintf("chunky: no bin at index %d", index.Bin))
	}
	return bin.SwapRemove(index.Index)
}

// PopulatedBins returns every bin that currently holds at least one
// allocation, along with its length.
func (ma *MultiArena) PopulatedBins() []BinStat {
	var out []BinStat
	for i, bin := range ma.bins {
		if bin != nil && bin.Len() > 0 {
			out = append(out, BinStat{Bin: i, Len: bin.Len()})
		}
	}
	return out
}

// BinLen returns the length of the bin at binIndex.
func (ma *MultiArena) BinLen(binIndex int) uint64 {
	bin := ma.bins[binIndex]
	if bin == nil {
		panic(fmt.Sprintf("chunky: no bin at index %d", binIndex))
	}
	return bin.Len()
}

// Close releases in-memory resources for every bin and the used-bin-sizes
// vector, preserving their persisted images.
func (ma *MultiArena) Close() {
	ma.usedBinSizes.Close()
	for _, bin := range ma.bins {
		if bin != nil {
			bin.Close()
		}
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

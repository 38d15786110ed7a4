package chunky

import (
	"testing"

	"github.com/citybound/citybound-sub001/internal/chunk"
)

func TestMultiArenaSizeToIndex(t *testing.T) {
	handler := chunk.NewHeapHandler()
	ma, err := NewMultiArena(handler, chunk.NewIdent("multi"), 256, 16)
	if err != nil {
		t.Fatalf("NewMultiArena: %v", err)
	}

	cases := []struct {
		size int
		want int
	}{
		{1, 0},   // rounds up to 16 = 16*2^0
		{16, 0},  // exactly one base unit
		{17, 1},  // needs 2 base units, rounds to next power of two
		{32, 1},  // exactly 2 base units
		{33, 2},  // needs 3, rounds to 4
		{64, 2},  // exactly 4 base units
	}
	for _, c := range cases {
		if got := ma.SizeToIndex(c.size); got != c.want {
			t.Errorf("SizeToIndex(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestMultiArenaPushAtAcrossBins(t *testing.T) {
	handler := chunk.NewHeapHandler()
	ma, err := NewMultiArena(handler, chunk.NewIdent("multi"), 256, 16)
	if err != nil {
		t.Fatalf("NewMultiArena: %v", err)
	}

	small, smallIdx, err := ma.Push(10)
	if err != nil {
		t.Fatalf("Push(10): %v", err)
	}
	small[0] = 1

	large, largeIdx, err := ma.Push(40)
	if err != nil {
		t.Fatalf("Push(40): %v", err)
	}
	large[0] = 2

	if smallIdx.Bin == largeIdx.Bin {
		t.Fatal("items of very different sizes should land in different bins")
	}
	if got := ma.At(smallIdx)[0]; got != 1 {
		t.Errorf("At(smallIdx)[0] = %d, want 1", got)
	}
	if got := ma.At(largeIdx)[0]; got != 2 {
		t.Errorf("At(largeIdx)[0] = %d, want 2", got)
	}

	bins := ma.PopulatedBins()
	if len(bins) != 2 {
		t.Fatalf("PopulatedBins() has %d entries, want 2", len(bins))
	}
}

func TestMultiArenaReopenRecreatesUsedBins(t *testing.T) {
	dir := t.TempDir()
	handler, err := chunk.NewMmapHandler(dir, nil)
	if err != nil {
		t.Fatalf("NewMmapHandler: %v", err)
	}
	ident := chunk.NewIdent("multi")

	ma, err := NewMultiArena(handler, ident, 256, 16)
	if err != nil {
		t.Fatalf("NewMultiArena: %v", err)
	}
	slot, idx, err := ma.Push(20)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	slot[0] = 77
	ma.Close()

	reopened, err := NewMultiArena(handler, ident, 256, 16)
	if err != nil {
		t.Fatalf("reopen NewMultiArena: %v", err)
	}
	if got := reopened.BinLen(idx.Bin); got != 1 {
		t.Fatalf("BinLen(%d) = %d, want 1", idx.Bin, got)
	}
	if got := reopened.At(idx)[0]; got != 77 {
		t.Fatalf("At(idx)[0] = %d, want 77", got)
	}
}

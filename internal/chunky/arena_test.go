package chunky

import (
	"testing"

	"github.com/citybound/citybound-sub001/internal/chunk"
)

func TestArenaPushAtAndBoundaryChunking(t *testing.T) {
	handler := chunk.NewHeapHandler()
	// 8-byte items, 16-byte chunks: two items per chunk.
	a, err := NewArena(handler, chunk.NewIdent("arena"), 16, 8)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}

	var indices []uint64
	for i := 0; i < 5; i++ {
		slot, idx := a.Push()
		slot[0] = byte(i)
		indices = append(indices, idx)
	}
	if a.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", a.Len())
	}
	for i, idx := range indices {
		if got := a.At(idx)[0]; got != byte(i) {
			t.Errorf("At(%d)[0] = %d, want %d", idx, got, i)
		}
	}
}

func TestArenaPopAwayDropsEmptyChunk(t *testing.T) {
	handler := chunk.NewHeapHandler()
	a, err := NewArena(handler, chunk.NewIdent("arena"), 16, 8)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	for i := 0; i < 3; i++ {
		a.Push()
	}
	a.PopAway()
	a.PopAway()
	a.PopAway()
	if a.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", a.Len())
	}
	// arena must still be usable after emptying out
	slot, idx := a.Push()
	slot[0] = 9
	if got := a.At(idx)[0]; got != 9 {
		t.Fatalf("At(%d)[0] = %d, want 9", idx, got)
	}
}

func TestArenaSwapRemove(t *testing.T) {
	handler := chunk.NewHeapHandler()
	a, err := NewArena(handler, chunk.NewIdent("arena"), 32, 8)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	for i := 0; i < 4; i++ {
		slot, _ := a.Push()
		slot[0] = byte(i)
	}

	moved, ok := a.SwapRemove(1)
	if !ok {
		t.Fatal("expected SwapRemove to report a moved item")
	}
	if moved[0] != 3 {
		t.Fatalf("moved item = %d, want 3 (former last item)", moved[0])
	}
	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}
	if a.At(1)[0] != 3 {
		t.Fatalf("At(1)[0] = %d, want 3", a.At(1)[0])
	}

	_, ok = a.SwapRemove(2)
	if ok {
		t.Fatal("SwapRemove of the last element should report ok == false")
	}
}

func TestArenaReconstructionAcrossChunkBoundaries(t *testing.T) {
	dir := t.TempDir()
	handler, err := chunk.NewMmapHandler(dir, nil)
	if err != nil {
		t.Fatalf("NewMmapHandler: %v", err)
	}
	ident := chunk.NewIdent("arena")

	a, err := NewArena(handler, ident, 16, 8) // 2 items per chunk
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	for i := 0; i < 5; i++ {
		slot, _ := a.Push()
		slot[0] = byte(i + 1)
	}
	a.Close()

	reopened, err := NewArena(handler, ident, 16, 8)
	if err != nil {
		t.Fatalf("reopen NewArena: %v", err)
	}
	if reopened.Len() != 5 {
		t.Fatalf("reopened Len() = %d, want 5", reopened.Len())
	}
	for i := uint64(0); i < 5; i++ {
		if got := reopened.At(i)[0]; got != byte(i+1) {
			t.Errorf("At(%d)[0] = %d, want %d", i, got, i+1)
		}
	}
}

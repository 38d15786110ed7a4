package chunky

import (
	"testing"

	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/compact"
)

func TestVectorPushAtPop(t *testing.T) {
	handler := chunk.NewHeapHandler()
	v, err := NewVector(handler, chunk.NewIdent("vec"), 64, compact.Uint32)
	if err != nil {
		t.Fatalf("NewVector: %v", err)
	}

	for i := uint32(0); i < 6; i++ {
		v.Push(i * 10)
	}
	if v.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", v.Len())
	}
	if got := v.At(3); got != 30 {
		t.Fatalf("At(3) = %d, want 30", got)
	}

	v.Set(3, 999)
	if got := v.At(3); got != 999 {
		t.Fatalf("At(3) after Set = %d, want 999", got)
	}

	last, ok := v.Pop()
	if !ok || last != 50 {
		t.Fatalf("Pop() = (%d, %v), want (50, true)", last, ok)
	}
	if v.Len() != 5 {
		t.Fatalf("Len() after Pop = %d, want 5", v.Len())
	}
}

func TestVectorRejectsDynamicCodec(t *testing.T) {
	handler := chunk.NewHeapHandler()
	_, err := NewVector(handler, chunk.NewIdent("vec"), 64, compact.VecCodec(compact.Uint8))
	if err == nil {
		t.Fatal("expected an error building a vector over a dynamic-size codec")
	}
}

func TestVectorSwapRemove(t *testing.T) {
	handler := chunk.NewHeapHandler()
	v, err := NewVector(handler, chunk.NewIdent("vec"), 64, compact.Uint32)
	if err != nil {
		t.Fatalf("NewVector: %v", err)
	}
	for i := uint32(0); i < 4; i++ {
		v.Push(i)
	}
	moved, ok := v.SwapRemove(0)
	if !ok || moved != 3 {
		t.Fatalf("SwapRemove(0) = (%d, %v), want (3, true)", moved, ok)
	}
	if v.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", v.Len())
	}
	if got := v.At(0); got != 3 {
		t.Fatalf("At(0) = %d, want 3", got)
	}
}

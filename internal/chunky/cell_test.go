package chunky

import (
	"testing"

	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/compact"
)

func TestCellDefaultThenPersist(t *testing.T) {
	dir := t.TempDir()
	handler, err := chunk.NewMmapHandler(dir, nil)
	if err != nil {
		t.Fatalf("NewMmapHandler: %v", err)
	}
	ident := chunk.NewIdent("counter")

	c, err := OpenCell(handler, ident, compact.Uint64, 42)
	if err != nil {
		t.Fatalf("OpenCell: %v", err)
	}
	if got := c.Get(); got != 42 {
		t.Fatalf("Get() = %d, want 42", got)
	}
	c.Set(7)
	c.Close()

	reopened, err := OpenCell(handler, ident, compact.Uint64, 0)
	if err != nil {
		t.Fatalf("reopen OpenCell: %v", err)
	}
	if got := reopened.Get(); got != 7 {
		t.Fatalf("reopened Get() = %d, want 7", got)
	}
}

func TestCellRejectsDynamicCodec(t *testing.T) {
	handler := chunk.NewHeapHandler()
	_, err := OpenCell(handler, chunk.NewIdent("bad"), compact.VecCodec(compact.Uint8), compact.Vec[uint8]{})
	if err == nil {
		t.Fatal("expected an error opening a cell with a dynamic-size codec")
	}
}

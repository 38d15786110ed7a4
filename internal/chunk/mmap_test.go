package chunk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMmapHandlerCreateLoadUnloadLoad(t *testing.T) {
	dir := t.TempDir()
	h, err := NewMmapHandler(dir, nil)
	if err != nil {
		t.Fatalf("NewMmapHandler: %v", err)
	}
	ident := NewIdent("swarm")

	data := h.Create(ident, 32)
	data[0] = 7
	h.Unload(ident, data)

	reloaded, err := h.Load(ident)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded[0] != 7 {
		t.Fatalf("reloaded[0] = %d, want 7", reloaded[0])
	}
	h.Unload(ident, reloaded)
}

func TestMmapHandlerLoadMissing(t *testing.T) {
	h, err := NewMmapHandler(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewMmapHandler: %v", err)
	}
	_, err = h.Load(NewIdent("nope"))
	if !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("got %v, want ErrChunkNotFound", err)
	}
}

func TestMmapHandlerLoadOrCreate(t *testing.T) {
	h, err := NewMmapHandler(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewMmapHandler: %v", err)
	}
	ident := NewIdent("swarm")

	data, createdNew := h.LoadOrCreate(ident, 16)
	if !createdNew {
		t.Fatal("first LoadOrCreate should create")
	}
	h.Unload(ident, data)

	data2, createdNew2 := h.LoadOrCreate(ident, 16)
	if createdNew2 {
		t.Fatal("second LoadOrCreate should load the persisted chunk")
	}
	h.Unload(ident, data2)
}

func TestMmapHandlerDestroyRemovesFile(t *testing.T) {
	h, err := NewMmapHandler(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewMmapHandler: %v", err)
	}
	ident := NewIdent("swarm")
	data := h.Create(ident, 8)
	h.Destroy(ident, data)

	_, err = h.Load(ident)
	if !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("got %v, want ErrChunkNotFound after Destroy", err)
	}
}

func TestMmapHandlerCompressOnUnloadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	h, err := NewMmapHandlerCompressed(dir, nil)
	if err != nil {
		t.Fatalf("NewMmapHandlerCompressed: %v", err)
	}
	ident := NewIdent("swarm")

	data := h.Create(ident, 4096)
	for i := range data {
		data[i] = byte(i)
	}
	h.Unload(ident, data)

	if _, err := os.Stat(filepath.Join(dir, ident.String())); !os.IsNotExist(err) {
		t.Fatalf("plain file should be gone after a compressed unload")
	}
	if _, err := os.Stat(filepath.Join(dir, ident.String()+".zst")); err != nil {
		t.Fatalf("compressed file should exist: %v", err)
	}

	reloaded, err := h.Load(ident)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := range reloaded {
		if reloaded[i] != byte(i) {
			t.Fatalf("reloaded[%d] = %d, want %d", i, reloaded[i], byte(i))
		}
	}
	h.Unload(ident, reloaded)
}

func TestMmapHandlerListPersisted(t *testing.T) {
	h, err := NewMmapHandler(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewMmapHandler: %v", err)
	}
	parent := NewIdent("swarm")
	for i := 0; i < 3; i++ {
		ident := parent.Sub(i)
		data := h.Create(ident, 8)
		h.Unload(ident, data)
	}

	idents, err := h.ListPersisted(parent)
	if err != nil {
		t.Fatalf("ListPersisted: %v", err)
	}
	if len(idents) != 3 {
		t.Fatalf("got %d idents, want 3", len(idents))
	}
}

func TestMmapHandlerListPersistedStripsCompressedSuffix(t *testing.T) {
	dir := t.TempDir()
	h, err := NewMmapHandlerCompressed(dir, nil)
	if err != nil {
		t.Fatalf("NewMmapHandlerCompressed: %v", err)
	}
	parent := NewIdent("swarm")
	for i := 0; i < 3; i++ {
		ident := parent.Sub(i)
		data := h.Create(ident, 8)
		h.Unload(ident, data)
	}

	idents, err := h.ListPersisted(parent)
	if err != nil {
		t.Fatalf("ListPersisted: %v", err)
	}
	if len(idents) != 3 {
		t.Fatalf("got %d idents, want 3", len(idents))
	}
	for i, ident := range idents {
		if got := ident.String(); got != parent.Sub(i).String() {
			t.Fatalf("ident[%d] = %q, want %q (suffix should be stripped)", i, got, parent.Sub(i).String())
		}
		if _, err := h.Load(ident); err != nil {
			t.Fatalf("Load(%q): %v", ident.String(), err)
		}
		h.Unload(ident, nil)
	}
}

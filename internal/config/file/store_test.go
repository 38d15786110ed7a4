package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/citybound/citybound-sub001/internal/config"
	"github.com/citybound/citybound-sub001/internal/config/file"
)

func TestLoadMissingFileReturnsNilConfig(t *testing.T) {
	s := file.NewStore(filepath.Join(t.TempDir(), "missing.json"))
	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != nil {
		t.Fatalf("Load of missing file = %+v, want nil", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.json")
	s := file.NewStore(path)
	ctx := context.Background()

	want := &config.Config{
		RunID:   "run-1",
		Storage: config.StorageConfig{Backend: "mmap", Dir: "/var/sim/run-1"},
		Types: []config.ActorTypeConfig{
			{Name: "household", ChunkSize: 65536, BaseSize: 64},
			{Name: "lane", ChunkSize: 32768, BaseSize: 32},
		},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunID != want.RunID || got.Storage != want.Storage || len(got.Types) != len(want.Types) {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
	for i := range want.Types {
		if got.Types[i] != want.Types[i] {
			t.Fatalf("Types[%d] = %+v, want %+v", i, got.Types[i], want.Types[i])
		}
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file %q.tmp should not survive a successful Save", path)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "config": {}}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s := file.NewStore(path)
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatal("Load of a future-versioned file should fail, got nil error")
	}
}

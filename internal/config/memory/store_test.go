package memory_test

import (
	"context"
	"testing"

	"github.com/citybound/citybound-sub001/internal/config"
	"github.com/citybound/citybound-sub001/internal/config/memory"
)

func TestLoadBeforeSaveReturnsNilConfig(t *testing.T) {
	s := memory.NewStore()
	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != nil {
		t.Fatalf("Load before Save = %+v, want nil", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	want := &config.Config{
		RunID:   "run-1",
		Storage: config.StorageConfig{Backend: "heap"},
		Types: []config.ActorTypeConfig{
			{Name: "household", ChunkSize: 65536, BaseSize: 64},
		},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunID != want.RunID || got.Storage != want.Storage || len(got.Types) != 1 || got.Types[0] != want.Types[0] {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}

	// Mutating the returned config must not affect the store's copy.
	got.Types[0].Name = "mutated"
	got2, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if got2.Types[0].Name != "household" {
		t.Fatalf("store was mutated through a returned Config: %+v", got2)
	}
}

package config_test

import (
	"context"
	"testing"

	"github.com/citybound/citybound-sub001/internal/chunk"
	"github.com/citybound/citybound-sub001/internal/config"
)

func TestOpenHandlerHeap(t *testing.T) {
	h, err := config.OpenHandler(context.Background(), config.StorageConfig{Backend: "heap"}, nil)
	if err != nil {
		t.Fatalf("OpenHandler: %v", err)
	}
	if _, ok := h.(*chunk.HeapHandler); !ok {
		t.Fatalf("got %T, want *chunk.HeapHandler", h)
	}
}

func TestOpenHandlerEmptyBackendDefaultsToHeap(t *testing.T) {
	h, err := config.OpenHandler(context.Background(), config.StorageConfig{}, nil)
	if err != nil {
		t.Fatalf("OpenHandler: %v", err)
	}
	if _, ok := h.(*chunk.HeapHandler); !ok {
		t.Fatalf("got %T, want *chunk.HeapHandler", h)
	}
}

func TestOpenHandlerMmap(t *testing.T) {
	h, err := config.OpenHandler(context.Background(), config.StorageConfig{Backend: "mmap", Dir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("OpenHandler: %v", err)
	}
	if _, ok := h.(*chunk.MmapHandler); !ok {
		t.Fatalf("got %T, want *chunk.MmapHandler", h)
	}
}

func TestOpenHandlerMmapRequiresDir(t *testing.T) {
	_, err := config.OpenHandler(context.Background(), config.StorageConfig{Backend: "mmap"}, nil)
	if err == nil {
		t.Fatal("expected an error when Dir is empty")
	}
}

func TestOpenHandlerS3RequiresBucket(t *testing.T) {
	_, err := config.OpenHandler(context.Background(), config.StorageConfig{Backend: "s3"}, nil)
	if err == nil {
		t.Fatal("expected an error when Bucket is empty")
	}
}

func TestOpenHandlerUnknownBackend(t *testing.T) {
	_, err := config.OpenHandler(context.Background(), config.StorageConfig{Backend: "nope"}, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

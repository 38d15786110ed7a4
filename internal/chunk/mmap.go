package chunk

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/citybound/citybound-sub001/internal/logging"
)

// compressedSuffix marks a chunk file that CompressOnUnload has flushed
// as zstd instead of a raw mmap-able image.
const compressedSuffix = ".zst"

// MmapHandler persists each chunk as its own file under Dir, memory-mapped
// so that large simulations can exceed available RAM and the OS handles
// paging. Filenames are the Ident's string form; Idents may not contain a
// path separator (enforced by validate), so every chunk lives directly in
// Dir with no nested directories.
//
// Reuse of an ident after Destroy creates a new, zero-filled backing file,
// matching the reference Handler contract.
type MmapHandler struct {
	dir    string
	logger *slog.Logger

	// compressOnUnload, when set, recompresses a chunk's backing file to
	// zstd as it is unloaded, trading a Load-time decompression pass for
	// smaller at-rest size. A swarm of many sparse, mostly-zero actor
	// bins is the intended beneficiary; chunks that stay loaded for an
	// active simulation never pay this cost.
	compressOnUnload bool

	mu   sync.Mutex
	open map[string]*mmapChunk
}

type mmapChunk struct {
	file *os.File
	data []byte
}

// NewMmapHandler creates a handler rooted at dir, creating dir if needed.
func NewMmapHandler(dir string, logger *slog.Logger) (*MmapHandler, error) {
	return newMmapHandler(dir, logger, false)
}

// NewMmapHandlerCompressed is NewMmapHandler with CompressOnUnload
// enabled: every chunk is zstd-compressed in place as it is unloaded and
// transparently decompressed the next time it is loaded.
func NewMmapHandlerCompressed(dir string, logger *slog.Logger) (*MmapHandler, error) {
	return newMmapHandler(dir, logger, true)
}

func newMmapHandler(dir string, logger *slog.Logger, compressOnUnload bool) (*MmapHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chunk: create backing dir %q: %w", dir, err)
	}
	return &MmapHandler{
		dir:              dir,
		logger:           logging.Default(logger).With("component", "chunk-handler", "type", "mmap"),
		compressOnUnload: compressOnUnload,
		open:             make(map[string]*mmapChunk),
	}, nil
}

func (h *MmapHandler) path(ident Ident) string {
	return filepath.Join(h.dir, ident.String())
}

func (h *MmapHandler) Create(ident Ident, size int) []byte {
	if err := validate(ident.String()); err != nil {
		Fatalf(ident, "create", "%v", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	path := h.path(ident)
	if _, err := os.Stat(path); err == nil {
		Fatalf(ident, "create", "chunk already exists at %s", path)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		Fatalf(ident, "create", "open: %v", err)
	}
	data := h.mapZeroed(ident, f, size)
	h.open[ident.String()] = &mmapChunk{file: f, data: data}
	h.logger.Debug("created chunk", "ident", ident.String(), "size", size)
	return data
}

func (h *MmapHandler) mapZeroed(ident Ident, f *os.File, size int) []byte {
	if size == 0 {
		// syscall.Mmap rejects zero-length mappings; the runtime never
		// creates zero-sized chunks, but guard anyway.
		Fatalf(ident, "create", "zero-sized chunk")
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		Fatalf(ident, "create", "truncate: %v", err)
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		Fatalf(ident, "create", "mmap: %v", err)
	}
	return data
}

func (h *MmapHandler) Load(ident Ident) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadLocked(ident)
}

func (h *MmapHandler) loadLocked(ident Ident) ([]byte, error) {
	path := h.path(ident)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		decompressed, derr := h.decompressIfPresent(ident)
		if derr != nil {
			Fatalf(ident, "load", "decompress: %v", derr)
		}
		if !decompressed {
			return nil, ErrChunkNotFound
		}
		info, err = os.Stat(path)
	}
	if err != nil {
		Fatalf(ident, "load", "stat: %v", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		Fatalf(ident, "load", "open: %v", err)
	}
	size := int(info.Size())
	if size == 0 {
		f.Close()
		Fatalf(ident, "load", "persisted chunk is empty")
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		Fatalf(ident, "load", "mmap: %v", err)
	}
	h.open[ident.String()] = &mmapChunk{file: f, data: data}
	return data, nil
}

func (h *MmapHandler) LoadOrCreate(ident Ident, size int) ([]byte, bool) {
	data, err := h.Load(ident)
	if err == nil {
		return data, false
	}
	if err != ErrChunkNotFound {
		Fatalf(ident, "load_or_create", "%v", err)
	}
	return h.Create(ident, size), true
}

func (h *MmapHandler) Unload(ident Ident, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	oc, ok := h.open[ident.String()]
	if !ok {
		Fatalf(ident, "unload", "chunk is not currently loaded")
	}
	if err := syscall.Munmap(oc.data); err != nil {
		Fatalf(ident, "unload", "munmap: %v", err)
	}
	if err := oc.file.Close(); err != nil {
		Fatalf(ident, "unload", "close: %v", err)
	}
	delete(h.open, ident.String())

	if h.compressOnUnload {
		if err := h.compressLocked(ident); err != nil {
			Fatalf(ident, "unload", "compress: %v", err)
		}
	}
}

func (h *MmapHandler) Destroy(ident Ident, data []byte) {
	h.Unload(ident, data)
	if err := os.Remove(h.path(ident)); err != nil && !os.IsNotExist(err) {
		Fatalf(ident, "destroy", "remove: %v", err)
	}
	if err := os.Remove(h.path(ident) + compressedSuffix); err != nil && !os.IsNotExist(err) {
		Fatalf(ident, "destroy", "remove compressed: %v", err)
	}
}

// compressLocked replaces the just-unloaded plain chunk file with its
// zstd-compressed form. Called with h.mu already held.
func (h *MmapHandler) compressLocked(ident Ident) error {
	path := h.path(ident)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("new encoder: %w", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)

	if err := os.WriteFile(path+compressedSuffix, compressed, 0o644); err != nil {
		return fmt.Errorf("write compressed: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove plain: %w", err)
	}
	return nil
}

// decompressIfPresent restores a zstd-compressed chunk file back to its
// plain, mmap-able form, returning whether a compressed file was found.
func (h *MmapHandler) decompressIfPresent(ident Ident) (bool, error) {
	compressedPath := h.path(ident) + compressedSuffix
	f, err := os.Open(compressedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open compressed: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return false, fmt.Errorf("new decoder: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return false, fmt.Errorf("decompress: %w", err)
	}
	if err := os.WriteFile(h.path(ident), raw, 0o644); err != nil {
		return false, fmt.Errorf("write decompressed: %w", err)
	}
	if err := os.Remove(compressedPath); err != nil {
		return false, fmt.Errorf("remove compressed: %w", err)
	}
	return true, nil
}

// ListPersisted returns the Idents of every chunk persisted under a parent
// Ident's namespace, matched via the sub-ident glob pattern
// "<parent>:*", plus the parent itself if persisted. Used by the simkernel
// inspect command: the caller does not need to know in advance how many
// chunks a collection accumulated, only the parent Ident it was opened
// under.
func (h *MmapHandler) ListPersisted(parent Ident) ([]Ident, error) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return nil, fmt.Errorf("chunk: list %q: %w", h.dir, err)
	}
	pattern := parent.String() + identSeparator + "*"
	var out []Ident
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		// A compressed chunk is persisted under "<ident>.zst"; strip the
		// suffix before matching and constructing the Ident, or a
		// CompressOnUnload run would surface idents that no longer
		// round-trip through Load.
		name := strings.TrimSuffix(e.Name(), compressedSuffix)

		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if matched || name == parent.String() {
			out = append(out, NewIdent(name))
		}
	}
	return out, nil
}

var _ Handler = (*MmapHandler)(nil)

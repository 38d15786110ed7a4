package chunk

// HeapHandler allocates chunks on the Go heap and never persists them.
// It mirrors the reference HeapHandler: Load on a missing ident is fatal,
// Destroy is equivalent to Unload since there is nothing to discard beyond
// freeing memory, and reuse of an ident after Destroy starts from a clean
// slice because the caller always supplies a fresh Create/LoadOrCreate.
//
// Safe for use as the default Handler in tests and for purely in-process
// simulation runs that never need to survive a restart.
type HeapHandler struct{}

// NewHeapHandler returns a Handler with no persistence.
func NewHeapHandler() *HeapHandler {
	return &HeapHandler{}
}

func (h *HeapHandler) Create(ident Ident, size int) []byte {
	if err := validate(ident.String()); err != nil {
		Fatalf(ident, "create", "%v", err)
	}
	return make([]byte, size)
}

func (h *HeapHandler) Load(ident Ident) ([]byte, error) {
	Fatalf(ident, "load", "heap handler cannot load persisted chunks")
	return nil, nil // unreachable: Fatalf panics
}

func (h *HeapHandler) LoadOrCreate(ident Ident, size int) ([]byte, bool) {
	return h.Create(ident, size), true
}

func (h *HeapHandler) Unload(ident Ident, data []byte) {
	// Nothing to release explicitly; the slice becomes garbage once the
	// caller drops its last reference.
}

func (h *HeapHandler) Destroy(ident Ident, data []byte) {
	h.Unload(ident, data)
}

var _ Handler = (*HeapHandler)(nil)

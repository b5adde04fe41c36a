package coordinator

import (
	"context"
	"sync"
)

// HistoryStore keeps per-signature attempt counters for one session.
type HistoryStore interface {
	// Increment bumps the counter for signature and returns its previous value.
	Increment(ctx context.Context, signature string) (int, error)
	Reset(ctx context.Context, signature string) error
	Snapshot(ctx context.Context) (map[string]int, error)
	Clear(ctx context.Context) error
}

// MemoryHistory is an in-process HistoryStore.
type MemoryHistory struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{counts: make(map[string]int)}
}

func (h *MemoryHistory) Increment(_ context.Context, signature string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.counts[signature]
	h.counts[signature] = prev + 1
	return prev, nil
}

func (h *MemoryHistory) Reset(_ context.Context, signature string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.counts, signature)
	return nil
}

func (h *MemoryHistory) Snapshot(_ context.Context) (map[string]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out, nil
}

func (h *MemoryHistory) Clear(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts = make(map[string]int)
	return nil
}

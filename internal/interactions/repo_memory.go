package interactions

import (
	"context"
	"sync"
)

// MemoryRepo is a simple in-memory append-only repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu         sync.Mutex
	items      []Interaction
	unresolved []UnresolvedSummary
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(_ context.Context, in Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, in)
	return nil
}

func (r *MemoryRepo) AppendUnresolved(_ context.Context, s UnresolvedSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unresolved = append(r.unresolved, s)
	return nil
}

func (r *MemoryRepo) ListByCall(_ context.Context, callID string) ([]Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Interaction
	for _, in := range r.items {
		if in.CallID == callID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListUnresolved(_ context.Context, limit int) ([]UnresolvedSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]UnresolvedSummary, 0, limit)
	for i := len(r.unresolved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.unresolved[i])
	}
	return out, nil
}

// Interactions returns a copy of every appended record.
func (r *MemoryRepo) Interactions() []Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Interaction, len(r.items))
	copy(out, r.items)
	return out
}

func (r *MemoryRepo) Summaries() []UnresolvedSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]UnresolvedSummary, len(r.unresolved))
	copy(out, r.unresolved)
	return out
}

package cache

import (
	"context"

	"github.com/IvanBrykalov/prefetchcache/internal/flight"
)

// pending is a load-in-progress. The in-flight table holds the owning
// reference; Get callers waiting for the result hold shared references to
// the cell and still receive the value after a cancellation.
type pending[K Key, V any] struct {
	key  K
	cell *flight.Cell[V]
	seq  uint64 // issue sequence, strictly increasing

	// prefetch marks background loads; synchronous client loads bypass
	// the prefetch cap and are never cancelled by the scheduler.
	prefetch bool

	// cancelled is set by the scheduler (or Close) before the entry is
	// dropped from the table. A completion carrying a cancelled pending
	// must not commit.
	cancelled bool

	ctx    context.Context
	cancel context.CancelFunc
}

// inflight is the table of pending loads, at most one per key.
// All methods are called with the cache-wide mutex held.
type inflight[K Key, V any] struct {
	m      map[K]*pending[K, V]
	nPre   int    // number of pending prefetch loads
	issued uint64 // issue sequence source
}

func newInflight[K Key, V any]() *inflight[K, V] {
	return &inflight[K, V]{m: make(map[K]*pending[K, V])}
}

// get returns the pending load for k, if any.
func (t *inflight[K, V]) get(k K) (*pending[K, V], bool) {
	p, ok := t.m[k]
	return p, ok
}

func (t *inflight[K, V]) contains(k K) bool {
	_, ok := t.m[k]
	return ok
}

// begin inserts a fresh pending load for k. The caller guarantees no load
// for k is currently in flight (single-flight is enforced by checking the
// table first, under the same mutex).
func (t *inflight[K, V]) begin(parent context.Context, k K, prefetch bool) *pending[K, V] {
	ctx, cancel := context.WithCancel(parent)
	t.issued++
	p := &pending[K, V]{
		key:      k,
		cell:     flight.NewCell[V](),
		seq:      t.issued,
		prefetch: prefetch,
		ctx:      ctx,
		cancel:   cancel,
	}
	t.m[k] = p
	if prefetch {
		t.nPre++
	}
	return p
}

// drop removes p from the table if it is still the current pending load
// for its key. A stale p (already replaced or removed) is left untouched.
func (t *inflight[K, V]) drop(p *pending[K, V]) bool {
	cur, ok := t.m[p.key]
	if !ok || cur != p {
		return false
	}
	delete(t.m, p.key)
	if p.prefetch {
		t.nPre--
	}
	return true
}

// current reports whether p is still the table entry for its key and has
// not been cancelled. Completions for non-current pendings are discarded.
func (t *inflight[K, V]) current(p *pending[K, V]) bool {
	cur, ok := t.m[p.key]
	return ok && cur == p && !p.cancelled
}

func (t *inflight[K, V]) size() int { return len(t.m) }

func (t *inflight[K, V]) prefetches() int { return t.nPre }

// keys returns the in-flight keys in unspecified order.
func (t *inflight[K, V]) keys() []K {
	out := make([]K, 0, len(t.m))
	for k := range t.m {
		out = append(out, k)
	}
	return out
}

// drain removes every pending load, marking each cancelled, and returns
// them so the caller can fail their cells outside table bookkeeping.
func (t *inflight[K, V]) drain() []*pending[K, V] {
	out := make([]*pending[K, V], 0, len(t.m))
	for _, p := range t.m {
		p.cancelled = true
		p.cancel()
		out = append(out, p)
	}
	t.m = make(map[K]*pending[K, V])
	t.nPre = 0
	return out
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/prefetchcache/policy"
	"github.com/IvanBrykalov/prefetchcache/policy/oldest"
)

// closeGrace bounds how long Close waits for the worker to exit.
const closeGrace = 5 * time.Second

// notifyBuffer sizes the worker's notification channel. Once it is full,
// load completions block until the worker drains it, while advisory
// access/recheck notices are dropped (see postNotice).
const notifyBuffer = 256

// cache is the predictive prefetching cache. A cache-wide mutex serializes
// access to the resident store, the in-flight table, the history and the
// counters; it is never held across a provider, predictor or event
// callback call.
type cache[K Key, V any] struct {
	opt Options[K, V]
	pol policy.Policy[K]
	log *zap.Logger

	mu      sync.Mutex
	store   *store[K, V]
	flight  *inflight[K, V]
	history *history[K]
	stats   Stats
	current K
	haveCur bool

	// recentFail holds keys whose load (background or synchronous) failed
	// since the last access. They are excluded from the desired set until a new access
	// predicts them again, so a permanently failing key is retried at
	// most once per access instead of on every worker tick.
	recentFail map[K]struct{}

	notify     chan notice[K, V]
	stop       chan struct{}
	stopOnce   sync.Once
	workerDone chan struct{}

	// baseCtx parents every load context; cancelled on Close as the
	// best-effort "stop outstanding work" signal.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	closed    atomic.Bool
	closeOnce sync.Once
}

// New constructs a cache and starts its background worker.
// Defaults:
//   - nil Policy    -> oldest-first
//   - nil Metrics   -> NoopMetrics
//   - nil Logger    -> zap.NewNop()
//   - HistorySize 0 -> DefaultHistorySize
//
// Panics if Provider is nil or MaxKeysCached < 1.
func New[K Key, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Provider == nil {
		panic("Provider must be set")
	}
	if opt.MaxKeysCached < 1 {
		panic("MaxKeysCached must be >= 1")
	}
	if opt.MaxKeysPrefetched < 0 {
		opt.MaxKeysPrefetched = 0
	}
	if opt.HistorySize == 0 {
		opt.HistorySize = DefaultHistorySize
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	pol := opt.Policy
	if pol == nil {
		pol = oldest.New[K]()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &cache[K, V]{
		opt:        opt,
		pol:        pol,
		log:        opt.Logger,
		store:      newStore[K, V](opt.MaxKeysCached),
		flight:     newInflight[K, V](),
		history:    newHistory[K](opt.HistorySize),
		recentFail: make(map[K]struct{}),
		notify:     make(chan notice[K, V], notifyBuffer),
		stop:       make(chan struct{}),
		workerDone: make(chan struct{}),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
	go c.run()
	return c
}

// ---- Cache[K,V] implementation ----

// Get returns the value for key, loading it synchronously on a miss.
// See the Cache interface for the full contract.
func (c *cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	if c.closed.Load() {
		return zero, ErrClosed
	}

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return zero, ErrClosed
	}

	// Record the access before any load so prediction sees it even while
	// a long provider call is in progress.
	c.history.record(key)
	c.current, c.haveCur = key, true

	// Fast path: resident.
	if e, ok := c.store.lookup(key); ok {
		v := e.val
		c.stats.Hits++
		c.opt.Metrics.Hit()
		c.mu.Unlock()
		c.postNotice(notice[K, V]{kind: noticeAccess})
		return v, nil
	}

	// A load is already in flight (prefetch or another caller's load):
	// wait for its result instead of starting a second one.
	if p, ok := c.flight.get(key); ok {
		c.stats.Hits++
		c.opt.Metrics.Hit()
		c.mu.Unlock()
		c.postNotice(notice[K, V]{kind: noticeAccess})
		return c.await(ctx, key, p)
	}

	// Leader: synchronous load. Bypasses the prefetch cap but still
	// occupies the in-flight slot for single-flight.
	p := c.flight.begin(c.baseCtx, key, false)
	c.stats.Misses++
	c.opt.Metrics.Miss()
	c.opt.Metrics.InFlight(c.flight.size())
	c.mu.Unlock()

	c.emit(Event[K]{Kind: EventLoadStart, Key: key})
	c.postNotice(notice[K, V]{kind: noticeAccess})

	v, err := c.opt.Provider.Load(ctx, key)
	p.cell.Publish(v, err)
	return c.commitSync(key, p, v, err)
}

// await joins an in-flight load and maps its outcome to the Get contract.
func (c *cache[K, V]) await(ctx context.Context, key K, p *pending[K, V]) (V, error) {
	var zero V
	v, err := p.cell.Wait(ctx)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrClosed):
		return zero, ErrClosed
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return zero, err
	default:
		return zero, &LoadError{Key: key, Err: err}
	}
}

// commitSync finishes a leader load: the commit transition is atomic with
// respect to other Gets (the mutex covers dropping the in-flight entry and
// inserting the resident one).
func (c *cache[K, V]) commitSync(key K, p *pending[K, V], v V, err error) (V, error) {
	var zero V
	var events []Event[K]

	c.mu.Lock()
	wasCurrent := c.flight.current(p)
	c.flight.drop(p)
	if err != nil {
		c.recentFail[key] = struct{}{}
		c.opt.Metrics.InFlight(c.flight.size())
		c.mu.Unlock()
		c.emit(Event[K]{Kind: EventLoadError, Key: key, Err: err})
		return zero, &LoadError{Key: key, Err: err}
	}
	if c.closed.Load() {
		// Closed while loading: hand the value back but do not commit.
		c.mu.Unlock()
		return v, nil
	}
	if wasCurrent {
		c.store.insert(key, v, c.costOf(v))
		events = append(events, Event[K]{Kind: EventLoadComplete, Key: key})
		c.evictLocked(&events)
	}
	c.opt.Metrics.InFlight(c.flight.size())
	inv := c.checkInvariantsLocked()
	c.mu.Unlock()

	c.emit(events...)
	if inv != nil {
		c.fatal(inv)
		return v, nil
	}
	c.postNotice(notice[K, V]{kind: noticeRecheck})
	return v, nil
}

// Stats returns a snapshot of the cache counters.
func (c *cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of resident entries.
func (c *cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.size()
}

// Close cancels outstanding loads, stops the worker and releases resident
// entries. Idempotent and safe from any goroutine.
func (c *cache[K, V]) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.mu.Lock()
		drained := c.flight.drain()
		c.store.clear()
		c.haveCur = false
		c.opt.Metrics.Size(0)
		c.opt.Metrics.InFlight(0)
		c.mu.Unlock()

		var zero V
		for _, p := range drained {
			p.cell.Publish(zero, ErrClosed)
		}
		c.baseCancel()
		c.stopOnce.Do(func() { close(c.stop) })

		select {
		case <-c.workerDone:
		case <-time.After(closeGrace):
			c.log.Warn("worker did not exit within the grace period")
		}
	})
	return nil
}

// ---- internals ----

// postNotice hands an advisory notification (access/recheck) to the
// worker. It never blocks: if the queue is saturated the notice is
// dropped, since a later one triggers the same reconciliation, and a
// caller re-entering the cache from an event callback must not wait on
// the worker that is delivering the event. Load completions do not go
// through here; they use a blocking send from their own goroutine.
func (c *cache[K, V]) postNotice(n notice[K, V]) {
	select {
	case c.notify <- n:
	case <-c.stop:
	default:
	}
}

// evictLocked enforces the resident cap through the configured policy.
// If a policy makes no progress the oldest entry is shed instead, so the
// cap holds even under a defective policy.
func (c *cache[K, V]) evictLocked(events *[]Event[K]) {
	for c.store.size() > c.opt.MaxKeysCached {
		need := c.store.size() - c.opt.MaxKeysCached
		removed := 0
		for _, k := range c.pol.Victims(c.store.policyView(), need) {
			if _, ok := c.store.remove(k); ok {
				removed++
				c.stats.Evictions++
				c.opt.Metrics.Evict()
				*events = append(*events, Event[K]{Kind: EventEvict, Key: k})
			}
		}
		if removed == 0 {
			e := c.store.oldest()
			if e == nil {
				break
			}
			k := e.key
			c.store.remove(k)
			c.stats.Evictions++
			c.opt.Metrics.Evict()
			*events = append(*events, Event[K]{Kind: EventEvict, Key: k})
			*events = append(*events, Event[K]{
				Kind: EventWorkerError, Key: k,
				Err: fmt.Errorf("eviction policy returned no usable victims; evicted oldest"),
			})
		}
	}
	c.opt.Metrics.Size(c.store.size())
}

// checkInvariantsLocked verifies the cheap structural invariants after a
// commit. A breach is fatal: the worker stops and the cache closes.
func (c *cache[K, V]) checkInvariantsLocked() error {
	if n := c.store.size(); n > c.opt.MaxKeysCached {
		return fmt.Errorf("%w: %d resident entries exceed cap %d", errInvariant, n, c.opt.MaxKeysCached)
	}
	if n := c.flight.prefetches(); n > c.opt.MaxKeysPrefetched {
		return fmt.Errorf("%w: %d prefetch loads in flight exceed cap %d", errInvariant, n, c.opt.MaxKeysPrefetched)
	}
	return nil
}

// fatal marks the cache closed after an invariant breach, wakes every
// waiter with ErrClosed and stops the worker.
func (c *cache[K, V]) fatal(err error) {
	c.log.Error("invariant violation; closing cache", zap.Error(err))
	c.closed.Store(true)

	c.mu.Lock()
	drained := c.flight.drain()
	c.store.clear()
	c.mu.Unlock()

	var zero V
	for _, p := range drained {
		p.cell.Publish(zero, ErrClosed)
	}
	c.baseCancel()
	c.stopOnce.Do(func() { close(c.stop) })
	c.emit(Event[K]{Kind: EventWorkerError, Err: err})
}

// costOf computes the logical entry cost (clamped to non-negative).
func (c *cache[K, V]) costOf(v V) int64 {
	if c.opt.Cost == nil {
		return 0
	}
	if cost := c.opt.Cost(v); cost > 0 {
		return cost
	}
	return 0
}

// emit delivers events to the callback outside the critical section.
// A panicking callback is logged and reported once as a worker_error.
func (c *cache[K, V]) emit(events ...Event[K]) {
	cb := c.opt.OnEvent
	if cb == nil {
		return
	}
	for _, ev := range events {
		c.deliver(cb, ev)
	}
}

func (c *cache[K, V]) deliver(cb func(Event[K]), ev Event[K]) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("event callback panicked",
				zap.Stringer("event", ev.Kind), zap.Any("panic", r))
			if ev.Kind != EventWorkerError {
				func() {
					defer func() { _ = recover() }()
					cb(Event[K]{Kind: EventWorkerError, Key: ev.Key,
						Err: fmt.Errorf("event callback panicked: %v", r)})
				}()
			}
		}
	}()
	cb(ev)
}

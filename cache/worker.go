package cache

import (
	"fmt"

	"go.uber.org/zap"
)

type noticeKind uint8

const (
	// noticeAccess — Get recorded a new access.
	noticeAccess noticeKind = iota
	// noticeLoadDone — a prefetch task finished (successfully or not).
	noticeLoadDone
	// noticeRecheck — residency changed outside the worker (a synchronous
	// load committed); re-run reconciliation.
	noticeRecheck
)

// notice is one message on the worker's notification channel.
type notice[K Key, V any] struct {
	kind noticeKind
	p    *pending[K, V] // loadDone only
	val  V              // loadDone only
	err  error          // loadDone only
}

// run is the background worker: a single goroutine that reacts to access
// events and load completions, commits prefetch results, enforces the
// resident cap and keeps the in-flight set reconciled with the current
// prediction. It is the sole mutator of the in-flight table apart from the
// begin and drop calls made by Get under the same mutex and the drain done
// by Close.
func (c *cache[K, V]) run() {
	defer close(c.workerDone)
	for {
		select {
		case <-c.stop:
			return
		case n := <-c.notify:
			if c.closed.Load() {
				continue
			}
			if err := c.handleNotice(n); err != nil {
				c.fatal(err)
				return
			}
		}
	}
}

func (c *cache[K, V]) handleNotice(n notice[K, V]) error {
	switch n.kind {
	case noticeLoadDone:
		if err := c.commitPrefetch(n); err != nil {
			return err
		}
	case noticeAccess:
		// A fresh access lifts the retry suppression: if the prediction
		// still wants a previously failed key, it gets a fresh attempt.
		c.mu.Lock()
		if len(c.recentFail) > 0 {
			c.recentFail = make(map[K]struct{})
		}
		c.mu.Unlock()
	}
	return c.reconcilePass()
}

// commitPrefetch applies a finished background load: commit and evict on
// success, account the failure otherwise. Stale completions (cancelled or
// superseded pendings) are discarded without touching resident state.
func (c *cache[K, V]) commitPrefetch(n notice[K, V]) error {
	p := n.p
	var events []Event[K]

	c.mu.Lock()
	c.stats.ActivePrefetchTasks--
	switch {
	case !c.flight.current(p):
		// Cancelled or superseded; accounted when the cancel was issued.
	case n.err != nil:
		c.flight.drop(p)
		c.recentFail[p.key] = struct{}{}
		c.stats.PrefetchErrors++
		c.opt.Metrics.PrefetchError()
		events = append(events, Event[K]{Kind: EventPrefetchError, Key: p.key, Err: n.err})
	default:
		c.flight.drop(p)
		c.store.insert(p.key, n.val, c.costOf(n.val))
		c.stats.PrefetchCompleted++
		c.opt.Metrics.PrefetchCompleted()
		events = append(events, Event[K]{Kind: EventPrefetchSuccess, Key: p.key})
		c.evictLocked(&events)
	}
	c.opt.Metrics.InFlight(c.flight.size())
	err := c.checkInvariantsLocked()
	c.mu.Unlock()

	c.emit(events...)
	return err
}

// reconcilePass recomputes the desired prefetch set from the latest access
// and converges the in-flight set toward it. The predictor runs with no
// lock held; a panicking predictor skips the pass and leaves the cache
// usable.
func (c *cache[K, V]) reconcilePass() error {
	c.mu.Lock()
	if c.opt.Predictor == nil || c.opt.MaxKeysPrefetched <= 0 || !c.haveCur {
		c.mu.Unlock()
		return nil
	}
	current := c.current
	hist := c.history.snapshot()
	c.mu.Unlock()

	scores, perr := c.safeLikelihoods(current, hist)
	if perr != nil {
		c.log.Warn("predictor failed; skipping reconciliation", zap.Error(perr))
		c.emit(Event[K]{Kind: EventWorkerError, Key: current, Err: perr})
		return nil
	}

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return nil
	}
	desired := c.rankLocked(scores, current, c.opt.MaxKeysPrefetched)

	inPre := make(map[K]bool, c.flight.size())
	inAny := make(map[K]bool, c.flight.size())
	for _, k := range c.flight.keys() {
		inAny[k] = true
		if p, _ := c.flight.get(k); p != nil && p.prefetch {
			inPre[k] = true
		}
	}
	pl := reconcile(desired, inPre, inAny, c.opt.MaxKeysPrefetched)

	var events []Event[K]
	for _, k := range pl.cancel {
		p, ok := c.flight.get(k)
		if !ok || !p.prefetch {
			continue
		}
		p.cancelled = true
		p.cancel()
		c.flight.drop(p)
		c.stats.PrefetchCancelled++
		c.opt.Metrics.PrefetchCancelled()
	}
	started := make([]*pending[K, V], 0, len(pl.issue))
	for _, k := range pl.issue {
		p := c.flight.begin(c.baseCtx, k, true)
		c.stats.PrefetchIssued++
		c.stats.ActivePrefetchTasks++
		c.opt.Metrics.PrefetchIssued()
		started = append(started, p)
		events = append(events, Event[K]{Kind: EventPrefetchStart, Key: k})
	}
	c.opt.Metrics.InFlight(c.flight.size())
	err := c.checkInvariantsLocked()
	c.mu.Unlock()

	for _, p := range started {
		go c.runLoad(p)
	}
	if len(pl.issue) > 0 || len(pl.cancel) > 0 {
		c.log.Debug("reconciled prefetch set",
			zap.Int("desired", len(desired)),
			zap.Int("issued", len(pl.issue)),
			zap.Int("cancelled", len(pl.cancel)))
	}
	c.emit(events...)
	return err
}

// runLoad executes one background load. The result is published to the
// cell first so waiters wake immediately, then handed to the worker for
// the commit decision.
func (c *cache[K, V]) runLoad(p *pending[K, V]) {
	v, err := c.opt.Provider.Load(p.ctx, p.key)
	p.cell.Publish(v, err)
	select {
	case c.notify <- notice[K, V]{kind: noticeLoadDone, p: p, val: v, err: err}:
	case <-c.stop:
	}
}

// safeLikelihoods shields the worker from a misbehaving predictor.
func (c *cache[K, V]) safeLikelihoods(current K, hist []K) (scores map[K]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panicked: %v", r)
		}
	}()
	return c.opt.Predictor.Likelihoods(current, hist), nil
}

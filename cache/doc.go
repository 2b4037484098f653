// Package cache provides a generic, predictive prefetching in-memory cache:
// a keyed store that asynchronously pre-loads the values a pluggable
// predictor expects to be requested next, under a strict resident cap.
//
// # Design
//
//   - Concurrency: a single cache-wide mutex guards the resident store,
//     the in-flight table, the history and the counters. The mutex is held
//     for short bounded work only and never across a provider, predictor
//     or event callback call. Loads run on their own goroutines.
//
//   - Worker: one background goroutine reacts to access events and load
//     completions. On each tick it commits finished prefetches, enforces
//     the resident cap and reconciles the in-flight set against the
//     current prediction (cancel what is no longer wanted, issue what is,
//     leave the overlap alone).
//
//   - Single-flight: at most one load per key. A Get that finds its key
//     in flight waits on the shared result cell instead of loading again;
//     a synchronous load occupies the same table so a later prefetch of
//     the key is suppressed.
//
//   - Cancellation is cooperative: a cancelled prefetch keeps running in
//     the provider, its context is cancelled as a hint, and its result is
//     discarded on completion. Waiters that joined before the cancel still
//     receive the value.
//
//   - Policies: eviction is pluggable via the policy package. Oldest-first
//     (by insertion sequence) is the default; largest and smallest cost
//     variants are provided.
//
//   - Metrics: Options.Metrics receives hit/miss/prefetch/evict signals.
//     By default NoopMetrics is used; plug the Prometheus adapter from
//     metrics/prom to export them.
//
//   - Events: Options.OnEvent receives out-of-band events (load and
//     prefetch lifecycle, evictions, worker errors). The callback runs
//     outside the mutex and may re-enter the cache.
//
// # Basic usage
//
//	provider, _ := mot.Open("detections.txt", 256)
//	defer provider.Close()
//
//	c := cache.New[int64, *mot.FrameData](cache.Options[int64, *mot.FrameData]{
//	    Provider:          provider,
//	    Predictor:         predict.NewJumpAware[int64]([]int{-5, -1, 1, 5}),
//	    MaxKeysCached:     128,
//	    MaxKeysPrefetched: 8,
//	})
//	defer c.Close()
//
//	frame, err := c.Get(ctx, 42)
//
// # Error model
//
// Provider failures during a client-driven load surface as *LoadError.
// Prefetch failures are counted and reported as prefetch_error events, and
// a later prediction of the same key triggers a fresh attempt; they reach
// a client only when its Get is waiting on that prefetch, which then
// returns *LoadError. Get after Close returns ErrClosed.
package cache

package cache

import "context"

// Key constrains cache keys to integer types. The cache itself only needs
// equality and map hashing, but the prediction driver breaks score ties by
// absolute distance to the current key, which requires integer arithmetic.
// In practice keys are frame numbers.
type Key interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Cache is a keyed in-memory store that speculatively pre-loads the keys a
// predictor expects to be requested next. All methods are safe for
// concurrent use by multiple goroutines.
type Cache[K Key, V any] interface {
	// Get returns the value for key, loading it synchronously on a miss.
	// The access is recorded in the history and the background worker is
	// notified so prefetching can converge on the new prediction.
	//
	// If a load for key is already in flight (a prefetch or another
	// caller's load), Get waits for that load instead of issuing a second
	// one. Returns a *LoadError if the provider fails, ErrClosed after
	// Close.
	Get(ctx context.Context, key K) (V, error)

	// Stats returns a snapshot of the cache counters.
	Stats() Stats

	// Len returns the number of resident entries.
	Len() int

	// Close cancels outstanding loads (best effort), stops the background
	// worker and releases resident entries. Idempotent and safe to call
	// from any goroutine.
	Close() error
}

// Provider supplies values for keys. Implementations must be safe for
// concurrent use: Load is invoked from client goroutines and from prefetch
// tasks in parallel, and the cache never holds its internal lock across a
// provider call.
type Provider[K Key, V any] interface {
	// Load fetches the value for key. It blocks until the value is ready
	// or an error occurs. The context is cancelled when the cache no
	// longer wants the result (advisory: the provider may ignore it).
	Load(ctx context.Context, key K) (V, error)

	// AvailableKeys enumerates the keys Load can serve. Called rarely;
	// need not be O(1).
	AvailableKeys() map[K]struct{}

	// TotalKeys returns the cardinality of AvailableKeys.
	TotalKeys() int

	// Stats returns free-form provider diagnostics, passed through
	// untouched by the cache.
	Stats() map[string]any
}

// Predictor estimates which keys will be requested next. Likelihoods must
// be a pure function of its arguments and safe for concurrent use. An
// empty result means "no speculation".
type Predictor[K Key] interface {
	// Likelihoods returns non-negative scores for candidate keys given
	// the current key and the recent access history (oldest first).
	Likelihoods(current K, history []K) map[K]float64
}

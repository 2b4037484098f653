package cache

import (
	"go.uber.org/zap"

	"github.com/IvanBrykalov/prefetchcache/policy"
)

// Options configures the cache behavior. Zero values are safe where a
// default exists; sane defaults are applied in New():
//   - nil Policy    => oldest-first
//   - nil Metrics   => NoopMetrics
//   - nil Logger    => zap.NewNop()
//   - HistorySize 0 => DefaultHistorySize
type Options[K Key, V any] struct {
	// Provider fetches values on demand. Required.
	Provider Provider[K, V]

	// Predictor estimates near-future accesses. Nil disables speculation,
	// as does MaxKeysPrefetched == 0.
	Predictor Predictor[K]

	// MaxKeysCached is the resident entry cap (must be >= 1).
	MaxKeysCached int

	// MaxKeysPrefetched caps concurrent background loads. Synchronous
	// client loads bypass this cap but still coalesce with in-flight
	// loads for the same key. 0 disables speculation.
	MaxKeysPrefetched int

	// HistorySize bounds the recorded access history handed to the
	// predictor. 0 selects DefaultHistorySize.
	HistorySize int

	// Policy selects eviction victims; nil => oldest-first by insertion
	// sequence.
	Policy policy.Policy[K]

	// Cost reports a logical size per value (e.g. detection count or
	// bytes). It feeds size-based policies such as policy/largest.
	// Nil = all entries have equal cost (0).
	Cost func(v V) int64

	// OnEvent, if set, receives out-of-band cache events. It is invoked
	// outside the cache mutex; re-entering the cache from the callback is
	// permitted.
	OnEvent func(Event[K])

	// Metrics receives observability signals. Nil => NoopMetrics.
	Metrics Metrics

	// Logger receives worker-level diagnostics. Nil => zap.NewNop().
	Logger *zap.Logger
}

// DefaultHistorySize is used when Options.HistorySize is 0.
const DefaultHistorySize = 30

package cache

// Stats is a point-in-time snapshot of the cache counters. All counters
// are updated under the cache-wide mutex, so a snapshot is internally
// consistent.
type Stats struct {
	// Hits counts Get calls answered from the resident store or by
	// joining an in-flight load.
	Hits int64
	// Misses counts Get calls that had to start a synchronous load.
	Misses int64

	// PrefetchIssued counts background loads dispatched by the scheduler.
	PrefetchIssued int64
	// PrefetchCompleted counts background loads that committed a value.
	PrefetchCompleted int64
	// PrefetchCancelled counts background loads cancelled by the
	// scheduler before their result was committed.
	PrefetchCancelled int64
	// PrefetchErrors counts background loads that failed in the provider.
	PrefetchErrors int64

	// Evictions counts entries removed to enforce MaxKeysCached.
	Evictions int64

	// ActivePrefetchTasks is the number of prefetch goroutines currently
	// running (including cancelled ones that have not returned yet).
	ActivePrefetchTasks int64
}

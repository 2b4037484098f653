package cache

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"
)

// A mixed workload of concurrent Gets over a small keyspace with an active
// predictor. Should pass under `-race` without detector reports.
func TestRace_ConcurrentGets(t *testing.T) {
	keys := make([]int64, 200)
	for i := range keys {
		keys[i] = int64(i)
	}
	p := newTestProvider(keys...)
	c := New[int64, int64](Options[int64, int64]{
		Provider:          p,
		Predictor:         predictorFunc(nextTwo),
		MaxKeysCached:     64,
		MaxKeysPrefetched: 4,
	})
	t.Cleanup(func() { _ = c.Close() })

	workers := 4 * runtime.GOMAXPROCS(0)
	deadline := time.Now().Add(time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(id)*9973 + 1))
			for time.Now().Before(deadline) {
				k := keys[r.Intn(len(keys))]
				v, err := c.Get(context.Background(), k)
				if err != nil {
					t.Errorf("Get %d: %v", k, err)
					return
				}
				if v != k*10 {
					t.Errorf("Get %d = %d", k, v)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	st := c.Stats()
	if c.Len() > 64 {
		t.Fatalf("resident cap breached: %d", c.Len())
	}
	if st.Hits == 0 {
		t.Fatal("expected some hits over a 200-key space with a 64-entry cache")
	}
}

// Close racing with in-flight Gets: every Get either returns its value or
// fails with ErrClosed, and nothing is left resident or in flight.
func TestRace_CloseDuringGets(t *testing.T) {
	keys := make([]int64, 32)
	for i := range keys {
		keys[i] = int64(i)
	}
	p := newTestProvider(keys...)
	p.delay = 10 * time.Millisecond
	c := New[int64, int64](Options[int64, int64]{
		Provider:          p,
		Predictor:         predictorFunc(nextTwo),
		MaxKeysCached:     16,
		MaxKeysPrefetched: 4,
	})

	const gets = 10
	var wg sync.WaitGroup
	wg.Add(gets)
	for i := 0; i < gets; i++ {
		go func(k int64) {
			defer wg.Done()
			v, err := c.Get(context.Background(), k)
			switch {
			case err == nil:
				if v != k*10 {
					t.Errorf("Get %d = %d", k, v)
				}
			case errors.Is(err, ErrClosed):
				// acceptable during shutdown
			default:
				t.Errorf("Get %d: %v", k, err)
			}
		}(keys[i])
	}

	time.Sleep(5 * time.Millisecond) // let some loads get airborne
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	wg.Wait()

	impl := c.(*cache[int64, int64])
	select {
	case <-impl.workerDone:
	default:
		t.Fatal("worker still running after Close returned")
	}
	impl.mu.Lock()
	defer impl.mu.Unlock()
	if impl.store.size() != 0 || impl.flight.size() != 0 {
		t.Fatalf("leaked state: resident=%d inflight=%d", impl.store.size(), impl.flight.size())
	}
}

package cache

import (
	"context"
	"testing"
)

// Hot-path read: every Get is a resident hit.
func BenchmarkGet_Resident(b *testing.B) {
	keys := make([]int64, 1024)
	for i := range keys {
		keys[i] = int64(i)
	}
	p := newTestProvider(keys...)
	c := New[int64, int64](Options[int64, int64]{Provider: p, MaxKeysCached: 2048})
	b.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	for _, k := range keys {
		if _, err := c.Get(ctx, k); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Get(ctx, keys[i&1023]); err != nil {
			b.Fatal(err)
		}
	}
}

// Sequential walk with an active predictor: measures the full path
// including worker notifications.
func BenchmarkGet_SequentialPredicted(b *testing.B) {
	keys := make([]int64, 4096)
	for i := range keys {
		keys[i] = int64(i)
	}
	p := newTestProvider(keys...)
	c := New[int64, int64](Options[int64, int64]{
		Provider:          p,
		Predictor:         predictorFunc(nextTwo),
		MaxKeysCached:     512,
		MaxKeysPrefetched: 4,
	})
	b.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Get(ctx, keys[i&4095]); err != nil {
			b.Fatal(err)
		}
	}
}

// Package largest implements a size-based eviction policy: the entries
// with the highest cost go first. Useful when values vary widely in size
// (e.g. dense frames) and memory pressure matters more than recency.
package largest

import (
	"sort"

	"github.com/IvanBrykalov/prefetchcache/policy"
)

type pol[K comparable] struct{}

// New returns the largest-cost-first policy. It only makes sense together
// with a Cost function on the cache; with equal costs it degrades to
// oldest-first.
func New[K comparable]() policy.Policy[K] { return pol[K]{} }

// Victims returns the n entries with the highest cost, ties oldest first.
func (pol[K]) Victims(resident []policy.Entry[K], n int) []K {
	sort.Slice(resident, func(i, j int) bool {
		if resident[i].Cost != resident[j].Cost {
			return resident[i].Cost > resident[j].Cost
		}
		return resident[i].Seq < resident[j].Seq
	})
	if n > len(resident) {
		n = len(resident)
	}
	out := make([]K, 0, n)
	for _, e := range resident[:n] {
		out = append(out, e.Key)
	}
	return out
}

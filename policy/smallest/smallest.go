// Package smallest implements a size-based eviction policy: the entries
// with the lowest cost go first, keeping the expensive-to-reload values
// resident longest.
package smallest

import (
	"sort"

	"github.com/IvanBrykalov/prefetchcache/policy"
)

type pol[K comparable] struct{}

// New returns the smallest-cost-first policy.
func New[K comparable]() policy.Policy[K] { return pol[K]{} }

// Victims returns the n entries with the lowest cost, ties oldest first.
func (pol[K]) Victims(resident []policy.Entry[K], n int) []K {
	sort.Slice(resident, func(i, j int) bool {
		if resident[i].Cost != resident[j].Cost {
			return resident[i].Cost < resident[j].Cost
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

// Package oldest implements the default eviction policy: oldest entry
// first, by insertion sequence.
package oldest

import (
	"sort"

	"github.com/IvanBrykalov/prefetchcache/policy"
)

type pol[K comparable] struct{}

// New returns the oldest-first policy.
func New[K comparable]() policy.Policy[K] { return pol[K]{} }

// Victims returns the n entries with the smallest insertion sequence.
func (pol[K]) Victims(resident []policy.Entry[K], n int) []K {
	sort.Slice(resident, func(i, j int) bool {
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

package cache

import "sort"

// distance returns |a-b| without overflowing unsigned key types.
func distance[K Key](a, b K) uint64 {
	if a >= b {
		return uint64(a - b)
	}
	return uint64(b - a)
}

// rank turns a predictor result into the desired prefetch list:
// candidates that are not resident, ordered by score descending with ties
// broken by distance to current ascending and then by key ascending, and
// truncated to max entries. Candidates with a non-positive score are
// dropped (a zero likelihood is "will not happen"), as are keys whose
// load failed since the last access.
//
// Called with the cache-wide mutex held; it touches only the resident set
// and does no I/O.
func (c *cache[K, V]) rankLocked(scores map[K]float64, current K, max int) []K {
	if max <= 0 || len(scores) == 0 {
		return nil
	}
	cands := make([]K, 0, len(scores))
	for k, s := range scores {
		if s <= 0 || c.store.contains(k) {
			continue
		}
		if _, failed := c.recentFail[k]; failed {
			continue
		}
		cands = append(cands, k)
	}
	sort.Slice(cands, func(i, j int) bool {
		ki, kj := cands[i], cands[j]
		si, sj := scores[ki], scores[kj]
		if si != sj {
			return si > sj
		}
		di, dj := distance(ki, current), distance(kj, current)
		if di != dj {
			return di < dj
		}
		return ki < kj
	})
	if len(cands) > max {
		cands = cands[:max]
	}
	return cands
}

package predict

import "github.com/IvanBrykalov/prefetchcache/cache"

// JumpAware predicts the next access from a known set of navigation jumps
// (e.g. the -15/-5/-1/+1/+5/+15 steps of a review UI). Each jump's
// likelihood is its Laplace-smoothed frequency among the deltas observed
// in the history, so the keys the user actually skips to rank above the
// ones they never visit.
type JumpAware[K cache.Key] struct {
	jumps []int
}

// NewJumpAware constructs the predictor from the possible jumps. Zero
// jumps are ignored; an empty set predicts nothing.
func NewJumpAware[K cache.Key](jumps []int) *JumpAware[K] {
	js := make([]int, 0, len(jumps))
	for _, j := range jumps {
		if j != 0 {
			js = append(js, j)
		}
	}
	return &JumpAware[K]{jumps: js}
}

// Likelihoods implements cache.Predictor.
func (p *JumpAware[K]) Likelihoods(current K, history []K) map[K]float64 {
	if len(p.jumps) == 0 {
		return nil
	}

	counts := make(map[int]int, len(p.jumps))
	total := 0
	for i := 1; i < len(history); i++ {
		for _, j := range p.jumps {
			if tgt, ok := offsetKey(history[i-1], j); ok && tgt == history[i] {
				counts[j]++
				total++
				break
			}
		}
	}

	out := make(map[K]float64, len(p.jumps))
	denom := float64(total + len(p.jumps))
	for _, j := range p.jumps {
		tgt, ok := offsetKey(current, j)
		if !ok {
			continue
		}
		score := float64(counts[j]+1) / denom
		// Two jumps may land on the same key; keep the stronger score.
		if score > out[tgt] {
			out[tgt] = score
		}
	}
	return out
}

var _ cache.Predictor[int64] = (*JumpAware[int64])(nil)

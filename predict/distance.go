package predict

import "github.com/IvanBrykalov/prefetchcache/cache"

// DistanceDecay scores the keys around the current one with a geometric
// decay by distance: the immediate neighbours are most likely, and each
// further step multiplies the likelihood by Decay. Backward neighbours are
// additionally damped by Backward, reflecting that playback mostly moves
// forward.
type DistanceDecay[K cache.Key] struct {
	radius   int
	decay    float64
	backward float64
}

// NewDistanceDecay constructs a distance-decay predictor.
//   - radius:   how many keys on each side to score (>= 1)
//   - decay:    per-step decay factor in (0, 1]; 0.7 is a reasonable default
//   - backward: damping applied to keys behind the current one, in [0, 1]
func NewDistanceDecay[K cache.Key](radius int, decay, backward float64) *DistanceDecay[K] {
	if radius < 1 {
		radius = 1
	}
	if decay <= 0 || decay > 1 {
		decay = 0.7
	}
	if backward < 0 || backward > 1 {
		backward = 0.5
	}
	return &DistanceDecay[K]{radius: radius, decay: decay, backward: backward}
}

// Likelihoods implements cache.Predictor.
func (p *DistanceDecay[K]) Likelihoods(current K, _ []K) map[K]float64 {
	out := make(map[K]float64, 2*p.radius)
	score := 1.0
	for d := 1; d <= p.radius; d++ {
		out[current+K(d)] = score
		if back, ok := offsetKey(current, -d); ok && p.backward > 0 {
			out[back] = score * p.backward
		}
		score *= p.decay
	}
	return out
}

var _ cache.Predictor[int64] = (*DistanceDecay[int64])(nil)

package predict

import "github.com/IvanBrykalov/prefetchcache/cache"

// directionWindow is how many recent history deltas vote on the direction
// of travel.
const directionWindow = 5

// DynamicDistanceDecay is a distance-decay predictor that infers the
// direction of travel from the access history and shifts likelihood toward
// it: scrubbing backwards through a clip makes the preceding keys the
// likely ones.
type DynamicDistanceDecay[K cache.Key] struct {
	radius int
	decay  float64
	bias   float64
}

// NewDynamicDistanceDecay constructs the predictor.
//   - radius: how many keys on each side to score (>= 1)
//   - decay:  per-step decay factor in (0, 1]
//   - bias:   damping applied against the direction of travel, in [0, 1];
//     with an unknown direction both sides score equally
func NewDynamicDistanceDecay[K cache.Key](radius int, decay, bias float64) *DynamicDistanceDecay[K] {
	if radius < 1 {
		radius = 1
	}
	if decay <= 0 || decay > 1 {
		decay = 0.7
	}
	if bias < 0 || bias > 1 {
		bias = 0.3
	}
	return &DynamicDistanceDecay[K]{radius: radius, decay: decay, bias: bias}
}

// Likelihoods implements cache.Predictor.
func (p *DynamicDistanceDecay[K]) Likelihoods(current K, history []K) map[K]float64 {
	forward, backward := 1.0, 1.0
	switch direction(history, directionWindow) {
	case 1:
		backward = p.bias
	case -1:
		forward = p.bias
	}

	out := make(map[K]float64, 2*p.radius)
	score := 1.0
	for d := 1; d <= p.radius; d++ {
		if f := score * forward; f > 0 {
			out[current+K(d)] = f
		}
		if back, ok := offsetKey(current, -d); ok {
			if b := score * backward; b > 0 {
				out[back] = b
			}
		}
		score *= p.decay
	}
	return out
}

var _ cache.Predictor[int64] = (*DynamicDistanceDecay[int64])(nil)

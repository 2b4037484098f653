package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDynamicDistanceDecay_ForwardTravel(t *testing.T) {
	t.Parallel()

	p := NewDynamicDistanceDecay[int64](2, 0.5, 0.1)
	got := p.Likelihoods(10, []int64{6, 7, 8, 9, 10})

	// Moving forward: the key ahead outranks the key behind.
	assert.Greater(t, got[11], got[9])
	assert.InDelta(t, 1.0, got[11], 1e-9)
	assert.InDelta(t, 0.1, got[9], 1e-9)
}

func TestDynamicDistanceDecay_BackwardTravel(t *testing.T) {
	t.Parallel()

	p := NewDynamicDistanceDecay[int64](2, 0.5, 0.1)
	got := p.Likelihoods(10, []int64{14, 13, 12, 11, 10})

	assert.Greater(t, got[9], got[11])
}

func TestDynamicDistanceDecay_UnknownDirectionIsSymmetric(t *testing.T) {
	t.Parallel()

	p := NewDynamicDistanceDecay[int64](2, 0.5, 0.1)
	got := p.Likelihoods(10, nil)

	assert.InDelta(t, got[9], got[11], 1e-9)
}

func TestDirection(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, direction([]int64{1, 2, 3}, 5))
	assert.Equal(t, -1, direction([]int64{3, 2, 1}, 5))
	assert.Equal(t, 0, direction([]int64{1, 2, 1}, 5))
	assert.Equal(t, 0, direction([]int64{7}, 5))
	// Only the window's most recent deltas vote.
	assert.Equal(t, -1, direction([]int64{1, 2, 3, 4, 3, 2, 1}, 3))
}

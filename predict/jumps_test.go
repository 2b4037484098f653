package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJumpAware_LearnsFromHistory(t *testing.T) {
	t.Parallel()

	p := NewJumpAware[int64]([]int{-5, -1, 1, 5})
	// The user keeps stepping +1 with the odd +5 skip.
	hist := []int64{1, 2, 3, 4, 9, 10, 11, 12}
	got := p.Likelihoods(12, hist)

	require.Contains(t, got, int64(13))
	require.Contains(t, got, int64(17))
	assert.Greater(t, got[13], got[17], "+1 is observed more often than +5")
	// Unseen jumps still get a smoothed, non-zero score.
	assert.Greater(t, got[7], 0.0)
	assert.Greater(t, got[13], got[7])
}

func TestJumpAware_NoHistory(t *testing.T) {
	t.Parallel()

	p := NewJumpAware[int64]([]int{-1, 1})
	got := p.Likelihoods(10, nil)

	require.Len(t, got, 2)
	assert.InDelta(t, got[9], got[11], 1e-9, "uniform without evidence")
}

func TestJumpAware_SkipsUnderflowingTargets(t *testing.T) {
	t.Parallel()

	p := NewJumpAware[int64]([]int{-5, 1})
	got := p.Likelihoods(2, nil)

	assert.NotContains(t, got, int64(-3))
	assert.Contains(t, got, int64(3))
}

func TestJumpAware_EmptyJumps(t *testing.T) {
	t.Parallel()

	p := NewJumpAware[int64](nil)
	assert.Empty(t, p.Likelihoods(5, []int64{1, 2}))

	p = NewJumpAware[int64]([]int{0})
	assert.Empty(t, p.Likelihoods(5, nil))
}

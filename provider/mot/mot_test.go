package mot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleData = `1,1,100,200,50,75,0.9,125,237
1,2,200,300,60,80,0.8,230,340
2,1,105,205,50,75,0.85,130,242
2,2,205,305,60,80,0.75,235,345
3,1,110,210,50,75,0.9,135,247
`

func writeTemp(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mot.txt")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestProvider_IndexAndLoad(t *testing.T) {
	t.Parallel()

	p, err := Open(writeTemp(t, sampleData), 16)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 3, p.TotalKeys())
	assert.Equal(t, map[int64]struct{}{1: {}, 2: {}, 3: {}}, p.AvailableKeys())

	fd, err := p.Load(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, fd.Detections, 2)
	assert.Equal(t, int64(1), fd.FrameNumber)

	d := fd.Detections[0]
	assert.Equal(t, int64(1), d.TrackID)
	assert.Equal(t, 100.0, d.BBLeft)
	assert.Equal(t, 200.0, d.BBTop)
	assert.Equal(t, 50.0, d.BBWidth)
	assert.Equal(t, 75.0, d.BBHeight)
	assert.InDelta(t, 0.9, d.Confidence, 1e-9)
	assert.Equal(t, 125.0, d.X)
	assert.Equal(t, 237.0, d.Y)
	assert.Equal(t, 0.0, d.Z)

	fd3, err := p.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, fd3.Detections, 1)
}

func TestProvider_FrameNotFound(t *testing.T) {
	t.Parallel()

	p, err := Open(writeTemp(t, sampleData), 16)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Load(context.Background(), 99)
	assert.ErrorIs(t, err, ErrFrameNotFound)
}

func TestProvider_ParseCache(t *testing.T) {
	t.Parallel()

	p, err := Open(writeTemp(t, sampleData), 16)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Load(context.Background(), 2)
	require.NoError(t, err)
	_, err = p.Load(context.Background(), 2)
	require.NoError(t, err)

	st := p.Stats()
	assert.EqualValues(t, 2, st["load_calls"])
	assert.EqualValues(t, 1, st["parse_cache_hits"])
}

func TestProvider_SkipsCommentsAndBlanks(t *testing.T) {
	t.Parallel()

	data := "# detections export\n\n" + sampleData
	p, err := Open(writeTemp(t, data), 16)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 3, p.TotalKeys())
}

func TestProvider_TenFieldFormat(t *testing.T) {
	t.Parallel()

	p, err := Open(writeTemp(t, "4,7,10,20,30,40,0.5,25,40,3.5\n"), 16)
	require.NoError(t, err)
	defer p.Close()

	fd, err := p.Load(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, fd.Detections, 1)
	assert.Equal(t, 3.5, fd.Detections[0].Z)
}

func TestProvider_BadFrameNumber(t *testing.T) {
	t.Parallel()

	_, err := Open(writeTemp(t, "nope,1,1,1,1,1,1,1,1\n"), 16)
	assert.Error(t, err)
}

func TestProvider_ContextCancelled(t *testing.T) {
	t.Parallel()

	p, err := Open(writeTemp(t, sampleData), 16)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Load(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	cfg := GenConfig{Frames: 50, Tracks: 5, Seed: 9}
	var a, b bytes.Buffer
	require.NoError(t, Generate(&a, cfg))
	require.NoError(t, Generate(&b, cfg))
	assert.Equal(t, a.String(), b.String())
}

func TestGenerate_RoundTripsThroughProvider(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gen.txt")
	require.NoError(t, GenerateFile(path, GenConfig{Frames: 100, Tracks: 8, Seed: 3}))

	p, err := Open(path, 32)
	require.NoError(t, err)
	defer p.Close()

	require.Greater(t, p.TotalKeys(), 0)
	assert.LessOrEqual(t, p.TotalKeys(), 100)

	for frame := range p.AvailableKeys() {
		fd, err := p.Load(context.Background(), frame)
		require.NoError(t, err)
		require.NotEmpty(t, fd.Detections)
		for _, d := range fd.Detections {
			assert.GreaterOrEqual(t, d.Confidence, 0.1)
			assert.LessOrEqual(t, d.Confidence, 1.0)
		}
	}

	require.NoError(t, p.Close())
}

func TestGenerate_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.Error(t, Generate(&buf, GenConfig{Frames: 0, Tracks: 1}))
	assert.Error(t, Generate(&buf, GenConfig{Frames: 1, Tracks: 0}))
}

package mot

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
)

// GenConfig parameterizes synthetic MOT data generation.
type GenConfig struct {
	Frames int     // number of frames, starting at 1
	Tracks int     // number of object tracks
	Width  float64 // scene width in pixels
	Height float64 // scene height in pixels
	Seed   int64   // RNG seed; same seed, same file
}

// track holds movement parameters for one synthetic object.
type track struct {
	id         int64
	startFrame int64
	endFrame   int64
	startX     float64
	startY     float64
	velX       float64
	velY       float64
	width      float64
	height     float64
	baseConf   float64
}

// Generate writes synthetic MOT data to w: linear tracks with positional
// noise and a confidence that drifts sinusoidally around its base, the
// shape real tracker output tends to have. Frames are emitted in ascending
// order so the file indexes into contiguous spans.
func Generate(w io.Writer, cfg GenConfig) error {
	if cfg.Frames < 1 {
		return fmt.Errorf("mot: Frames must be >= 1")
	}
	if cfg.Tracks < 1 {
		return fmt.Errorf("mot: Tracks must be >= 1")
	}
	if cfg.Width <= 0 {
		cfg.Width = 1920
	}
	if cfg.Height <= 0 {
		cfg.Height = 1080
	}
	r := rand.New(rand.NewSource(cfg.Seed))

	tracks := make([]track, cfg.Tracks)
	for i := range tracks {
		start := int64(r.Intn(cfg.Frames)) + 1
		length := int64(r.Intn(cfg.Frames)) + 1
		end := start + length
		if end > int64(cfg.Frames) {
			end = int64(cfg.Frames)
		}
		tracks[i] = track{
			id:         int64(i) + 1,
			startFrame: start,
			endFrame:   end,
			startX:     r.Float64() * cfg.Width,
			startY:     r.Float64() * cfg.Height,
			velX:       (r.Float64() - 0.5) * 8,
			velY:       (r.Float64() - 0.5) * 8,
			width:      20 + r.Float64()*80,
			height:     40 + r.Float64()*120,
			baseConf:   0.5 + r.Float64()*0.4,
		}
	}

	bw := bufio.NewWriter(w)
	for frame := int64(1); frame <= int64(cfg.Frames); frame++ {
		for _, t := range tracks {
			if frame < t.startFrame || frame > t.endFrame {
				continue
			}
			dt := float64(frame - t.startFrame)
			x := t.startX + t.velX*dt + (r.Float64()-0.5)*4
			y := t.startY + t.velY*dt + (r.Float64()-0.5)*4
			conf := t.baseConf + 0.1*math.Sin(float64(frame)*0.1) + (r.Float64()-0.5)*0.1
			conf = math.Max(0.1, math.Min(1.0, conf))
			cx := x + t.width/2
			cy := y + t.height/2
			if _, err := fmt.Fprintf(bw, "%d,%d,%.1f,%.1f,%.1f,%.1f,%.2f,%.1f,%.1f\n",
				frame, t.id, x, y, t.width, t.height, conf, cx, cy); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// GenerateFile is Generate targeting a file path.
func GenerateFile(path string, cfg GenConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Generate(f, cfg); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

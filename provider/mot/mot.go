// Package mot loads Multiple Object Tracking detection data from the
// plain-text interchange format used by tracking pipelines: one detection
// per line,
//
//	frame,track_id,bb_left,bb_top,bb_width,bb_height,confidence,x,y[,z]
//
// The file is indexed once at Open (byte ranges per frame number) and
// individual frames are parsed on demand, with a bounded LRU of parsed
// frames in front of the file.
package mot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/IvanBrykalov/prefetchcache/cache"
)

// ErrFrameNotFound is returned by Load for frames absent from the file.
var ErrFrameNotFound = errors.New("mot: frame not found")

// Detection is one tracked object in one frame.
type Detection struct {
	TrackID    int64
	BBLeft     float64
	BBTop      float64
	BBWidth    float64
	BBHeight   float64
	Confidence float64
	X, Y, Z    float64
}

// FrameData is every detection of a single frame.
type FrameData struct {
	FrameNumber int64
	Detections  []Detection
}

// span is a contiguous byte range of the file holding one frame's lines.
type span struct {
	off, n int64
}

// Provider reads frames from a MOT text file. Safe for concurrent use:
// reads go through pread-style ReadAt and the parsed-frame cache is
// internally synchronized.
type Provider struct {
	path  string
	f     *os.File
	index map[int64][]span
	cache *lru.Cache[int64, *FrameData]

	loadCalls atomic.Int64
	parseHits atomic.Int64
}

// DefaultCacheSize bounds the parsed-frame LRU when Open is given 0.
const DefaultCacheSize = 128

// Open indexes the file at path and returns a provider. cacheSize bounds
// the internal LRU of parsed frames (0 = DefaultCacheSize).
func Open(path string, cacheSize int) (*Provider, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mot: open: %w", err)
	}
	index, err := buildIndex(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	c, err := lru.New[int64, *FrameData](cacheSize)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Provider{path: path, f: f, index: index, cache: c}, nil
}

// buildIndex scans the file once, recording the byte ranges of each
// frame's lines. Lines of the same frame are usually contiguous; spans are
// merged where they are, and frames scattered through the file simply get
// several spans.
func buildIndex(f *os.File) (map[int64][]span, error) {
	index := make(map[int64][]span)
	r := bufio.NewReaderSize(f, 1<<16)
	var off int64
	for {
		line, err := r.ReadString('\n')
		n := int64(len(line))
		if n > 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				frameField, _, ok := strings.Cut(trimmed, ",")
				if !ok {
					return nil, fmt.Errorf("mot: malformed line at offset %d", off)
				}
				frame, perr := strconv.ParseInt(strings.TrimSpace(frameField), 10, 64)
				if perr != nil {
					return nil, fmt.Errorf("mot: bad frame number at offset %d: %w", off, perr)
				}
				spans := index[frame]
				if len(spans) > 0 && spans[len(spans)-1].off+spans[len(spans)-1].n == off {
					spans[len(spans)-1].n += n
				} else {
					spans = append(spans, span{off: off, n: n})
				}
				index[frame] = spans
			}
			off += n
		}
		if err != nil {
			break
		}
	}
	return index, nil
}

// Load implements cache.Provider. It parses and returns one frame's
// detections, serving repeated loads of hot frames from the internal LRU.
func (p *Provider) Load(ctx context.Context, frame int64) (*FrameData, error) {
	p.loadCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fd, ok := p.cache.Get(frame); ok {
		p.parseHits.Add(1)
		return fd, nil
	}
	spans, ok := p.index[frame]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrFrameNotFound, frame)
	}

	fd := &FrameData{FrameNumber: frame}
	for _, sp := range spans {
		buf := make([]byte, sp.n)
		if _, err := p.f.ReadAt(buf, sp.off); err != nil {
			return nil, fmt.Errorf("mot: read frame %d: %w", frame, err)
		}
		for _, line := range strings.Split(string(buf), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			det, lineFrame, err := parseLine(line)
			if err != nil {
				return nil, fmt.Errorf("mot: frame %d: %w", frame, err)
			}
			if lineFrame != frame {
				continue
			}
			fd.Detections = append(fd.Detections, det)
		}
	}
	p.cache.Add(frame, fd)
	return fd, nil
}

// parseLine decodes one detection line. The z coordinate is optional.
func parseLine(line string) (Detection, int64, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 9 && len(fields) != 10 {
		return Detection{}, 0, fmt.Errorf("want 9 or 10 fields, got %d", len(fields))
	}
	frame, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return Detection{}, 0, fmt.Errorf("frame: %w", err)
	}
	trackID, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return Detection{}, 0, fmt.Errorf("track id: %w", err)
	}
	vals := make([]float64, 0, 8)
	for _, f := range fields[2:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Detection{}, 0, fmt.Errorf("field %q: %w", f, err)
		}
		vals = append(vals, v)
	}
	det := Detection{
		TrackID:    trackID,
		BBLeft:     vals[0],
		BBTop:      vals[1],
		BBWidth:    vals[2],
		BBHeight:   vals[3],
		Confidence: vals[4],
		X:          vals[5],
		Y:          vals[6],
	}
	if len(vals) == 8 {
		det.Z = vals[7]
	}
	return det, frame, nil
}

// AvailableKeys implements cache.Provider.
func (p *Provider) AvailableKeys() map[int64]struct{} {
	out := make(map[int64]struct{}, len(p.index))
	for frame := range p.index {
		out[frame] = struct{}{}
	}
	return out
}

// TotalKeys implements cache.Provider.
func (p *Provider) TotalKeys() int { return len(p.index) }

// Stats implements cache.Provider.
func (p *Provider) Stats() map[string]any {
	return map[string]any{
		"path":             p.path,
		"total_frames":     len(p.index),
		"load_calls":       p.loadCalls.Load(),
		"parse_cache_hits": p.parseHits.Load(),
		"parse_cache_len":  p.cache.Len(),
	}
}

// Close releases the underlying file. Loads after Close fail, except for
// frames still held in the parsed-frame cache, which are served from it.
func (p *Provider) Close() error { return p.f.Close() }

// Compile-time check: Provider satisfies the cache contract.
var _ cache.Provider[int64, *FrameData] = (*Provider)(nil)

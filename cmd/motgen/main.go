// Command motgen writes a synthetic MOT detection file for testing and
// benchmarking the cache.
package main

import (
	"flag"
	"log"

	"github.com/IvanBrykalov/prefetchcache/provider/mot"
)

func main() {
	var (
		out    = flag.String("out", "mot_data.txt", "output file")
		frames = flag.Int("frames", 10_000, "number of frames")
		tracks = flag.Int("tracks", 50, "number of object tracks")
		width  = flag.Float64("width", 1920, "scene width")
		height = flag.Float64("height", 1080, "scene height")
		seed   = flag.Int64("seed", 1, "random seed")
	)
	flag.Parse()

	cfg := mot.GenConfig{
		Frames: *frames,
		Tracks: *tracks,
		Width:  *width,
		Height: *height,
		Seed:   *seed,
	}
	if err := mot.GenerateFile(*out, cfg); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d frames, %d tracks to %s", *frames, *tracks, *out)
}

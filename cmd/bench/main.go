// Command bench replays an access pattern against the prefetching cache
// and reports hit rate and counters, with optional Prometheus/pprof
// endpoints. The workload can be described by flags or a yaml config.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/IvanBrykalov/prefetchcache/cache"
	pmet "github.com/IvanBrykalov/prefetchcache/metrics/prom"
	"github.com/IvanBrykalov/prefetchcache/policy"
	"github.com/IvanBrykalov/prefetchcache/policy/largest"
	"github.com/IvanBrykalov/prefetchcache/policy/oldest"
	"github.com/IvanBrykalov/prefetchcache/policy/smallest"
	"github.com/IvanBrykalov/prefetchcache/predict"
	"github.com/IvanBrykalov/prefetchcache/provider/mot"
)

// navSteps are the navigation jumps of a typical review UI; they drive
// both the "jumps" workload and the jump-aware predictor.
var navSteps = []int{-15, -5, -1, 1, 5, 15}

// config describes one bench run. Yaml fields mirror the flags; a value
// present in the file overrides the corresponding flag.
type config struct {
	Data      string        `yaml:"data"`      // MOT file; empty = generate synthetic data
	Frames    int           `yaml:"frames"`    // synthetic data size
	Tracks    int           `yaml:"tracks"`    // synthetic data tracks
	Cached    int           `yaml:"cached"`    // resident entry cap
	Prefetch  int           `yaml:"prefetch"`  // in-flight prefetch cap
	History   int           `yaml:"history"`   // history size
	Policy    string        `yaml:"policy"`    // oldest | largest | smallest
	Predictor string        `yaml:"predictor"` // distance | dynamic | jumps | none
	Pattern   string        `yaml:"pattern"`   // sequential | jumps | random
	Clients   int           `yaml:"clients"`   // concurrent access loops
	Ops       int           `yaml:"ops"`       // accesses per client
	Think     time.Duration `yaml:"-"`         // delay between accesses; flag-only
	Seed      int64         `yaml:"seed"`
}

func main() {
	var (
		cfgPath     = flag.String("config", "", "yaml config file (overrides other flags)")
		metricsAddr = flag.String("http", "", "serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	cfg := config{
		Frames:    5_000,
		Tracks:    40,
		Cached:    256,
		Prefetch:  8,
		History:   30,
		Policy:    "oldest",
		Predictor: "jumps",
		Pattern:   "jumps",
		Clients:   1,
		Ops:       20_000,
		Seed:      1,
	}
	flag.StringVar(&cfg.Data, "data", cfg.Data, "MOT data file (empty = synthesize)")
	flag.IntVar(&cfg.Frames, "frames", cfg.Frames, "synthetic frames")
	flag.IntVar(&cfg.Tracks, "tracks", cfg.Tracks, "synthetic tracks")
	flag.IntVar(&cfg.Cached, "cached", cfg.Cached, "resident entry cap")
	flag.IntVar(&cfg.Prefetch, "prefetch", cfg.Prefetch, "in-flight prefetch cap")
	flag.IntVar(&cfg.History, "history", cfg.History, "access history size")
	flag.StringVar(&cfg.Policy, "policy", cfg.Policy, "eviction policy: oldest | largest | smallest")
	flag.StringVar(&cfg.Predictor, "predictor", cfg.Predictor, "predictor: distance | dynamic | jumps | none")
	flag.StringVar(&cfg.Pattern, "pattern", cfg.Pattern, "access pattern: sequential | jumps | random")
	flag.IntVar(&cfg.Clients, "clients", cfg.Clients, "concurrent access loops")
	flag.IntVar(&cfg.Ops, "ops", cfg.Ops, "accesses per client")
	flag.DurationVar(&cfg.Think, "think", cfg.Think, "delay between accesses")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.Parse()

	logCfg := zap.NewProductionConfig()
	if *verbose {
		logCfg = zap.NewDevelopmentConfig()
	}
	log, err := logCfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if *cfgPath != "" {
		raw, err := os.ReadFile(*cfgPath)
		if err != nil {
			log.Fatal("read config", zap.Error(err))
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Fatal("parse config", zap.Error(err))
		}
	}

	if *pprofAddr != "" {
		go func() {
			log.Info("pprof listening", zap.String("addr", *pprofAddr))
			log.Warn("pprof server stopped", zap.Error(http.ListenAndServe(*pprofAddr, nil)))
		}()
	}

	// ---- Data ----
	dataPath := cfg.Data
	if dataPath == "" {
		dataPath = filepath.Join(os.TempDir(), fmt.Sprintf("prefetchcache-bench-%d.txt", cfg.Seed))
		log.Info("generating synthetic MOT data",
			zap.String("path", dataPath), zap.Int("frames", cfg.Frames), zap.Int("tracks", cfg.Tracks))
		if err := mot.GenerateFile(dataPath, mot.GenConfig{
			Frames: cfg.Frames, Tracks: cfg.Tracks, Seed: cfg.Seed,
		}); err != nil {
			log.Fatal("generate data", zap.Error(err))
		}
		defer os.Remove(dataPath)
	}
	prov, err := mot.Open(dataPath, 256)
	if err != nil {
		log.Fatal("open provider", zap.Error(err))
	}
	defer prov.Close()

	frames := make([]int64, 0, prov.TotalKeys())
	for f := range prov.AvailableKeys() {
		frames = append(frames, f)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	if len(frames) == 0 {
		log.Fatal("no frames in data file")
	}

	// ---- Strategies ----
	var pol policy.Policy[int64]
	switch cfg.Policy {
	case "oldest":
		pol = oldest.New[int64]()
	case "largest":
		pol = largest.New[int64]()
	case "smallest":
		pol = smallest.New[int64]()
	default:
		log.Fatal("unknown policy", zap.String("policy", cfg.Policy))
	}

	var pred cache.Predictor[int64]
	switch cfg.Predictor {
	case "distance":
		pred = predict.NewDistanceDecay[int64](cfg.Prefetch, 0.7, 0.5)
	case "dynamic":
		pred = predict.NewDynamicDistanceDecay[int64](cfg.Prefetch, 0.7, 0.3)
	case "jumps":
		pred = predict.NewJumpAware[int64](navSteps)
	case "none":
	default:
		log.Fatal("unknown predictor", zap.String("predictor", cfg.Predictor))
	}

	// ---- Metrics ----
	var metrics cache.Metrics
	if *metricsAddr != "" {
		metrics = pmet.New(nil, "prefetchcache", "bench", nil)
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Info("metrics listening", zap.String("addr", *metricsAddr))
			log.Warn("metrics server stopped", zap.Error(http.ListenAndServe(*metricsAddr, nil)))
		}()
	}

	// ---- Cache ----
	c := cache.New[int64, *mot.FrameData](cache.Options[int64, *mot.FrameData]{
		Provider:          prov,
		Predictor:         pred,
		MaxKeysCached:     cfg.Cached,
		MaxKeysPrefetched: cfg.Prefetch,
		HistorySize:       cfg.History,
		Policy:            pol,
		Cost: func(fd *mot.FrameData) int64 {
			return int64(len(fd.Detections))
		},
		Metrics: metrics,
		Logger:  log,
	})
	defer c.Close()

	// ---- Workload ----
	start := time.Now()
	g, ctx := errgroup.WithContext(context.Background())
	for id := 0; id < cfg.Clients; id++ {
		id := id
		g.Go(func() error {
			r := rand.New(rand.NewSource(cfg.Seed + int64(id)*9973))
			pos := 0
			for i := 0; i < cfg.Ops; i++ {
				switch cfg.Pattern {
				case "sequential":
					pos = (pos + 1) % len(frames)
				case "jumps":
					step := navSteps[r.Intn(len(navSteps))]
					// Bias toward forward playback, like a real review session.
					if r.Intn(100) < 60 {
						step = 1
					}
					pos += step
					if pos < 0 {
						pos = 0
					}
					if pos >= len(frames) {
						pos = len(frames) - 1
					}
				case "random":
					pos = r.Intn(len(frames))
				default:
					return fmt.Errorf("unknown pattern %q", cfg.Pattern)
				}
				if _, err := c.Get(ctx, frames[pos]); err != nil {
					return err
				}
				if cfg.Think > 0 {
					time.Sleep(cfg.Think)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal("workload failed", zap.Error(err))
	}
	elapsed := time.Since(start)

	// ---- Report ----
	st := c.Stats()
	total := st.Hits + st.Misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(st.Hits) / float64(total) * 100
	}
	fmt.Printf("pattern=%s predictor=%s policy=%s cached=%d prefetch=%d clients=%d dur=%v\n",
		cfg.Pattern, cfg.Predictor, cfg.Policy, cfg.Cached, cfg.Prefetch, cfg.Clients, elapsed)
	fmt.Printf("gets=%d (%.0f ops/s)  hits=%d  misses=%d  hit-rate=%.2f%%\n",
		total, float64(total)/elapsed.Seconds(), st.Hits, st.Misses, hitRate)
	fmt.Printf("prefetch: issued=%d completed=%d cancelled=%d errors=%d\n",
		st.PrefetchIssued, st.PrefetchCompleted, st.PrefetchCancelled, st.PrefetchErrors)
	fmt.Printf("evictions=%d resident=%d provider=%v\n", st.Evictions, c.Len(), prov.Stats())
}

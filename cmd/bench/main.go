// Command bench drives a synthetic block-read workload against the cache and
// optionally exposes pprof and Prometheus endpoints.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/blockcache/cache"
	"github.com/IvanBrykalov/blockcache/metrics/prom"
)

// config is filled from flags (and BENCH_* environment variables).
type config struct {
	capacity  int
	shards    int
	blockSize int
	workers   int
	duration  time.Duration
	readPct   int
	files     int
	blocks    int
	zipfS     float64
	zipfV     float64
	seed      int64
	pprofAddr string
	httpAddr  string
	verbose   bool
}

func main() {
	var cfg config
	app := &cli.App{
		Name:  "bench",
		Usage: "synthetic block cache workload (zipf-distributed block reads)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "cap", Value: 64 << 20, Usage: "cache capacity in bytes", EnvVars: []string{"BENCH_CAP"}, Destination: &cfg.capacity},
			&cli.IntFlag{Name: "shards", Value: 1, Usage: "number of shards (1 = strict LRU, -1 = auto)", EnvVars: []string{"BENCH_SHARDS"}, Destination: &cfg.shards},
			&cli.IntFlag{Name: "block-size", Value: 4096, Usage: "nominal block size in bytes; actual sizes vary ±50%", Destination: &cfg.blockSize},
			&cli.IntFlag{Name: "workers", Value: 2 * runtime.GOMAXPROCS(0), Usage: "number of worker goroutines", EnvVars: []string{"BENCH_WORKERS"}, Destination: &cfg.workers},
			&cli.DurationFlag{Name: "duration", Value: 10 * time.Second, Usage: "benchmark duration", Destination: &cfg.duration},
			&cli.IntFlag{Name: "reads", Value: 80, Usage: "read percentage [0..100]", Destination: &cfg.readPct},
			&cli.IntFlag{Name: "files", Value: 64, Usage: "number of table files", Destination: &cfg.files},
			&cli.IntFlag{Name: "blocks", Value: 4096, Usage: "blocks per file", Destination: &cfg.blocks},
			&cli.Float64Flag{Name: "zipf-s", Value: 1.1, Usage: "zipf s > 1 (skew)", Destination: &cfg.zipfS},
			&cli.Float64Flag{Name: "zipf-v", Value: 1.0, Usage: "zipf v >= 1", Destination: &cfg.zipfV},
			&cli.Int64Flag{Name: "seed", Value: time.Now().UnixNano(), Usage: "random seed", Destination: &cfg.seed},
			&cli.StringFlag{Name: "pprof", Usage: "serve pprof at addr (e.g. :6060); empty = disabled", Destination: &cfg.pprofAddr},
			&cli.StringFlag{Name: "http", Value: ":8080", Usage: "serve Prometheus metrics at addr; empty = disabled", EnvVars: []string{"BENCH_HTTP"}, Destination: &cfg.httpAddr},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging", Destination: &cfg.verbose},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, cfg)
		},
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("bench failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.workers <= 0 {
		cfg.workers = 1
	}
	if cfg.files <= 0 || cfg.blocks <= 0 || cfg.blockSize <= 0 {
		return errors.New("files, blocks and block-size must be positive")
	}
	if cfg.zipfS <= 1 || cfg.zipfV < 1 {
		return errors.Errorf("zipf-s must be > 1 and zipf-v >= 1, got %v/%v", cfg.zipfS, cfg.zipfV)
	}

	if cfg.pprofAddr != "" {
		go serve(logger, "pprof", cfg.pprofAddr)
	}
	var metrics cache.Metrics
	if cfg.httpAddr != "" {
		metrics = prom.New(nil, "blockcache", "bench", nil)
		http.Handle("/metrics", promhttp.Handler())
		go serve(logger, "metrics", cfg.httpAddr)
	}

	c := cache.New[cache.BlockKey, []byte](cache.Options[cache.BlockKey, []byte]{
		Capacity: cfg.capacity,
		Shards:   cfg.shards,
		Metrics:  metrics,
		Logger:   logger,
	})
	defer func() { _ = c.Close() }()

	// One shared block per size class: the bench measures the cache, not the allocator.
	sizes := make([][]byte, 16)
	for i := range sizes {
		sizes[i] = make([]byte, cfg.blockSize/2+i*cfg.blockSize/len(sizes))
	}

	var reads, writes, hits atomic.Uint64
	ctx, cancel := context.WithTimeout(ctx, cfg.duration)
	defer cancel()

	keys := uint64(cfg.files) * uint64(cfg.blocks)
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.workers; w++ {
		g.Go(func() error {
			// rand.Rand is not goroutine-safe: one stream per worker.
			r := rand.New(rand.NewSource(cfg.seed + int64(w)*9973))
			zipf := rand.NewZipf(r, cfg.zipfS, cfg.zipfV, keys-1)
			for ctx.Err() == nil {
				n := zipf.Uint64()
				k := cache.BlockKey{
					FileNumber:  n / uint64(cfg.blocks),
					BlockOffset: (n % uint64(cfg.blocks)) * uint64(cfg.blockSize),
				}
				if r.Intn(100) < cfg.readPct {
					reads.Add(1)
					if _, ok := c.Get(k); ok {
						hits.Add(1)
						continue
					}
				}
				// Miss or write: "read" the block from storage and cache it.
				writes.Add(1)
				b := sizes[n%uint64(len(sizes))]
				c.Insert(k, b, len(b))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := c.Stats()
	readsN, writesN := reads.Load(), writes.Load()
	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hits.Load()) / float64(readsN) * 100
	}
	logger.Info("bench done",
		"elapsed", elapsed,
		"workers", cfg.workers,
		"shards", cfg.shards,
		"ops_per_sec", fmt.Sprintf("%.0f", float64(readsN+writesN)/elapsed.Seconds()),
		"reads", readsN,
		"inserts", writesN,
		"hit_rate_pct", fmt.Sprintf("%.2f", hitRate),
		"evictions", st.Evictions,
		"entries", c.Len(),
		"charge", c.TotalCharge(),
		"capacity", c.Capacity(),
		"seed", cfg.seed,
	)
	return nil
}

func serve(logger *slog.Logger, what, addr string) {
	logger.Info("serving", "what", what, "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Error("http server stopped", "what", what, "err", err)
	}
}

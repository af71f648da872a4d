package abruijn

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/hupe1980/abruijn/sequence"
)

// DefaultK is the k-mer length used when none is configured.
const DefaultK = 21

// Config holds the settings shared by both constructions.
type Config struct {
	// K is the k-mer length.
	K int
	// Workers bounds the concurrently running tasks of an index build and
	// the number of read shards. Defaults to GOMAXPROCS.
	Workers int
	// WorkDir receives the index files. Required by BuildExtensionIndex.
	WorkDir string
	// ReadLimit caps the reads processed per pass. Zero means no limit.
	ReadLimit int
}

// DefaultConfig returns the configuration used when no option overrides it.
func DefaultConfig() Config {
	return Config{
		K:       DefaultK,
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Validate rejects a k outside 1..sequence.MaxK, fewer than one worker and a
// negative read limit.
func (c Config) Validate() error {
	return c.validate(sequence.MaxK)
}

func (c Config) validate(maxK int) error {
	if c.K < 1 || c.K > maxK {
		return &ErrInvalidK{K: c.K, Max: maxK}
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.ReadLimit < 0 {
		return fmt.Errorf("%w: negative read limit %d", ErrInvalidConfig, c.ReadLimit)
	}
	return nil
}

type options struct {
	Config

	logger           *Logger
	metricsCollector MetricsCollector
	compression      string
	memoryLimit      int64
	ioLimit          int64
	canonical        bool
	buckets          int
	condense         bool
	progress         int
}

// Option configures BuildGraph and BuildExtensionIndex.
type Option func(*options)

// WithConfig replaces the whole Config.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.Config = cfg
	}
}

// WithK sets the k-mer length.
func WithK(k int) Option {
	return func(o *options) {
		o.K = k
	}
}

// WithWorkers sets the worker count of an index build.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.Workers = n
	}
}

// WithWorkDir sets the directory an index is built in.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		o.WorkDir = dir
	}
}

// WithReadLimit processes at most n reads per pass.
func WithReadLimit(n int) Option {
	return func(o *options) {
		o.ReadLimit = n
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := abruijn.NewJSONLogger(slog.LevelInfo)
//	g, _, _ := abruijn.BuildGraph(ctx, stream, abruijn.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for passes and stages.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &abruijn.BasicMetricsCollector{}
//	_, _ = abruijn.BuildExtensionIndex(ctx, stream, abruijn.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithCompression selects the bucket file compression: "none", "lz4"
// (default) or "zstd".
func WithCompression(name string) Option {
	return func(o *options) {
		o.compression = name
	}
}

// WithMemoryLimit caps the k-mer buffer memory of an index build. Shards
// spill to disk earlier when the limit is reached.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles bucket file writes to bytesPerSec.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithCanonical stores every k-mer of the index in canonical orientation
// only. Masks are still reported oriented to the queried k-mer.
func WithCanonical(enabled bool) Option {
	return func(o *options) {
		o.canonical = enabled
	}
}

// WithBuckets sets the number of hash partitions of an index build.
func WithBuckets(n int) Option {
	return func(o *options) {
		o.buckets = n
	}
}

// WithCondense merges unbranched chains after BuildGraph.
func WithCondense(enabled bool) Option {
	return func(o *options) {
		o.condense = enabled
	}
}

// WithProgressInterval logs graph build progress every n reads.
func WithProgressInterval(n int) Option {
	return func(o *options) {
		o.progress = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		Config:           DefaultConfig(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

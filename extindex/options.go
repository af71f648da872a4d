package extindex

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/hupe1980/abruijn/internal/bucket"
	"github.com/hupe1980/abruijn/internal/fs"
	"github.com/hupe1980/abruijn/internal/hash"
	"github.com/hupe1980/abruijn/internal/resource"
	"github.com/hupe1980/abruijn/sequence"
)

const (
	// DefaultBuckets is the number of hash partitions.
	DefaultBuckets = 64
	// MaxK is the largest k for which a (k+1)-mer still fits a sequence.Kmer.
	MaxK = sequence.MaxK - 1
)

// StageObserver receives the duration and outcome of every stage.
type StageObserver interface {
	RecordStage(stage string, d time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) RecordStage(string, time.Duration, error) {}

// Options configures Build.
type Options struct {
	// K is the k-mer length, 1 <= K <= MaxK.
	K int
	// Workers bounds the tasks running at once in every stage.
	// Defaults to GOMAXPROCS.
	Workers int
	// Buckets is the number of hash partitions. Defaults to DefaultBuckets.
	Buckets int
	// Seed of the partition hash. Defaults to hash.DefaultSeed.
	Seed uint64
	// Canonical stores each k-mer once in its canonical orientation.
	// Otherwise both orientations of every (k+1)-mer are indexed.
	Canonical bool
	// Compression of the intermediate files ("none", "lz4", "zstd").
	// Defaults to lz4.
	Compression string
	// IndexCompression of the final index files. Defaults to Compression.
	IndexCompression string
	// BufferBytes caps the buffered k-mers of one shard before it spills.
	BufferBytes int64
	// KeepIntermediate keeps the kp1 and k bucket files after the build.
	KeepIntermediate bool

	FS         fs.FileSystem
	Controller *resource.Controller
	Logger     *slog.Logger
	Observer   StageObserver
}

func (o *Options) validate() error {
	if o.K < 1 || o.K > MaxK {
		return fmt.Errorf("%w: k=%d, want 1..%d", ErrInvalidOptions, o.K, MaxK)
	}
	if o.Workers < 0 || o.Buckets < 0 || o.BufferBytes < 0 {
		return fmt.Errorf("%w: negative workers, buckets or buffer size", ErrInvalidOptions)
	}
	return nil
}

func (o *Options) setDefaults() {
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Buckets == 0 {
		o.Buckets = DefaultBuckets
	}
	if o.Seed == 0 {
		o.Seed = hash.DefaultSeed
	}
	if o.Compression == "" {
		o.Compression = bucket.CompressionLZ4.String()
	}
	if o.IndexCompression == "" {
		o.IndexCompression = o.Compression
	}
	if o.FS == nil {
		o.FS = fs.Default
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Observer == nil {
		o.Observer = noopObserver{}
	}
}

func (o *Options) compressions() (inter, final bucket.Compression, err error) {
	if inter, err = bucket.ParseCompression(o.Compression); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if final, err = bucket.ParseCompression(o.IndexCompression); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return inter, final, nil
}

package kmercount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/hupe1980/abruijn/internal/bucket"
	"github.com/hupe1980/abruijn/internal/fs"
	"github.com/hupe1980/abruijn/internal/hash"
	"github.com/hupe1980/abruijn/internal/resource"
)

const (
	entrySize = 16 // in-memory size of a bucket.KmerCount

	// DefaultChunkBytes is the size of one memory reservation.
	DefaultChunkBytes = 1 << 20
	// DefaultBufferBytes caps the buffered k-mers of one Spiller.
	DefaultBufferBytes = 64 << 20
)

// ErrClosed is returned when adding to a closed Spiller.
var ErrClosed = errors.New("kmercount: spiller closed")

// Options configures a Spiller.
type Options struct {
	FS          fs.FileSystem
	Dir         string
	Prefix      string // run files are named <Prefix>.b<bucket>.r<run>.run
	Buckets     int
	Seed        uint64
	K           int
	Compression bucket.Compression
	Controller  *resource.Controller
	ChunkBytes  int64
	BufferBytes int64
	Logger      *slog.Logger
}

func (o *Options) setDefaults() {
	if o.FS == nil {
		o.FS = fs.Default
	}
	if o.Buckets <= 0 {
		o.Buckets = 1
	}
	if o.Seed == 0 {
		o.Seed = hash.DefaultSeed
	}
	if o.ChunkBytes <= 0 {
		o.ChunkBytes = DefaultChunkBytes
	}
	if o.BufferBytes <= 0 {
		o.BufferBytes = DefaultBufferBytes
	}
	o.ChunkBytes = min(o.ChunkBytes, o.BufferBytes)
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// RunName returns the run file name for prefix, bucket and run number.
func RunName(prefix string, b, run int) string {
	return fmt.Sprintf("%s.b%03d.r%04d.run", prefix, b, run)
}

// Spiller partitions k-mers into buckets and spills them as sorted runs.
// It is not safe for concurrent use; each shard owns one.
type Spiller struct {
	opts     Options
	bufs     [][]bucket.KmerCount
	runs     [][]string
	buffered int64 // bytes held by bufs
	reserved int64 // bytes reserved from the controller
	spills   int
	closed   bool
}

// NewSpiller returns a Spiller writing into opts.Dir.
func NewSpiller(opts Options) *Spiller {
	opts.setDefaults()
	return &Spiller{
		opts: opts,
		bufs: make([][]bucket.KmerCount, opts.Buckets),
		runs: make([][]string, opts.Buckets),
	}
}

// Add records one occurrence of kmer.
func (s *Spiller) Add(ctx context.Context, kmer uint64) error {
	return s.AddCount(ctx, kmer, 1)
}

// AddCount records n occurrences of kmer.
func (s *Spiller) AddCount(ctx context.Context, kmer uint64, n uint32) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.reserve(ctx); err != nil {
		return err
	}
	b := hash.Bucket(kmer, s.opts.Seed, s.opts.Buckets)
	s.bufs[b] = append(s.bufs[b], bucket.KmerCount{Kmer: kmer, Count: n})
	s.buffered += entrySize
	return nil
}

// reserve makes room for one more entry, spilling when the reservation
// cannot grow.
func (s *Spiller) reserve(ctx context.Context) error {
	if next := s.buffered + entrySize; next <= s.reserved && next <= s.opts.BufferBytes {
		return nil
	}
	if s.buffered+entrySize <= s.opts.BufferBytes {
		if err := s.opts.Controller.AcquireMemory(s.opts.ChunkBytes); err == nil {
			s.reserved += s.opts.ChunkBytes
			return nil
		} else if !errors.Is(err, resource.ErrMemoryLimitExceeded) {
			return err
		}
	}
	if s.buffered > 0 {
		if err := s.Spill(ctx); err != nil {
			return err
		}
		if s.reserved >= entrySize {
			return nil
		}
	}
	// Nothing buffered and no reservation left: one chunk is required.
	if err := s.opts.Controller.AcquireMemory(s.opts.ChunkBytes); err != nil {
		return fmt.Errorf("kmercount: reserve %d bytes: %w", s.opts.ChunkBytes, err)
	}
	s.reserved += s.opts.ChunkBytes
	return nil
}

// Spill writes every non-empty bucket buffer as a run file and keeps the
// current reservation for reuse.
func (s *Spiller) Spill(ctx context.Context) error {
	for b, buf := range s.bufs {
		if len(buf) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		run := compact(buf)
		name := filepath.Join(s.opts.Dir, RunName(s.opts.Prefix, b, len(s.runs[b])))
		if err := writeRun(ctx, s.opts, name, run); err != nil {
			return err
		}
		s.runs[b] = append(s.runs[b], name)
		s.bufs[b] = buf[:0]
	}
	s.opts.Logger.Debug("Spilled runs", "prefix", s.opts.Prefix, "bytes", s.buffered, "spill", s.spills)
	s.spills++
	s.buffered = 0
	return nil
}

// Close spills the remaining buffers, releases the reservation and returns
// the run files per bucket.
func (s *Spiller) Close(ctx context.Context) ([][]string, error) {
	if s.closed {
		return s.runs, nil
	}
	err := s.Spill(ctx)
	s.release()
	if err != nil {
		return nil, err
	}
	return s.runs, nil
}

// Abort releases the reservation and deletes every run written so far.
func (s *Spiller) Abort() {
	s.release()
	for _, runs := range s.runs {
		for _, name := range runs {
			_ = s.opts.FS.Remove(name)
		}
	}
}

// Spills returns how often the buffers were written out.
func (s *Spiller) Spills() int { return s.spills }

func (s *Spiller) release() {
	s.closed = true
	s.bufs = nil
	s.opts.Controller.ReleaseMemory(s.reserved)
	s.reserved = 0
	s.buffered = 0
}

// compact sorts buf in place and sums the counts of equal k-mers.
func compact(buf []bucket.KmerCount) []bucket.KmerCount {
	slices.SortFunc(buf, func(a, b bucket.KmerCount) int {
		switch {
		case a.Kmer < b.Kmer:
			return -1
		case a.Kmer > b.Kmer:
			return 1
		}
		return 0
	})
	out := buf[:0]
	for _, kc := range buf {
		if n := len(out); n > 0 && out[n-1].Kmer == kc.Kmer {
			out[n-1].Count = addSaturating(out[n-1].Count, kc.Count)
			continue
		}
		out = append(out, kc)
	}
	return out
}

func writeRun(ctx context.Context, opts Options, name string, run []bucket.KmerCount) error {
	fw, err := bucket.Create(ctx, opts.FS, name, bucket.WriterOptions{
		RecordSize:  bucket.KmerCountSize,
		K:           opts.K,
		Compression: opts.Compression,
	}, opts.Controller)
	if err != nil {
		return err
	}
	for _, kc := range run {
		if err := fw.AppendKmerCount(kc); err != nil {
			fw.Abort()
			return err
		}
	}
	_, err = fw.Commit()
	return err
}

func addSaturating(a, b uint32) uint32 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint32(0)
}

package landmark

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/abruijn/graph"
	"github.com/hupe1980/abruijn/internal/hash"
	"github.com/hupe1980/abruijn/reads"
)

// Stats summarises one build.
type Stats struct {
	Reads        int    // reads and mates seen in the second pass
	ShortReads   int    // shorter than k, skipped in both passes
	InvalidReads int    // fewer than two distinct k-mer hashes, skipped in both passes
	Landmarks    uint64 // distinct landmark hashes
	Hits         int    // k-mer occurrences matching a landmark
	Edges        int    // AddEdge calls
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger for pass progress.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithProgressInterval logs progress every n reads. Zero disables it.
func WithProgressInterval(n int) Option {
	return func(b *Builder) { b.progress = n }
}

// Builder owns the landmark set of one build run and writes into a graph.
type Builder struct {
	g        *graph.Graph
	roller   *hash.Roller
	set      *Set
	logger   *slog.Logger
	progress int
	stats    Stats
	buf      []uint64
}

// NewBuilder creates a builder that populates g.
func NewBuilder(g *graph.Graph, opts ...Option) *Builder {
	b := &Builder{
		g:      g,
		roller: hash.NewRoller(g.K()),
		set:    NewSet(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Set returns the landmark set collected so far.
func (b *Builder) Set() *Set { return b.set }

// Stats returns the counters accumulated so far.
func (b *Builder) Stats() Stats { return b.stats }

// Build runs both passes, resetting the stream in between.
func (b *Builder) Build(ctx context.Context, s reads.Stream) (Stats, error) {
	if err := b.CollectLandmarks(ctx, s); err != nil {
		return b.stats, err
	}
	if err := s.Reset(); err != nil {
		return b.stats, fmt.Errorf("reset read stream: %w", err)
	}
	if err := b.Materialize(ctx, s); err != nil {
		return b.stats, err
	}
	return b.stats, nil
}

// CollectLandmarks is the first pass.
func (b *Builder) CollectLandmarks(ctx context.Context, s reads.Stream) error {
	n := 0
	err := reads.ForEach(ctx, s, func(r reads.Read) error {
		n++
		b.logProgress(ctx, "Collecting landmarks", n)
		if r.Seq.Len() < b.roller.K() {
			b.stats.ShortReads++
			return nil
		}
		b.buf = b.roller.Hashes(r.Seq, b.buf)
		h1, h2, ok := SelectPair(b.buf)
		if !ok {
			b.stats.InvalidReads++
			b.logger.DebugContext(ctx, "Skipping read without two distinct k-mers", "read", r.Name, "length", r.Seq.Len())
			return nil
		}
		b.set.Add(h1)
		b.set.Add(h2)
		return nil
	})
	if err != nil {
		return err
	}
	b.stats.Landmarks = b.set.Len()
	b.logger.InfoContext(ctx, "Landmarks collected", "reads", n, "landmarks", b.stats.Landmarks,
		"bytes", b.set.SizeInBytes(), "short", b.stats.ShortReads, "invalid", b.stats.InvalidReads)
	return nil
}

// Materialize is the second pass.
func (b *Builder) Materialize(ctx context.Context, s reads.Stream) error {
	k := b.roller.K()
	var (
		vs  []graph.VertexID
		pos []int
	)
	err := reads.ForEach(ctx, s, func(r reads.Read) error {
		b.stats.Reads++
		b.logProgress(ctx, "Materializing graph", b.stats.Reads)
		if r.Seq.Len() < k {
			return nil
		}
		b.buf = b.roller.Hashes(r.Seq, b.buf)
		if _, _, ok := SelectPair(b.buf); !ok {
			return nil
		}
		vs, pos = vs[:0], pos[:0]
		for i, h := range b.buf {
			if !b.set.Contains(h) {
				continue
			}
			v, err := b.g.GetVertex(r.Seq.Subseq(i, i+k))
			if err != nil {
				return fmt.Errorf("read %q position %d: %w", r.Name, i, err)
			}
			vs = append(vs, v)
			pos = append(pos, i)
		}
		b.stats.Hits += len(vs)
		for i := 0; i+1 < len(vs); i++ {
			if err := b.g.AddEdge(vs[i], vs[i+1], r.Seq.Subseq(pos[i], pos[i+1]+k)); err != nil {
				return fmt.Errorf("read %q: %w", r.Name, err)
			}
			b.stats.Edges++
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.logger.InfoContext(ctx, "Graph materialized", "reads", b.stats.Reads, "vertices", b.g.Len(),
		"hits", b.stats.Hits, "edges", b.stats.Edges)
	return nil
}

func (b *Builder) logProgress(ctx context.Context, msg string, n int) {
	if b.progress > 0 && n%b.progress == 0 {
		b.logger.InfoContext(ctx, msg, "reads", n)
	}
}

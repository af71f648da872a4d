package abruijn

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/abruijn/blobstore"
	"github.com/hupe1980/abruijn/extindex"
	"github.com/hupe1980/abruijn/graph"
	"github.com/hupe1980/abruijn/internal/landmark"
	"github.com/hupe1980/abruijn/internal/resource"
	"github.com/hupe1980/abruijn/reads"
)

// Pass names reported to the MetricsCollector.
const (
	PassLandmarks   = "landmarks"
	PassMaterialize = "materialize"
)

// GraphStats summarises one BuildGraph run.
type GraphStats struct {
	Reads        int    // reads and mates seen in the second pass
	ShortReads   int    // shorter than k
	InvalidReads int    // fewer than two distinct k-mer hashes
	Landmarks    uint64 // distinct landmark hashes
	Hits         int    // k-mer occurrences matching a landmark
	Edges        int    // edges added, counting repeats
	Merges       int    // chains merged by condensation
}

// BuildGraph reads stream twice and returns the landmark graph. The stream
// must support Reset.
func BuildGraph(ctx context.Context, stream reads.Stream, optFns ...Option) (*graph.Graph, GraphStats, error) {
	o := applyOptions(optFns)
	if err := o.Validate(); err != nil {
		return nil, GraphStats{}, err
	}
	log := o.logger.WithK(o.K)

	g := graph.New(o.K)
	b := landmark.NewBuilder(g,
		landmark.WithLogger(log.Logger),
		landmark.WithProgressInterval(o.progress),
	)
	s := &countingStream{Stream: reads.Limit(stream, o.ReadLimit)}

	passes := []struct {
		name string
		fn   func(context.Context, reads.Stream) error
	}{
		{PassLandmarks, b.CollectLandmarks},
		{PassMaterialize, b.Materialize},
	}
	for i, p := range passes {
		if i > 0 {
			if err := s.Reset(); err != nil {
				return nil, GraphStats{}, fmt.Errorf("reset read stream: %w", err)
			}
		}
		start := time.Now()
		err := p.fn(ctx, s)
		d := time.Since(start)
		o.metricsCollector.RecordPass(p.name, s.n, d, err)
		log.LogPass(ctx, p.name, s.n, d, err)
		if err != nil {
			return nil, GraphStats{}, translateError(err)
		}
	}

	ls := b.Stats()
	stats := GraphStats{
		Reads:        ls.Reads,
		ShortReads:   ls.ShortReads,
		InvalidReads: ls.InvalidReads,
		Landmarks:    ls.Landmarks,
		Hits:         ls.Hits,
		Edges:        ls.Edges,
	}
	if o.condense {
		start := time.Now()
		merges, err := g.Condense()
		o.metricsCollector.RecordCondense(merges, time.Since(start), err)
		log.LogCondense(ctx, merges, g.Len(), err)
		if err != nil {
			return nil, stats, translateError(err)
		}
		stats.Merges = merges
	}
	return g, stats, nil
}

// countingStream counts the records handed out since the last Reset.
type countingStream struct {
	reads.Stream
	n int
}

func (s *countingStream) Next(ctx context.Context) (reads.Read, error) {
	r, err := s.Stream.Next(ctx)
	if err == nil {
		s.n++
	}
	return r, err
}

func (s *countingStream) Reset() error {
	s.n = 0
	return s.Stream.Reset()
}

// BuildExtensionIndex builds an extension index of stream into the configured
// work directory. The stream is read once, split round-robin into one shard
// per worker.
func BuildExtensionIndex(ctx context.Context, stream reads.Stream, optFns ...Option) (extindex.Stats, error) {
	o := applyOptions(optFns)
	if err := o.validate(extindex.MaxK); err != nil {
		return extindex.Stats{}, err
	}
	if o.WorkDir == "" {
		return extindex.Stats{}, fmt.Errorf("%w: work directory is required", ErrInvalidConfig)
	}
	log := o.logger.WithK(o.K).WithWorkDir(o.WorkDir)

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		MaxWorkers:         int64(o.Workers),
		IOLimitBytesPerSec: o.ioLimit,
	})
	shards := reads.Partition(reads.Limit(stream, o.ReadLimit), o.Workers, reads.WithController(rc))

	stats, err := extindex.Build(ctx, o.WorkDir, shards, extindex.Options{
		K:           o.K,
		Workers:     o.Workers,
		Buckets:     o.buckets,
		Canonical:   o.canonical,
		Compression: o.compression,
		Controller:  rc,
		Logger:      log.Logger,
		Observer:    stageObserver{ctx: ctx, log: log, mc: o.metricsCollector},
	})
	if err != nil {
		return stats, translateError(err)
	}
	return stats, nil
}

type stageObserver struct {
	ctx context.Context
	log *Logger
	mc  MetricsCollector
}

func (s stageObserver) RecordStage(stage string, d time.Duration, err error) {
	s.mc.RecordStage(stage, d, err)
	s.log.LogStage(s.ctx, stage, d, err)
}

// OpenExtensionIndex loads the finished index in dir.
func OpenExtensionIndex(ctx context.Context, dir string) (*extindex.Index, error) {
	idx, err := extindex.OpenDir(ctx, dir)
	if err != nil {
		return nil, translateError(err)
	}
	return idx, nil
}

// PublishExtensionIndex copies the finished index in dir into dst, writing
// CURRENT last.
func PublishExtensionIndex(ctx context.Context, dir string, dst blobstore.Store) error {
	return translateError(extindex.Publish(ctx, dir, dst))
}

package extindex

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hupe1980/abruijn/blobstore"
	"github.com/hupe1980/abruijn/internal/bucket"
	"github.com/hupe1980/abruijn/internal/extmask"
	"github.com/hupe1980/abruijn/internal/fs"
	"github.com/hupe1980/abruijn/internal/kmercount"
	"github.com/hupe1980/abruijn/internal/manifest"
	"github.com/hupe1980/abruijn/internal/parallel"
	"github.com/hupe1980/abruijn/reads"
	"github.com/hupe1980/abruijn/sequence"
)

// Stats summarises one build.
type Stats struct {
	MaxReadLength int
	Reads         uint64 // reads and mates, including those shorter than k+1
	KPlusOneMers  uint64 // distinct (k+1)-mers stored
	KMers         uint64 // distinct k-mers in the index
	Buckets       int
}

// KmersName is the index file holding the sorted k-mers of bucket b.
func KmersName(b int) string { return fmt.Sprintf("index.b%03d.kmr", b) }

// MasksName is the index file holding the extension masks of bucket b.
func MasksName(b int) string { return fmt.Sprintf("index.b%03d.ext", b) }

func kp1Name(b int) string { return fmt.Sprintf("kp1.b%03d.bkt", b) }

func kName(b int) string { return fmt.Sprintf("k.b%03d.bkt", b) }

type shard struct {
	reads  uint64
	maxLen int
	runs   [][]string
}

type builder struct {
	opts    Options
	dir     string
	streams []reads.Stream
	inter   bucket.Compression
	final   bucket.Compression
	runner  *parallel.Runner

	stats   Stats
	kp1Runs [][]string // per bucket, filled by split
	kRuns   [][]string // per bucket, filled by derive
	table   *table
	masks   *extmask.Array
	files   []manifest.BucketFile
}

// Build writes an extension index of the reads into dir. Stream i is read by
// shard i; every stream is read exactly once. Any error is returned as a
// *StageError.
func Build(ctx context.Context, dir string, streams []reads.Stream, opts Options) (Stats, error) {
	if err := opts.validate(); err != nil {
		return Stats{}, err
	}
	if len(streams) == 0 {
		return Stats{}, fmt.Errorf("%w: no read streams", ErrInvalidOptions)
	}
	opts.setDefaults()
	inter, final, err := opts.compressions()
	if err != nil {
		return Stats{}, err
	}

	b := &builder{
		opts:    opts,
		dir:     dir,
		streams: streams,
		inter:   inter,
		final:   final,
		runner:  parallel.NewRunner(opts.Workers, opts.Controller),
		stats:   Stats{Buckets: opts.Buckets},
	}
	defer b.release()

	if err := b.prepare(); err != nil {
		return Stats{}, &StageError{Stage: StageSplit, Err: err}
	}

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StageSplit, b.split},
		{StageCount, b.count},
		{StageDerive, b.derive},
		{StageIndex, b.index},
		{StageFill, b.fill},
	}
	for _, s := range stages {
		if err := b.run(ctx, s.name, s.fn); err != nil {
			return b.stats, err
		}
	}
	if !opts.KeepIntermediate {
		b.removeIntermediate()
	}

	opts.Logger.InfoContext(ctx, "Extension index built",
		"dir", dir,
		"k", opts.K,
		"reads", b.stats.Reads,
		"kplus1_mers", b.stats.KPlusOneMers,
		"kmers", b.stats.KMers,
	)
	return b.stats, nil
}

func (b *builder) run(ctx context.Context, stage string, fn func(context.Context) error) error {
	b.opts.Logger.DebugContext(ctx, "Stage started", "stage", stage)
	start := time.Now()
	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}
	b.opts.Observer.RecordStage(stage, time.Since(start), err)
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}

// prepare creates dir and drops leftovers of an earlier failed run.
func (b *builder) prepare() error {
	if err := b.opts.FS.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}
	for _, pattern := range []string{"*.run", "*.tmp"} {
		if err := fs.RemoveMatching(b.opts.FS, b.dir, pattern); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) path(name string) string { return filepath.Join(b.dir, name) }

func (b *builder) spillOptions(prefix string, k int) kmercount.Options {
	return kmercount.Options{
		FS:          b.opts.FS,
		Dir:         b.dir,
		Prefix:      prefix,
		Buckets:     b.opts.Buckets,
		Seed:        b.opts.Seed,
		K:           k,
		Compression: b.inter,
		Controller:  b.opts.Controller,
		BufferBytes: b.opts.BufferBytes,
		Logger:      b.opts.Logger,
	}
}

func (b *builder) mergeOptions(k int) kmercount.MergeOptions {
	return kmercount.MergeOptions{
		K:           k,
		Compression: b.inter,
		Controller:  b.opts.Controller,
		RemoveRuns:  true,
	}
}

// split emits the (k+1)-mers of every shard into partitioned runs.
func (b *builder) split(ctx context.Context) error {
	k1 := b.opts.K + 1
	shards := make([]shard, len(b.streams))

	err := b.runner.Run(ctx, len(b.streams), func(ctx context.Context, s int) error {
		sp := kmercount.NewSpiller(b.spillOptions(fmt.Sprintf("kp1.s%03d", s), k1))
		sh := &shards[s]
		err := reads.ForEach(ctx, b.streams[s], func(r reads.Read) error {
			sh.reads++
			sh.maxLen = max(sh.maxLen, r.Seq.Len())
			return eachKmer(r.Seq, k1, func(y sequence.Kmer) error {
				if b.opts.Canonical {
					return sp.Add(ctx, uint64(y.Canonical(k1)))
				}
				if err := sp.Add(ctx, uint64(y)); err != nil {
					return err
				}
				return sp.Add(ctx, uint64(y.Complement(k1)))
			})
		})
		if err == nil {
			sh.runs, err = sp.Close(ctx)
		}
		if err != nil {
			sp.Abort()
			return fmt.Errorf("shard %d: %w", s, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.kp1Runs = make([][]string, b.opts.Buckets)
	for _, sh := range shards {
		b.stats.Reads += sh.reads
		b.stats.MaxReadLength = max(b.stats.MaxReadLength, sh.maxLen)
		for bk, runs := range sh.runs {
			b.kp1Runs[bk] = append(b.kp1Runs[bk], runs...)
		}
	}
	return nil
}

// count merges the runs of every bucket into one (k+1)-mer bucket file.
func (b *builder) count(ctx context.Context) error {
	sizes := make([]uint64, b.opts.Buckets)
	err := b.runner.Run(ctx, b.opts.Buckets, func(ctx context.Context, bk int) error {
		n, err := kmercount.Merge(ctx, b.opts.FS, b.kp1Runs[bk], b.path(kp1Name(bk)), b.mergeOptions(b.opts.K+1))
		sizes[bk] = n
		return err
	})
	if err != nil {
		return err
	}
	b.kp1Runs = nil
	for _, n := range sizes {
		b.stats.KPlusOneMers += n
	}
	return nil
}

// derive emits the prefix and suffix k-mer of every (k+1)-mer and counts them
// into k-mer bucket files. A k-mer's count is the number of stored
// (k+1)-mers it starts or ends.
func (b *builder) derive(ctx context.Context) error {
	k, k1 := b.opts.K, b.opts.K+1
	taskRuns := make([][][]string, b.opts.Buckets)

	err := b.runner.Run(ctx, b.opts.Buckets, func(ctx context.Context, t int) error {
		f, err := bucket.Open(b.opts.FS, b.path(kp1Name(t)))
		if err != nil {
			return err
		}
		defer f.Close()

		sp := kmercount.NewSpiller(b.spillOptions(fmt.Sprintf("k.s%03d", t), k))
		for kc, err := range f.KmerCounts() {
			if err == nil {
				y := sequence.Kmer(kc.Kmer)
				err = b.emitDerived(ctx, sp, y.Prefix(), k)
				if err == nil {
					err = b.emitDerived(ctx, sp, y.Suffix(k1), k)
				}
			}
			if err != nil {
				sp.Abort()
				return fmt.Errorf("%s: %w", kp1Name(t), err)
			}
		}
		runs, err := sp.Close(ctx)
		if err != nil {
			sp.Abort()
			return err
		}
		taskRuns[t] = runs
		return nil
	})
	if err != nil {
		return err
	}

	b.kRuns = make([][]string, b.opts.Buckets)
	for _, runs := range taskRuns {
		for bk, names := range runs {
			b.kRuns[bk] = append(b.kRuns[bk], names...)
		}
	}
	err = b.runner.Run(ctx, b.opts.Buckets, func(ctx context.Context, bk int) error {
		_, err := kmercount.Merge(ctx, b.opts.FS, b.kRuns[bk], b.path(kName(bk)), b.mergeOptions(k))
		return err
	})
	b.kRuns = nil
	return err
}

func (b *builder) emitDerived(ctx context.Context, sp *kmercount.Spiller, x sequence.Kmer, k int) error {
	if b.opts.Canonical {
		x = x.Canonical(k)
	}
	return sp.Add(ctx, uint64(x))
}

// index loads every k-mer bucket into the lookup table, assigns global
// offsets and writes the k-mer index files.
func (b *builder) index(ctx context.Context) error {
	b.table = newTable(b.opts.Buckets, b.opts.Seed)
	b.files = make([]manifest.BucketFile, b.opts.Buckets)

	err := b.runner.Run(ctx, b.opts.Buckets, func(ctx context.Context, bk int) error {
		counts, err := kmercount.ReadBucket(b.opts.FS, b.path(kName(bk)))
		if err != nil {
			return err
		}
		need := int64(len(counts)) * 8
		if err := b.opts.Controller.AcquireMemory(need); err != nil {
			return fmt.Errorf("load %s: %w", kName(bk), err)
		}
		kmers := make([]uint64, len(counts))
		for i, kc := range counts {
			kmers[i] = kc.Kmer
		}
		b.table.kmers[bk] = kmers

		fw, err := bucket.Create(ctx, b.opts.FS, b.path(KmersName(bk)), bucket.WriterOptions{
			RecordSize:  bucket.KmerCountSize,
			K:           b.opts.K,
			Compression: b.final,
		}, b.opts.Controller)
		if err != nil {
			return err
		}
		for _, kc := range counts {
			if err := fw.AppendKmerCount(kc); err != nil {
				fw.Abort()
				return err
			}
		}
		t, err := fw.Commit()
		if err != nil {
			return err
		}
		b.files[bk] = manifest.BucketFile{
			Bucket:        bk,
			Kmers:         KmersName(bk),
			Count:         t.Records,
			KmersChecksum: t.Checksum,
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.stats.KMers = b.table.assignOffsets()
	for bk := range b.files {
		b.files[bk].Offset = b.table.offsets[bk]
	}
	return nil
}

// fill ORs the extension bits of every (k+1)-mer into the mask array and
// writes the mask files and the manifest.
func (b *builder) fill(ctx context.Context) error {
	k, k1 := b.opts.K, b.opts.K+1
	if err := b.opts.Controller.AcquireMemory(extmask.Footprint(b.stats.KMers)); err != nil {
		return fmt.Errorf("allocate %d masks: %w", b.stats.KMers, err)
	}
	b.masks = extmask.New(b.stats.KMers)

	err := b.runner.Run(ctx, b.opts.Buckets, func(ctx context.Context, t int) error {
		f, err := bucket.Open(b.opts.FS, b.path(kp1Name(t)))
		if err != nil {
			return err
		}
		defer f.Close()

		for kc, err := range f.KmerCounts() {
			if err != nil {
				return fmt.Errorf("%s: %w", kp1Name(t), err)
			}
			y := sequence.Kmer(kc.Kmer)
			if err := b.mark(y.Prefix(), Outgoing(y.Last()), k); err != nil {
				return err
			}
			if err := b.mark(y.Suffix(k1), Incoming(y.First(k1)), k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = b.runner.Run(ctx, b.opts.Buckets, func(ctx context.Context, bk int) error {
		bf := &b.files[bk]
		fw, err := bucket.Create(ctx, b.opts.FS, b.path(MasksName(bk)), bucket.WriterOptions{
			RecordSize:  bucket.MaskSize,
			K:           b.opts.K,
			Compression: b.final,
		}, b.opts.Controller)
		if err != nil {
			return err
		}
		if err := fw.AppendMasks(b.masks.AppendRange(nil, bf.Offset, bf.Offset+bf.Count)); err != nil {
			fw.Abort()
			return err
		}
		t, err := fw.Commit()
		if err != nil {
			return err
		}
		bf.Masks = MasksName(bk)
		bf.MasksChecksum = t.Checksum
		return nil
	})
	if err != nil {
		return err
	}

	m := manifest.New(k, b.opts.Buckets, b.opts.Canonical, b.opts.Seed)
	m.Compression = b.final.String()
	m.Total = b.stats.KMers
	m.Files = b.files
	m.Stats = manifest.BuildStats{
		Reads:         b.stats.Reads,
		MaxReadLength: b.stats.MaxReadLength,
		KPlusOneMers:  b.stats.KPlusOneMers,
	}
	return manifest.Save(ctx, blobstore.NewLocalStoreFS(b.dir, b.opts.FS), m)
}

// mark ORs m into the mask of x. In canonical mode the bits of a
// non-canonical k-mer land complemented on its canonical form and a
// palindrome receives both.
func (b *builder) mark(x sequence.Kmer, m Mask, k int) error {
	if b.opts.Canonical {
		c := x.Complement(k)
		switch {
		case c == x:
			m |= m.Complement()
		case c < x:
			x, m = c, m.Complement()
		}
	}
	i, ok := b.table.lookup(uint64(x))
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingKmer, x.String(k))
	}
	b.masks.Or(i, uint8(m))
	return nil
}

// release returns the reservations of the lookup table and the mask array.
func (b *builder) release() {
	var n int64
	if b.table != nil {
		n += b.table.bytes()
	}
	if b.masks != nil {
		n += b.masks.Footprint()
	}
	b.opts.Controller.ReleaseMemory(n)
	b.table = nil
	b.masks = nil
}

func (b *builder) removeIntermediate() {
	for bk := range b.opts.Buckets {
		for _, name := range []string{kp1Name(bk), kName(bk)} {
			if err := b.opts.FS.Remove(b.path(name)); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
				b.opts.Logger.Warn("Failed to remove intermediate file", "file", name, "error", err)
			}
		}
	}
}

// eachKmer calls fn for every k-mer of seq, left to right.
func eachKmer(seq sequence.Sequence, k int, fn func(sequence.Kmer) error) error {
	if seq.Len() < k {
		return nil
	}
	x := sequence.KmerAt(seq, 0, k)
	if err := fn(x); err != nil {
		return err
	}
	for i := k; i < seq.Len(); i++ {
		x = x.Append(k, seq.At(i))
		if err := fn(x); err != nil {
			return err
		}
	}
	return nil
}

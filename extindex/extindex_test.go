package extindex

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/abruijn/blobstore"
	"github.com/hupe1980/abruijn/internal/extmask"
	"github.com/hupe1980/abruijn/internal/fs"
	"github.com/hupe1980/abruijn/internal/resource"
	"github.com/hupe1980/abruijn/reads"
	"github.com/hupe1980/abruijn/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, dir string, seqs []string, shards int, opts Options) Stats {
	t.Helper()
	s, err := reads.FromStrings(seqs...)
	require.NoError(t, err)
	stats, err := Build(context.Background(), dir, reads.Partition(s, shards), opts)
	require.NoError(t, err)
	return stats
}

func kmer(t *testing.T, s string) sequence.Kmer {
	t.Helper()
	x, err := sequence.ParseKmer(s)
	require.NoError(t, err)
	return x
}

func revcomp(s string) string {
	const comp = "TGCA"
	out := make([]byte, len(s))
	for i := range len(s) {
		out[len(s)-1-i] = comp[strings.IndexByte("ACGT", s[i])]
	}
	return string(out)
}

// bruteMasks collects the extension bits of every k-mer of the reads and
// their reverse complements.
func bruteMasks(seqs []string, k int) map[string]Mask {
	out := make(map[string]Mask)
	for _, s := range seqs {
		for _, r := range []string{s, revcomp(s)} {
			for i := 0; i+k+1 <= len(r); i++ {
				w := r[i : i+k+1]
				p, _ := sequence.ParseNucleotide(w[0])
				n, _ := sequence.ParseNucleotide(w[k])
				out[w[:k]] |= Outgoing(n)
				out[w[1:]] |= Incoming(p)
			}
		}
	}
	return out
}

func randomReads(seed uint64, n int) []string {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B9))
	genome := make([]byte, 600)
	for i := range genome {
		genome[i] = "ACGT"[rng.IntN(4)]
	}
	out := make([]string, n)
	for i := range out {
		l := 20 + rng.IntN(50)
		start := rng.IntN(len(genome) - l)
		r := string(genome[start : start+l])
		if rng.IntN(2) == 0 {
			r = revcomp(r)
		}
		out[i] = r
	}
	return out
}

func collect(idx *Index) map[string]Mask {
	out := make(map[string]Mask)
	for x, m := range idx.All() {
		out[x.String(idx.K())] = m
	}
	return out
}

func TestBuild_Scenario(t *testing.T) {
	seqs := []string{"ACGTACGT", "CGTACGTA"}

	t.Run("both orientations", func(t *testing.T) {
		dir := t.TempDir()
		stats := buildIndex(t, dir, seqs, 1, Options{K: 4, Buckets: 4})
		assert.Equal(t, Stats{MaxReadLength: 8, Reads: 2, KPlusOneMers: 4, KMers: 4, Buckets: 4}, stats)

		idx, err := OpenDir(context.Background(), dir)
		require.NoError(t, err)
		defer idx.Close()

		assert.Equal(t, map[string]Mask{
			"ACGT": Outgoing(sequence.A) | Incoming(sequence.T),
			"CGTA": Outgoing(sequence.C) | Incoming(sequence.A),
			"GTAC": Outgoing(sequence.G) | Incoming(sequence.C),
			"TACG": Outgoing(sequence.T) | Incoming(sequence.G),
		}, collect(idx))

		n, ok := idx.Count(kmer(t, "ACGT"))
		require.True(t, ok)
		assert.Equal(t, uint32(2), n)

		assert.Equal(t, []sequence.Kmer{kmer(t, "CGTA")}, idx.Successors(kmer(t, "ACGT")))
		assert.Equal(t, []sequence.Kmer{kmer(t, "TACG")}, idx.Predecessors(kmer(t, "ACGT")))

		_, ok = idx.Lookup(kmer(t, "AAAA"))
		assert.False(t, ok)
		assert.Nil(t, idx.Successors(kmer(t, "AAAA")))
	})

	t.Run("canonical", func(t *testing.T) {
		dir := t.TempDir()
		stats := buildIndex(t, dir, seqs, 1, Options{K: 4, Buckets: 4, Canonical: true})
		assert.Equal(t, uint64(2), stats.KPlusOneMers)
		assert.Equal(t, uint64(3), stats.KMers)

		idx, err := OpenDir(context.Background(), dir)
		require.NoError(t, err)
		defer idx.Close()

		assert.Equal(t, map[string]Mask{
			"ACGT": Outgoing(sequence.A) | Incoming(sequence.T),
			"CGTA": Outgoing(sequence.C) | Incoming(sequence.A),
			"GTAC": Outgoing(sequence.G) | Incoming(sequence.C),
		}, collect(idx))

		m, ok := idx.Mask(kmer(t, "TACG"))
		require.True(t, ok)
		assert.Equal(t, Outgoing(sequence.T)|Incoming(sequence.G), m)

		a, ok := idx.Lookup(kmer(t, "TACG"))
		require.True(t, ok)
		b, ok := idx.Lookup(kmer(t, "CGTA"))
		require.True(t, ok)
		assert.Equal(t, a, b)
	})
}

func TestBuild_MatchesBruteForce(t *testing.T) {
	const k = 7
	seqs := randomReads(7, 150)
	want := bruteMasks(seqs, k)

	t.Run("both orientations", func(t *testing.T) {
		dir := t.TempDir()
		stats := buildIndex(t, dir, seqs, 3, Options{K: k, Buckets: 8, Workers: 2, BufferBytes: 4096})
		assert.Equal(t, uint64(len(want)), stats.KMers)
		assert.Equal(t, uint64(150), stats.Reads)

		idx, err := OpenDir(context.Background(), dir)
		require.NoError(t, err)
		defer idx.Close()
		assert.Equal(t, want, collect(idx))

		seen := make(map[uint64]bool)
		for s := range want {
			id, ok := idx.Lookup(kmer(t, s))
			require.True(t, ok, s)
			assert.Less(t, id, idx.Len())
			assert.False(t, seen[id], "dense ids are unique")
			seen[id] = true
		}
	})

	t.Run("canonical", func(t *testing.T) {
		dir := t.TempDir()
		buildIndex(t, dir, seqs, 3, Options{K: k, Buckets: 8, Workers: 3, BufferBytes: 4096, Canonical: true, Compression: "zstd"})

		idx, err := OpenDir(context.Background(), dir)
		require.NoError(t, err)
		defer idx.Close()

		classes := make(map[sequence.Kmer]bool)
		for s, m := range want {
			x := kmer(t, s)
			classes[x.Canonical(k)] = true
			got, ok := idx.Mask(x)
			require.True(t, ok, s)
			assert.Equal(t, m, got, s)
		}
		assert.Equal(t, uint64(len(classes)), idx.Len())
	})
}

func TestBuild_Deterministic(t *testing.T) {
	seqs := randomReads(11, 120)
	opts := Options{K: 9, Buckets: 6, Workers: 4, BufferBytes: 2048, Compression: "zstd"}

	a, b := t.TempDir(), t.TempDir()
	buildIndex(t, a, seqs, 3, opts)
	buildIndex(t, b, seqs, 3, opts)
	// A rerun into the same directory overwrites its outputs.
	buildIndex(t, b, seqs, 3, opts)

	names := func(dir string) []string {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		var out []string
		for _, e := range entries {
			out = append(out, e.Name())
		}
		return out
	}
	na, nb := names(a), names(b)
	require.Equal(t, na, nb)
	assert.Len(t, na, 2*6+2, "only index files, manifest and CURRENT remain")

	for _, name := range na {
		da, err := os.ReadFile(filepath.Join(a, name))
		require.NoError(t, err)
		db, err := os.ReadFile(filepath.Join(b, name))
		require.NoError(t, err)
		assert.Equal(t, da, db, name)
	}
}

func TestBuild_KeepIntermediate(t *testing.T) {
	dir := t.TempDir()
	buildIndex(t, dir, []string{"ACGTACGTTTGA"}, 1, Options{K: 5, Buckets: 2, KeepIntermediate: true})

	for _, name := range []string{"kp1.b000.bkt", "kp1.b001.bkt", "k.b000.bkt", "k.b001.bkt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestBuild_StageFailure(t *testing.T) {
	seqs := randomReads(3, 40)

	tests := []struct {
		pattern string
		fault   fs.Fault
		stage   string
	}{
		{"kp1.s", fs.Fault{FailAfterBytes: 0}, StageSplit},
		{"kp1.b", fs.Fault{FailAfterBytes: -1, FailOnSync: true}, StageCount},
		{"k.b", fs.Fault{FailAfterBytes: -1, FailOnSync: true}, StageDerive},
		{".kmr", fs.Fault{FailAfterBytes: 0}, StageIndex},
		{".ext", fs.Fault{FailAfterBytes: -1, FailOnClose: true}, StageFill},
	}
	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			dir := t.TempDir()
			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule(tt.pattern, tt.fault)

			s, err := reads.FromStrings(seqs...)
			require.NoError(t, err)
			_, err = Build(context.Background(), dir, reads.Partition(s, 2), Options{K: 6, Buckets: 3, FS: ffs})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStageFailed)
			assert.ErrorIs(t, err, fs.ErrInjected)

			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stage, se.Stage)

			_, err = OpenDir(context.Background(), dir)
			assert.Error(t, err, "no manifest after a failed build")

			// Redoing the build on a healthy file system succeeds.
			buildIndex(t, dir, seqs, 2, Options{K: 6, Buckets: 3})
			idx, err := OpenDir(context.Background(), dir)
			require.NoError(t, err)
			assert.Equal(t, bruteMasks(seqs, 6), collect(idx))
		})
	}
}

func TestBuild_InvalidOptions(t *testing.T) {
	s, err := reads.FromStrings("ACGT")
	require.NoError(t, err)
	streams := []reads.Stream{s}
	ctx := context.Background()

	for _, opts := range []Options{
		{K: 0},
		{K: MaxK + 1},
		{K: 4, Buckets: -1},
		{K: 4, Compression: "brotli"},
	} {
		_, err := Build(ctx, t.TempDir(), streams, opts)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	}
	_, err = Build(ctx, t.TempDir(), nil, Options{K: 4})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestBuild_Cancelled(t *testing.T) {
	s, err := reads.FromStrings(randomReads(5, 10)...)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Build(ctx, t.TempDir(), []reads.Stream{s}, Options{K: 5})
	assert.ErrorIs(t, err, ErrStageFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

type stageRecorder struct {
	stages []string
}

func (r *stageRecorder) RecordStage(stage string, d time.Duration, err error) {
	if err == nil {
		r.stages = append(r.stages, stage)
	}
}

func TestBuild_ObserverAndController(t *testing.T) {
	rec := &stageRecorder{}
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20, MaxWorkers: 2})
	buildIndex(t, t.TempDir(), randomReads(9, 60), 2, Options{
		K:           5,
		Buckets:     4,
		BufferBytes: 1024,
		Controller:  rc,
		Observer:    rec,
	})
	assert.Equal(t, []string{StageSplit, StageCount, StageDerive, StageIndex, StageFill}, rec.stages)
	assert.Zero(t, rc.MemoryUsage(), "every reservation is released")
	assert.Positive(t, rc.PeakMemoryUsage())
}

func TestBuild_MaskArrayCountsAgainstMemoryLimit(t *testing.T) {
	seqs := randomReads(9, 60)
	opts := Options{K: 5, Buckets: 4, Workers: 1, BufferBytes: 1024}
	stats := buildIndex(t, t.TempDir(), seqs, 1, opts)
	need := int64(stats.KMers)*8 + extmask.Footprint(stats.KMers)

	t.Run("fits", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: need})
		o := opts
		o.Controller = rc
		buildIndex(t, t.TempDir(), seqs, 1, o)
		assert.Equal(t, need, rc.PeakMemoryUsage())
		assert.Zero(t, rc.MemoryUsage())
	})

	t.Run("one byte short", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: need - 1})
		o := opts
		o.Controller = rc
		s, err := reads.FromStrings(seqs...)
		require.NoError(t, err)

		_, err = Build(context.Background(), t.TempDir(), []reads.Stream{s}, o)
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageFill, se.Stage)
		assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
		assert.Zero(t, rc.MemoryUsage())
	})
}

func TestPublishAndOpen(t *testing.T) {
	ctx := context.Background()
	seqs := randomReads(21, 80)
	dir := t.TempDir()
	stats := buildIndex(t, dir, seqs, 2, Options{K: 8, Buckets: 5})

	mem := blobstore.NewMemoryStore()
	require.NoError(t, Publish(ctx, dir, mem))

	names, err := mem.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "CURRENT")
	assert.Contains(t, names, "MANIFEST.json")
	assert.Contains(t, names, KmersName(4))
	assert.Contains(t, names, MasksName(4))

	local, err := OpenDir(ctx, dir)
	require.NoError(t, err)
	remote, err := Open(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, collect(local), collect(remote))
	assert.Equal(t, stats, remote.Stats())

	// A second copy from the memory store lands in a fresh directory.
	other := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, Copy(ctx, mem, other))
	copied, err := Open(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, local.Len(), copied.Len())
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := OpenDir(ctx, t.TempDir())
	assert.Error(t, err)

	a, b := t.TempDir(), t.TempDir()
	buildIndex(t, a, []string{"ACGTTGCAAGGT"}, 1, Options{K: 5, Buckets: 1})
	buildIndex(t, b, []string{"TTTTGGGGCCCCAAAA"}, 1, Options{K: 5, Buckets: 1})

	data, err := os.ReadFile(filepath.Join(b, KmersName(0)))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(a, KmersName(0)), data, 0o644))

	_, err = OpenDir(ctx, a)
	assert.True(t, errors.Is(err, ErrChecksumMismatch), err)
}

package reads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/abruijn/internal/resource"
	"github.com/hupe1980/abruijn/sequence"
)

const fastq = "@r1 lane=1\nACGTACGT\n+\nIIIIIIII\n\n@r2\nCGTANNGGA\n+\nIIIIIIIII\n@r3\nNNNN\n+\nIIII\n"

const fasta = ">c1 first\nACGT\nacgt\n>c2\n>c3\nTTTT\r\n"

func drain(t *testing.T, s Stream) []Read {
	t.Helper()
	var out []Read
	for {
		r, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, r)
	}
}

func seqs(rs []Read) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Seq.String()
	}
	return out
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFASTQ(t *testing.T) {
	s, err := Open(writeFile(t, "r.fq", []byte(fastq)))
	require.NoError(t, err)
	defer s.Close()

	rs := drain(t, s)
	assert.Equal(t, []string{"ACGTACGT", "CGTA", "GGA"}, seqs(rs))
	assert.Equal(t, "r1", rs[0].Name)
	assert.Equal(t, "r2", rs[2].Name)
	assert.Equal(t, 1, s.Skipped())

	require.NoError(t, s.Reset())
	assert.Len(t, drain(t, s), 3)
}

func TestFASTA(t *testing.T) {
	s, err := NewReader(bytes.NewReader([]byte(fasta)))
	require.NoError(t, err)

	rs := drain(t, s)
	assert.Equal(t, []string{"ACGTACGT", "TTTT"}, seqs(rs))
	assert.Equal(t, "c1", rs[0].Name)
	assert.ErrorIs(t, s.Reset(), ErrResetUnsupported)
}

func TestCompressedInput(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(fastq))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	require.NoError(t, err)
	_, err = zw.Write([]byte(fasta))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	s, err := Open(writeFile(t, "r.fq.gz", gz.Bytes()))
	require.NoError(t, err)
	assert.Len(t, drain(t, s), 3)
	require.NoError(t, s.Close())

	s, err = Open(writeFile(t, "r.fa.zst", zs.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"ACGTACGT", "TTTT"}, seqs(drain(t, s)))
	require.NoError(t, s.Close())
}

func TestMalformed(t *testing.T) {
	s, err := NewReader(bytes.NewReader([]byte("ACGT\n")))
	require.NoError(t, err)
	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, ErrMalformed)

	s, err = NewReader(bytes.NewReader([]byte("@r1\nACGT\nIIII\n")))
	require.NoError(t, err)
	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPaired(t *testing.T) {
	left := writeFile(t, "r_1.fq", []byte("@a/1\nACGT\n+\nIIII\n@b/1\nAANAA\n+\nIIIII\n"))
	right := writeFile(t, "r_2.fq", []byte("@a/2\nTTGG\n+\nIIII\n@b/2\nCCCC\n+\nIIII\n"))

	p, err := OpenPaired(left, right)
	require.NoError(t, err)
	defer p.Close()

	rs := drain(t, p)
	require.Len(t, rs, 4)
	require.NotNil(t, rs[0].Mate)
	assert.Equal(t, "TTGG", rs[0].Mate.Seq.String())
	assert.Nil(t, rs[1].Mate)
	assert.Equal(t, []string{"ACGT", "AA", "AA", "CCCC"}, seqs(rs))

	var visited []string
	require.NoError(t, rs[0].Each(func(r Read) error {
		visited = append(visited, r.Seq.String())
		return nil
	}))
	assert.Equal(t, []string{"ACGT", "TTGG"}, visited)

	require.NoError(t, p.Reset())
	assert.Len(t, drain(t, p), 4)
}

func TestPairedMismatch(t *testing.T) {
	left := writeFile(t, "r_1.fq", []byte("@a\nACGT\n+\nIIII\n@b\nACGT\n+\nIIII\n"))
	right := writeFile(t, "r_2.fq", []byte("@a\nACGT\n+\nIIII\n"))
	p, err := OpenPaired(left, right)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Next(context.Background())
	require.NoError(t, err)
	_, err = p.Next(context.Background())
	assert.ErrorIs(t, err, ErrMateMismatch)
}

func TestLimit(t *testing.T) {
	s, err := FromStrings("AAAA", "CCCC", "GGGG")
	require.NoError(t, err)

	l := Limit(s, 2)
	assert.Equal(t, []string{"AAAA", "CCCC"}, seqs(drain(t, l)))
	require.NoError(t, l.Reset())
	assert.Equal(t, []string{"AAAA", "CCCC"}, seqs(drain(t, l)))

	assert.Same(t, Stream(s), Limit(s, 0))
}

func TestPartitionDeterministic(t *testing.T) {
	in := []string{"AAAA", "CCCC", "GGGG", "TTTT", "ACGT", "TGCA", "AACC"}
	s, err := FromStrings(in...)
	require.NoError(t, err)

	shards := Partition(s, 3)
	require.Len(t, shards, 3)

	results := make([][]string, 3)
	var wg sync.WaitGroup
	for i, sh := range shards {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				r, err := sh.Next(context.Background())
				if err != nil {
					return
				}
				results[i] = append(results[i], r.Seq.String())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"AAAA", "TTTT", "AACC"}, results[0])
	assert.Equal(t, []string{"CCCC", "ACGT"}, results[1])
	assert.Equal(t, []string{"GGGG", "TGCA"}, results[2])
	assert.ErrorIs(t, shards[0].Reset(), ErrResetUnsupported)
}

func TestPartitionReservesQueuedReads(t *testing.T) {
	s, err := FromStrings("AAAAAAAA", "CCCCCCCC", "GGGGGGGG", "TTTTTTTT")
	require.NoError(t, err)
	rc := resource.NewController(resource.Config{})
	shards := Partition(s, 2, WithController(rc))

	ctx := context.Background()
	got := seqs(drain(t, shards[1]))
	assert.Equal(t, []string{"CCCCCCCC", "TTTTTTTT"}, got)
	assert.Equal(t, 2*queuedBytes(Read{Seq: sequence.MustParse("AAAAAAAA")}), rc.MemoryUsage())

	r, err := shards[0].Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAA", r.Seq.String())
	assert.Equal(t, queuedBytes(r), rc.MemoryUsage())

	assert.Equal(t, []string{"GGGGGGGG"}, seqs(drain(t, shards[0])))
	assert.Zero(t, rc.MemoryUsage())
}

func TestPartitionQueueLimit(t *testing.T) {
	s, err := FromStrings("AAAAAAAA", "CCCCCCCC", "GGGGGGGG", "TTTTTTTT")
	require.NoError(t, err)
	rc := resource.NewController(resource.Config{MemoryLimitBytes: readOverhead + 10})
	shards := Partition(s, 2, WithController(rc))

	ctx := context.Background()
	r, err := shards[1].Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CCCCCCCC", r.Seq.String())

	_, err = shards[1].Next(ctx)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	r, err = shards[0].Next(ctx)
	require.NoError(t, err, "reads queued before the failure are delivered")
	assert.Equal(t, "AAAAAAAA", r.Seq.String())
	_, err = shards[0].Next(ctx)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Zero(t, rc.MemoryUsage())
}

func TestForEachVisitsMates(t *testing.T) {
	a, _ := FromStrings("ACGT")
	b, _ := FromStrings("GGGG")
	rs := drain(t, a)
	mate := drain(t, b)[0]
	rs[0].Mate = &mate

	n := 0
	require.NoError(t, ForEach(context.Background(), Concat(NewSliceStream(rs), NewSliceStream(rs)), func(Read) error {
		n++
		return nil
	}))
	assert.Equal(t, 4, n)
}

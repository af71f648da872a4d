package landmark

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/abruijn/graph"
	"github.com/hupe1980/abruijn/reads"
	"github.com/hupe1980/abruijn/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPair(t *testing.T) {
	h1, h2, ok := SelectPair([]uint64{9, 3, 3, 7, 5})
	require.True(t, ok)
	assert.Equal(t, uint64(3), h1)
	assert.Equal(t, uint64(5), h2)

	_, _, ok = SelectPair([]uint64{4, 4, 4})
	assert.False(t, ok)

	_, _, ok = SelectPair(nil)
	assert.False(t, ok)

	h1, h2, ok = SelectPair([]uint64{1, 2, 1, 2})
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 2}, []uint64{h1, h2})
}

func TestSet(t *testing.T) {
	s := NewSet()
	s.Add(1 << 40)
	s.Add(1 << 40)
	s.Add(7)
	assert.Equal(t, uint64(2), s.Len())
	assert.True(t, s.Contains(1<<40))
	assert.False(t, s.Contains(8))
	assert.Positive(t, s.SizeInBytes())
}

func genome(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.IntN(4)]
	}
	return string(b)
}

func sampleReads(r *rand.Rand, g string, n, length int) []string {
	out := make([]string, n)
	for i := range out {
		p := r.IntN(len(g) - length + 1)
		s := g[p : p+length]
		if r.IntN(2) == 0 {
			s = sequence.MustParse(s).Complement().String()
		}
		out[i] = s
	}
	return out
}

func TestBuildSkipsInvalidReads(t *testing.T) {
	s, err := reads.FromStrings("ACG", "AAAAAAAA", "ACGTTGCAAC")
	require.NoError(t, err)

	g := graph.New(4)
	stats, err := NewBuilder(g).Build(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ShortReads)
	assert.Equal(t, 1, stats.InvalidReads)
	assert.Equal(t, uint64(2), stats.Landmarks)
	assert.Equal(t, 3, stats.Reads)
	assert.GreaterOrEqual(t, stats.Hits, 2)
}

func TestBuildInvalidReadAddsNoEdges(t *testing.T) {
	s, err := reads.FromStrings("AAAAC", "AAAAAAAA")
	require.NoError(t, err)

	g := graph.New(4)
	stats, err := NewBuilder(g).Build(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.InvalidReads)
	assert.Equal(t, 2, stats.Hits)
	assert.Equal(t, 1, stats.Edges)

	aaaa, ok := g.Find(sequence.MustParse("AAAA"))
	require.True(t, ok)
	aaac, ok := g.Find(sequence.MustParse("AAAC"))
	require.True(t, ok)

	_, ok = g.Edge(aaaa, aaaa)
	assert.False(t, ok, "the homopolymer read contributes no self loop")
	e, ok := g.Edge(aaaa, aaac)
	require.True(t, ok)
	assert.Equal(t, 1, e.Total())
	assert.Equal(t, 1, e.Count(5))
}

func TestBuildIsStrandSymmetric(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	rs := sampleReads(r, genome(r, 400), 60, 50)
	s, err := reads.FromStrings(rs...)
	require.NoError(t, err)

	g := graph.New(15)
	b := NewBuilder(g)
	stats, err := b.Build(context.Background(), s)
	require.NoError(t, err)
	require.Positive(t, stats.Edges)

	for v := range g.Vertices() {
		assert.Equal(t, 15, g.Size(v))
		for w, e := range g.Edges(v) {
			m, ok := g.Edge(w.Complement(), v.Complement())
			require.True(t, ok)
			assert.Equal(t, e.Total(), m.Total())
			for _, sp := range e.Spans() {
				assert.True(t, sp.Seq.Subseq(0, 15).Equal(g.Data(v)), "span starts with source")
				assert.True(t, sp.Seq.Subseq(sp.Length-15, sp.Length).Equal(g.Data(w)), "span ends with target")
			}
		}
	}

	// Every vertex carries a landmark hash.
	for v := range g.Vertices() {
		assert.True(t, b.Set().Contains(b.roller.Hash(g.Data(v))))
	}
}

func TestBuildThenCondense(t *testing.T) {
	r := rand.New(rand.NewPCG(13, 14))
	rs := sampleReads(r, genome(r, 300), 80, 40)
	s, err := reads.FromStrings(rs...)
	require.NoError(t, err)

	g := graph.New(11)
	_, err = NewBuilder(g).Build(context.Background(), s)
	require.NoError(t, err)
	before := g.Len()

	_, err = g.Condense()
	require.NoError(t, err)
	assert.LessOrEqual(t, g.Len(), before)
	assert.Equal(t, 0, g.Pending())

	for v := range g.Vertices() {
		for w, e := range g.Edges(v) {
			m, ok := g.Edge(w.Complement(), v.Complement())
			require.True(t, ok)
			assert.Equal(t, e.Total(), m.Total())
		}
	}
}

func TestBuildRespectsCancellation(t *testing.T) {
	s, err := reads.FromStrings("ACGTTGCAAC")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewBuilder(graph.New(4)).Build(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
}

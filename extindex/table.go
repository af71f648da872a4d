package extindex

import (
	"slices"

	"github.com/hupe1980/abruijn/internal/hash"
)

// table maps a k-mer to its dense id: the bucket offset plus its rank in the
// sorted bucket.
type table struct {
	seed    uint64
	offsets []uint64
	kmers   [][]uint64
}

func newTable(buckets int, seed uint64) *table {
	return &table{
		seed:    seed,
		offsets: make([]uint64, buckets),
		kmers:   make([][]uint64, buckets),
	}
}

// assignOffsets turns the bucket sizes into a prefix sum and returns the total.
func (t *table) assignOffsets() uint64 {
	var total uint64
	for b, kmers := range t.kmers {
		t.offsets[b] = total
		total += uint64(len(kmers))
	}
	return total
}

func (t *table) bucket(kmer uint64) int {
	return hash.Bucket(kmer, t.seed, len(t.kmers))
}

func (t *table) lookup(kmer uint64) (uint64, bool) {
	b := t.bucket(kmer)
	i, ok := slices.BinarySearch(t.kmers[b], kmer)
	if !ok {
		return 0, false
	}
	return t.offsets[b] + uint64(i), true
}

// bytes is the memory reserved for the loaded buckets.
func (t *table) bytes() int64 {
	var n int64
	for _, kmers := range t.kmers {
		n += int64(len(kmers)) * 8
	}
	return n
}

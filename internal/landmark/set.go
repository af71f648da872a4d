// Package landmark builds the landmark graph in two passes over the reads.
//
// The first pass selects, for every read, the two smallest distinct k-mer
// hashes and collects them in a Set. The second pass resolves every k-mer
// whose hash is a landmark to a graph vertex and links consecutive landmark
// occurrences of a read with the connecting subsequence.
package landmark

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// Set is a deduplicated set of landmark hashes.
type Set struct {
	bm *roaring64.Bitmap
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{bm: roaring64.New()}
}

// Add inserts h.
func (s *Set) Add(h uint64) { s.bm.Add(h) }

// Contains reports whether h was added.
func (s *Set) Contains(h uint64) bool { return s.bm.Contains(h) }

// Len returns the number of distinct hashes.
func (s *Set) Len() uint64 { return s.bm.GetCardinality() }

// SizeInBytes estimates the in-memory footprint.
func (s *Set) SizeInBytes() uint64 { return s.bm.GetSizeInBytes() }

// SelectPair returns the two smallest distinct values of hashes. ok is false
// when fewer than two distinct values exist.
func SelectPair(hashes []uint64) (h1, h2 uint64, ok bool) {
	n := 0
	for _, h := range hashes {
		switch {
		case n == 0:
			h1, n = h, 1
		case h == h1 || (n == 2 && h == h2):
		case h < h1:
			h1, h2, n = h, h1, 2
		case n == 1 || h < h2:
			h2, n = h, 2
		}
	}
	return h1, h2, n == 2
}

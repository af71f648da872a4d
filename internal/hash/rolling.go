package hash

import "github.com/hupe1980/abruijn/sequence"

const (
	rollBase uint64 = 0x100000001b3
	rollSalt uint64 = 0x9e3779b97f4a7c15
)

// Roller hashes all k-mers of a sequence. It is immutable after construction
// and safe for concurrent use.
type Roller struct {
	k   int
	pow uint64 // rollBase^k
}

// NewRoller precomputes the constants for window length k.
func NewRoller(k int) *Roller {
	pow := uint64(1)
	for i := 0; i < k; i++ {
		pow *= rollBase
	}
	return &Roller{k: k, pow: pow}
}

// K returns the window length.
func (r *Roller) K() int { return r.k }

// Hashes writes H[i] for i in [0, L-k] into dst (reusing its capacity) and
// returns it. Sequences shorter than k produce an empty slice.
func (r *Roller) Hashes(seq sequence.Sequence, dst []uint64) []uint64 {
	n, k := seq.Len(), r.k
	if k <= 0 || n < k {
		return dst[:0]
	}
	m := n - k + 1
	if cap(dst) < m {
		dst = make([]uint64, m)
	}
	dst = dst[:m]

	var f uint64
	for i := 0; i < k; i++ {
		f = f*rollBase + uint64(seq.At(i))
	}
	dst[0] = f
	for i := 0; i+k < n; i++ {
		f = f*rollBase + uint64(seq.At(i+k)) - uint64(seq.At(i))*r.pow
		dst[i+1] = f
	}

	var rc uint64
	for i := n - 1; i >= n-k; i-- {
		rc = rc*rollBase + uint64(seq.At(i).Complement())
	}
	dst[m-1] ^= rc ^ rollSalt
	for i := m - 1; i > 0; i-- {
		rc = rc*rollBase + uint64(seq.At(i-1).Complement()) - uint64(seq.At(i+k-1).Complement())*r.pow
		dst[i-1] ^= rc ^ rollSalt
	}
	return dst
}

// Hash returns the hash of a single window.
func (r *Roller) Hash(kmer sequence.Sequence) uint64 {
	var buf [1]uint64
	h := r.Hashes(kmer.Subseq(0, min(r.k, kmer.Len())), buf[:0])
	if len(h) == 0 {
		return 0
	}
	return h[0]
}

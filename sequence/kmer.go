package sequence

import (
	"fmt"
	"math/bits"
)

// MaxK is the largest k-mer length a Kmer can hold.
const MaxK = 32

// Kmer is a packed k-mer. The length k is not stored; callers carry it.
type Kmer uint64

// KmerMask returns a mask covering the low 2*k bits.
func KmerMask(k int) uint64 {
	if k >= MaxK {
		return ^uint64(0)
	}
	return uint64(1)<<(2*uint(k)) - 1
}

// KmerAt packs seq[pos:pos+k].
func KmerAt(seq Sequence, pos, k int) Kmer {
	var x Kmer
	for i := pos; i < pos+k; i++ {
		x = x<<2 | Kmer(seq.At(i))
	}
	return x
}

// KmerOf packs a whole sequence of at most MaxK symbols.
func KmerOf(seq Sequence) Kmer {
	return KmerAt(seq, 0, seq.Len())
}

// ParseKmer packs an ASCII k-mer.
func ParseKmer(str string) (Kmer, error) {
	if len(str) > MaxK {
		return 0, fmt.Errorf("sequence: k-mer length %d exceeds %d", len(str), MaxK)
	}
	s, err := Parse(str)
	if err != nil {
		return 0, err
	}
	return KmerOf(s), nil
}

// Append shifts n in at the end, dropping the first symbol.
func (x Kmer) Append(k int, n Nucleotide) Kmer {
	return Kmer((uint64(x)<<2 | uint64(n)) & KmerMask(k))
}

// Prepend shifts n in at the front, dropping the last symbol.
func (x Kmer) Prepend(k int, n Nucleotide) Kmer {
	return x>>2 | Kmer(n)<<(2*uint(k-1))
}

// Complement returns the reverse complement of a k-mer of length k.
func (x Kmer) Complement(k int) Kmer {
	v := ^uint64(x) & KmerMask(k)
	v = (v>>2)&0x3333333333333333 | (v&0x3333333333333333)<<2
	v = (v>>4)&0x0F0F0F0F0F0F0F0F | (v&0x0F0F0F0F0F0F0F0F)<<4
	v = bits.ReverseBytes64(v)
	return Kmer(v >> (64 - 2*uint(k)))
}

// Canonical returns the smaller of the k-mer and its reverse complement.
func (x Kmer) Canonical(k int) Kmer {
	return min(x, x.Complement(k))
}

// IsCanonical reports whether x is its own canonical form.
func (x Kmer) IsCanonical(k int) bool { return x <= x.Complement(k) }

// First returns the leading symbol.
func (x Kmer) First(k int) Nucleotide { return Nucleotide(x>>(2*uint(k-1))) & 3 }

// Last returns the trailing symbol.
func (x Kmer) Last() Nucleotide { return Nucleotide(x & 3) }

// Prefix drops the last symbol, yielding a (k-1)-mer.
func (x Kmer) Prefix() Kmer { return x >> 2 }

// Suffix drops the first symbol, yielding a (k-1)-mer.
func (x Kmer) Suffix(k int) Kmer { return Kmer(uint64(x) & KmerMask(k-1)) }

// Sequence unpacks a k-mer.
func (x Kmer) Sequence(k int) Sequence {
	syms := make([]Nucleotide, k)
	for i := k - 1; i >= 0; i-- {
		syms[i] = Nucleotide(x & 3)
		x >>= 2
	}
	return New(syms)
}

// String renders a k-mer of length k.
func (x Kmer) String(k int) string {
	b := make([]byte, k)
	for i := k - 1; i >= 0; i-- {
		b[i] = Nucleotide(x & 3).Byte()
		x >>= 2
	}
	return string(b)
}

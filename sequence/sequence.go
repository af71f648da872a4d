package sequence

import (
	"fmt"
	"strings"
)

// Sequence is an immutable DNA string packed four symbols per byte.
//
// Symbol i lives in byte i/4 at bit offset 2*(i%4). Unused high bits of the
// last byte are always zero, so two equal sequences have equal packed bytes.
type Sequence struct {
	data []byte
	n    int
}

// New packs the given symbols.
func New(syms []Nucleotide) Sequence {
	s := Sequence{data: make([]byte, packedLen(len(syms))), n: len(syms)}
	for i, x := range syms {
		s.data[i>>2] |= byte(x&3) << ((i & 3) << 1)
	}
	return s
}

// Parse decodes an ASCII string. Lower-case letters are accepted.
func Parse(str string) (Sequence, error) {
	return parse(str)
}

// ParseBytes is like Parse for a byte slice.
func ParseBytes(b []byte) (Sequence, error) {
	return parse(b)
}

// MustParse is like Parse but panics on invalid input. Intended for tests and constants.
func MustParse(str string) Sequence {
	s, err := Parse(str)
	if err != nil {
		panic(err)
	}
	return s
}

func parse[T string | []byte](str T) (Sequence, error) {
	s := Sequence{data: make([]byte, packedLen(len(str))), n: len(str)}
	for i := 0; i < len(str); i++ {
		code := asciiToCode[str[i]]
		if code == invalidCode {
			return Sequence{}, fmt.Errorf("%w: %q at position %d", ErrInvalidNucleotide, str[i], i)
		}
		s.data[i>>2] |= code << ((i & 3) << 1)
	}
	return s, nil
}

// Fragments splits raw read bytes at every non-ACGT character and returns
// the maximal valid runs. Empty runs are dropped.
func Fragments(b []byte) []Sequence {
	var out []Sequence
	start := -1
	for i := 0; i <= len(b); i++ {
		valid := i < len(b) && asciiToCode[b[i]] != invalidCode
		switch {
		case valid && start < 0:
			start = i
		case !valid && start >= 0:
			s, _ := parse(b[start:i])
			out = append(out, s)
			start = -1
		}
	}
	return out
}

func packedLen(n int) int { return (n + 3) >> 2 }

// Len returns the number of symbols.
func (s Sequence) Len() int { return s.n }

// At returns the symbol at position i. It panics if i is out of range.
func (s Sequence) At(i int) Nucleotide {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("sequence: index %d out of range [0,%d)", i, s.n))
	}
	return Nucleotide(s.data[i>>2]>>((i&3)<<1)) & 3
}

// Subseq returns a copy of symbols [from, to). It panics on an invalid range.
func (s Sequence) Subseq(from, to int) Sequence {
	if from < 0 || to > s.n || from > to {
		panic(fmt.Sprintf("sequence: invalid range [%d,%d) of length %d", from, to, s.n))
	}
	out := Sequence{data: make([]byte, packedLen(to-from)), n: to - from}
	if from&3 == 0 {
		copy(out.data, s.data[from>>2:])
		out.clearTail()
		return out
	}
	for i := from; i < to; i++ {
		j := i - from
		out.data[j>>2] |= byte(s.At(i)) << ((j & 3) << 1)
	}
	return out
}

// Complement returns the reverse complement.
func (s Sequence) Complement() Sequence {
	out := Sequence{data: make([]byte, len(s.data)), n: s.n}
	for i := 0; i < s.n; i++ {
		j := s.n - 1 - i
		out.data[j>>2] |= byte(s.At(i)^3) << ((j & 3) << 1)
	}
	return out
}

// Concat returns s followed by other.
func (s Sequence) Concat(other Sequence) Sequence {
	out := Sequence{data: make([]byte, packedLen(s.n+other.n)), n: s.n + other.n}
	copy(out.data, s.data)
	if s.n&3 == 0 {
		copy(out.data[s.n>>2:], other.data)
		return out
	}
	for i := 0; i < other.n; i++ {
		j := s.n + i
		out.data[j>>2] |= byte(other.At(i)) << ((j & 3) << 1)
	}
	return out
}

// Equal reports whether both sequences hold the same symbols.
func (s Sequence) Equal(other Sequence) bool {
	if s.n != other.n {
		return false
	}
	for i := range s.data {
		if s.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// IsPalindrome reports whether the sequence equals its reverse complement.
func (s Sequence) IsPalindrome() bool {
	for i, j := 0, s.n-1; i <= j; i, j = i+1, j-1 {
		if s.At(i) != s.At(j)^3 {
			return false
		}
	}
	return true
}

// Key returns a compact string usable as a map key. Keys of sequences with
// different lengths never collide.
func (s Sequence) Key() string {
	var b strings.Builder
	b.Grow(len(s.data) + 4)
	b.WriteByte(byte(s.n))
	b.WriteByte(byte(s.n >> 8))
	b.WriteByte(byte(s.n >> 16))
	b.WriteByte(byte(s.n >> 24))
	b.Write(s.data)
	return b.String()
}

// Symbols unpacks the sequence.
func (s Sequence) Symbols() []Nucleotide {
	out := make([]Nucleotide, s.n)
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

func (s Sequence) String() string {
	b := make([]byte, s.n)
	for i := range b {
		b[i] = s.At(i).Byte()
	}
	return string(b)
}

func (s *Sequence) clearTail() {
	if r := s.n & 3; r != 0 {
		s.data[len(s.data)-1] &= byte(1<<(r<<1)) - 1
	}
}

package sequence

import "errors"

// ErrInvalidNucleotide is returned when a character outside ACGT (any case) is parsed.
var ErrInvalidNucleotide = errors.New("invalid nucleotide")

// Nucleotide is a 2-bit DNA symbol.
type Nucleotide uint8

const (
	A Nucleotide = iota
	C
	G
	T
)

// Nucleotides lists the four symbols in encoding order.
var Nucleotides = [4]Nucleotide{A, C, G, T}

const invalidCode = 0xFF

var asciiToCode = func() [256]uint8 {
	var table [256]uint8
	for i := range table {
		table[i] = invalidCode
	}
	for i, c := range "ACGT" {
		table[c] = uint8(i)
		table[c+'a'-'A'] = uint8(i)
	}
	return table
}()

// ParseNucleotide decodes one ASCII character.
func ParseNucleotide(b byte) (Nucleotide, bool) {
	code := asciiToCode[b]
	if code == invalidCode {
		return 0, false
	}
	return Nucleotide(code), true
}

// Complement returns the pairing base (A<->T, C<->G).
func (n Nucleotide) Complement() Nucleotide { return n ^ 3 }

// Byte returns the upper-case ASCII letter.
func (n Nucleotide) Byte() byte { return "ACGT"[n&3] }

func (n Nucleotide) String() string { return string(n.Byte()) }

package extindex

import (
	"math/bits"
	"strings"

	"github.com/hupe1980/abruijn/sequence"
)

// Mask holds the extension bits of one k-mer. Bit n (0..3) marks successor
// nucleotide n, bit 4+n marks predecessor nucleotide n.
type Mask uint8

// Outgoing returns the mask with only successor n set.
func Outgoing(n sequence.Nucleotide) Mask { return 1 << (n & 3) }

// Incoming returns the mask with only predecessor n set.
func Incoming(n sequence.Nucleotide) Mask { return 1 << (4 + n&3) }

// HasOutgoing reports whether n follows the k-mer.
func (m Mask) HasOutgoing(n sequence.Nucleotide) bool { return m&Outgoing(n) != 0 }

// HasIncoming reports whether n precedes the k-mer.
func (m Mask) HasIncoming(n sequence.Nucleotide) bool { return m&Incoming(n) != 0 }

// Successors lists the successor nucleotides in ACGT order.
func (m Mask) Successors() []sequence.Nucleotide { return nibble(uint8(m) & 0x0F) }

// Predecessors lists the predecessor nucleotides in ACGT order.
func (m Mask) Predecessors() []sequence.Nucleotide { return nibble(uint8(m) >> 4) }

// OutDegree is the number of successors.
func (m Mask) OutDegree() int { return bits.OnesCount8(uint8(m) & 0x0F) }

// InDegree is the number of predecessors.
func (m Mask) InDegree() int { return bits.OnesCount8(uint8(m) >> 4) }

// Complement returns the mask of the reverse complement k-mer: successor n
// becomes predecessor !n and predecessor p becomes successor !p.
func (m Mask) Complement() Mask {
	out := uint8(m) & 0x0F
	in := uint8(m) >> 4
	return Mask(reverse4(in) | reverse4(out)<<4)
}

// String renders the mask as "pred|succ", for example "AG|T".
func (m Mask) String() string {
	var sb strings.Builder
	for _, n := range m.Predecessors() {
		sb.WriteByte(n.Byte())
	}
	sb.WriteByte('|')
	for _, n := range m.Successors() {
		sb.WriteByte(n.Byte())
	}
	return sb.String()
}

func nibble(v uint8) []sequence.Nucleotide {
	var out []sequence.Nucleotide
	for _, n := range sequence.Nucleotides {
		if v&(1<<n) != 0 {
			out = append(out, n)
		}
	}
	return out
}

// reverse4 maps bit n to bit 3-n, the nucleotide complement.
func reverse4(v uint8) uint8 { return bits.Reverse8(v) >> 4 }

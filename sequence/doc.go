// Package sequence implements 2-bit packed DNA sequences and k-mers.
//
// Symbols are encoded as A=0, C=1, G=2, T=3 so that the complement of a
// symbol is s^3. A Sequence is immutable; every operation that changes the
// content returns a new value. Kmer packs up to 32 symbols into a uint64 with
// the first symbol in the most significant position, which makes numeric
// order equal to lexicographic order.
package sequence

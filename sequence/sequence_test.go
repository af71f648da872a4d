package sequence

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSequence(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.IntN(4)]
	}
	return string(b)
}

func TestParse(t *testing.T) {
	s, err := Parse("acgTN")
	require.ErrorIs(t, err, ErrInvalidNucleotide)
	assert.Equal(t, 0, s.Len())

	s, err = Parse("acgTTGCA")
	require.NoError(t, err)
	assert.Equal(t, "ACGTTGCA", s.String())
	assert.Equal(t, 8, s.Len())
	assert.Equal(t, G, s.At(2))
}

func TestComplement(t *testing.T) {
	assert.Equal(t, "ACGT", MustParse("ACGT").Complement().String())
	assert.Equal(t, "TTTGC", MustParse("GCAAA").Complement().String())

	r := rand.New(rand.NewPCG(1, 2))
	for n := 0; n < 70; n++ {
		s := MustParse(randomSequence(r, n))
		assert.True(t, s.Complement().Complement().Equal(s), "involution for length %d", n)
		assert.Equal(t, s.Key(), s.Complement().Complement().Key())
	}
}

func TestPalindrome(t *testing.T) {
	assert.True(t, MustParse("ACGT").IsPalindrome())
	assert.True(t, MustParse("GAATTC").IsPalindrome())
	assert.False(t, MustParse("ACG").IsPalindrome())
}

func TestSubseqConcat(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	str := randomSequence(r, 53)
	s := MustParse(str)

	for from := 0; from < 10; from++ {
		for to := from; to < len(str); to += 7 {
			sub := s.Subseq(from, to)
			assert.Equal(t, str[from:to], sub.String())
			assert.Equal(t, MustParse(str[from:to]).Key(), sub.Key(), "padding must be cleared")
		}
	}

	left, right := s.Subseq(0, 13), s.Subseq(13, 53)
	joined := left.Concat(right)
	assert.True(t, joined.Equal(s))
	assert.Equal(t, str, s.Subseq(0, 12).Concat(s.Subseq(12, 53)).String())
}

func TestKeyDistinguishesLength(t *testing.T) {
	// A encodes as zero bits, so only the length separates these.
	assert.NotEqual(t, MustParse("AC").Key(), MustParse("ACA").Key())
	assert.Equal(t, MustParse("ACA").Key(), MustParse("aca").Key())
}

func TestFragments(t *testing.T) {
	frags := Fragments([]byte("NNACGTnGGxT"))
	require.Len(t, frags, 3)
	assert.Equal(t, "ACGT", frags[0].String())
	assert.Equal(t, "GG", frags[1].String())
	assert.Equal(t, "T", frags[2].String())

	assert.Empty(t, Fragments([]byte("NNNN")))
}

func TestKmer(t *testing.T) {
	x, err := ParseKmer("ACGTT")
	require.NoError(t, err)
	assert.Equal(t, "ACGTT", x.String(5))
	assert.Equal(t, "AACGT", x.Complement(5).String(5))
	assert.Equal(t, "AACGT", x.Canonical(5).String(5))
	assert.Equal(t, A, x.First(5))
	assert.Equal(t, T, x.Last())
	assert.Equal(t, "ACGT", x.Prefix().String(4))
	assert.Equal(t, "CGTT", x.Suffix(5).String(4))
	assert.Equal(t, "CGTTG", x.Append(5, G).String(5))
	assert.Equal(t, "TACGT", x.Prepend(5, T).String(5))

	_, err = ParseKmer("ACGTACGTACGTACGTACGTACGTACGTACGTA")
	assert.Error(t, err)
}

func TestKmerMatchesSequence(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for k := 1; k <= MaxK; k++ {
		s := MustParse(randomSequence(r, k))
		x := KmerOf(s)
		assert.Equal(t, s.String(), x.String(k))
		assert.Equal(t, s.Complement().String(), x.Complement(k).String(k), "k=%d", k)
		assert.True(t, x.Sequence(k).Equal(s))
		assert.Equal(t, x, x.Complement(k).Complement(k))
	}
}

func TestKmerOrderIsLexicographic(t *testing.T) {
	a, _ := ParseKmer("ACGT")
	b, _ := ParseKmer("AGAA")
	c, _ := ParseKmer("TAAA")
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

package extindex

import (
	"testing"

	"github.com/hupe1980/abruijn/sequence"
	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	m := Outgoing(sequence.A) | Outgoing(sequence.G) | Incoming(sequence.T)

	assert.True(t, m.HasOutgoing(sequence.A))
	assert.False(t, m.HasOutgoing(sequence.T))
	assert.True(t, m.HasIncoming(sequence.T))
	assert.Equal(t, []sequence.Nucleotide{sequence.A, sequence.G}, m.Successors())
	assert.Equal(t, []sequence.Nucleotide{sequence.T}, m.Predecessors())
	assert.Equal(t, 2, m.OutDegree())
	assert.Equal(t, 1, m.InDegree())
	assert.Equal(t, "T|AG", m.String())
	assert.Equal(t, "|", Mask(0).String())
}

func TestMask_Complement(t *testing.T) {
	assert.Equal(t, Incoming(sequence.T), Outgoing(sequence.A).Complement())
	assert.Equal(t, Outgoing(sequence.G), Incoming(sequence.C).Complement())

	for m := range 256 {
		mask := Mask(m)
		assert.Equal(t, mask, mask.Complement().Complement())
		assert.Equal(t, mask.OutDegree(), mask.Complement().InDegree())
	}
}

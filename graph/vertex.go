package graph

import (
	"fmt"
	"math"
)

// VertexID is a generational handle: the low 32 bits address an arena slot,
// the high 32 bits carry the slot generation.
type VertexID uint64

// NoVertex is the zero handle returned alongside errors.
const NoVertex = VertexID(math.MaxUint64)

func makeID(slot uint32, gen uint32) VertexID {
	return VertexID(uint64(gen)<<32 | uint64(slot))
}

func (id VertexID) slot() uint32 { return uint32(id) }

func (id VertexID) gen() uint32 { return uint32(id >> 32) }

// Complement returns the handle of the reverse-complement vertex.
func (id VertexID) Complement() VertexID { return id ^ 1 }

func (id VertexID) String() string {
	if id == NoVertex {
		return "none"
	}
	return fmt.Sprintf("%d@%d", id.slot(), id.gen())
}

const (
	flagLive uint8 = 1 << iota
	flagRemoved
)

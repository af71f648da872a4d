package graph

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/abruijn/sequence"
)

// Condense merges unbranched vertex chains until no merge applies and
// returns the number of merges performed.
//
// A vertex v is merged with its successor u when v has exactly one outgoing
// edge, u has exactly one incoming edge and the edge carries a single span.
// The merged vertex takes the connecting sequence as data. Edges leaving u
// and edges entering v are relinked onto it with their spans extended by the
// absorbed prefix. A merge is skipped when u is v or !v, when a relinked
// neighbour belongs to the v or u pair, or when the merged sequence already
// exists as a vertex. Cleanup runs between sweeps.
func (g *Graph) Condense() (int, error) {
	total := 0
	for {
		merged, err := g.condenseSweep()
		total += merged
		if err != nil {
			return total, err
		}
		if err := g.Cleanup(); err != nil {
			return total, err
		}
		if merged == 0 {
			return total, nil
		}
	}
}

func (g *Graph) condenseSweep() (int, error) {
	queued := bitset.New(uint(len(g.slots)))
	work := make([]VertexID, 0, g.live)
	for i := len(g.slots) - 1; i >= 0; i-- {
		if g.slots[i].alive() {
			work = append(work, makeID(uint32(i), g.slots[i].gen))
			queued.Set(uint(i))
		}
	}

	merged := 0
	for len(work) > 0 {
		v := work[len(work)-1]
		work = work[:len(work)-1]
		queued.Clear(uint(v.slot()))
		if !g.Contains(v) {
			continue
		}
		vu, ok, err := g.tryCondense(v)
		if err != nil {
			return merged, err
		}
		if !ok {
			continue
		}
		merged++
		for _, id := range [2]VertexID{vu, vu.Complement()} {
			if !queued.Test(uint(id.slot())) {
				queued.Set(uint(id.slot()))
				work = append(work, id)
			}
		}
	}
	return merged, nil
}

// tryCondense merges v with its unique successor if the chain condition
// holds and returns the merged vertex.
func (g *Graph) tryCondense(v VertexID) (VertexID, bool, error) {
	vs := &g.slots[v.slot()]
	if len(vs.edges) != 1 {
		return NoVertex, false, nil
	}
	var (
		u VertexID
		e *Edge
	)
	for to, edge := range vs.edges {
		u, e = to, edge
	}
	if u == v || u == v.Complement() || !g.Contains(u) {
		return NoVertex, false, nil
	}
	if g.InDegree(u) != 1 || e.Len() != 1 {
		return NoVertex, false, nil
	}
	span := e.Spans()[0]
	data := span.Seq
	sizeV, sizeU := g.Size(v), g.Size(u)
	if data.Len() <= sizeU || data.Len() < sizeV {
		return NoVertex, false, nil
	}

	pair := [4]VertexID{v, v.Complement(), u, u.Complement()}
	touches := func(x VertexID) bool {
		for w := range g.slots[x.slot()].edges {
			for _, p := range pair {
				if w == p {
					return true
				}
			}
		}
		return false
	}
	if touches(u) || touches(v.Complement()) {
		return NoVertex, false, nil
	}
	if g.HasVertex(data) {
		return NoVertex, false, nil
	}

	vu, err := g.CreateVertex(data)
	if err != nil {
		return NoVertex, false, err
	}
	if err := g.relink(vu, u, data.Subseq(0, data.Len()-sizeU)); err != nil {
		return NoVertex, false, err
	}
	rc := g.Data(vu.Complement())
	if err := g.relink(vu.Complement(), v.Complement(), rc.Subseq(0, rc.Len()-sizeV)); err != nil {
		return NoVertex, false, err
	}
	if err := g.RemoveVertex(v); err != nil {
		return NoVertex, false, err
	}
	if err := g.RemoveVertex(u); err != nil {
		return NoVertex, false, err
	}
	return vu, true, nil
}

// relink copies every outgoing span of old onto merged, prefixing the
// connecting sequences with prefix.
func (g *Graph) relink(merged, old VertexID, prefix sequence.Sequence) error {
	type pending struct {
		to    VertexID
		seq   sequence.Sequence
		count int
	}
	var todo []pending
	for w, e := range g.Edges(old) {
		for _, s := range e.Spans() {
			todo = append(todo, pending{to: w, seq: prefix.Concat(s.Seq), count: s.Count})
		}
	}
	for _, p := range todo {
		if err := g.addEdge(merged, p.to, p.seq, p.count); err != nil {
			return err
		}
	}
	return nil
}

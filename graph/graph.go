package graph

import (
	"iter"
	"slices"
	"sync/atomic"

	"github.com/hupe1980/abruijn/sequence"
)

type slot struct {
	data  sequence.Sequence
	edges map[VertexID]*Edge
	gen   uint32
	flags uint8
}

func (s *slot) alive() bool { return s.flags&flagLive != 0 && s.flags&flagRemoved == 0 }

// Graph is a strand-symmetric k-mer graph.
type Graph struct {
	k       int
	slots   []slot
	index   map[string]VertexID
	free    []uint32 // even slots ready for reuse
	pending []uint32 // even slots tagged removed
	live    int

	iterators atomic.Int32
}

// New creates an empty graph for k-mers of length k.
func New(k int) *Graph {
	return &Graph{
		k:     k,
		index: make(map[string]VertexID),
	}
}

// K returns the k-mer length the graph was created with.
func (g *Graph) K() int { return g.k }

// Len returns the number of live vertices, counting both orientations.
func (g *Graph) Len() int { return g.live }

// Pending returns the number of vertices tagged removed but not yet freed.
func (g *Graph) Pending() int { return 2 * len(g.pending) }

func (g *Graph) lookup(id VertexID) (*slot, error) {
	i := id.slot()
	if id == NoVertex || int(i) >= len(g.slots) {
		return nil, &VertexError{ID: id, Err: ErrStaleVertex}
	}
	s := &g.slots[i]
	if s.flags&flagLive == 0 || s.gen != id.gen() {
		return nil, &VertexError{ID: id, Err: ErrStaleVertex}
	}
	return s, nil
}

func (g *Graph) mutable(id VertexID) (*slot, error) {
	s, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	if s.flags&flagRemoved != 0 {
		return nil, &VertexError{ID: id, Err: ErrRemovedVertex}
	}
	return s, nil
}

// Contains reports whether id addresses a live, non-removed vertex.
func (g *Graph) Contains(id VertexID) bool {
	s, err := g.lookup(id)
	return err == nil && s.flags&flagRemoved == 0
}

// Removed reports whether id is tagged for removal and awaiting Cleanup.
func (g *Graph) Removed(id VertexID) bool {
	s, err := g.lookup(id)
	return err == nil && s.flags&flagRemoved != 0
}

// Data returns the sequence of a vertex, or an empty sequence for an invalid handle.
func (g *Graph) Data(id VertexID) sequence.Sequence {
	s, err := g.lookup(id)
	if err != nil {
		return sequence.Sequence{}
	}
	return s.data
}

// Size returns the length of the vertex data.
func (g *Graph) Size(id VertexID) int { return g.Data(id).Len() }

// Complement returns the reverse-complement vertex of id.
func (g *Graph) Complement(id VertexID) VertexID { return id.Complement() }

// Degree returns the number of outgoing edges of id.
func (g *Graph) Degree(id VertexID) int {
	s, err := g.lookup(id)
	if err != nil {
		return 0
	}
	return len(s.edges)
}

// InDegree returns the number of incoming edges of id. By the mirror
// invariant it equals the out-degree of the complement.
func (g *Graph) InDegree(id VertexID) int { return g.Degree(id.Complement()) }

// Edge returns the edge from -> to.
func (g *Graph) Edge(from, to VertexID) (*Edge, bool) {
	s, err := g.lookup(from)
	if err != nil {
		return nil, false
	}
	e, ok := s.edges[to]
	return e, ok
}

// HasVertex reports whether a vertex with data kmer (in either orientation) exists.
func (g *Graph) HasVertex(kmer sequence.Sequence) bool {
	_, ok := g.index[kmer.Key()]
	return ok
}

// Find returns the vertex whose data equals kmer without creating one.
func (g *Graph) Find(kmer sequence.Sequence) (VertexID, bool) {
	id, ok := g.index[kmer.Key()]
	return id, ok
}

// CreateVertex allocates a new vertex pair for kmer and its reverse complement
// and returns the handle whose data equals kmer.
func (g *Graph) CreateVertex(kmer sequence.Sequence) (VertexID, error) {
	if kmer.Len() == 0 {
		return NoVertex, ErrEmptySequence
	}
	key := kmer.Key()
	if id, ok := g.index[key]; ok {
		return NoVertex, &VertexError{ID: id, Err: ErrVertexExists}
	}

	comp := kmer.Complement()
	var i uint32
	if n := len(g.free); n > 0 {
		i = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		i = uint32(len(g.slots))
		g.slots = append(g.slots, slot{}, slot{})
	}
	gen := g.slots[i].gen
	g.slots[i] = slot{data: kmer, gen: gen, flags: flagLive}
	g.slots[i+1] = slot{data: comp, gen: gen, flags: flagLive}
	g.live += 2

	id := makeID(i, gen)
	g.index[key] = id
	if compKey := comp.Key(); compKey != key {
		g.index[compKey] = id.Complement()
	}
	return id, nil
}

// GetVertex returns the vertex whose data equals kmer, creating the pair if
// neither orientation is indexed yet.
func (g *Graph) GetVertex(kmer sequence.Sequence) (VertexID, error) {
	id, ok := g.index[kmer.Key()]
	if !ok {
		return g.CreateVertex(kmer)
	}
	s, err := g.lookup(id)
	if err != nil {
		return NoVertex, err
	}
	if s.data.Equal(kmer) {
		return id, nil
	}
	c, err := g.lookup(id.Complement())
	if err != nil {
		return NoVertex, err
	}
	if c.data.Equal(kmer) {
		return id.Complement(), nil
	}
	return NoVertex, &VertexError{ID: id, Err: ErrOrientationMismatch}
}

// AddEdge records one observation of seq on from -> to and its mirror
// !seq on !to -> !from. An edge onto the source's own complement is its own
// mirror and is recorded once.
func (g *Graph) AddEdge(from, to VertexID, seq sequence.Sequence) error {
	return g.addEdge(from, to, seq, 1)
}

func (g *Graph) addEdge(from, to VertexID, seq sequence.Sequence, count int) error {
	if seq.Len() == 0 {
		return ErrEmptySequence
	}
	fs, err := g.mutable(from)
	if err != nil {
		return err
	}
	if _, err := g.mutable(to); err != nil {
		return err
	}
	link(fs, from, to, seq, count)
	if to != from.Complement() {
		ms := &g.slots[to.Complement().slot()]
		link(ms, to.Complement(), from.Complement(), seq.Complement(), count)
	}
	return nil
}

func link(s *slot, from, to VertexID, seq sequence.Sequence, count int) {
	if s.edges == nil {
		s.edges = make(map[VertexID]*Edge, 2)
	}
	e, ok := s.edges[to]
	if !ok {
		e = newEdge(from, to)
		s.edges[to] = e
	}
	e.add(seq, count)
}

// RemoveVertex detaches v and its complement from the graph and tags both
// slots removed. Their memory is reclaimed by Cleanup.
func (g *Graph) RemoveVertex(v VertexID) error {
	if _, err := g.mutable(v); err != nil {
		return err
	}
	for _, x := range [2]VertexID{v, v.Complement()} {
		s := &g.slots[x.slot()]
		for w := range s.edges {
			if ws, err := g.lookup(w.Complement()); err == nil {
				delete(ws.edges, x.Complement())
			}
		}
		if key := s.data.Key(); g.index[key] == x {
			delete(g.index, key)
		}
	}
	even := v.slot() &^ 1
	g.slots[even].flags |= flagRemoved
	g.slots[even+1].flags |= flagRemoved
	g.pending = append(g.pending, even)
	g.live -= 2
	return nil
}

// Cleanup frees every slot pair tagged by RemoveVertex. Handles to freed
// slots become stale.
func (g *Graph) Cleanup() error {
	if g.iterators.Load() > 0 {
		return ErrIterationInProgress
	}
	for _, i := range g.pending {
		gen := g.slots[i].gen + 1
		g.slots[i] = slot{gen: gen}
		g.slots[i+1] = slot{gen: gen}
		g.free = append(g.free, i)
	}
	g.pending = g.pending[:0]
	return nil
}

// Vertices yields every live, non-removed vertex in slot order, both
// orientations included. Vertices created during iteration are visited.
func (g *Graph) Vertices() iter.Seq[VertexID] {
	return func(yield func(VertexID) bool) {
		g.iterators.Add(1)
		defer g.iterators.Add(-1)
		for i := 0; i < len(g.slots); i++ {
			s := &g.slots[i]
			if !s.alive() {
				continue
			}
			if !yield(makeID(uint32(i), s.gen)) {
				return
			}
		}
	}
}

// Edges yields the outgoing edges of v ordered by target handle. Edges
// deleted during iteration are skipped.
func (g *Graph) Edges(v VertexID) iter.Seq2[VertexID, *Edge] {
	return func(yield func(VertexID, *Edge) bool) {
		s, err := g.lookup(v)
		if err != nil {
			return
		}
		g.iterators.Add(1)
		defer g.iterators.Add(-1)
		targets := make([]VertexID, 0, len(s.edges))
		for w := range s.edges {
			targets = append(targets, w)
		}
		slices.Sort(targets)
		for _, w := range targets {
			e, ok := g.slots[v.slot()].edges[w]
			if !ok {
				continue
			}
			if !yield(w, e) {
				return
			}
		}
	}
}

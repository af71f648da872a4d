package graph

import (
	"slices"

	"github.com/hupe1980/abruijn/sequence"
)

// Span is one observed connection length on an edge.
type Span struct {
	// Length is the length of the connecting sequence: the read distance
	// between the two vertex occurrences plus the size of the target.
	Length int
	// Count is the number of observations.
	Count int
	// Seq is the first connecting sequence observed with this length. It
	// starts with the source data and ends with the target data.
	Seq sequence.Sequence
}

// Edge is a directed connection with a histogram of spans.
type Edge struct {
	from, to VertexID
	spans    map[int]*Span
}

func newEdge(from, to VertexID) *Edge {
	return &Edge{from: from, to: to, spans: make(map[int]*Span, 1)}
}

// From returns the source vertex.
func (e *Edge) From() VertexID { return e.from }

// To returns the target vertex.
func (e *Edge) To() VertexID { return e.to }

// Len returns the number of distinct span lengths.
func (e *Edge) Len() int { return len(e.spans) }

// Count returns the number of observations with span length l.
func (e *Edge) Count(l int) int {
	if s, ok := e.spans[l]; ok {
		return s.Count
	}
	return 0
}

// Total returns the number of observations over all lengths.
func (e *Edge) Total() int {
	n := 0
	for _, s := range e.spans {
		n += s.Count
	}
	return n
}

// Spans returns copies of all spans ordered by length.
func (e *Edge) Spans() []Span {
	out := make([]Span, 0, len(e.spans))
	for _, s := range e.spans {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Span) int { return a.Length - b.Length })
	return out
}

func (e *Edge) add(seq sequence.Sequence, count int) {
	l := seq.Len()
	s, ok := e.spans[l]
	if !ok {
		s = &Span{Length: l, Seq: seq}
		e.spans[l] = s
	}
	s.Count += count
}

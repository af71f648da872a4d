package graph

import "github.com/hupe1980/abruijn/codec"

// Snapshot is a serializable, deterministic view of a graph.
type Snapshot struct {
	K        int              `json:"k"`
	Vertices []VertexSnapshot `json:"vertices"`
	Edges    []EdgeSnapshot   `json:"edges"`
}

// VertexSnapshot describes one vertex.
type VertexSnapshot struct {
	ID         uint64 `json:"id"`
	Complement uint64 `json:"complement"`
	Sequence   string `json:"sequence"`
	Size       int    `json:"size"`
}

// EdgeSnapshot describes one directed edge.
type EdgeSnapshot struct {
	From  uint64         `json:"from"`
	To    uint64         `json:"to"`
	Spans []SpanSnapshot `json:"spans"`
}

// SpanSnapshot describes one span of an edge.
type SpanSnapshot struct {
	Length   int    `json:"length"`
	Count    int    `json:"count"`
	Sequence string `json:"sequence"`
}

// Snapshot captures all live vertices and their edges ordered by handle.
func (g *Graph) Snapshot() *Snapshot {
	snap := &Snapshot{K: g.k}
	for v := range g.Vertices() {
		data := g.Data(v)
		snap.Vertices = append(snap.Vertices, VertexSnapshot{
			ID:         uint64(v),
			Complement: uint64(v.Complement()),
			Sequence:   data.String(),
			Size:       data.Len(),
		})
		for w, e := range g.Edges(v) {
			es := EdgeSnapshot{From: uint64(v), To: uint64(w)}
			for _, s := range e.Spans() {
				es.Spans = append(es.Spans, SpanSnapshot{Length: s.Length, Count: s.Count, Sequence: s.Seq.String()})
			}
			snap.Edges = append(snap.Edges, es)
		}
	}
	return snap
}

// Encode serializes the snapshot with c.
func (s *Snapshot) Encode(c codec.Codec) ([]byte, error) {
	return c.Marshal(s)
}

// DecodeSnapshot parses a snapshot produced by Encode.
func DecodeSnapshot(c codec.Codec, data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := c.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

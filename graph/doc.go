// Package graph implements a strand-symmetric k-mer graph.
//
// Vertices live in an arena and are allocated in pairs: slot 2i holds a
// sequence and slot 2i+1 holds its reverse complement, so the complement of a
// vertex is a single XOR (id ^ 1). Handles are generational; a VertexID that
// outlived its slot is rejected with ErrStaleVertex.
//
// Every edge u -> v is mirrored by !v -> !u carrying the reverse complement
// connecting sequence and the same counts. AddEdge is the only edge mutator
// and maintains the mirror.
//
// Deletion is two-phase. RemoveVertex prunes all references to a vertex pair
// and tags both slots removed; Cleanup later frees every tagged pair. Cleanup
// refuses to run while an iterator from Vertices or Edges is active.
//
// A Graph is not safe for concurrent mutation.
package graph

package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariant is the root of every structural error reported by the graph.
	ErrInvariant = errors.New("graph invariant violated")

	// ErrVertexExists is returned by CreateVertex when the sequence is already indexed.
	ErrVertexExists = fmt.Errorf("%w: vertex already exists", ErrInvariant)

	// ErrOrientationMismatch is returned when the indexed vertex matches neither orientation.
	ErrOrientationMismatch = fmt.Errorf("%w: orientation mismatch", ErrInvariant)

	// ErrIterationInProgress is returned by Cleanup while an iterator is live.
	ErrIterationInProgress = fmt.Errorf("%w: cleanup during iteration", ErrInvariant)

	// ErrStaleVertex is returned for handles whose slot was freed or never allocated.
	ErrStaleVertex = fmt.Errorf("%w: stale vertex handle", ErrInvariant)

	// ErrRemovedVertex is returned when mutating a vertex tagged for removal.
	ErrRemovedVertex = fmt.Errorf("%w: vertex is removed", ErrInvariant)

	// ErrEmptySequence is returned when a vertex or edge would carry no symbols.
	ErrEmptySequence = errors.New("empty sequence")
)

// VertexError annotates an error with the vertex it concerns.
type VertexError struct {
	ID  VertexID
	Err error
}

func (e *VertexError) Error() string {
	return fmt.Sprintf("vertex %s: %v", e.ID, e.Err)
}

func (e *VertexError) Unwrap() error { return e.Err }

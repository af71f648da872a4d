package abruijn

import (
	"errors"
	"fmt"

	"github.com/hupe1980/abruijn/extindex"
	"github.com/hupe1980/abruijn/graph"
	"github.com/hupe1980/abruijn/internal/manifest"
)

var (
	// ErrInvalidConfig is returned for unusable configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvariant is returned when graph construction hits an inconsistent
	// graph state. The run is aborted.
	ErrInvariant = errors.New("graph invariant violated")

	// ErrStageFailed is returned when a stage of the index build fails.
	// Rerunning the build overwrites the partial outputs.
	ErrStageFailed = errors.New("index stage failed")

	// ErrNotFound is returned when no finished index exists at a location.
	ErrNotFound = errors.New("not found")
)

// ErrInvalidK indicates a k outside the range the construction supports.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidK struct {
	K     int
	Max   int
	cause error
}

func (e *ErrInvalidK) Error() string {
	return fmt.Sprintf("invalid k: %d (want 1..%d)", e.K, e.Max)
}

func (e *ErrInvalidK) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{ErrInvalidConfig, e.cause}
}

// StageError reports the index build stage that failed.
type StageError struct {
	Stage string
	cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("index stage %s failed: %v", e.Stage, e.cause)
}

func (e *StageError) Unwrap() []error { return []error{ErrStageFailed, e.cause} }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var se *extindex.StageError
	if errors.As(err, &se) {
		return &StageError{Stage: se.Stage, cause: err}
	}
	if errors.Is(err, extindex.ErrInvalidOptions) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if errors.Is(err, graph.ErrInvariant) {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	if errors.Is(err, manifest.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}

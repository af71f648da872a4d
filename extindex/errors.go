package extindex

import (
	"errors"
	"fmt"
)

var (
	// ErrStageFailed wraps every error returned by Build.
	ErrStageFailed = errors.New("extindex: stage failed")

	// ErrInvalidOptions is returned for unusable build options.
	ErrInvalidOptions = errors.New("extindex: invalid options")

	// ErrMissingKmer means a (k+1)-mer references a k-mer that is not in the index.
	ErrMissingKmer = errors.New("extindex: k-mer missing from index")

	// ErrChecksumMismatch is returned when a bucket file does not match its manifest entry.
	ErrChecksumMismatch = errors.New("extindex: checksum mismatch")
)

// Stage names.
const (
	StageSplit  = "split"
	StageCount  = "count"
	StageDerive = "derive"
	StageIndex  = "index"
	StageFill   = "fill"
)

// StageError reports the stage a build failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("extindex: stage %s failed: %v", e.Stage, e.Err)
}

// Unwrap exposes both ErrStageFailed and the cause.
func (e *StageError) Unwrap() []error {
	return []error{ErrStageFailed, e.Err}
}

package manifest

import "errors"

var (
	// ErrIncompatibleVersion is returned when the manifest version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible manifest version")

	// ErrNotFound is returned when no CURRENT pointer exists.
	ErrNotFound = errors.New("manifest not found")

	// ErrInvalid is returned for a manifest whose bucket table is inconsistent.
	ErrInvalid = errors.New("invalid manifest")
)

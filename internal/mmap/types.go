package mmap

import "errors"

// AccessPattern is the madvise hint given when a file is mapped.
type AccessPattern int

const (
	// AccessNormal leaves read-ahead to the kernel.
	AccessNormal AccessPattern = iota
	// AccessSequential suits bucket scans in the merge and fill stages.
	AccessSequential
	// AccessRandom suits binary searches over index files.
	AccessRandom
)

var (
	ErrClosed        = errors.New("mmap: mapping is closed")
	ErrInvalidSize   = errors.New("mmap: file too large to map")
	ErrInvalidOffset = errors.New("mmap: negative offset")
)

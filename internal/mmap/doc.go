// Package mmap maps bucket and index files read-only into memory.
//
//	m, err := mmap.Open("index.b003.kmr", mmap.AccessSequential)
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// On Unix files are mapped with mmap(2) and the access pattern is passed to
// madvise(2). Elsewhere the file is read into the heap. Bytes must not be
// used after Close.
package mmap

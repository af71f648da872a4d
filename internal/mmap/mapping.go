package mmap

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// Mapping is a read-only view of a whole bucket or index file.
type Mapping struct {
	path   string
	data   []byte
	unmap  func([]byte) error
	closed atomic.Bool
}

// Open maps the file at path and hints pattern to the kernel. Empty files
// produce an empty mapping without a system call.
func Open(path string, pattern AccessPattern) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	m := &Mapping{path: path}
	switch size := fi.Size(); {
	case size == 0:
		return m, nil
	case int64(int(size)) != size:
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidSize)
	default:
		if m.data, m.unmap, err = osMap(f, int(size)); err != nil {
			return nil, fmt.Errorf("mmap %s: %w", path, err)
		}
	}
	if err := osAdvise(m.data, pattern); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("madvise %s: %w", path, err)
	}
	return m, nil
}

// Path returns the mapped file.
func (m *Mapping) Path() string { return m.path }

// Bytes returns the mapped bytes, or nil after Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the file size in bytes.
func (m *Mapping) Size() int { return len(m.data) }

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	data := m.Bytes()
	switch {
	case m.closed.Load():
		return 0, ErrClosed
	case off < 0:
		return 0, ErrInvalidOffset
	case off >= int64(len(data)):
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file. Calling it again is a no-op.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.unmap == nil {
		return nil
	}
	return m.unmap(m.data)
}

package bucket

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/abruijn/internal/fs"
	"github.com/hupe1980/abruijn/internal/mmap"
	"github.com/hupe1980/abruijn/internal/resource"
)

// FileWriter writes a bucket file to a temporary sibling and publishes it on
// Commit.
type FileWriter struct {
	*Writer

	fsys fs.FileSystem
	path string
	tmp  string
	f    fs.File
	bw   *bufio.Writer
	done bool
}

// Create starts a new file at path. Writes are throttled by rc when it
// carries an IO limit.
func Create(ctx context.Context, fsys fs.FileSystem, path string, opts WriterOptions, rc *resource.Controller) (*FileWriter, error) {
	tmp := path + ".tmp"
	f, err := fs.Create(fsys, tmp)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(resource.NewRateLimitedWriter(ctx, f, rc), 64*1024)
	return &FileWriter{
		Writer: NewWriter(bw, opts),
		fsys:   fsys,
		path:   path,
		tmp:    tmp,
		f:      f,
		bw:     bw,
	}, nil
}

// Path returns the final path of the file.
func (fw *FileWriter) Path() string { return fw.path }

// Commit finishes the file, syncs it and renames it into place.
func (fw *FileWriter) Commit() (Trailer, error) {
	if fw.done {
		return Trailer{}, errors.New("bucket: file already finished")
	}
	fw.done = true

	t, err := fw.Writer.Close()
	if err == nil {
		err = fw.bw.Flush()
	}
	if err == nil {
		err = fw.f.Sync()
	}
	if cerr := fw.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = fw.fsys.Remove(fw.tmp)
		return Trailer{}, fmt.Errorf("write %s: %w", fw.path, err)
	}
	if err := fw.fsys.Rename(fw.tmp, fw.path); err != nil {
		_ = fw.fsys.Remove(fw.tmp)
		return Trailer{}, err
	}
	return t, nil
}

// Abort discards the file. It is a no-op after Commit.
func (fw *FileWriter) Abort() {
	if fw.done {
		return
	}
	fw.done = true
	_ = fw.f.Close()
	_ = fw.fsys.Remove(fw.tmp)
}

// File is an open bucket file.
type File struct {
	*Reader
	m *mmap.Mapping
}

// Open opens a finished file. Files on the local file system are memory
// mapped, anything else is read into memory.
func Open(fsys fs.FileSystem, path string) (*File, error) {
	if _, ok := fsys.(fs.LocalFS); ok {
		m, err := mmap.Open(path, mmap.AccessSequential)
		if err != nil {
			return nil, err
		}
		r, err := NewReader(m.Bytes())
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &File{Reader: r, m: m}, nil
	}

	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Reader: r}, nil
}

// Close releases the mapping, if any.
func (f *File) Close() error {
	if f.m != nil {
		return f.m.Close()
	}
	return nil
}

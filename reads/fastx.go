package reads

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/abruijn/internal/fs"
	"github.com/hupe1980/abruijn/sequence"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrMalformed is returned for input that is neither FASTA nor FASTQ.
	ErrMalformed = errors.New("reads: malformed record")

	// ErrMateMismatch is returned when paired files hold different record counts.
	ErrMateMismatch = errors.New("reads: paired files differ in record count")
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// decompress sniffs gzip and zstd magic numbers and wraps r accordingly.
func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReaderSize(r, 1<<16)
	magic, _ := br.Peek(4)
	switch {
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { _ = gz.Close() }, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return br, func() {}, nil
	}
}

type record struct {
	name string
	raw  []byte
}

// parser reads FASTA or FASTQ records; the format is chosen by the first
// non-empty line.
type parser struct {
	br     *bufio.Reader
	marker byte
	header []byte // FASTA header consumed while reading the previous record
	line   int
}

func newParser(r io.Reader) *parser {
	return &parser{br: bufio.NewReaderSize(r, 1<<20)}
}

func (p *parser) readLine() ([]byte, error) {
	for {
		b, err := p.br.ReadBytes('\n')
		if len(b) == 0 && err != nil {
			return nil, err
		}
		p.line++
		b = bytes.TrimRight(b, "\r\n")
		if len(b) == 0 {
			if err != nil {
				return nil, err
			}
			continue
		}
		return b, nil
	}
}

func (p *parser) next() (record, error) {
	if p.marker == 0 {
		first, err := p.readLine()
		if err != nil {
			return record{}, err
		}
		if first[0] != '>' && first[0] != '@' {
			return record{}, fmt.Errorf("%w: line %d starts with %q", ErrMalformed, p.line, first[0])
		}
		p.marker = first[0]
		p.header = first
	}
	if p.marker == '@' {
		return p.nextFASTQ()
	}
	return p.nextFASTA()
}

func recordName(header []byte) string {
	name := header[1:]
	if i := bytes.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

func (p *parser) nextFASTA() (record, error) {
	if p.header == nil {
		return record{}, io.EOF
	}
	rec := record{name: recordName(p.header)}
	p.header = nil
	for {
		line, err := p.readLine()
		if errors.Is(err, io.EOF) {
			return rec, nil
		}
		if err != nil {
			return record{}, err
		}
		if line[0] == '>' {
			p.header = line
			return rec, nil
		}
		rec.raw = append(rec.raw, line...)
	}
}

func (p *parser) nextFASTQ() (record, error) {
	header := p.header
	p.header = nil
	if header == nil {
		var err error
		if header, err = p.readLine(); err != nil {
			return record{}, err
		}
	}
	if header[0] != '@' {
		return record{}, fmt.Errorf("%w: line %d: expected '@'", ErrMalformed, p.line)
	}
	seq, err := p.readLine()
	if err != nil {
		return record{}, fmt.Errorf("%w: line %d: truncated record", ErrMalformed, p.line)
	}
	plus, err := p.readLine()
	if err != nil || plus[0] != '+' {
		return record{}, fmt.Errorf("%w: line %d: expected '+'", ErrMalformed, p.line)
	}
	if _, err := p.readLine(); err != nil {
		return record{}, fmt.Errorf("%w: line %d: missing quality", ErrMalformed, p.line)
	}
	return record{name: recordName(header), raw: append([]byte(nil), seq...)}, nil
}

// FileStream parses a FASTA or FASTQ file. Reset reopens the file.
type FileStream struct {
	path    string
	fsys    fs.FileSystem
	file    io.Closer
	release func()
	p       *parser
	pending []Read
	skipped int
}

// Open opens a FASTA/FASTQ file, optionally gzip or zstd compressed.
func Open(path string) (*FileStream, error) {
	return OpenFS(fs.Default, path)
}

// OpenFS is like Open on a custom file system.
func OpenFS(fsys fs.FileSystem, path string) (*FileStream, error) {
	s := &FileStream{path: path, fsys: fsys}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewReader parses r. The returned stream cannot be reset.
func NewReader(r io.Reader) (*FileStream, error) {
	dr, release, err := decompress(r)
	if err != nil {
		return nil, err
	}
	return &FileStream{p: newParser(dr), release: release}, nil
}

func (s *FileStream) open() error {
	var src io.ReadCloser
	if s.path == "-" {
		src = io.NopCloser(os.Stdin)
	} else {
		f, err := fs.Open(s.fsys, s.path)
		if err != nil {
			return err
		}
		src = f
	}
	dr, release, err := decompress(src)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("reads: open %s: %w", s.path, err)
	}
	s.file, s.release, s.p = src, release, newParser(dr)
	return nil
}

// Skipped returns the number of records without a single valid fragment.
func (s *FileStream) Skipped() int { return s.skipped }

func (s *FileStream) nextRecord() (record, error) {
	return s.p.next()
}

func (s *FileStream) Next(ctx context.Context) (Read, error) {
	if err := ctx.Err(); err != nil {
		return Read{}, err
	}
	for len(s.pending) == 0 {
		rec, err := s.nextRecord()
		if err != nil {
			return Read{}, err
		}
		for _, frag := range sequence.Fragments(rec.raw) {
			s.pending = append(s.pending, Read{Name: rec.name, Seq: frag})
		}
		if len(s.pending) == 0 {
			s.skipped++
		}
	}
	r := s.pending[0]
	s.pending = s.pending[1:]
	return r, nil
}

func (s *FileStream) Reset() error {
	if s.path == "" || s.path == "-" {
		return ErrResetUnsupported
	}
	if err := s.Close(); err != nil {
		return err
	}
	s.pending, s.skipped = nil, 0
	return s.open()
}

// Close releases the underlying file.
func (s *FileStream) Close() error {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

// PairedStream zips two files record by record. When both mates parse into a
// single valid fragment they are returned as one Read with Mate set;
// otherwise every fragment of both records is returned unpaired.
type PairedStream struct {
	left, right *FileStream
	pending     []Read
}

// OpenPaired opens the two mate files of a paired-end library.
func OpenPaired(left, right string) (*PairedStream, error) {
	l, err := Open(left)
	if err != nil {
		return nil, err
	}
	r, err := Open(right)
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	return &PairedStream{left: l, right: r}, nil
}

func (p *PairedStream) Next(ctx context.Context) (Read, error) {
	if err := ctx.Err(); err != nil {
		return Read{}, err
	}
	for len(p.pending) == 0 {
		lr, lerr := p.left.nextRecord()
		rr, rerr := p.right.nextRecord()
		if errors.Is(lerr, io.EOF) && errors.Is(rerr, io.EOF) {
			return Read{}, io.EOF
		}
		if errors.Is(lerr, io.EOF) || errors.Is(rerr, io.EOF) {
			return Read{}, ErrMateMismatch
		}
		if lerr != nil {
			return Read{}, lerr
		}
		if rerr != nil {
			return Read{}, rerr
		}
		lf, rf := sequence.Fragments(lr.raw), sequence.Fragments(rr.raw)
		if len(lf) == 1 && len(rf) == 1 {
			return Read{Name: lr.name, Seq: lf[0], Mate: &Read{Name: rr.name, Seq: rf[0]}}, nil
		}
		for _, f := range lf {
			p.pending = append(p.pending, Read{Name: lr.name, Seq: f})
		}
		for _, f := range rf {
			p.pending = append(p.pending, Read{Name: rr.name, Seq: f})
		}
	}
	r := p.pending[0]
	p.pending = p.pending[1:]
	return r, nil
}

func (p *PairedStream) Reset() error {
	p.pending = nil
	if err := p.left.Reset(); err != nil {
		return err
	}
	return p.right.Reset()
}

// Close releases both files.
func (p *PairedStream) Close() error {
	return errors.Join(p.left.Close(), p.right.Close())
}

// Concat chains streams one after another.
func Concat(streams ...Stream) Stream {
	return &concatStream{streams: streams}
}

type concatStream struct {
	streams []Stream
	cur     int
}

func (c *concatStream) Next(ctx context.Context) (Read, error) {
	for c.cur < len(c.streams) {
		r, err := c.streams[c.cur].Next(ctx)
		if errors.Is(err, io.EOF) {
			c.cur++
			continue
		}
		return r, err
	}
	return Read{}, io.EOF
}

func (c *concatStream) Reset() error {
	c.cur = 0
	for _, s := range c.streams {
		if err := s.Reset(); err != nil {
			return err
		}
	}
	return nil
}

package reads

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/abruijn/sequence"
)

// ErrResetUnsupported is returned by streams that can be consumed only once.
var ErrResetUnsupported = errors.New("reads: stream does not support reset")

// Read is one sequencing read, optionally paired with its mate.
type Read struct {
	Name string
	Seq  sequence.Sequence
	Mate *Read
}

// Each calls fn for r and then for its mate, if any.
func (r Read) Each(fn func(Read) error) error {
	if err := fn(r); err != nil {
		return err
	}
	if r.Mate != nil {
		return fn(*r.Mate)
	}
	return nil
}

// Stream is a resettable source of reads. Next returns io.EOF after the last read.
type Stream interface {
	Next(ctx context.Context) (Read, error)
	Reset() error
}

// ForEach drains s, calling fn for every read and every mate.
func ForEach(ctx context.Context, s Stream, fn func(Read) error) error {
	for {
		r, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := r.Each(fn); err != nil {
			return err
		}
	}
}

// SliceStream serves reads from memory.
type SliceStream struct {
	reads []Read
	pos   int
}

// NewSliceStream returns a stream over reads.
func NewSliceStream(reads []Read) *SliceStream {
	return &SliceStream{reads: reads}
}

// FromStrings parses every string as an unpaired read.
func FromStrings(seqs ...string) (*SliceStream, error) {
	rs := make([]Read, 0, len(seqs))
	for _, s := range seqs {
		seq, err := sequence.Parse(s)
		if err != nil {
			return nil, err
		}
		rs = append(rs, Read{Seq: seq})
	}
	return NewSliceStream(rs), nil
}

func (s *SliceStream) Next(ctx context.Context) (Read, error) {
	if err := ctx.Err(); err != nil {
		return Read{}, err
	}
	if s.pos >= len(s.reads) {
		return Read{}, io.EOF
	}
	r := s.reads[s.pos]
	s.pos++
	return r, nil
}

func (s *SliceStream) Reset() error {
	s.pos = 0
	return nil
}

// Len returns the number of reads.
func (s *SliceStream) Len() int { return len(s.reads) }

type limitStream struct {
	s    Stream
	n, i int
}

// Limit caps s at n records per pass. A non-positive n means no limit.
func Limit(s Stream, n int) Stream {
	if n <= 0 {
		return s
	}
	return &limitStream{s: s, n: n}
}

func (l *limitStream) Next(ctx context.Context) (Read, error) {
	if l.i >= l.n {
		return Read{}, io.EOF
	}
	r, err := l.s.Next(ctx)
	if err != nil {
		return r, err
	}
	l.i++
	return r, nil
}

func (l *limitStream) Reset() error {
	l.i = 0
	return l.s.Reset()
}

package bucket

import (
	"hash"
	"io"

	ihash "github.com/hupe1980/abruijn/internal/hash"
)

// DefaultBlockRecords is the number of records per block.
const DefaultBlockRecords = 1 << 14

// WriterOptions configures a Writer.
type WriterOptions struct {
	RecordSize   int
	K            int
	Compression  Compression
	BlockRecords int
}

// Writer streams fixed-size records into blocks.
type Writer struct {
	w       io.Writer
	crc     hash.Hash32
	opts    WriterOptions
	buf     []byte
	frame   []byte
	trailer Trailer
	err     error
	closed  bool
}

// NewWriter writes to w. It never closes w.
func NewWriter(w io.Writer, opts WriterOptions) *Writer {
	if opts.BlockRecords <= 0 {
		opts.BlockRecords = DefaultBlockRecords
	}
	crc := ihash.NewCRC32C()
	return &Writer{
		w:    io.MultiWriter(w, crc),
		crc:  crc,
		opts: opts,
		buf:  make([]byte, 0, opts.BlockRecords*opts.RecordSize),
		trailer: Trailer{
			RecordSize:  uint16(opts.RecordSize),
			Compression: opts.Compression,
			K:           uint32(opts.K),
		},
	}
}

// Append adds one record.
func (w *Writer) Append(rec []byte) error {
	if w.err != nil {
		return w.err
	}
	if len(rec) != w.opts.RecordSize {
		return ErrRecordSize
	}
	w.buf = append(w.buf, rec...)
	w.trailer.Records++
	if len(w.buf) >= w.opts.BlockRecords*w.opts.RecordSize {
		return w.flush()
	}
	return nil
}

// Records returns the number of records appended so far.
func (w *Writer) Records() uint64 { return w.trailer.Records }

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	w.frame, w.err = appendBlock(w.frame[:0], w.buf, w.opts.Compression)
	if w.err != nil {
		return w.err
	}
	if _, w.err = w.w.Write(w.frame); w.err != nil {
		return w.err
	}
	w.trailer.Blocks++
	w.buf = w.buf[:0]
	return nil
}

// Close flushes the last block and writes the trailer.
func (w *Writer) Close() (Trailer, error) {
	if w.closed {
		return w.trailer, w.err
	}
	w.closed = true
	if err := w.flush(); err != nil {
		return Trailer{}, err
	}
	w.trailer.Checksum = w.crc.Sum32()
	if _, err := w.w.Write(w.trailer.encode()); err != nil {
		w.err = err
		return Trailer{}, err
	}
	return w.trailer, nil
}

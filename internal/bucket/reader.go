package bucket

import (
	"fmt"

	ihash "github.com/hupe1980/abruijn/internal/hash"
)

// Reader iterates the records of an in-memory (usually mapped) file.
type Reader struct {
	data    []byte // blocks only
	trailer Trailer
}

// NewReader validates the trailer and checksum of data.
func NewReader(data []byte) (*Reader, error) {
	if len(data) < trailerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(data))
	}
	body := data[:len(data)-trailerSize]
	t, err := decodeTrailer(data[len(body):])
	if err != nil {
		return nil, err
	}
	if sum := ihash.CRC32C(body); sum != t.Checksum {
		return nil, fmt.Errorf("%w: checksum %08x, want %08x", ErrCorrupt, sum, t.Checksum)
	}
	return &Reader{data: body, trailer: t}, nil
}

// Trailer returns the file metadata.
func (r *Reader) Trailer() Trailer { return r.trailer }

// Len returns the number of records.
func (r *Reader) Len() uint64 { return r.trailer.Records }

// ForEach calls fn with every record in file order. The slice passed to fn
// is only valid during the call.
func (r *Reader) ForEach(fn func(rec []byte) error) error {
	size := int(r.trailer.RecordSize)
	var (
		buf  []byte
		seen uint64
	)
	for off := 0; off < len(r.data); {
		block, scratch, n, err := readBlock(r.data[off:], buf, r.trailer.Compression)
		if err != nil {
			return err
		}
		buf = scratch
		if len(block)%size != 0 {
			return fmt.Errorf("%w: block of %d bytes for record size %d", ErrCorrupt, len(block), size)
		}
		for i := 0; i < len(block); i += size {
			if err := fn(block[i : i+size]); err != nil {
				return err
			}
			seen++
		}
		off += n
	}
	if seen != r.trailer.Records {
		return fmt.Errorf("%w: read %d records, want %d", ErrCorrupt, seen, r.trailer.Records)
	}
	return nil
}

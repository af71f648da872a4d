package bucket

import (
	"encoding/binary"
	"iter"
)

// Record sizes of the file kinds.
const (
	KmerCountSize = 12 // run, bucket and index files: kmer u64, count u32
	MaskSize      = 1  // extension files: one mask byte per k-mer
)

// KmerCount is a packed k-mer with its occurrence count.
type KmerCount struct {
	Kmer  uint64
	Count uint32
}

// AppendKmerCount writes one KmerCount record.
func (w *Writer) AppendKmerCount(kc KmerCount) error {
	var rec [KmerCountSize]byte
	binary.LittleEndian.PutUint64(rec[0:], kc.Kmer)
	binary.LittleEndian.PutUint32(rec[8:], kc.Count)
	return w.Append(rec[:])
}

// AppendMasks writes one record per mask byte.
func (w *Writer) AppendMasks(masks []byte) error {
	if w.opts.RecordSize != MaskSize {
		return ErrRecordSize
	}
	block := w.opts.BlockRecords
	for len(masks) > 0 {
		if w.err != nil {
			return w.err
		}
		n := min(len(masks), block-len(w.buf))
		w.buf = append(w.buf, masks[:n]...)
		w.trailer.Records += uint64(n)
		masks = masks[n:]
		if len(w.buf) >= block {
			if err := w.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeKmerCount(rec []byte) KmerCount {
	return KmerCount{
		Kmer:  binary.LittleEndian.Uint64(rec[0:]),
		Count: binary.LittleEndian.Uint32(rec[8:]),
	}
}

// KmerCounts iterates the records of a k-mer file. Iteration stops at the
// first error, which is yielded with a zero record.
func (r *Reader) KmerCounts() iter.Seq2[KmerCount, error] {
	return func(yield func(KmerCount, error) bool) {
		if r.trailer.RecordSize != KmerCountSize {
			yield(KmerCount{}, ErrRecordSize)
			return
		}
		stopped := false
		err := r.ForEach(func(rec []byte) error {
			if !yield(decodeKmerCount(rec), nil) {
				stopped = true
				return errStop
			}
			return nil
		})
		if err != nil && !stopped {
			yield(KmerCount{}, err)
		}
	}
}

// ReadKmerCounts decodes a whole k-mer file.
func (r *Reader) ReadKmerCounts() ([]KmerCount, error) {
	out := make([]KmerCount, 0, r.trailer.Records)
	for kc, err := range r.KmerCounts() {
		if err != nil {
			return nil, err
		}
		out = append(out, kc)
	}
	return out, nil
}

// ReadMasks decodes a whole extension file.
func (r *Reader) ReadMasks() ([]byte, error) {
	if r.trailer.RecordSize != MaskSize {
		return nil, ErrRecordSize
	}
	out := make([]byte, 0, r.trailer.Records)
	err := r.ForEach(func(rec []byte) error {
		out = append(out, rec[0])
		return nil
	})
	return out, err
}

type stopError struct{}

func (stopError) Error() string { return "stop" }

var errStop error = stopError{}

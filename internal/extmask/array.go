package extmask

import "sync/atomic"

const (
	segmentShift    = 13 // 8192 masks per segment
	segmentMasks    = 1 << segmentShift
	segmentMaskBits = segmentMasks - 1
	wordsPerSegment = segmentMasks / 8
)

type segment [wordsPerSegment]atomic.Uint64

// Array is a fixed-size array of masks. The zero value is an empty array.
type Array struct {
	segments []*segment
	n        uint64
}

// New allocates an Array of n zero masks.
func New(n uint64) *Array {
	a := &Array{n: n}
	if n == 0 {
		return a
	}
	a.segments = make([]*segment, (n-1)>>segmentShift+1)
	for i := range a.segments {
		a.segments[i] = new(segment)
	}
	return a
}

// Footprint returns the bytes New(n) allocates.
func Footprint(n uint64) int64 {
	if n == 0 {
		return 0
	}
	return int64((n-1)>>segmentShift+1) * segmentMasks
}

// Footprint returns the bytes held by a.
func (a *Array) Footprint() int64 { return Footprint(a.n) }

// Len returns the number of masks.
func (a *Array) Len() uint64 { return a.n }

func (a *Array) locate(i uint64) (*atomic.Uint64, uint) {
	off := i & segmentMaskBits
	return &a.segments[i>>segmentShift][off/8], uint(off%8) * 8
}

// Or sets the bits of m in mask i. It is safe for concurrent use.
// Indexes out of range panic.
func (a *Array) Or(i uint64, m uint8) {
	if i >= a.n {
		panic("extmask: index out of range")
	}
	if m == 0 {
		return
	}
	w, shift := a.locate(i)
	w.Or(uint64(m) << shift)
}

// Get returns mask i.
func (a *Array) Get(i uint64) uint8 {
	if i >= a.n {
		panic("extmask: index out of range")
	}
	w, shift := a.locate(i)
	return uint8(w.Load() >> shift)
}

// AppendRange appends the masks [from, to) to dst.
func (a *Array) AppendRange(dst []byte, from, to uint64) []byte {
	to = min(to, a.n)
	for i := from; i < to; {
		w, shift := a.locate(i)
		v := w.Load() >> shift
		// Drain the rest of the word without reloading.
		for ; shift < 64 && i < to; shift += 8 {
			dst = append(dst, byte(v))
			v >>= 8
			i++
		}
	}
	return dst
}

// Count returns the number of non-zero masks.
func (a *Array) Count() uint64 {
	var c uint64
	for i := uint64(0); i < a.n; i++ {
		if a.Get(i) != 0 {
			c++
		}
	}
	return c
}

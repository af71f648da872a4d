package bucket

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	magic       uint32 = 0x544b4241 // "ABKT"
	version     uint8  = 1
	trailerSize        = 32
)

var (
	// ErrCorrupt is returned for files with a bad trailer or checksum.
	ErrCorrupt = errors.New("bucket: corrupt file")
	// ErrRecordSize is returned when a record does not match the file's record size.
	ErrRecordSize = errors.New("bucket: record size mismatch")
)

// Trailer describes a finished file.
type Trailer struct {
	Records     uint64
	Blocks      uint32
	RecordSize  uint16
	Compression Compression
	K           uint32
	Checksum    uint32
}

func (t Trailer) encode() []byte {
	b := make([]byte, trailerSize)
	binary.LittleEndian.PutUint64(b[0:], t.Records)
	binary.LittleEndian.PutUint32(b[8:], t.Blocks)
	binary.LittleEndian.PutUint16(b[12:], t.RecordSize)
	b[14] = byte(t.Compression)
	b[15] = version
	binary.LittleEndian.PutUint32(b[16:], t.K)
	// b[20:24] reserved
	binary.LittleEndian.PutUint32(b[24:], t.Checksum)
	binary.LittleEndian.PutUint32(b[28:], magic)
	return b
}

func decodeTrailer(b []byte) (Trailer, error) {
	if len(b) != trailerSize {
		return Trailer{}, ErrCorrupt
	}
	if binary.LittleEndian.Uint32(b[28:]) != magic {
		return Trailer{}, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if b[15] != version {
		return Trailer{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, b[15])
	}
	t := Trailer{
		Records:     binary.LittleEndian.Uint64(b[0:]),
		Blocks:      binary.LittleEndian.Uint32(b[8:]),
		RecordSize:  binary.LittleEndian.Uint16(b[12:]),
		Compression: Compression(b[14]),
		K:           binary.LittleEndian.Uint32(b[16:]),
		Checksum:    binary.LittleEndian.Uint32(b[24:]),
	}
	if t.RecordSize == 0 {
		return Trailer{}, fmt.Errorf("%w: zero record size", ErrCorrupt)
	}
	return t, nil
}

package bucket

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec.
type Compression uint8

const (
	CompressionNone Compression = 0
	// CompressionLZ4 is fast and the default for intermediate runs.
	CompressionLZ4 Compression = 1
	// CompressionZSTD trades speed for ratio; suits published indexes.
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

const blockHeaderSize = 8

var errCorruptBlock = errors.New("bucket: corrupt block")

// appendBlock appends the framed block for data to dst. Blocks that do not
// shrink below 90% are stored raw.
func appendBlock(dst, data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		var lc lz4.Compressor
		n, err := lc.CompressBlock(data, buf)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case CompressionNone:
	default:
		return nil, fmt.Errorf("bucket: unsupported compression %s", c)
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		binary.LittleEndian.PutUint32(hdr[4:], 0)
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
	dst = append(dst, hdr[:]...)
	return append(dst, compressed...), nil
}

// readBlock decodes the block at the start of src. Raw blocks alias src;
// compressed blocks are decoded into scratch, which is returned for reuse
// together with the number of bytes consumed.
func readBlock(src, scratch []byte, c Compression) (block, buf []byte, n int, err error) {
	if len(src) < blockHeaderSize {
		return nil, scratch, 0, errCorruptBlock
	}
	rawSize := int(binary.LittleEndian.Uint32(src[0:]))
	compSize := int(binary.LittleEndian.Uint32(src[4:]))
	if compSize == 0 {
		if len(src) < blockHeaderSize+rawSize {
			return nil, scratch, 0, errCorruptBlock
		}
		return src[blockHeaderSize : blockHeaderSize+rawSize], scratch, blockHeaderSize + rawSize, nil
	}
	if len(src) < blockHeaderSize+compSize {
		return nil, scratch, 0, errCorruptBlock
	}
	buf = scratch
	payload := src[blockHeaderSize : blockHeaderSize+compSize]
	if cap(buf) < rawSize {
		buf = make([]byte, rawSize)
	}
	buf = buf[:rawSize]

	switch c {
	case CompressionLZ4:
		m, err := lz4.UncompressBlock(payload, buf)
		if err != nil {
			return nil, scratch, 0, fmt.Errorf("%w: %w", errCorruptBlock, err)
		}
		if m != rawSize {
			return nil, scratch, 0, errCorruptBlock
		}
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(payload, buf[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, scratch, 0, fmt.Errorf("%w: %w", errCorruptBlock, err)
		}
		if len(out) != rawSize {
			return nil, scratch, 0, errCorruptBlock
		}
		buf = out
	default:
		return nil, scratch, 0, fmt.Errorf("bucket: unsupported compression %s", c)
	}
	return buf, buf, blockHeaderSize + compSize, nil
}

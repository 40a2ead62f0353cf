// Package block implements the single-block compression framing shared
// by gallery snapshots and archived runs.
//
// Format: [UncompressedSize uint32][CompressedSize uint32][Data...],
// little endian. CompressedSize == 0 means the payload is stored raw,
// which happens when compression would not pay off.
package block

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression algorithm.
type Compression uint8

const (
	// CompressionNone stores payloads raw.
	CompressionNone Compression = 0
	// CompressionLZ4 is fast with a modest ratio.
	CompressionLZ4 Compression = 1
	// CompressionZSTD trades speed for a better ratio.
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
		return "unknown"
	}
}

// Valid reports whether c names a known algorithm.
func (c Compression) Valid() bool {
	return c <= CompressionZSTD
}

const headerSize = 8

var (
	errShortBlock   = errors.New("block too small for header")
	errTruncated    = errors.New("block payload truncated")
	errSizeMismatch = errors.New("decompressed size mismatch")
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}

	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}

	dec, _ := zstd.NewReader(nil)

	return dec
}

// Compress frames data as a single block using the given algorithm.
// Incompressible payloads are stored raw behind the same header.
func Compress(data []byte, c Compression) ([]byte, error) {
	var (
		compressed []byte
		err        error
	)

	switch c {
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case CompressionNone:
		// Stored raw below.
	default:
		return nil, errors.New("unknown compression algorithm")
	}

	if err != nil {
		return nil, err
	}

	// Store raw when compression does not help.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		out := make([]byte, headerSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[headerSize:], data)

		return out, nil
	}

	out := make([]byte, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[headerSize:], compressed)

	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, nil // incompressible
	}

	return buf[:n], nil
}

// Decompress unframes a block produced by Compress with the same
// algorithm.
func Decompress(data []byte, c Compression) ([]byte, error) {
	if len(data) < headerSize {
		return nil, errShortBlock
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[0:])
	compressedSize := binary.LittleEndian.Uint32(data[4:])

	if compressedSize == 0 {
		if uint32(len(data)) < headerSize+uncompressedSize {
			return nil, errTruncated
		}

		out := make([]byte, uncompressedSize)
		copy(out, data[headerSize:headerSize+int(uncompressedSize)])

		return out, nil
	}

	if uint32(len(data)) < headerSize+compressedSize {
		return nil, errTruncated
	}

	payload := data[headerSize : headerSize+int(compressedSize)]

	switch c {
	case CompressionZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		zstdDecoderPool.Put(dec)

		if err != nil {
			return nil, err
		}

		if uint32(len(decoded)) != uncompressedSize {
			return nil, errSizeMismatch
		}

		return decoded, nil
	default:
		out := make([]byte, uncompressedSize)

		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, err
		}

		if uint32(n) != uncompressedSize {
			return nil, errSizeMismatch
		}

		return out, nil
	}
}

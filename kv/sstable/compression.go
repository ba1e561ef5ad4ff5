package sstable

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/hupe1980/termexp/internal/conv"
	"github.com/hupe1980/termexp/internal/hash"
	"github.com/hupe1980/termexp/kv"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression algorithm.
type Compression uint8

const (
	// CompressionNone stores blocks uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio, good for cold data).
	CompressionZSTD Compression = 2
)

// String returns the name of the algorithm.
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

// ParseCompression parses a compression name as produced by String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("sstable: unknown compression %q", name)
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

// Frame layout: [UncompressedSize uint32][CompressedSize uint32][CRC32C uint32][Data...].
// CompressedSize == 0 means the data is stored raw. The checksum covers the
// stored data.
const frameHeaderSize = 12

// frameBlock compresses data and prepends the frame header. Blocks that do
// not shrink below 90% are stored raw.
func frameBlock(data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return encodeFrame(data, 0)
	}
	return encodeFrame(compressed, len(data))
}

func encodeFrame(payload []byte, rawSize int) ([]byte, error) {
	stored, err := conv.ToUint32(len(payload))
	if err != nil {
		return nil, err
	}
	out := make([]byte, frameHeaderSize+len(payload))
	if rawSize == 0 {
		binary.LittleEndian.PutUint32(out[0:], stored)
	} else {
		raw, err := conv.ToUint32(rawSize)
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(out[0:], raw)
		binary.LittleEndian.PutUint32(out[4:], stored)
	}
	binary.LittleEndian.PutUint32(out[8:], hash.CRC32C(payload))
	copy(out[frameHeaderSize:], payload)
	return out, nil
}

// unframeBlock reverses frameBlock.
func unframeBlock(frame []byte, c Compression) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, fmt.Errorf("%w: block frame too small", kv.ErrCorrupt)
	}
	rawSize := binary.LittleEndian.Uint32(frame[0:])
	compSize := binary.LittleEndian.Uint32(frame[4:])
	sum := binary.LittleEndian.Uint32(frame[8:])
	payload := frame[frameHeaderSize:]

	stored := compSize
	if stored == 0 {
		stored = rawSize
	}
	if uint64(len(payload)) < uint64(stored) {
		return nil, fmt.Errorf("%w: block truncated", kv.ErrCorrupt)
	}
	payload = payload[:stored]
	if hash.CRC32C(payload) != sum {
		return nil, fmt.Errorf("%w: block checksum mismatch", kv.ErrCorrupt)
	}
	if compSize == 0 {
		return payload, nil
	}

	out := make([]byte, rawSize)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", kv.ErrCorrupt, err)
		}
		if uint32(n) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", kv.ErrCorrupt)
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(payload, out[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", kv.ErrCorrupt, err)
		}
		if uint32(len(decoded)) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", kv.ErrCorrupt)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: compressed block in %s table", kv.ErrCorrupt, c)
	}
}

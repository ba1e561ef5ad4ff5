package sstable

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/termexp/kv"
)

// File layout:
//
//	[data block]...[index block][footer]
//
// Every block is framed (see frameBlock). A data block holds entries encoded
// as uvarint(len(key)) key uvarint(len(value)) value. The index block holds
// uvarint(count) followed by one handle per data block. The footer has a
// fixed size and sits at the end of the file.
const (
	magic      uint32 = 0x54585354 // "TXST"
	version    uint8  = 1
	footerSize        = 4 + 1 + 1 + 2 + 8 + 8 + 8
)

type footer struct {
	compression Compression
	indexOffset uint64
	indexLength uint64
	entries     uint64
}

func (f footer) encode() []byte {
	b := make([]byte, footerSize)
	binary.LittleEndian.PutUint32(b[0:], magic)
	b[4] = version
	b[5] = byte(f.compression)
	binary.LittleEndian.PutUint64(b[8:], f.indexOffset)
	binary.LittleEndian.PutUint64(b[16:], f.indexLength)
	binary.LittleEndian.PutUint64(b[24:], f.entries)
	return b
}

func decodeFooter(b []byte) (footer, error) {
	if len(b) != footerSize {
		return footer{}, fmt.Errorf("%w: short footer", kv.ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(b[0:]) != magic {
		return footer{}, fmt.Errorf("%w: bad magic", kv.ErrCorrupt)
	}
	if b[4] != version {
		return footer{}, fmt.Errorf("%w: unsupported version %d", kv.ErrCorrupt, b[4])
	}
	return footer{
		compression: Compression(b[5]),
		indexOffset: binary.LittleEndian.Uint64(b[8:]),
		indexLength: binary.LittleEndian.Uint64(b[16:]),
		entries:     binary.LittleEndian.Uint64(b[24:]),
	}, nil
}

// blockHandle locates one data block.
type blockHandle struct {
	firstKey []byte
	offset   uint64
	length   uint64
	entries  uint64
}

func appendHandle(dst []byte, h blockHandle) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(h.firstKey)))
	dst = append(dst, h.firstKey...)
	dst = binary.AppendUvarint(dst, h.offset)
	dst = binary.AppendUvarint(dst, h.length)
	return binary.AppendUvarint(dst, h.entries)
}

func decodeIndex(b []byte) ([]blockHandle, error) {
	count, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad index count", kv.ErrCorrupt)
	}
	b = b[n:]

	handles := make([]blockHandle, 0, count)
	for i := uint64(0); i < count; i++ {
		var h blockHandle
		key, rest, err := readBytes(b)
		if err != nil {
			return nil, err
		}
		h.firstKey = key
		b = rest
		for _, dst := range []*uint64{&h.offset, &h.length, &h.entries} {
			v, n := binary.Uvarint(b)
			if n <= 0 {
				return nil, fmt.Errorf("%w: bad block handle", kv.ErrCorrupt)
			}
			*dst = v
			b = b[n:]
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func appendEntry(dst, key, value []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(key)))
	dst = append(dst, key...)
	dst = binary.AppendUvarint(dst, uint64(len(value)))
	return append(dst, value...)
}

type blockEntry struct {
	key   []byte
	value []byte
}

func decodeBlock(b []byte, expected uint64) ([]blockEntry, error) {
	entries := make([]blockEntry, 0, expected)
	for len(b) > 0 {
		key, rest, err := readBytes(b)
		if err != nil {
			return nil, err
		}
		value, rest, err := readBytes(rest)
		if err != nil {
			return nil, err
		}
		entries = append(entries, blockEntry{key: key, value: value})
		b = rest
	}
	if uint64(len(entries)) != expected {
		return nil, fmt.Errorf("%w: block has %d entries, index says %d", kv.ErrCorrupt, len(entries), expected)
	}
	return entries, nil
}

func readBytes(b []byte) ([]byte, []byte, error) {
	l, n := binary.Uvarint(b)
	if n <= 0 || uint64(len(b)-n) < l {
		return nil, nil, fmt.Errorf("%w: truncated field", kv.ErrCorrupt)
	}
	return b[n : n+int(l)], b[n+int(l):], nil
}

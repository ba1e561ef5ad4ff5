package shard

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/termexp/kv"
)

// Key layout of a shard table:
//
//	"D" did(u32 BE)  document record
//	"T" term         term statistics
//	"S" word         spelling frequency (u32 BE)
//	"\x00\xc0" key   user metadata
//	"\x00\x01"       shard statistics
const (
	prefixDoc   = 'D'
	prefixTerm  = 'T'
	prefixSpell = 'S'
)

var (
	prefixMeta = []byte("\x00\xc0")
	statsKey   = []byte("\x00\x01")
)

func docKey(did uint32) []byte {
	return binary.BigEndian.AppendUint32([]byte{prefixDoc}, did)
}

func termKey(term []byte) []byte {
	return append([]byte{prefixTerm}, term...)
}

func spellKey(word []byte) []byte {
	return append([]byte{prefixSpell}, word...)
}

func metaKey(key []byte) []byte {
	return append(append([]byte(nil), prefixMeta...), key...)
}

func encodeFreq(n uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, n)
}

func decodeFreq(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: frequency of %d bytes", kv.ErrCorrupt, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func getOptional(t kv.Table, key []byte) ([]byte, bool, error) {
	v, err := t.Get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

package shard

import (
	"fmt"

	"github.com/hupe1980/termexp/codec"
	"github.com/hupe1980/termexp/kv"
)

// Posting is one term of a document with its within-document frequency.
type Posting struct {
	Term []byte `json:"t" msgpack:"t"`
	WDF  uint32 `json:"w" msgpack:"w"`
}

// docRecord is stored under docKey. Terms are sorted and unique.
type docRecord struct {
	Length uint32    `json:"l" msgpack:"l"`
	Terms  []Posting `json:"p" msgpack:"p"`
}

// termStats is stored under termKey.
type termStats struct {
	TermFreq       uint32 `json:"tf" msgpack:"tf"`
	CollectionFreq uint64 `json:"cf" msgpack:"cf"`
}

// Stats are the shard-wide statistics stored under statsKey. They are always
// encoded with msgpack because they name the codec of every other record.
type Stats struct {
	DocCount    uint32 `json:"n" msgpack:"n"`
	TotalLength uint64 `json:"len" msgpack:"len"`
	LastDocID   uint32 `json:"last" msgpack:"last"`
	Codec       string `json:"codec" msgpack:"codec"`
}

var statsCodec codec.Codec = codec.Msgpack{}

func loadStats(t kv.Table) (Stats, error) {
	var s Stats
	b, ok, err := getOptional(t, statsKey)
	if err != nil || !ok {
		return s, err
	}
	if err := statsCodec.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("%w: shard stats: %w", kv.ErrCorrupt, err)
	}
	return s, nil
}

func loadTermStats(t kv.Table, c codec.Codec, term []byte) (termStats, error) {
	var ts termStats
	b, ok, err := getOptional(t, termKey(term))
	if err != nil || !ok {
		return ts, err
	}
	if err := c.Unmarshal(b, &ts); err != nil {
		return ts, fmt.Errorf("%w: term %q: %w", kv.ErrCorrupt, term, err)
	}
	return ts, nil
}

func loadDoc(t kv.Table, c codec.Codec, did uint32) (docRecord, error) {
	var rec docRecord
	b, err := t.Get(docKey(did))
	if err != nil {
		return rec, err
	}
	if err := c.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("%w: document %d: %w", kv.ErrCorrupt, did, err)
	}
	return rec, nil
}

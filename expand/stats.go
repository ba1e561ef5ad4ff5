package expand

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/termexp/termlist"
)

// Stats collates the statistics of one candidate term while its merge tree
// is walked. It is reset with Clear before every term.
type Stats struct {
	// seen holds the shard indexes already folded into DBSize and TermFreq.
	seen *roaring.Bitmap

	avgLen  float64
	expandK float64

	// DBSize is the document count of the shards seen for this term.
	DBSize uint32

	// TermFreq is the term frequency summed over the shards seen.
	TermFreq uint32

	// RCollectionFreq is the number of occurrences of the term in the RSet.
	RCollectionFreq uint64

	// RTermFreq is the number of RSet documents indexed by the term.
	RTermFreq uint32

	// Multiplier is the probability mass used by probabilistic expansion.
	Multiplier float64
}

var _ termlist.StatsAccumulator = (*Stats)(nil)

// NewStats returns empty statistics for a collection with the given average
// document length. expandK controls document length normalisation of the
// multiplier; zero disables it.
func NewStats(avgLen, expandK float64) *Stats {
	return &Stats{
		seen:    roaring.New(),
		avgLen:  avgLen,
		expandK: expandK,
	}
}

// Accumulate folds one RSet document containing the term into the stats.
//
// The per-document fields are always updated. The shard-level fields are
// only added the first time shard is seen since the last Clear.
func (s *Stats) Accumulate(shard int, wdf, docLen, subTF, subDBSize uint32) {
	// A term stored without a within-document count still gets weight.
	if wdf == 0 {
		wdf = 1
	}
	s.RTermFreq++
	s.RCollectionFreq += uint64(wdf)

	norm := 0.0
	if s.avgLen > 0 {
		norm = s.expandK * float64(docLen) / s.avgLen
	}
	s.Multiplier += (s.expandK + 1) * float64(wdf) / (norm + float64(wdf))

	if s.seen.CheckedAdd(uint32(shard)) {
		s.DBSize += subDBSize
		s.TermFreq += subTF
	}
}

// Clear resets the per-term statistics. The configuration is kept.
func (s *Stats) Clear() {
	s.seen.Clear()
	s.DBSize = 0
	s.TermFreq = 0
	s.RCollectionFreq = 0
	s.RTermFreq = 0
	s.Multiplier = 0
}

// ShardsSeen returns the number of distinct shards folded in since the last
// Clear.
func (s *Stats) ShardsSeen() int {
	return int(s.seen.GetCardinality())
}

// AverageLength returns the average document length of the collection.
func (s *Stats) AverageLength() float64 { return s.avgLen }

// ExpandK returns the length normalisation parameter.
func (s *Stats) ExpandK() float64 { return s.expandK }

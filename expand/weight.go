package expand

import (
	"bytes"

	"github.com/hupe1980/termexp/termlist"
)

// Database provides the collection-wide statistics used for weighting.
type Database interface {
	DocCount() uint32
	TotalLength() uint64
	AverageLength() float64
	TermFreq(term []byte) (uint32, error)
	CollectionFreq(term []byte) (uint64, error)
}

// Options configure a Weight. They are fixed for the lifetime of a query.
type Options struct {
	// ExactTermFreq asks the database for the exact term frequency of every
	// candidate. Otherwise the frequency is estimated from the shards the
	// RSet touches, scaled by their share of the collection.
	ExactTermFreq bool

	// ExpandK is the document length normalisation parameter of the
	// multiplier. Zero disables normalisation.
	ExpandK float64
}

// Weight computes expansion weights for the candidate terms of one query.
type Weight struct {
	db     Database
	scheme Scheme
	stats  *Stats

	dbSize        uint32
	rsize         uint32
	collectionLen uint64

	exactTermFreq      bool
	wantCollectionFreq bool

	collectionFreq uint64
}

// NewWeight returns a Weight over db for an RSet of rsize documents.
func NewWeight(db Database, rsize uint32, scheme Scheme, opts Options) *Weight {
	if scheme == nil {
		scheme = Prob{}
	}
	return &Weight{
		db:                 db,
		scheme:             scheme,
		stats:              NewStats(db.AverageLength(), opts.ExpandK),
		dbSize:             db.DocCount(),
		rsize:              rsize,
		collectionLen:      db.TotalLength(),
		exactTermFreq:      opts.ExactTermFreq,
		wantCollectionFreq: scheme.WantsCollectionFreq(),
	}
}

// CollectStats gathers the statistics of term from tree.
//
// The tree is positioned with SkipTo, so terms must be collected in
// ascending order. If the tree has no entry for term the statistics stay
// zero.
func (w *Weight) CollectStats(tree termlist.TermList, term []byte) error {
	w.stats.Clear()
	w.collectionFreq = 0

	if err := tree.SkipTo(term); err != nil {
		return err
	}
	if !tree.AtEnd() && bytes.Equal(tree.Term(), term) {
		if err := tree.AccumulateStats(w.stats); err != nil {
			return err
		}
	}

	switch {
	case w.exactTermFreq:
		tf, err := w.db.TermFreq(term)
		if err != nil {
			return err
		}
		w.stats.TermFreq = tf
	case w.stats.DBSize == 0:
		w.stats.TermFreq = 0
	case w.stats.DBSize != w.dbSize:
		// Some shards hold no RSet documents; scale by their share.
		scale := float64(w.dbSize) / float64(w.stats.DBSize)
		w.stats.TermFreq = uint32(float64(w.stats.TermFreq)*scale + 0.5)
	}

	if w.wantCollectionFreq {
		cf, err := w.db.CollectionFreq(term)
		if err != nil {
			return err
		}
		w.collectionFreq = cf
	}
	return nil
}

// Params returns the formula inputs for the last collected term.
func (w *Weight) Params() Params {
	return Params{
		DBSize:          w.dbSize,
		RSize:           w.rsize,
		TermFreq:        w.stats.TermFreq,
		RTermFreq:       w.stats.RTermFreq,
		RCollectionFreq: w.stats.RCollectionFreq,
		Multiplier:      w.stats.Multiplier,
		CollectionFreq:  w.collectionFreq,
		CollectionLen:   w.collectionLen,
		AvgLen:          w.stats.AverageLength(),
	}
}

// Weight returns the weight of the last collected term.
func (w *Weight) Weight() float64 {
	return w.scheme.Score(w.Params())
}

// Stats returns the statistics of the last collected term.
func (w *Weight) Stats() *Stats { return w.stats }

// Scheme returns the weighting scheme.
func (w *Weight) Scheme() Scheme { return w.scheme }

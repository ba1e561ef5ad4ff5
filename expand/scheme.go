package expand

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownScheme is returned by ParseScheme for an unsupported name.
var ErrUnknownScheme = errors.New("unknown expansion scheme")

// Params are the inputs of a weighting formula for one candidate term.
type Params struct {
	// DBSize is the number of documents in the whole database (N).
	DBSize uint32
	// RSize is the number of documents in the RSet (R).
	RSize uint32
	// TermFreq is the database term frequency (n), exact or approximated.
	TermFreq uint32
	// RTermFreq is the number of RSet documents indexed by the term (r).
	RTermFreq uint32
	// RCollectionFreq is the number of occurrences of the term in the RSet.
	RCollectionFreq uint64
	// Multiplier is the accumulated probability mass.
	Multiplier float64
	// CollectionFreq is the occurrences of the term in the whole database.
	// Only populated for schemes that want it.
	CollectionFreq uint64
	// CollectionLen is the total length of the database.
	CollectionLen uint64
	// AvgLen is the average document length.
	AvgLen float64
}

// Scheme converts term statistics into an expansion weight.
type Scheme interface {
	// Name returns the stable scheme name.
	Name() string
	// WantsCollectionFreq reports whether Score reads Params.CollectionFreq.
	WantsCollectionFreq() bool
	// Score returns the weight of the term. It must be finite for all
	// inputs.
	Score(p Params) float64
}

// Prob is the probabilistic expansion scheme based on the Robertson and
// Sparck Jones relevance weight, scaled by the accumulated multiplier.
type Prob struct{}

// Name implements Scheme.
func (Prob) Name() string { return "prob" }

// WantsCollectionFreq implements Scheme.
func (Prob) WantsCollectionFreq() bool { return false }

// Score implements Scheme.
func (Prob) Score(p Params) float64 {
	r := float64(p.RTermFreq)
	rsize := float64(p.RSize)
	n := math.Max(float64(p.TermFreq), r)
	dbsize := float64(p.DBSize)

	relWithout := math.Max(rsize-r, 0)
	irrelWithout := math.Max(dbsize-n-relWithout, 0)

	tw := (r + 0.5) * (irrelWithout + 0.5) / ((n - r + 0.5) * (relWithout + 0.5))
	// Compress small ratios so the logarithm never goes negative.
	if tw < 2 {
		tw = tw*0.5 + 1
	}
	return math.Log(tw) * p.Multiplier
}

// Bo1 is the parameter-free Bose-Einstein expansion scheme from the
// divergence from randomness framework.
type Bo1 struct{}

// Name implements Scheme.
func (Bo1) Name() string { return "bo1" }

// WantsCollectionFreq implements Scheme.
func (Bo1) WantsCollectionFreq() bool { return true }

// Score implements Scheme.
func (Bo1) Score(p Params) float64 {
	if p.DBSize == 0 || p.CollectionFreq == 0 {
		return 0
	}
	mean := float64(p.CollectionFreq) / float64(p.DBSize)
	return float64(p.RCollectionFreq)*math.Log2((1+mean)/mean) + math.Log2(1+mean)
}

// ParseScheme returns the scheme with the given name ("prob" or "bo1").
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "prob":
		return Prob{}, nil
	case "bo1":
		return Bo1{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"
	"sync"
)

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Zipf returns a Zipfian-distributed value in [0, n): P(k) ∝ 1/(k+1)^s.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked samples by inverse transform (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// Posting is one term of a generated document with its within-document
// frequency.
type Posting struct {
	Term string
	WDF  uint32
}

// CorpusOptions shape a generated corpus.
type CorpusOptions struct {
	// Vocabulary is the number of distinct terms. Default 1000.
	Vocabulary int
	// MaxLength bounds the number of tokens per document. Default 50.
	MaxLength int
	// Skew is the Zipf exponent. Default 1.1.
	Skew float64
}

func (o CorpusOptions) withDefaults() CorpusOptions {
	if o.Vocabulary <= 0 {
		o.Vocabulary = 1000
	}
	if o.MaxLength <= 0 {
		o.MaxLength = 50
	}
	if o.Skew <= 0 {
		o.Skew = 1.1
	}
	return o
}

// Term returns the name of term id i, e.g. "t0042".
func Term(i int) string {
	return fmt.Sprintf("t%04d", i)
}

// Document generates one document of 1 to MaxLength tokens. Postings are
// sorted by term and carry the token counts as WDF.
func (r *RNG) Document(opts CorpusOptions) []Posting {
	opts = opts.withDefaults()

	r.mu.Lock()
	length := 1 + r.rand.Intn(opts.MaxLength)
	counts := make(map[int]uint32, length)
	for range length {
		counts[r.zipfLocked(opts.Vocabulary, opts.Skew)]++
	}
	r.mu.Unlock()

	doc := make([]Posting, 0, len(counts))
	for id, n := range counts {
		doc = append(doc, Posting{Term: Term(id), WDF: n})
	}
	slices.SortFunc(doc, func(a, b Posting) int { return strings.Compare(a.Term, b.Term) })
	return doc
}

// Corpus generates n documents.
func (r *RNG) Corpus(n int, opts CorpusOptions) [][]Posting {
	docs := make([][]Posting, n)
	for i := range docs {
		docs[i] = r.Document(opts)
	}
	return docs
}

// Sample returns k distinct values from [1, n] in ascending order. If k >= n
// all values are returned.
func (r *RNG) Sample(n, k int) []uint32 {
	r.mu.Lock()
	perm := r.rand.Perm(n)
	r.mu.Unlock()

	k = min(k, n)
	out := make([]uint32, k)
	for i := range out {
		out[i] = uint32(perm[i] + 1)
	}
	slices.Sort(out)
	return out
}

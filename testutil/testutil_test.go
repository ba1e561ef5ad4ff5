package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	rng := NewRNG(4711)

	for range 50 {
		doc := rng.Document(CorpusOptions{Vocabulary: 20, MaxLength: 10})
		require.NotEmpty(t, doc)

		var length uint32
		for i, p := range doc {
			assert.True(t, strings.HasPrefix(p.Term, "t"))
			assert.Positive(t, p.WDF)
			if i > 0 {
				assert.Less(t, doc[i-1].Term, p.Term)
			}
			length += p.WDF
		}
		assert.LessOrEqual(t, length, uint32(10))
	}
}

func TestCorpus_Reproducible(t *testing.T) {
	a := NewRNG(1).Corpus(20, CorpusOptions{})
	b := NewRNG(1).Corpus(20, CorpusOptions{})
	assert.Equal(t, a, b)

	rng := NewRNG(1)
	first := rng.Corpus(5, CorpusOptions{})
	rng.Reset()
	assert.Equal(t, first, rng.Corpus(5, CorpusOptions{}))
}

func TestZipf_Skewed(t *testing.T) {
	rng := NewRNG(4711)
	counts := make([]int, 10)
	for range 2000 {
		counts[rng.Zipf(10, 1.5)]++
	}
	assert.Greater(t, counts[0], counts[9])
	assert.Greater(t, counts[0], 2000/10)
}

func TestSample(t *testing.T) {
	rng := NewRNG(4711)
	s := rng.Sample(100, 10)
	require.Len(t, s, 10)
	for i := 1; i < len(s); i++ {
		assert.Less(t, s[i-1], s[i])
	}
	assert.GreaterOrEqual(t, s[0], uint32(1))
	assert.LessOrEqual(t, s[9], uint32(100))

	assert.Len(t, rng.Sample(3, 10), 3)
}

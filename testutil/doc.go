// Package testutil provides testing utilities for termexp.
//
// This package is intended for use in tests and benchmarks only. It
// generates reproducible synthetic corpora whose term frequencies follow
// Zipf's law, like natural-language text.
//
//	rng := testutil.NewRNG(seed)
//	docs := rng.Corpus(100, testutil.CorpusOptions{Vocabulary: 500})
package testutil

// Package expand collates term statistics over an RSet merge tree and turns
// them into query expansion weights.
//
// Two schemes are built in: Prob, the probabilistic relevance weight, and
// Bo1, the Bose-Einstein scheme from the divergence from randomness
// framework. Custom schemes implement Scheme.
package expand

package termlist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(freq uint32, terms ...string) []Entry {
	out := make([]Entry, len(terms))
	for i, t := range terms {
		out[i] = Entry{Term: []byte(t), TermFreq: freq, WDF: 1}
	}
	return out
}

func strs(terms [][]byte) []string {
	if len(terms) == 0 {
		return nil
	}
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = string(t)
	}
	return out
}

type recorder struct {
	calls []int
}

func (r *recorder) Accumulate(shard int, _, _, _, _ uint32) {
	r.calls = append(r.calls, shard)
}

func TestOr_Union(t *testing.T) {
	tests := []struct {
		name        string
		left, right []string
		want        []string
	}{
		{"disjoint", []string{"a", "c", "e"}, []string{"b", "d"}, []string{"a", "b", "c", "d", "e"}},
		{"overlap", []string{"apple", "cat", "dog"}, []string{"cat", "zebra"}, []string{"apple", "cat", "dog", "zebra"}},
		{"identical", []string{"x", "y"}, []string{"x", "y"}, []string{"x", "y"}},
		{"left empty", nil, []string{"a", "b"}, []string{"a", "b"}},
		{"right empty", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"both empty", nil, nil, nil},
		{"tail on left", []string{"a", "m", "n", "o"}, []string{"b"}, []string{"a", "b", "m", "n", "o"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			or := NewOr(NewSlice(entries(1, tt.left...)), NewSlice(entries(1, tt.right...)))
			got, err := Drain(or)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strs(got))
			assert.True(t, or.AtEnd())
			require.NoError(t, or.Close())
		})
	}
}

func TestOr_NextAfterEndIsNoop(t *testing.T) {
	or := NewOr(NewSlice(entries(1, "a")), NewSlice(nil))
	require.NoError(t, or.Next())
	assert.Equal(t, "a", string(or.Term()))
	require.NoError(t, or.Next())
	require.True(t, or.AtEnd())
	require.NoError(t, or.Next())
	require.NoError(t, or.SkipTo([]byte("z")))
	assert.True(t, or.AtEnd())
}

func TestOr_StrictTieFrequency(t *testing.T) {
	or := NewOr(NewSlice(entries(5, "cat")), NewSlice(entries(5, "cat")))
	require.NoError(t, or.Next())

	tf, err := or.TermFreq()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), tf)
	assert.Equal(t, uint32(2), or.WDF())
}

func TestOr_StrictMismatchFailsFast(t *testing.T) {
	or := NewOr(NewSlice(entries(5, "cat")), NewSlice(entries(3, "cat")))
	require.NoError(t, or.Next())

	_, err := or.TermFreq()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFreqMismatch))

	var inc *ErrInconsistentFreq
	require.True(t, errors.As(err, &inc))
	assert.Equal(t, "cat", string(inc.Term))
	assert.Equal(t, uint32(5), inc.Left)
	assert.Equal(t, uint32(3), inc.Right)
}

func TestFreqAdderOr_SumsTies(t *testing.T) {
	or := NewFreqAdderOr(NewSlice(entries(5, "bat", "cat")), NewSlice(entries(3, "cat", "dog")))

	want := map[string]uint32{"bat": 5, "cat": 8, "dog": 3}
	got := map[string]uint32{}
	for {
		require.NoError(t, or.Next())
		if or.AtEnd() {
			break
		}
		tf, err := or.TermFreq()
		require.NoError(t, err)
		got[string(or.Term())] = tf
	}
	assert.Equal(t, want, got)
}

func TestOr_AccessorBeforeStartPanics(t *testing.T) {
	or := NewOr(NewSlice(entries(1, "a")), NewSlice(entries(1, "b")))
	assert.PanicsWithValue(t, ErrNotStarted, func() { or.Term() })
	assert.PanicsWithValue(t, ErrNotStarted, func() { _, _ = or.TermFreq() })
	assert.PanicsWithValue(t, ErrNotStarted, func() { or.WDF() })
	assert.False(t, or.AtEnd())
}

func TestOr_SkipTo(t *testing.T) {
	or := NewOr(NewSlice(entries(1, "a", "d", "g")), NewSlice(entries(1, "b", "e", "h")))

	require.NoError(t, or.SkipTo([]byte("c")))
	assert.Equal(t, "d", string(or.Term()))

	// Already beyond the target: no movement.
	require.NoError(t, or.SkipTo([]byte("b")))
	assert.Equal(t, "d", string(or.Term()))

	require.NoError(t, or.Next())
	assert.Equal(t, "e", string(or.Term()))

	require.NoError(t, or.SkipTo([]byte("h")))
	assert.Equal(t, "h", string(or.Term()))

	require.NoError(t, or.SkipTo([]byte("zz")))
	assert.True(t, or.AtEnd())
}

func TestOr_AccumulateStatsDelegatesToPositionedChildren(t *testing.T) {
	left := NewDocSlice(0, 10, 100, entries(2, "apple", "pear"))
	right := NewDocSlice(1, 12, 50, entries(1, "apple", "plum"))
	or := NewOr(left, right)

	rec := &recorder{}
	require.NoError(t, or.Next()) // apple in both
	require.NoError(t, or.AccumulateStats(rec))
	assert.Equal(t, []int{0, 1}, rec.calls)

	rec.calls = nil
	require.NoError(t, or.Next()) // pear, left only
	require.NoError(t, or.AccumulateStats(rec))
	assert.Equal(t, []int{0}, rec.calls)

	rec.calls = nil
	require.NoError(t, or.Next()) // plum, right only after left is exhausted
	assert.Equal(t, "plum", string(or.Term()))
	require.NoError(t, or.AccumulateStats(rec))
	assert.Equal(t, []int{1}, rec.calls)
}

func TestOr_ApproxSize(t *testing.T) {
	or := NewOr(NewSlice(entries(1, "a", "b", "c")), NewSlice(entries(1, "x")))
	assert.Equal(t, uint64(4), or.ApproxSize())
}

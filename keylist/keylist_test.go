package keylist

import (
	"encoding/binary"
	"testing"

	"github.com/hupe1980/termexp/kv"
	"github.com/hupe1980/termexp/termlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandle(t *testing.T, keys ...string) *kv.Handle {
	t.Helper()
	mem := kv.NewMemTable()
	for i, k := range keys {
		require.NoError(t, mem.Set([]byte(k), binary.BigEndian.AppendUint32(nil, uint32(i+1))))
	}
	return kv.NewHandle(mem, nil)
}

func TestList_PrefixBoundary(t *testing.T) {
	h := newHandle(t, "Wa", "Xa", "Xb", "Xc", "Y")
	l, err := New(h, []byte("X"))
	require.NoError(t, err)
	defer l.Close()

	var got []string
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Next())
		require.False(t, l.AtEnd())
		got = append(got, string(l.Term()))
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)

	require.NoError(t, l.Next())
	assert.True(t, l.AtEnd())

	// Exhausted is terminal.
	require.NoError(t, l.Next())
	require.NoError(t, l.SkipTo([]byte("a")))
	assert.True(t, l.AtEnd())
	assert.Equal(t, uint64(0), l.ApproxSize())
}

func TestList_SkipTo(t *testing.T) {
	h := newHandle(t, "Wa", "Xa", "Xb", "Xd", "Y")
	l, err := New(h, []byte("X"))
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.SkipTo([]byte("c")))
	assert.Equal(t, "d", string(l.Term()))

	// Already at or beyond the target.
	require.NoError(t, l.SkipTo([]byte("b")))
	assert.Equal(t, "d", string(l.Term()))

	require.NoError(t, l.SkipTo([]byte("e")))
	assert.True(t, l.AtEnd())
}

func TestList_SkipToBeforePrefix(t *testing.T) {
	h := newHandle(t, "A", "Xa")
	l, err := New(h, []byte("X"))
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.SkipTo(nil))
	require.False(t, l.AtEnd())
	assert.Equal(t, "a", string(l.Term()))
}

func TestList_SubPrefixAndTermFreq(t *testing.T) {
	h := newHandle(t, "Tapple", "Tapricot", "Tbanana", "Uzzz")
	l, err := New(h, []byte("T"),
		WithSubPrefix([]byte("ap")),
		WithTermFreq(func(v []byte) (uint32, error) { return binary.BigEndian.Uint32(v), nil }),
	)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Next())
	assert.Equal(t, "apple", string(l.Term()))
	tf, err := l.TermFreq()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tf)
	assert.Equal(t, NoWDF, l.WDF())

	require.NoError(t, l.Next())
	assert.Equal(t, "apricot", string(l.Term()))
	tf, err = l.TermFreq()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tf)

	require.NoError(t, l.Next())
	assert.True(t, l.AtEnd())
}

func TestList_DefaultTermFreqIsConstant(t *testing.T) {
	h := newHandle(t, "Xa")
	l, err := New(h, []byte("X"))
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Next())
	tf, err := l.TermFreq()
	require.NoError(t, err)
	assert.Equal(t, NoTermFreq, tf)
	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 1}, v)
}

func TestList_PanicsBeforeStart(t *testing.T) {
	h := newHandle(t, "Xa")
	l, err := New(h, []byte("X"))
	require.NoError(t, err)
	defer l.Close()

	assert.PanicsWithValue(t, termlist.ErrNotStarted, func() { l.Term() })
	assert.PanicsWithValue(t, termlist.ErrNotStarted, func() { _, _ = l.TermFreq() })
}

func TestList_HoldsHandleOpen(t *testing.T) {
	closed := false
	h := kv.NewHandle(kv.NewMemTable(), func() error {
		closed = true
		return nil
	})

	l, err := New(h, []byte("X"))
	require.NoError(t, err)
	assert.Equal(t, 1, h.Refs())

	require.NoError(t, h.Close())
	assert.False(t, closed)

	_, err = New(h, []byte("X"))
	assert.ErrorIs(t, err, kv.ErrClosed)

	require.NoError(t, l.Close())
	assert.True(t, closed)
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Next(), kv.ErrClosed)
}

func TestList_ApproxSize(t *testing.T) {
	h := newHandle(t, "Xa", "Xb", "Xc")
	l, err := New(h, []byte("X"))
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, uint64(3), l.ApproxSize())
	require.NoError(t, l.Next())
	assert.Equal(t, uint64(3), l.ApproxSize())
	require.NoError(t, l.Next())
	assert.Equal(t, uint64(2), l.ApproxSize())
}

func TestList_InOrMerge(t *testing.T) {
	h1 := newHandle(t, "Xa", "Xc")
	h2 := newHandle(t, "Xb", "Xc")

	l1, err := New(h1, []byte("X"))
	require.NoError(t, err)
	l2, err := New(h2, []byte("X"))
	require.NoError(t, err)

	or := termlist.NewOr(l1, l2)
	terms, err := termlist.Drain(or)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, terms)

	require.NoError(t, or.Close())
	assert.Equal(t, 0, h1.Refs())
	assert.Equal(t, 0, h2.Refs())
}

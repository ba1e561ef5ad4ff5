package badgerkv

import (
	"testing"

	"github.com/hupe1980/termexp/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Table {
	t.Helper()
	tbl, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl
}

func TestTable_GetSetDelete(t *testing.T) {
	tbl := openMem(t)

	require.NoError(t, tbl.Set([]byte("a"), []byte("1")))
	v, err := tbl.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, tbl.Delete([]byte("a")))
	_, err = tbl.Get([]byte("a"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
	require.NoError(t, tbl.Delete([]byte("missing")))
}

func TestTable_CursorSnapshot(t *testing.T) {
	tbl := openMem(t)
	require.NoError(t, tbl.Batch(func(set func(k, v []byte) error, _ func([]byte) error) error {
		for _, k := range []string{"Wa", "Xa", "Xb", "Xc", "Y"} {
			if err := set([]byte(k), []byte("v"+k)); err != nil {
				return err
			}
		}
		return nil
	}))
	assert.Equal(t, uint64(5), tbl.ApproxCount())

	c, err := tbl.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, tbl.Set([]byte("Xab"), nil))

	found, err := c.Seek([]byte("X"))
	require.NoError(t, err)
	assert.False(t, found)

	var keys []string
	for c.Valid() {
		keys = append(keys, string(c.Key()))
		_, err := c.Next()
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Xa", "Xb", "Xc", "Y"}, keys)

	ok, err := c.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTable_CursorFromStart(t *testing.T) {
	tbl := openMem(t)
	require.NoError(t, tbl.Set([]byte("k1"), []byte("one")))

	c, err := tbl.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.Valid())
	ok, err := c.Next()
	require.NoError(t, err)
	require.True(t, ok)
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "one", string(v))

	found, err := c.Seek([]byte("k1"))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTable_Closed(t *testing.T) {
	tbl, err := Open("")
	require.NoError(t, err)
	require.NoError(t, tbl.Close())
	require.NoError(t, tbl.Close())

	_, err = tbl.Get([]byte("a"))
	assert.ErrorIs(t, err, kv.ErrClosed)
	_, err = tbl.NewCursor()
	assert.ErrorIs(t, err, kv.ErrClosed)
}

package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.sst")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestMapping_ReadAt(t *testing.T) {
	m, err := Open(writeFile(t, []byte("metadata:author")))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, int64(15), m.Size())
	assert.Equal(t, []byte("metadata:author"), m.Bytes())
	require.NoError(t, m.Advise(AccessSequential))

	buf := make([]byte, 6)
	n, err := m.ReadAt(buf, 9)
	require.NoError(t, err)
	assert.Equal(t, "author", string(buf[:n]))

	n, err = m.ReadAt(make([]byte, 10), 9)
	assert.Equal(t, 6, n)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(buf, 100)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestMapping_EmptyFile(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)

	assert.Equal(t, int64(0), m.Size())
	assert.Empty(t, m.Bytes())
	require.NoError(t, m.Close())
}

func TestOSMap_EmptyFile(t *testing.T) {
	f, err := os.Open(writeFile(t, nil))
	require.NoError(t, err)
	defer f.Close()

	data, unmap, err := osMap(f, 0)
	require.NoError(t, err)
	assert.Empty(t, data)
	require.NotNil(t, unmap)
	require.NoError(t, unmap(data))
}

func TestMapping_Close(t *testing.T) {
	m, err := Open(writeFile(t, []byte("x")))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)
}

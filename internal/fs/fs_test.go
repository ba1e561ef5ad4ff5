package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaultyFS_WriteLimit(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule(dir, Fault{FailAfterBytes: 4})

	f, err := ffs.CreateTemp(dir, "x-*")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = f.Write([]byte("de"))
	assert.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFS_SyncCloseRename(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")
	ffs := NewFaultyFS(nil)
	ffs.AddRule(dir, Fault{FailOnSync: true, FailOnClose: true, Err: boom})
	ffs.AddRule(filepath.Join(dir, "target"), Fault{FailOnRename: true})

	f, err := ffs.CreateTemp(dir, "x-*")
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), boom)
	assert.ErrorIs(t, f.Close(), boom)

	err = ffs.Rename(f.Name(), filepath.Join(dir, "target"))
	assert.ErrorIs(t, err, ErrInjected)

	require.NoError(t, ffs.Rename(f.Name(), filepath.Join(dir, "other")))
	_, err = os.Stat(filepath.Join(dir, "other"))
	assert.NoError(t, err)
}

func TestFaultyFS_NoRulePassesThrough(t *testing.T) {
	ffs := NewFaultyFS(nil)
	f, err := ffs.CreateTemp(t.TempDir(), "x-*")
	require.NoError(t, err)
	_, ok := f.(*os.File)
	assert.True(t, ok)
	require.NoError(t, f.Close())
	require.NoError(t, ffs.Remove(f.Name()))
}

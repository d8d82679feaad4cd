package batch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkWrite(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out")
	sink, err := NewFileSink(dest, WithPreserveTimes(true))
	require.NoError(t, err)

	mtime := time.Unix(1_700_000_000, 0)
	path, err := sink.Write("a/b/c.txt", []byte("content"), mtime)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "a", "b", "c.txt"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), got)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime))

	entries, err := os.ReadDir(filepath.Join(dest, "a", "b"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFileSinkOverwrite(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "x.txt"), []byte("old"), 0o600))

	keep, err := NewFileSink(dest)
	require.NoError(t, err)
	assert.False(t, keep.ShouldWrite("x.txt"))
	assert.True(t, keep.ShouldWrite("y.txt"))
	assert.False(t, keep.ShouldWrite("../escape.txt"))

	replace, err := NewFileSink(dest, WithOverwrite(true))
	require.NoError(t, err)
	assert.True(t, replace.ShouldWrite("x.txt"))
	_, err = replace.Write("x.txt", []byte("new"), time.Time{})
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dest, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestFileSinkRejectsEscapes(t *testing.T) {
	t.Parallel()

	sink, err := NewFileSink(t.TempDir(), WithOverwrite(true))
	require.NoError(t, err)
	for _, rel := range []string{"../x", "/abs", "a/../../x", ""} {
		_, err := sink.Write(rel, []byte("x"), time.Time{})
		require.Error(t, err, rel)
	}
}

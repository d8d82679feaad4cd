package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileNoFollow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o600))

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer root.Close()

	data, mtime, err := ReadFileNoFollow(root, "a.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.False(t, mtime.IsZero())

	_, _, err = ReadFileNoFollow(root, "a.txt", 4)
	require.ErrorIs(t, err, ErrTooLarge)

	_, _, err = ReadFileNoFollow(root, "missing.txt", 0)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadFileNoFollowRejectsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "target.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Symlink("target.txt", filepath.Join(dir, "link.txt")))

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer root.Close()

	_, _, err = ReadFileNoFollow(root, "link.txt", 0)
	require.ErrorIs(t, err, ErrSymlink)
}

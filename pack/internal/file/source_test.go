package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.pack")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpenSourceMaterialize(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, []byte("headerhello world"))
	src, err := OpenSource(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(17), src.Size())
	assert.Equal(t, path, src.Path())
	require.NoError(t, src.ID().Validate())

	got, err := src.Materialize(Lazy{Offset: 6, Length: 11})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), got)

	empty, err := src.Materialize(Lazy{Offset: 17, Length: 0})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMaterializeOutOfRange(t *testing.T) {
	t.Parallel()

	src := NewBytesSource([]byte("short"))
	_, err := src.Materialize(Lazy{Offset: 3, Length: 3})
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = src.Materialize(Lazy{Offset: ^uint64(0), Length: 2})
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestMaterializeDetectsStaleSource(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, []byte("original bytes"))
	src, err := OpenSource(path)
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, os.WriteFile(path, []byte("rewritten bytes!"), 0o600))
	later := src.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	_, err = src.Materialize(Lazy{Offset: 0, Length: 8})
	require.ErrorIs(t, err, ErrSourceChanged)
}

func TestMaterializeAfterClose(t *testing.T) {
	t.Parallel()

	src := NewBytesSource([]byte("payload"))
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	_, err := src.Materialize(Lazy{Offset: 0, Length: 1})
	require.ErrorIs(t, err, ErrClosed)
}

func TestMaterializeConcurrent(t *testing.T) {
	t.Parallel()

	src := NewBytesSource([]byte("0123456789abcdef"))
	var wg sync.WaitGroup
	results := make([][]byte, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := src.Materialize(Lazy{Offset: 4, Length: 8})
			if err == nil {
				results[i] = data
			}
		}()
	}
	wg.Wait()

	for i, r := range results {
		assert.Equal(t, []byte("456789ab"), r, "reader %d", i)
	}
	// Every caller owns its slice.
	results[0][0] = 'X'
	assert.Equal(t, byte('4'), results[1][0])
}

func TestMaterializeAll(t *testing.T) {
	t.Parallel()

	src := NewBytesSource([]byte("aaaabbbb--cccc"))
	refs := []Lazy{
		{Offset: 10, Length: 4},
		{Offset: 0, Length: 4},
		{Offset: 4, Length: 4},
	}
	got, err := src.MaterializeAll(refs, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("cccc"), []byte("aaaa"), []byte("bbbb")}, got)

	merged, err := src.MaterializeAll(refs, 2)
	require.NoError(t, err)
	assert.Equal(t, got, merged)

	_, err = src.MaterializeAll([]Lazy{{Offset: 12, Length: 4}}, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestBytesSourceID(t *testing.T) {
	t.Parallel()

	a := NewBytesSource([]byte("same"))
	b := NewBytesSource([]byte("same"))
	c := NewBytesSource([]byte("different"))
	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.Empty(t, a.Path())
}

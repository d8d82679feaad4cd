// Package file implements lazy payload access for pack entries.
//
// A pack keeps one Source for the bytes it was decoded from. Entries that
// have not been read yet hold a Lazy reference into that Source rather than
// their own handle, so removing an entry never invalidates the others.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/Frodo45127/rpfm-sub014/pack/internal/batch"
	"github.com/Frodo45127/rpfm-sub014/pack/internal/sizing"
)

var (
	// ErrSourceChanged is returned when the backing file was modified
	// after the pack was opened.
	ErrSourceChanged = errors.New("file: backing source changed")

	// ErrOutOfRange is returned when a lazy reference points outside the source.
	ErrOutOfRange = errors.New("file: range outside source")

	// ErrClosed is returned when reading from a closed source.
	ErrClosed = errors.New("file: source closed")
)

// Lazy references a payload by offset and length inside a Source.
type Lazy struct {
	Offset uint64
	Length uint64
}

// End returns the exclusive end offset of the payload.
func (l Lazy) End() uint64 {
	return l.Offset + l.Length
}

// Source is the shared backing reader of a pack.
//
// Reads are serialized by the source's own mutex. Callers hold no other
// lock while reading, so the pack's path map stays available to inserts and
// removals during I/O.
type Source struct {
	mu     sync.Mutex
	r      io.ReaderAt
	closer io.Closer
	path   string
	size   int64
	mtime  time.Time
	id     digest.Digest
	closed bool

	group singleflight.Group
}

// OpenSource opens the file at path as a Source, recording its size and
// modification time.
func OpenSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	return &Source{
		r:      f,
		closer: f,
		path:   path,
		size:   info.Size(),
		mtime:  info.ModTime(),
		id:     digest.FromString(path + "@" + strconv.FormatInt(info.Size(), 10) + "@" + info.ModTime().UTC().Format(time.RFC3339Nano)),
	}, nil
}

// NewBytesSource wraps an in-memory buffer. Byte sources never go stale.
func NewBytesSource(data []byte) *Source {
	return &Source{
		r:    bytes.NewReader(data),
		size: int64(len(data)),
		id:   digest.FromBytes(data),
	}
}

// ID identifies the source content. File sources derive it from path, size
// and modification time; byte sources from their content.
func (s *Source) ID() digest.Digest {
	return s.id
}

// Size returns the source length in bytes.
func (s *Source) Size() int64 {
	return s.size
}

// Path returns the file path of the source, or "" for byte sources.
func (s *Source) Path() string {
	return s.path
}

// ModTime returns the modification time observed when the source was opened.
func (s *Source) ModTime() time.Time {
	return s.mtime
}

// Close releases the backing file. Pending lazy references fail with
// ErrClosed afterwards.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// checkFresh fails with ErrSourceChanged when the file on disk no longer
// matches what was opened. Must be called with s.mu held.
func (s *Source) checkFresh() error {
	if s.path == "" {
		return nil
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceChanged, err)
	}
	if !info.ModTime().Equal(s.mtime) || info.Size() != s.size {
		return fmt.Errorf("%w: %s", ErrSourceChanged, s.path)
	}
	return nil
}

// ReadAt reads exactly length bytes at offset under the source lock.
func (s *Source) ReadAt(offset, length uint64) ([]byte, error) {
	end, ok := sizing.AddUint64(offset, length)
	if !ok || end > uint64(s.size) { //nolint:gosec // size is never negative
		return nil, fmt.Errorf("%w: %d+%d of %d", ErrOutOfRange, offset, length, s.size)
	}
	n, err := sizing.ToInt(length, ErrOutOfRange)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := s.checkFresh(); err != nil {
		return nil, err
	}
	if n == 0 {
		return buf, nil
	}
	//nolint:gosec // offset is bounded by size, which fits in int64
	if _, err := s.r.ReadAt(buf, int64(offset)); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf, nil
}

// Materialize reads the bytes behind l. Concurrent calls for the same range
// share one read; every caller receives its own copy.
func (s *Source) Materialize(l Lazy) ([]byte, error) {
	key := strconv.FormatUint(l.Offset, 10) + "+" + strconv.FormatUint(l.Length, 10)
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.ReadAt(l.Offset, l.Length)
	})
	if err != nil {
		return nil, err
	}
	data := v.([]byte) //nolint:errcheck // type assertion always succeeds when err is nil
	if shared {
		return bytes.Clone(data), nil
	}
	return data, nil
}

// MaterializeAll reads every reference, merging adjacent ones into single
// reads. gap is the largest hole between two payloads that still merges.
// Results are returned in the order of refs.
func (s *Source) MaterializeAll(refs []Lazy, gap uint64) ([][]byte, error) {
	ranges := make([]batch.Range, len(refs))
	for i, l := range refs {
		ranges[i] = batch.Range{Index: i, Offset: l.Offset, Length: l.Length}
	}
	out := make([][]byte, len(refs))
	for _, g := range batch.GroupAdjacent(ranges, gap) {
		span, err := s.ReadAt(g.Start, g.End-g.Start)
		if err != nil {
			return nil, err
		}
		for _, r := range g.Ranges {
			lo := r.Offset - g.Start
			out[r.Index] = bytes.Clone(span[lo : lo+r.Length])
		}
	}
	return out, nil
}

// Package platform reads files for folder inserts without following
// symbolic links out of the inserted tree.
package platform

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Frodo45127/rpfm-sub014/pack/internal/sizing"
)

var (
	// ErrSymlink is returned when attempting to open a symbolic link.
	ErrSymlink = errors.New("symbolic links not supported")

	// ErrTooLarge is returned when a file exceeds the caller's size limit.
	ErrTooLarge = errors.New("file too large")
)

// OpenFileNoFollow opens name inside root without following symlinks.
// Returns ErrSymlink if the path is a symbolic link.
func OpenFileNoFollow(root *os.Root, name string) (*os.File, error) {
	return openNoFollow(root, name)
}

// ReadFileNoFollow reads a regular file inside root. maxSize of zero
// disables the size limit. It returns the content and the modification time
// observed before reading.
func ReadFileNoFollow(root *os.Root, name string, maxSize uint64) ([]byte, time.Time, error) {
	f, err := openNoFollow(root, name)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, time.Time{}, err
	}
	if !info.Mode().IsRegular() {
		return nil, time.Time{}, fmt.Errorf("not a regular file: %s", name)
	}
	limit := maxSize
	if limit == 0 {
		limit = uint64(info.Size()) //nolint:gosec // size of a regular file is never negative
	}
	data, err := sizing.ReadAllWithLimit(f, limit, ErrTooLarge)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read %s: %w", name, err)
	}
	return data, info.ModTime(), nil
}

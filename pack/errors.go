package pack

import (
	"errors"
	"fmt"

	"github.com/Frodo45127/rpfm-sub014/pack/internal/file"
)

var (
	// ErrUnsupportedSignature is returned when the container tag is not one
	// of the known versions.
	ErrUnsupportedSignature = errors.New("pack: unsupported signature")

	// ErrHeaderNotComplete is returned when the stream is too short to hold
	// a header.
	ErrHeaderNotComplete = errors.New("pack: header not complete")

	// ErrIndexesNotComplete is returned when the declared index lengths run
	// past the end of the stream.
	ErrIndexesNotComplete = errors.New("pack: indexes not complete")

	// ErrSubHeaderMissing is returned when a PFH6 pack lacks its subheader marker.
	ErrSubHeaderMissing = errors.New("pack: subheader missing")

	// ErrSizeMismatch is returned when the payloads declared by the index do
	// not end exactly at the end of the stream.
	ErrSizeMismatch = errors.New("pack: size mismatch")

	// ErrDataTooBig is returned when a payload does not fit in the container.
	ErrDataTooBig = errors.New("pack: data too big for container")

	// ErrNotFound is returned when a path is not in the pack.
	ErrNotFound = errors.New("pack: not found")

	// ErrInvalidPath is returned for virtual paths that cannot be stored.
	ErrInvalidPath = errors.New("pack: invalid path")

	// ErrReservedPath is returned when inserting a file under a name the
	// pack keeps for its own notes and settings.
	ErrReservedPath = errors.New("pack: reserved path")

	// ErrNoPath is returned by SaveInPlace when the pack was not opened from disk.
	ErrNoPath = errors.New("pack: no disk path")

	// ErrSourceChanged is returned when a pack's file was modified on disk
	// after it was opened and an entry that was never read is needed.
	ErrSourceChanged = file.ErrSourceChanged
)

// DataTooBigError reports a payload larger than its container can index.
type DataTooBigError struct {
	Format string
	Max    uint64
	Actual uint64
	Path   string
}

func (e *DataTooBigError) Error() string {
	return fmt.Sprintf("pack: %s: %s holds %d bytes, the limit is %d", e.Path, e.Format, e.Actual, e.Max)
}

// Is reports whether target is ErrDataTooBig.
func (e *DataTooBigError) Is(target error) bool {
	return target == ErrDataTooBig
}

// SizeMismatchError reports where the index said the data ends and how
// long the stream actually is.
type SizeMismatchError struct {
	Expected uint64
	Actual   uint64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("pack: size mismatch: index ends data at %d, stream is %d bytes", e.Expected, e.Actual)
}

// Is reports whether target is ErrSizeMismatch.
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

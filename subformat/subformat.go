// Package subformat dispatches the binary file kinds embedded in packs to
// their version-specific layouts.
//
// Every kind starts with an optional fixed signature and a 16 or 32 bit
// version number. A Handler reads both, picks the one Codec registered for
// that version and, for a whole payload, checks that the codec consumed
// every byte. Nested records carry their own version and use a Handler of
// their own through Read and Write.
//
// There is no fallback layout: a version without a codec is an
// UnsupportedVersionError, and both leftover bytes and a payload that ends
// early are reported as ErrCorrupt.
package subformat

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/Frodo45127/rpfm-sub014/binrw"
)

var (
	// ErrUnsupportedVersion is returned for a version with no registered codec.
	ErrUnsupportedVersion = errors.New("subformat: unsupported version")

	// ErrCorrupt is returned when a payload does not match its version's
	// layout: it ends early, has bytes left over, or declares more elements
	// than it could hold.
	ErrCorrupt = errors.New("subformat: corrupt payload")

	// ErrUnknownSignature is returned when a payload does not start with the
	// signature its format requires.
	ErrUnknownSignature = errors.New("subformat: unknown signature")
)

// UnsupportedVersionError names the format and the version it has no codec for.
type UnsupportedVersionError struct {
	Format  string
	Version uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("subformat: %s: unsupported version %d", e.Format, e.Version)
}

// Is reports whether target is ErrUnsupportedVersion.
func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// SizeMismatchError reports where decoding stopped and where the payload ends.
type SizeMismatchError struct {
	Format   string
	Expected int
	Actual   int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("subformat: %s: decoded %d bytes of %d", e.Format, e.Actual, e.Expected)
}

// Is reports whether target is ErrCorrupt.
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrCorrupt
}

// Width is the size of a format's version field.
type Width uint8

// Version field widths.
const (
	U16 Width = 2
	U32 Width = 4
)

// Codec reads and writes the body of one version. Decode fills v from the
// bytes after the version field; Encode must write exactly what Decode reads.
type Codec[T any] struct {
	Decode func(r *binrw.Reader, v *T) error
	Encode func(w *binrw.Writer, v *T) error
}

// Handler maps the versions of one format to their codecs.
type Handler[T any] struct {
	// Format names the kind in errors.
	Format string

	// Signature, when set, precedes the version field.
	Signature string

	// Width is the size of the version field. Zero means U16.
	Width Width

	Versions map[uint32]Codec[T]
}

// Supports reports whether version has a codec.
func (h *Handler[T]) Supports(version uint32) bool {
	_, ok := h.Versions[version]
	return ok
}

// SupportedVersions returns the registered versions in ascending order.
func (h *Handler[T]) SupportedVersions() []uint32 {
	return slices.Sorted(maps.Keys(h.Versions))
}

func (h *Handler[T]) codec(version uint32) (Codec[T], error) {
	c, ok := h.Versions[version]
	if !ok {
		return Codec[T]{}, &UnsupportedVersionError{Format: h.Format, Version: version}
	}
	return c, nil
}

// Decode decodes a whole payload into v and returns its version. The codec
// must consume data exactly.
func (h *Handler[T]) Decode(data []byte, v *T) (uint32, error) {
	r := binrw.NewReader(data)
	version, err := h.Read(r, v)
	if err != nil {
		return 0, err
	}
	if !r.AtEnd() {
		return 0, &SizeMismatchError{Format: h.Format, Expected: r.Len(), Actual: r.Offset()}
	}
	return version, nil
}

// Read decodes one record at the reader's cursor and returns its version.
// Bytes after the record are left for the caller.
func (h *Handler[T]) Read(r *binrw.Reader, v *T) (uint32, error) {
	if h.Signature != "" {
		sig, err := r.Slice(len(h.Signature))
		if err != nil {
			return 0, h.wrap(err)
		}
		if string(sig) != h.Signature {
			return 0, fmt.Errorf("%w: %s: %q", ErrUnknownSignature, h.Format, sig)
		}
	}
	version, err := h.readVersion(r)
	if err != nil {
		return 0, h.wrap(err)
	}
	c, err := h.codec(version)
	if err != nil {
		return 0, err
	}
	if err := c.Decode(r, v); err != nil {
		return 0, h.wrap(err)
	}
	return version, nil
}

// Encode encodes v with the codec of version.
func (h *Handler[T]) Encode(version uint32, v *T) ([]byte, error) {
	w := binrw.NewWriter(0)
	if err := h.Write(w, version, v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Write appends the signature, the version and v's body to w.
func (h *Handler[T]) Write(w *binrw.Writer, version uint32, v *T) error {
	c, err := h.codec(version)
	if err != nil {
		return err
	}
	w.WriteStringRaw(h.Signature)
	switch h.Width {
	case U32:
		w.WriteU32(version)
	default:
		if version > math.MaxUint16 {
			return &UnsupportedVersionError{Format: h.Format, Version: version}
		}
		w.WriteU16(uint16(version))
	}
	if err := c.Encode(w, v); err != nil {
		return fmt.Errorf("%s: %w", h.Format, err)
	}
	return nil
}

func (h *Handler[T]) readVersion(r *binrw.Reader) (uint32, error) {
	if h.Width == U32 {
		return r.U32()
	}
	v, err := r.U16()
	return uint32(v), err
}

// wrap prefixes err with the format name, marking short reads as corruption.
func (h *Handler[T]) wrap(err error) error {
	if errors.Is(err, binrw.ErrOutOfBounds) && !errors.Is(err, ErrCorrupt) {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, h.Format, err)
	}
	return fmt.Errorf("%s: %w", h.Format, err)
}

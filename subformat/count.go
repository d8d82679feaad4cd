package subformat

import (
	"fmt"
	"math"

	"github.com/Frodo45127/rpfm-sub014/binrw"
)

// ReadCount reads a u32 element count and checks that the remaining bytes
// could hold that many elements of at least minSize bytes each, so that a
// corrupt count never drives an allocation.
func ReadCount(r *binrw.Reader, minSize int) (int, error) {
	n, err := r.U32()
	if err != nil {
		return 0, err
	}
	if minSize > 0 && uint64(n)*uint64(minSize) > uint64(r.Remaining()) {
		return 0, fmt.Errorf("%w: %d elements of %d bytes at offset %d, %d bytes left",
			ErrCorrupt, n, minSize, r.Offset(), r.Remaining())
	}
	return int(n), nil
}

// WriteCount writes n as a u32 element count.
func WriteCount(w *binrw.Writer, n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return fmt.Errorf("subformat: %d elements do not fit a u32 count", n)
	}
	w.WriteU32(uint32(n))
	return nil
}

// ReadList reads a u32 count followed by that many elements decoded by read.
// An empty list decodes to nil.
func ReadList[E any](r *binrw.Reader, minSize int, read func(*binrw.Reader) (E, error)) ([]E, error) {
	n, err := ReadCount(r, minSize)
	if err != nil || n == 0 {
		return nil, err
	}
	out := make([]E, 0, n)
	for i := 0; i < n; i++ {
		e, err := read(r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// WriteList writes a u32 count followed by every element encoded by write.
func WriteList[E any](w *binrw.Writer, list []E, write func(*binrw.Writer, E) error) error {
	if err := WriteCount(w, len(list)); err != nil {
		return err
	}
	for i, e := range list {
		if err := write(w, e); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

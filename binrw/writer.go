package binrw

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"unicode/utf16"

	"github.com/x448/float16"
	"golang.org/x/text/encoding/charmap"
)

// Writer encodes little-endian primitives into a growing buffer.
//
// Each method mirrors the Reader method of the same name. Scalar writes
// cannot fail; string writes fail when the value does not fit its field.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with room for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the encoded bytes. The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Reset discards written bytes but keeps the allocated buffer.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// WriteBool writes v as one byte, 1 for true and 0 for false.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

// WriteU8 writes one byte.
func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

// WriteI8 writes a signed byte.
func (w *Writer) WriteI8(v int8) { w.buf = append(w.buf, byte(v)) }

// WriteU16 writes a little-endian uint16.
func (w *Writer) WriteU16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

// WriteI16 writes a little-endian int16.
func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) } //nolint:gosec // two's complement

// WriteU24 writes the low three bytes of v.
func (w *Writer) WriteU24(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16))
}

// WriteI24 writes the low three bytes of v.
func (w *Writer) WriteI24(v int32) { w.WriteU24(uint32(v)) } //nolint:gosec // two's complement

// WriteU32 writes a little-endian uint32.
func (w *Writer) WriteU32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

// WriteI32 writes a little-endian int32.
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) } //nolint:gosec // two's complement

// WriteU64 writes a little-endian uint64.
func (w *Writer) WriteU64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

// WriteI64 writes a little-endian int64.
func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) } //nolint:gosec // two's complement

// WriteF16 narrows v to half precision.
func (w *Writer) WriteF16(v float32) { w.WriteU16(float16.Fromfloat32(v).Bits()) }

// WriteF32 writes a little-endian IEEE 754 float32.
func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }

// WriteF64 writes a little-endian IEEE 754 float64.
func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// WriteOptionalI16 writes false for zero, otherwise true followed by v.
func (w *Writer) WriteOptionalI16(v int16) {
	w.WriteBool(v != 0)
	if v != 0 {
		w.WriteI16(v)
	}
}

// WriteOptionalI32 writes false for zero, otherwise true followed by v.
func (w *Writer) WriteOptionalI32(v int32) {
	w.WriteBool(v != 0)
	if v != 0 {
		w.WriteI32(v)
	}
}

// WriteOptionalI64 writes false for zero, otherwise true followed by v.
func (w *Writer) WriteOptionalI64(v int64) {
	w.WriteBool(v != 0)
	if v != 0 {
		w.WriteI64(v)
	}
}

// WriteStringRaw writes the bytes of s with no length or terminator.
func (w *Writer) WriteStringRaw(s string) { w.buf = append(w.buf, s...) }

// WriteStringISO885915 encodes s as ISO-8859-15.
func (w *Writer) WriteStringISO885915(s string) error {
	b, err := charmap.ISO8859_15.NewEncoder().String(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidString, err)
	}
	w.WriteStringRaw(b)
	return nil
}

// WriteStringPadded writes s into a fixed n-byte field padded with zeros.
// Longer strings are cut to n bytes when crop is set and rejected otherwise.
func (w *Writer) WriteStringPadded(s string, n int, crop bool) error {
	if len(s) > n {
		if !crop {
			return &StringTooLongError{Value: s, Len: len(s), Max: n}
		}
		s = s[:n]
	}
	w.WriteStringRaw(s)
	w.buf = append(w.buf, make([]byte, n-len(s))...)
	return nil
}

// WriteStringZ writes s followed by a zero byte.
func (w *Writer) WriteStringZ(s string) {
	w.WriteStringRaw(s)
	w.buf = append(w.buf, 0)
}

// WriteSizedString writes a u16 byte length followed by s.
func (w *Writer) WriteSizedString(s string) error {
	if len(s) > math.MaxUint16 {
		return &StringTooLongError{Value: s, Len: len(s), Max: math.MaxUint16}
	}
	w.WriteU16(uint16(len(s)))
	w.WriteStringRaw(s)
	return nil
}

// WriteSizedStringU32 writes a u32 byte length followed by s.
func (w *Writer) WriteSizedStringU32(s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return &StringTooLongError{Value: s, Len: len(s), Max: math.MaxUint32}
	}
	w.WriteU32(uint32(len(s)))
	w.WriteStringRaw(s)
	return nil
}

// WriteOptionalSizedString writes false for an empty string, otherwise true
// followed by the sized string.
func (w *Writer) WriteOptionalSizedString(s string) error {
	if s == "" {
		w.WriteBool(false)
		return nil
	}
	w.WriteBool(true)
	return w.WriteSizedString(s)
}

// WriteStringU16 writes s as UTF-16 code units with no length.
func (w *Writer) WriteStringU16(s string) {
	for _, u := range utf16.Encode([]rune(s)) {
		w.WriteU16(u)
	}
}

// WriteStringU16Padded writes s into a field of n UTF-16 code units.
func (w *Writer) WriteStringU16Padded(s string, n int, crop bool) error {
	units := utf16.Encode([]rune(s))
	if len(units) > n {
		if !crop {
			return &StringTooLongError{Value: s, Len: len(units), Max: n}
		}
		units = units[:n]
	}
	for _, u := range units {
		w.WriteU16(u)
	}
	w.buf = append(w.buf, make([]byte, (n-len(units))*2)...)
	return nil
}

// WriteStringU16Z writes s as UTF-16 followed by a zero code unit.
func (w *Writer) WriteStringU16Z(s string) {
	w.WriteStringU16(s)
	w.WriteU16(0)
}

// WriteSizedStringU16 writes a u16 code unit count followed by UTF-16 text.
func (w *Writer) WriteSizedStringU16(s string) error {
	units := utf16.Encode([]rune(s))
	if len(units) > math.MaxUint16 {
		return &StringTooLongError{Value: s, Len: len(units), Max: math.MaxUint16}
	}
	w.WriteU16(uint16(len(units)))
	for _, u := range units {
		w.WriteU16(u)
	}
	return nil
}

// WriteOptionalSizedStringU16 writes false for an empty string, otherwise
// true followed by the sized UTF-16 string.
func (w *Writer) WriteOptionalSizedStringU16(s string) error {
	if s == "" {
		w.WriteBool(false)
		return nil
	}
	w.WriteBool(true)
	return w.WriteSizedStringU16(s)
}

// WriteColourRGB parses a hex colour as produced by Reader.ColourRGB.
func (w *Writer) WriteColourRGB(s string) error {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("%w: colour %q", ErrInvalidString, s)
	}
	w.WriteU32(uint32(v))
	return nil
}

// WriteCAULEB128 writes v as a big-endian base-128 varint. When padding is
// larger than the minimal encoding, continuation bytes are prepended until
// the value takes padding bytes.
func (w *Writer) WriteCAULEB128(v uint32, padding int) {
	var groups []byte
	for {
		groups = append(groups, byte(v&0x7F))
		v >>= 7
		if v == 0 {
			break
		}
	}
	for len(groups) < padding {
		groups = append(groups, 0)
	}
	for i := len(groups) - 1; i > 0; i-- {
		w.buf = append(w.buf, groups[i]|0x80)
	}
	w.buf = append(w.buf, groups[0])
}

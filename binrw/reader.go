package binrw

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/x448/float16"
	"golang.org/x/text/encoding/charmap"
)

// Reader decodes little-endian primitives from a byte slice.
//
// Every read advances the cursor by the bytes it consumed. A read that
// fails leaves the cursor where it was before the call.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the cursor position.
func (r *Reader) Offset() int { return r.off }

// Len returns the total length of the underlying data.
func (r *Reader) Len() int { return len(r.data) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

// AtEnd reports whether every byte has been consumed.
func (r *Reader) AtEnd() bool { return r.off == len(r.data) }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.data) {
		return fmt.Errorf("%w: seek to %d in %d bytes", ErrOutOfBounds, off, len(r.data))
	}
	r.off = off
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// take returns the next n bytes without copying them.
func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > len(r.data)-r.off {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, %d left",
			ErrOutOfBounds, n, r.off, len(r.data)-r.off)
	}
	b := r.data[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

// restore rewinds the cursor to start when err is non-nil.
func (r *Reader) restore(start int, err error) {
	if err != nil {
		r.off = start
	}
}

// Slice returns a copy of the next n bytes.
func (r *Reader) Slice(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// Bool reads a one-byte boolean. Values other than 0 and 1 are rejected.
func (r *Reader) Bool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		r.off--
		return false, &InvalidDiscriminantError{Type: "bool", Value: uint64(b[0])}
	}
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// I8 reads a signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err //nolint:gosec // two's complement reinterpretation
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// I16 reads a little-endian int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err //nolint:gosec // two's complement reinterpretation
}

// U24 reads a three-byte unsigned integer.
func (r *Reader) U24() (uint32, error) {
	b, err := r.take(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

// I24 reads a three-byte signed integer.
func (r *Reader) I24() (int32, error) {
	v, err := r.U24()
	return int32(v<<8) >> 8, err //nolint:gosec // sign extension
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// I32 reads a little-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err //nolint:gosec // two's complement reinterpretation
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// I64 reads a little-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err //nolint:gosec // two's complement reinterpretation
}

// F16 reads a half-precision float widened to float32.
func (r *Reader) F16() (float32, error) {
	v, err := r.U16()
	if err != nil {
		return 0, err
	}
	return float16.Frombits(v).Float32(), nil
}

// F32 reads a little-endian IEEE 754 float32.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// F64 reads a little-endian IEEE 754 float64.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	return math.Float64frombits(v), err
}

// OptionalI16 reads a boolean and, when it is true, an i16.
func (r *Reader) OptionalI16() (int16, error) {
	start := r.off
	ok, err := r.Bool()
	if err != nil || !ok {
		return 0, err
	}
	v, err := r.I16()
	r.restore(start, err)
	return v, err
}

// OptionalI32 reads a boolean and, when it is true, an i32.
func (r *Reader) OptionalI32() (int32, error) {
	start := r.off
	ok, err := r.Bool()
	if err != nil || !ok {
		return 0, err
	}
	v, err := r.I32()
	r.restore(start, err)
	return v, err
}

// OptionalI64 reads a boolean and, when it is true, an i64.
func (r *Reader) OptionalI64() (int64, error) {
	start := r.off
	ok, err := r.Bool()
	if err != nil || !ok {
		return 0, err
	}
	v, err := r.I64()
	r.restore(start, err)
	return v, err
}

// String reads n bytes of UTF-8.
func (r *Reader) String(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		r.off -= n
		return "", fmt.Errorf("%w: invalid utf-8 at offset %d", ErrInvalidString, r.off)
	}
	return string(b), nil
}

// StringISO885915 reads n bytes of ISO-8859-15 text, as found in paths of
// older games.
func (r *Reader) StringISO885915(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	out, err := charmap.ISO8859_15.NewDecoder().Bytes(b)
	if err != nil {
		r.off -= n
		return "", fmt.Errorf("%w: %v", ErrInvalidString, err)
	}
	return string(out), nil
}

// StringPadded reads a fixed n-byte field holding zero-padded UTF-8.
func (r *Reader) StringPadded(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if !utf8.Valid(b) {
		r.off -= n
		return "", fmt.Errorf("%w: invalid utf-8 at offset %d", ErrInvalidString, r.off)
	}
	return string(b), nil
}

// StringZ reads a zero-terminated string. Invalid sequences are replaced
// rather than rejected, since paths in old packs contain broken bytes.
func (r *Reader) StringZ() (string, error) {
	i := bytes.IndexByte(r.data[r.off:], 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrOutOfBounds, r.off)
	}
	b := r.data[r.off : r.off+i]
	r.off += i + 1
	return strings.ToValidUTF8(string(b), "�"), nil
}

// SizedString reads a u16 byte length followed by that many bytes of UTF-8.
func (r *Reader) SizedString() (string, error) {
	start := r.off
	n, err := r.U16()
	if err != nil {
		return "", err
	}
	s, err := r.String(int(n))
	r.restore(start, err)
	return s, err
}

// SizedStringU32 reads a u32 byte length followed by that many bytes of UTF-8.
func (r *Reader) SizedStringU32() (string, error) {
	start := r.off
	n, err := r.U32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.off = start
		return "", fmt.Errorf("%w: string of %d bytes at offset %d", ErrOutOfBounds, n, start)
	}
	s, err := r.String(int(n))
	r.restore(start, err)
	return s, err
}

// OptionalSizedString reads a boolean and, when it is true, a sized string.
func (r *Reader) OptionalSizedString() (string, error) {
	start := r.off
	ok, err := r.Bool()
	if err != nil || !ok {
		return "", err
	}
	s, err := r.SizedString()
	r.restore(start, err)
	return s, err
}

// StringU16 reads n UTF-16 code units.
func (r *Reader) StringU16(n int) (string, error) {
	if n < 0 || n > math.MaxInt/2 {
		return "", fmt.Errorf("%w: %d code units", ErrOutOfBounds, n)
	}
	b, err := r.take(n * 2)
	if err != nil {
		return "", err
	}
	return decodeUTF16(b), nil
}

// StringU16Padded reads a fixed field of n UTF-16 code units padded with
// zero units.
func (r *Reader) StringU16Padded(n int) (string, error) {
	if n < 0 || n > math.MaxInt/2 {
		return "", fmt.Errorf("%w: %d code units", ErrOutOfBounds, n)
	}
	b, err := r.take(n * 2)
	if err != nil {
		return "", err
	}
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			b = b[:i]
			break
		}
	}
	return decodeUTF16(b), nil
}

// StringU16Z reads UTF-16 code units up to a zero unit.
func (r *Reader) StringU16Z() (string, error) {
	for i := r.off; i+1 < len(r.data); i += 2 {
		if r.data[i] == 0 && r.data[i+1] == 0 {
			s := decodeUTF16(r.data[r.off:i])
			r.off = i + 2
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unterminated utf-16 string at offset %d", ErrOutOfBounds, r.off)
}

// SizedStringU16 reads a u16 code unit count followed by UTF-16 text.
func (r *Reader) SizedStringU16() (string, error) {
	start := r.off
	n, err := r.U16()
	if err != nil {
		return "", err
	}
	s, err := r.StringU16(int(n))
	r.restore(start, err)
	return s, err
}

// OptionalSizedStringU16 reads a boolean and, when it is true, a sized
// UTF-16 string.
func (r *Reader) OptionalSizedStringU16() (string, error) {
	start := r.off
	ok, err := r.Bool()
	if err != nil || !ok {
		return "", err
	}
	s, err := r.SizedStringU16()
	r.restore(start, err)
	return s, err
}

// ColourRGB reads a packed colour and returns it as upper-case hex.
// The on-disk byte order is BB GG RR 00.
func (r *Reader) ColourRGB() (string, error) {
	v, err := r.U32()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06X", v), nil
}

// CAULEB128 reads a big-endian base-128 varint: every byte but the last
// has its high bit set.
func (r *Reader) CAULEB128() (uint32, error) {
	start := r.off
	var v uint32
	for {
		b, err := r.U8()
		if err != nil {
			r.off = start
			return 0, err
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, nil
		}
	}
}

func decodeUTF16(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units))
}

package binrw

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderScalars(t *testing.T) {
	t.Parallel()

	w := NewWriter(0)
	w.WriteBool(true)
	w.WriteU8(0xFE)
	w.WriteI8(-2)
	w.WriteU16(0xBEEF)
	w.WriteI16(-300)
	w.WriteU24(0x123456)
	w.WriteI24(-5)
	w.WriteU32(0xDEADBEEF)
	w.WriteI32(math.MinInt32)
	w.WriteU64(math.MaxUint64 - 1)
	w.WriteI64(-1 << 40)
	w.WriteF16(1.5)
	w.WriteF32(3.25)
	w.WriteF64(-0.125)

	r := NewReader(w.Bytes())
	b, err := r.Bool()
	require.NoError(t, err)
	assert.True(t, b)

	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFE), u8)

	i8, err := r.I8()
	require.NoError(t, err)
	assert.Equal(t, int8(-2), i8)

	u16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	i16, err := r.I16()
	require.NoError(t, err)
	assert.Equal(t, int16(-300), i16)

	u24, err := r.U24()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123456), u24)

	i24, err := r.I24()
	require.NoError(t, err)
	assert.Equal(t, int32(-5), i24)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	i32, err := r.I32()
	require.NoError(t, err)
	assert.Equal(t, int32(math.MinInt32), i32)

	u64, err := r.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-1), u64)

	i64, err := r.I64()
	require.NoError(t, err)
	assert.Equal(t, int64(-1<<40), i64)

	f16, err := r.F16()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f16, 0)

	f32, err := r.F32()
	require.NoError(t, err)
	assert.InDelta(t, 3.25, f32, 0)

	f64, err := r.F64()
	require.NoError(t, err)
	assert.InDelta(t, -0.125, f64, 0)

	assert.True(t, r.AtEnd())
}

func TestReaderLittleEndian(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{10, 0, 0, 0, 10, 0, 0})
	v, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), v)

	_, err = r.U32()
	require.ErrorIs(t, err, ErrOutOfBounds)
	assert.Equal(t, 4, r.Offset(), "failed read must not move the cursor")
}

func TestWriterScalarLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(*Writer)
		want  []byte
	}{
		{name: "bool true", write: func(w *Writer) { w.WriteBool(true) }, want: []byte{1}},
		{name: "bool false", write: func(w *Writer) { w.WriteBool(false) }, want: []byte{0}},
		{name: "i8", write: func(w *Writer) { w.WriteI8(-1) }, want: []byte{0xFF}},
		{name: "u16", write: func(w *Writer) { w.WriteU16(0x0102) }, want: []byte{2, 1}},
		{name: "i16", write: func(w *Writer) { w.WriteI16(-2) }, want: []byte{0xFE, 0xFF}},
		{name: "u32", write: func(w *Writer) { w.WriteU32(0x01020304) }, want: []byte{4, 3, 2, 1}},
		{name: "i32", write: func(w *Writer) { w.WriteI32(-1) }, want: []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{name: "u64", write: func(w *Writer) { w.WriteU64(0x0102030405060708) }, want: []byte{8, 7, 6, 5, 4, 3, 2, 1}},
		{name: "i64", write: func(w *Writer) { w.WriteI64(-2) }, want: []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{name: "f32", write: func(w *Writer) { w.WriteF32(1) }, want: []byte{0, 0, 0x80, 0x3F}},
		{name: "f64", write: func(w *Writer) { w.WriteF64(1) }, want: []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := NewWriter(0)
			tt.write(w)
			assert.Equal(t, tt.want, w.Bytes())
		})
	}
}

func TestReaderBoolRejectsOtherValues(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{2})
	_, err := r.Bool()
	require.ErrorIs(t, err, ErrInvalidDiscriminant)

	var de *InvalidDiscriminantError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, uint64(2), de.Value)
	assert.Equal(t, 0, r.Offset())
}

func TestReaderStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		read    func(*Reader) (string, error)
		want    string
		wantOff int
	}{
		{
			name:    "sized",
			data:    []byte{10, 0, 'W', 'a', 'h', 'a', 'h', 'a', 'h', 'a', 'h', 'a'},
			read:    (*Reader).SizedString,
			want:    "Wahahahaha",
			wantOff: 12,
		},
		{
			name:    "sized u32",
			data:    []byte{4, 0, 0, 0, 'W', 'a', 'h', 'a'},
			read:    (*Reader).SizedStringU32,
			want:    "Waha",
			wantOff: 8,
		},
		{
			name:    "zero terminated",
			data:    []byte{'W', 'a', 'h', 'a', 0, 'x'},
			read:    (*Reader).StringZ,
			want:    "Waha",
			wantOff: 5,
		},
		{
			name:    "padded",
			data:    []byte{'W', 'a', 'h', 'a', 0, 0, 0, 0},
			read:    func(r *Reader) (string, error) { return r.StringPadded(8) },
			want:    "Waha",
			wantOff: 8,
		},
		{
			name:    "utf16 sized",
			data:    []byte{2, 0, 'h', 0, 'i', 0},
			read:    (*Reader).SizedStringU16,
			want:    "hi",
			wantOff: 6,
		},
		{
			name:    "utf16 padded",
			data:    []byte{'h', 0, 'i', 0, 0, 0, 0, 0},
			read:    func(r *Reader) (string, error) { return r.StringU16Padded(4) },
			want:    "hi",
			wantOff: 8,
		},
		{
			name:    "utf16 zero terminated",
			data:    []byte{'h', 0, 'i', 0, 0, 0},
			read:    (*Reader).StringU16Z,
			want:    "hi",
			wantOff: 6,
		},
		{
			name:    "optional absent",
			data:    []byte{0},
			read:    (*Reader).OptionalSizedString,
			want:    "",
			wantOff: 1,
		},
		{
			name:    "optional present",
			data:    []byte{1, 2, 0, 'o', 'k'},
			read:    (*Reader).OptionalSizedString,
			want:    "ok",
			wantOff: 5,
		},
		{
			name:    "colour",
			data:    []byte{0xFF, 0x04, 0x05, 0x00},
			read:    (*Reader).ColourRGB,
			want:    "0504FF",
			wantOff: 4,
		},
		{
			name:    "iso 8859-15",
			data:    []byte{'W', 'a', 'h', 'a', 0xFF},
			read:    func(r *Reader) (string, error) { return r.StringISO885915(5) },
			want:    "Wahaÿ",
			wantOff: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewReader(tt.data)
			got, err := tt.read(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOff, r.Offset())
		})
	}
}

func TestReaderStringFailuresRestoreCursor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		read func(*Reader) (string, error)
		want error
	}{
		{"sized short", []byte{5, 0, 'a', 'b'}, (*Reader).SizedString, ErrOutOfBounds},
		{"sized u32 huge", []byte{0xFF, 0xFF, 0xFF, 0xFF, 'a'}, (*Reader).SizedStringU32, ErrOutOfBounds},
		{"unterminated", []byte{'a', 'b'}, (*Reader).StringZ, ErrOutOfBounds},
		{"invalid utf8", []byte{2, 0, 0xC3, 0x28}, (*Reader).SizedString, ErrInvalidString},
		{"optional truncated", []byte{1, 3, 0}, (*Reader).OptionalSizedString, ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewReader(tt.data)
			_, err := tt.read(r)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, r.Offset())
		})
	}
}

func TestOptionalIntegers(t *testing.T) {
	t.Parallel()

	w := NewWriter(0)
	w.WriteOptionalI32(0)
	w.WriteOptionalI32(-7)
	w.WriteOptionalI16(12)
	w.WriteOptionalI64(0)
	assert.Equal(t, []byte{0, 1, 0xF9, 0xFF, 0xFF, 0xFF, 1, 12, 0, 0}, w.Bytes())

	r := NewReader(w.Bytes())
	a, err := r.OptionalI32()
	require.NoError(t, err)
	assert.Zero(t, a)
	b, err := r.OptionalI32()
	require.NoError(t, err)
	assert.Equal(t, int32(-7), b)
	c, err := r.OptionalI16()
	require.NoError(t, err)
	assert.Equal(t, int16(12), c)
	d, err := r.OptionalI64()
	require.NoError(t, err)
	assert.Zero(t, d)
	assert.True(t, r.AtEnd())
}

func TestCanonicalOptionalRewrite(t *testing.T) {
	t.Parallel()

	// A present-but-zero optional decodes to zero and is rewritten as absent.
	r := NewReader([]byte{1, 0, 0, 0, 0})
	v, err := r.OptionalI32()
	require.NoError(t, err)

	w := NewWriter(0)
	w.WriteOptionalI32(v)
	assert.Equal(t, []byte{0}, w.Bytes())
}

func TestCAULEB128(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   uint32
		padding int
		want    []byte
	}{
		{10, 0, []byte{10}},
		{127, 0, []byte{0x7F}},
		{128, 0, []byte{0x81, 0x00}},
		{300, 0, []byte{0x82, 0x2C}},
		{10, 2, []byte{0x80, 10}},
		{math.MaxUint32, 0, []byte{0x8F, 0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tt := range tests {
		w := NewWriter(0)
		w.WriteCAULEB128(tt.value, tt.padding)
		assert.Equal(t, tt.want, w.Bytes(), "value %d", tt.value)

		got, err := NewReader(tt.want).CAULEB128()
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
	}

	_, err := NewReader([]byte{0x80}).CAULEB128()
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestWriterStrings(t *testing.T) {
	t.Parallel()

	w := NewWriter(0)
	require.NoError(t, w.WriteStringPadded("Waha", 8, false))
	assert.Equal(t, []byte{'W', 'a', 'h', 'a', 0, 0, 0, 0}, w.Bytes())

	err := w.WriteStringPadded("toolongvalue", 8, false)
	require.ErrorIs(t, err, ErrStringTooLong)

	w.Reset()
	require.NoError(t, w.WriteStringPadded("toolongvalue", 8, true))
	assert.Equal(t, []byte("toolongv"), w.Bytes())

	w.Reset()
	require.NoError(t, w.WriteColourRGB("0504FF"))
	assert.Equal(t, []byte{0xFF, 0x04, 0x05, 0x00}, w.Bytes())
	require.ErrorIs(t, w.WriteColourRGB("zz"), ErrInvalidString)

	w.Reset()
	w.WriteStringZ("Wahahaha")
	assert.Equal(t, []byte{87, 97, 104, 97, 104, 97, 104, 97, 0}, w.Bytes())

	w.Reset()
	require.NoError(t, w.WriteStringU16Padded("hi", 4, false))
	assert.Equal(t, []byte{'h', 0, 'i', 0, 0, 0, 0, 0}, w.Bytes())

	w.Reset()
	require.NoError(t, w.WriteStringISO885915("Wahaÿ"))
	assert.Equal(t, []byte{'W', 'a', 'h', 'a', 0xFF}, w.Bytes())
}

func TestSeekAndSkip(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{1, 2, 3, 4})
	require.NoError(t, r.Skip(2))
	assert.Equal(t, 2, r.Remaining())
	require.ErrorIs(t, r.Skip(3), ErrOutOfBounds)
	require.NoError(t, r.Seek(4))
	assert.True(t, r.AtEnd())
	require.ErrorIs(t, r.Seek(5), ErrOutOfBounds)

	s, err := NewReader([]byte{1, 2, 3}).Slice(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, s)
}

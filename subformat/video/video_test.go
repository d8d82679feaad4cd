package video

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/subformat"
)

var (
	keyFrame   = []byte{0x50, 0x02, 0x00, 0x9D, 0x01, 0x2A, 0x80, 0x02, 0x68, 0x01}
	interFrame = []byte{0x31, 0x01, 0x00, 0xAA, 0xBB}
)

// rawCAVP8 lays out a CA_VP8 file field by field.
func rawCAVP8(extended, extra bool) []byte {
	frames := [][]byte{keyFrame, interFrame, interFrame}
	headerEnd := 40
	if extra {
		headerEnd += 9
	}
	var frameData []byte
	for _, f := range frames {
		frameData = append(frameData, f...)
	}

	w := binrw.NewWriter(0)
	w.WriteStringRaw(SignatureCAVP8)
	w.WriteU16(1)
	w.WriteU16(uint16(headerEnd - 8))
	w.WriteStringRaw("VP80")
	w.WriteU16(640)
	w.WriteU16(360)
	w.WriteF32(40)
	w.WriteU32(1)
	if extra {
		w.WriteU32(uint32(len(frames)))
	} else {
		w.WriteU32(uint32(len(frames) - 1))
	}
	w.WriteU32(uint32(headerEnd + len(frameData)))
	w.WriteU32(uint32(len(frames)))
	w.WriteU32(uint32(len(keyFrame)))
	if extra {
		w.WriteU8(0)
		w.WriteU32(0xF0000000)
		w.WriteU32(0x0F000000)
	}
	_, _ = w.Write(frameData)
	offset := headerEnd
	for i, f := range frames {
		w.WriteU32(uint32(offset))
		w.WriteU32(uint32(len(f)))
		if extended {
			w.WriteU32(uint32(100 + i))
		}
		w.WriteBool(i == 0)
		offset += len(f)
	}
	return w.Bytes()
}

func TestDecodeCAVP8(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		extended bool
		extra    bool
	}{
		{"plain", false, false},
		{"extended table", true, false},
		{"header extra", false, true},
		{"both", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := rawCAVP8(tt.extended, tt.extra)
			v, err := Decode(data)
			require.NoError(t, err)

			assert.Equal(t, FormatCAVP8, v.Format)
			assert.Equal(t, uint16(1), v.Version)
			assert.Equal(t, "VP80", v.Codec)
			assert.Equal(t, uint16(640), v.Width)
			assert.Equal(t, uint16(360), v.Height)
			assert.InDelta(t, 25, v.Framerate(), 1e-6)
			assert.Equal(t, tt.extended, v.ExtendedFrameTable)
			assert.Equal(t, tt.extra, v.Extra != nil)
			require.Len(t, v.Frames, 3)
			assert.True(t, v.Frames[0].KeyFrame)
			assert.False(t, v.Frames[1].KeyFrame)
			assert.Equal(t, uint32(len(keyFrame)), v.Frames[1].Offset)
			if tt.extended {
				assert.Equal(t, uint32(102), v.Frames[2].Extra)
			}

			f, err := v.FrameBytes(2)
			require.NoError(t, err)
			assert.Equal(t, interFrame, f)

			again, err := v.Encode()
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	t.Parallel()

	camv, err := Decode(rawCAVP8(true, true))
	require.NoError(t, err)

	ivf, err := camv.Convert(FormatIVF)
	require.NoError(t, err)
	assert.Equal(t, uint32(25), ivf.TimebaseRate)
	assert.Equal(t, uint32(1), ivf.TimebaseScale)

	data, err := ivf.Encode()
	require.NoError(t, err)
	assert.Equal(t, SignatureIVF, string(data[:4]))
	assert.Equal(t, []byte{32, 0}, data[6:8])
	assert.Len(t, data, 32+3*12+len(keyFrame)+2*len(interFrame))

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, FormatIVF, decoded.Format)
	assert.InDelta(t, 25, decoded.Framerate(), 1e-6)
	assert.Equal(t, []bool{true, false, false}, []bool{
		decoded.Frames[0].KeyFrame, decoded.Frames[1].KeyFrame, decoded.Frames[2].KeyFrame,
	})
	assert.Equal(t, camv.FrameData, decoded.FrameData)

	again, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	back, err := decoded.Convert(FormatCAVP8)
	require.NoError(t, err)
	assert.Equal(t, float32(40), back.FrameDuration)
	assert.Equal(t, uint32(1), back.Unknown)

	out, err := back.Encode()
	require.NoError(t, err)
	want := rawCAVP8(false, false)
	// IVF has no CA_VP8 version field; the converted file keeps version 0.
	want[4] = 0
	assert.Equal(t, want, out)
}

func TestTimebase(t *testing.T) {
	t.Parallel()

	rate, scale, err := timebase(29.97)
	require.NoError(t, err)
	assert.Equal(t, uint32(2997), rate)
	assert.Equal(t, uint32(100), scale)

	_, _, err = timebase(0)
	require.Error(t, err)
}

func TestCAVP8Boundaries(t *testing.T) {
	t.Parallel()

	data := rawCAVP8(false, false)
	for n := 0; n < len(data); n++ {
		_, err := Decode(data[:n])
		require.ErrorIs(t, err, subformat.ErrCorrupt, "cut at %d", n)
	}

	_, err := Decode(append(bytes.Clone(data), 0))
	require.ErrorIs(t, err, subformat.ErrCorrupt)

	bad := bytes.Clone(data)
	bad[4] = 2
	_, err = Decode(bad)
	var uv *subformat.UnsupportedVersionError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, "CA_VP8", uv.Format)

	// Frame offset pointing into the header.
	bad = bytes.Clone(data)
	tableStart := len(bad) - 3*9
	bad[tableStart] = 4
	bad[tableStart+1] = 0
	_, err = Decode(bad)
	require.ErrorIs(t, err, subformat.ErrCorrupt)

	_, err = Decode([]byte("RIFF\x00\x00\x00\x00"))
	require.ErrorIs(t, err, subformat.ErrUnknownSignature)
}

func TestEncodeRejectsUnrepresentable(t *testing.T) {
	t.Parallel()

	_, err := (&Video{Format: FormatCAVP8, Codec: "VP80"}).Encode()
	require.Error(t, err)

	_, err = (&Video{Format: FormatIVF, Codec: "VP8"}).Encode()
	require.Error(t, err)

	_, err = (&Video{Format: 9}).Encode()
	require.ErrorIs(t, err, binrw.ErrInvalidDiscriminant)

	v := &Video{Format: FormatIVF, Codec: "VP80", Frames: []Frame{{Size: 4}}}
	_, err = v.Encode()
	require.ErrorIs(t, err, subformat.ErrCorrupt)
}

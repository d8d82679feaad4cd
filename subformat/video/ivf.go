package video

import (
	"bytes"
	"fmt"
	"math"

	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/subformat"
)

const (
	ivfHeaderLen      = 32
	ivfFrameHeaderLen = 12
)

// keyFrameMarker follows the 3-byte frame tag of VP8 key frames.
var keyFrameMarker = []byte{0x9D, 0x01, 0x2A}

var ivfHandler = subformat.Handler[Video]{
	Format:    "IVF",
	Signature: SignatureIVF,
	Versions: map[uint32]subformat.Codec[Video]{
		0: {Decode: decodeIVF, Encode: encodeIVF},
	},
}

func decodeIVF(r *binrw.Reader, v *Video) error {
	headerLen, err := r.U16()
	if err != nil {
		return err
	}
	if v.Codec, err = r.String(4); err != nil {
		return err
	}
	if v.Width, err = r.U16(); err != nil {
		return err
	}
	if v.Height, err = r.U16(); err != nil {
		return err
	}
	if v.TimebaseRate, err = r.U32(); err != nil {
		return err
	}
	if v.TimebaseScale, err = r.U32(); err != nil {
		return err
	}
	numFrames, err := subformat.ReadCount(r, ivfFrameHeaderLen)
	if err != nil {
		return err
	}
	if _, err := r.U32(); err != nil { // unused
		return err
	}
	if r.Offset() != int(headerLen) {
		return &subformat.SizeMismatchError{Format: "IVF header", Expected: int(headerLen), Actual: r.Offset()}
	}

	v.Frames = make([]Frame, 0, numFrames)
	for range numFrames {
		size, err := r.U32()
		if err != nil {
			return err
		}
		if _, err := r.U64(); err != nil { // timestamp, rewritten as the frame index
			return err
		}
		data, err := r.Slice(int(size))
		if err != nil {
			return err
		}
		v.Frames = append(v.Frames, Frame{
			Offset:   uint32(len(v.FrameData)), //nolint:gosec // bounded by the u32 sizes read
			Size:     size,
			KeyFrame: len(data) >= 6 && bytes.Equal(data[3:6], keyFrameMarker),
		})
		v.FrameData = append(v.FrameData, data...)
	}
	return nil
}

func encodeIVF(w *binrw.Writer, v *Video) error {
	if err := checkCodec(v.Codec); err != nil {
		return err
	}
	if uint64(len(v.Frames)) > math.MaxUint32 {
		return fmt.Errorf("video: %d frames do not fit IVF", len(v.Frames))
	}
	w.WriteU16(ivfHeaderLen)
	w.WriteStringRaw(v.Codec)
	w.WriteU16(v.Width)
	w.WriteU16(v.Height)
	w.WriteU32(v.TimebaseRate)
	w.WriteU32(v.TimebaseScale)
	w.WriteU32(uint32(len(v.Frames)))
	w.WriteU32(0)
	for i := range v.Frames {
		data, err := v.FrameBytes(i)
		if err != nil {
			return err
		}
		w.WriteU32(uint32(len(data)))
		w.WriteU64(uint64(i))
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

package video

import (
	"fmt"
	"math"

	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/subformat"
)

const (
	// cavp8HeaderLen is the header size including signature and version.
	// The stored header length excludes the first 8 bytes.
	cavp8HeaderLen   = 40
	cavp8ExtraLen    = 9
	frameEntryLen    = 9
	frameEntryExtLen = 13
)

// Versions 0 and 1 share a layout.
var cavp8Handler = subformat.Handler[Video]{
	Format:    "CA_VP8",
	Signature: SignatureCAVP8,
	Versions: map[uint32]subformat.Codec[Video]{
		0: {Decode: decodeCAVP8, Encode: encodeCAVP8},
		1: {Decode: decodeCAVP8, Encode: encodeCAVP8},
	},
}

func decodeCAVP8(r *binrw.Reader, v *Video) error {
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
	if v.FrameDuration, err = r.F32(); err != nil {
		return err
	}
	if v.Unknown, err = r.U32(); err != nil {
		return err
	}
	// Equal to the frame count when the header carries extra data, one
	// less otherwise.
	framesField, err := r.U32()
	if err != nil {
		return err
	}
	tableOffset, err := r.U32()
	if err != nil {
		return err
	}
	numFrames, err := r.U32()
	if err != nil {
		return err
	}
	if _, err := r.U32(); err != nil { // largest frame, recomputed on encode
		return err
	}
	if framesField == numFrames {
		var x HeaderExtra
		if x.Flag, err = r.U8(); err != nil {
			return err
		}
		if x.A, err = r.U32(); err != nil {
			return err
		}
		if x.B, err = r.U32(); err != nil {
			return err
		}
		v.Extra = &x
	}

	headerEnd := r.Offset()
	if headerEnd != int(headerLen)+8 {
		return &subformat.SizeMismatchError{Format: "CA_VP8 header", Expected: int(headerLen) + 8, Actual: headerEnd}
	}
	if int(tableOffset) < headerEnd {
		return fmt.Errorf("%w: frame table at %d inside the %d byte header",
			subformat.ErrCorrupt, tableOffset, headerEnd)
	}
	if v.FrameData, err = r.Slice(int(tableOffset) - headerEnd); err != nil {
		return err
	}

	// Some encoders write an extra u32 per frame. The only way to tell is
	// whether the table splits evenly into 13 byte entries, one per frame.
	tableLen := r.Remaining()
	v.ExtendedFrameTable = tableLen/frameEntryExtLen == int(numFrames) && tableLen%frameEntryExtLen == 0
	entryLen := frameEntryLen
	if v.ExtendedFrameTable {
		entryLen = frameEntryExtLen
	}
	if uint64(numFrames)*uint64(entryLen) > uint64(tableLen) {
		return fmt.Errorf("%w: %d frames do not fit a %d byte frame table",
			subformat.ErrCorrupt, numFrames, tableLen)
	}

	v.Frames = make([]Frame, 0, numFrames)
	for i := range numFrames {
		offset, err := r.U32()
		if err != nil {
			return err
		}
		f := Frame{}
		if f.Size, err = r.U32(); err != nil {
			return err
		}
		if v.ExtendedFrameTable {
			if f.Extra, err = r.U32(); err != nil {
				return err
			}
		}
		if f.KeyFrame, err = r.Bool(); err != nil {
			return err
		}
		rel := int64(offset) - int64(headerEnd)
		if rel < 0 || rel+int64(f.Size) > int64(len(v.FrameData)) {
			return fmt.Errorf("%w: frame %d at %d+%d is outside the frame data",
				subformat.ErrCorrupt, i, offset, f.Size)
		}
		f.Offset = uint32(rel)
		v.Frames = append(v.Frames, f)
	}
	return nil
}

func encodeCAVP8(w *binrw.Writer, v *Video) error {
	if err := checkCodec(v.Codec); err != nil {
		return err
	}
	headerEnd := cavp8HeaderLen
	if v.Extra != nil {
		headerEnd += cavp8ExtraLen
	}
	n := len(v.Frames)
	if uint64(headerEnd)+uint64(len(v.FrameData)) > math.MaxUint32 || uint64(n) > math.MaxUint32 {
		return fmt.Errorf("video: %d frames in %d bytes do not fit CA_VP8", n, len(v.FrameData))
	}
	framesField := uint32(n)
	if v.Extra == nil {
		if n == 0 {
			return fmt.Errorf("video: a CA_VP8 file without frames needs header extra data")
		}
		framesField--
	}
	var largest uint32
	for i, f := range v.Frames {
		if uint64(f.Offset)+uint64(f.Size) > uint64(len(v.FrameData)) {
			return fmt.Errorf("video: frame %d is outside the frame data", i)
		}
		largest = max(largest, f.Size)
	}

	w.WriteU16(uint16(headerEnd - 8))
	w.WriteStringRaw(v.Codec)
	w.WriteU16(v.Width)
	w.WriteU16(v.Height)
	w.WriteF32(v.FrameDuration)
	w.WriteU32(v.Unknown)
	w.WriteU32(framesField)
	w.WriteU32(uint32(headerEnd + len(v.FrameData)))
	w.WriteU32(uint32(n))
	w.WriteU32(largest)
	if x := v.Extra; x != nil {
		w.WriteU8(x.Flag)
		w.WriteU32(x.A)
		w.WriteU32(x.B)
	}
	if _, err := w.Write(v.FrameData); err != nil {
		return err
	}
	for _, f := range v.Frames {
		w.WriteU32(uint32(headerEnd) + f.Offset)
		w.WriteU32(f.Size)
		if v.ExtendedFrameTable {
			w.WriteU32(f.Extra)
		}
		w.WriteBool(f.KeyFrame)
	}
	return nil
}

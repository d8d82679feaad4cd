// Package video decodes the CA_VP8 movie container and converts it to and
// from IVF, the plain VP8 container most tools read.
//
// Both formats hold the same VP8 frames. Decode accepts either one, and
// Convert rewrites the header of a decoded video for the other without
// touching frame data:
//
//	v, err := video.Decode(data)
//	if err != nil {
//	    return err
//	}
//	ivf, err := v.Convert(video.FormatIVF)
//	if err != nil {
//	    return err
//	}
//	out, err := ivf.Encode()
package video

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/subformat"
)

// Extension is the file extension of CA_VP8 movies inside packs.
const Extension = ".ca_vp8"

// Signatures of the supported containers.
const (
	SignatureCAVP8 = "CAMV"
	SignatureIVF   = "DKIF"
)

// Format is a video container.
type Format uint8

// Supported containers.
const (
	FormatCAVP8 Format = iota
	FormatIVF
)

func (f Format) String() string {
	switch f {
	case FormatCAVP8:
		return "CA_VP8"
	case FormatIVF:
		return "IVF"
	default:
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
}

// Video is a decoded movie.
type Video struct {
	Format  Format
	Version uint16

	// Codec is the four-character code of the stream, usually "VP80".
	Codec  string
	Width  uint16
	Height uint16

	// FrameDuration is the CA_VP8 frame time in milliseconds.
	FrameDuration float32

	// TimebaseRate and TimebaseScale are the IVF frame rate as a fraction.
	TimebaseRate  uint32
	TimebaseScale uint32

	// Unknown is a CA_VP8 header field, 1 in every known file.
	Unknown uint32

	// Extra holds the nine bytes some CA_VP8 headers carry after the
	// standard fields.
	Extra *HeaderExtra

	// ExtendedFrameTable marks CA_VP8 frame tables with an extra u32 per frame.
	ExtendedFrameTable bool

	Frames    []Frame
	FrameData []byte
}

// HeaderExtra is the optional tail of a CA_VP8 header.
type HeaderExtra struct {
	Flag uint8
	A, B uint32
}

// Frame locates one frame inside Video.FrameData.
type Frame struct {
	Offset   uint32
	Size     uint32
	KeyFrame bool

	// Extra is the additional field of extended CA_VP8 frame tables.
	Extra uint32
}

// Decode decodes a CA_VP8 or IVF file, chosen by its signature.
func Decode(data []byte) (*Video, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: video: %d bytes", subformat.ErrCorrupt, len(data))
	}
	v := &Video{}
	var h *subformat.Handler[Video]
	switch string(data[:4]) {
	case SignatureCAVP8:
		h, v.Format = &cavp8Handler, FormatCAVP8
	case SignatureIVF:
		h, v.Format = &ivfHandler, FormatIVF
	default:
		return nil, fmt.Errorf("%w: video: %q", subformat.ErrUnknownSignature, data[:4])
	}
	version, err := h.Decode(data, v)
	if err != nil {
		return nil, err
	}
	v.Version = uint16(version)
	return v, nil
}

// Encode encodes v in its Format.
func (v *Video) Encode() ([]byte, error) {
	switch v.Format {
	case FormatCAVP8:
		return cavp8Handler.Encode(uint32(v.Version), v)
	case FormatIVF:
		return ivfHandler.Encode(uint32(v.Version), v)
	default:
		return nil, &binrw.InvalidDiscriminantError{Type: "video format", Value: uint64(v.Format)}
	}
}

// Framerate returns the frames per second of v.
func (v *Video) Framerate() float32 {
	if v.Format == FormatIVF {
		if v.TimebaseScale == 0 {
			return 0
		}
		return float32(v.TimebaseRate) / float32(v.TimebaseScale)
	}
	if v.FrameDuration == 0 {
		return 0
	}
	return 1000 / v.FrameDuration
}

// Convert returns a copy of v with the header of format to. Frame data is
// shared with v.
func (v *Video) Convert(to Format) (*Video, error) {
	out := *v
	out.Frames = append([]Frame(nil), v.Frames...)
	switch to {
	case FormatIVF:
		if v.Format != FormatIVF {
			rate, scale, err := timebase(v.Framerate())
			if err != nil {
				return nil, err
			}
			out.TimebaseRate, out.TimebaseScale = rate, scale
		}
		out.Version = 0
		out.Extra = nil
		out.ExtendedFrameTable = false
		for i := range out.Frames {
			out.Frames[i].Extra = 0
		}
	case FormatCAVP8:
		if v.Format != FormatCAVP8 {
			if v.TimebaseRate == 0 {
				return nil, fmt.Errorf("video: cannot convert a zero frame rate")
			}
			out.FrameDuration = float32(1000 * float64(v.TimebaseScale) / float64(v.TimebaseRate))
			out.Unknown = 1
		}
	default:
		return nil, &binrw.InvalidDiscriminantError{Type: "video format", Value: uint64(to)}
	}
	out.Format = to
	return &out, nil
}

// FrameBytes returns the data of frame i.
func (v *Video) FrameBytes(i int) ([]byte, error) {
	if i < 0 || i >= len(v.Frames) {
		return nil, fmt.Errorf("video: frame %d of %d", i, len(v.Frames))
	}
	f := v.Frames[i]
	end := uint64(f.Offset) + uint64(f.Size)
	if end > uint64(len(v.FrameData)) {
		return nil, fmt.Errorf("%w: frame %d ends at %d, frame data is %d bytes",
			subformat.ErrCorrupt, i, end, len(v.FrameData))
	}
	return v.FrameData[f.Offset:end], nil
}

// timebase expresses fps as the smallest fraction of its shortest decimal
// form that fits the IVF header.
func timebase(fps float32) (rate, scale uint32, err error) {
	if fps <= 0 || math.IsInf(float64(fps), 0) || math.IsNaN(float64(fps)) {
		return 0, 0, fmt.Errorf("video: invalid frame rate %v", fps)
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(float64(fps), 'f', -1, 32))
	if ok && r.Num().IsUint64() && r.Denom().IsUint64() &&
		r.Num().Uint64() <= math.MaxUint32 && r.Denom().Uint64() <= math.MaxUint32 {
		return uint32(r.Num().Uint64()), uint32(r.Denom().Uint64()), nil
	}
	return 0, 0, fmt.Errorf("video: frame rate %v has no u32 fraction", fps)
}

func checkCodec(codec string) error {
	if len(codec) != 4 {
		return fmt.Errorf("video: codec %q is not a four-character code", codec)
	}
	return nil
}

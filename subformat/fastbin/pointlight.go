package fastbin

import (
	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/subformat"
)

// PointLight is an omnidirectional light placed on a battle map.
type PointLight struct {
	Version         uint16
	Position        Point3d
	Radius          float32
	Colour          Colour
	ColourScale     float32
	AnimationType   uint8
	ColourMin       float32
	RandomOffset    float32
	Params          Point2d
	FalloffType     string
	LFRelative      uint8
	HeightMode      string
	LightProbesOnly bool
	PDLCMask        uint64
	Flags           uint8
}

var pointLightHandler = subformat.Handler[PointLight]{
	Format: "PointLight",
	Versions: map[uint32]subformat.Codec[PointLight]{
		7: {Decode: decodePointLightV7, Encode: encodePointLightV7},
	},
}

// DecodePointLight decodes a payload holding exactly one light.
func DecodePointLight(data []byte) (*PointLight, error) {
	l := &PointLight{}
	version, err := pointLightHandler.Decode(data, l)
	if err != nil {
		return nil, err
	}
	l.Version = uint16(version)
	return l, nil
}

// ReadPointLight decodes a light at the reader's cursor.
func ReadPointLight(r *binrw.Reader) (*PointLight, error) {
	l := &PointLight{}
	version, err := pointLightHandler.Read(r, l)
	if err != nil {
		return nil, err
	}
	l.Version = uint16(version)
	return l, nil
}

// Encode encodes l with the layout of l.Version.
func (l *PointLight) Encode() ([]byte, error) {
	return pointLightHandler.Encode(uint32(l.Version), l)
}

// Write appends l to w with the layout of l.Version.
func (l *PointLight) Write(w *binrw.Writer) error {
	return pointLightHandler.Write(w, uint32(l.Version), l)
}

func decodePointLightV7(r *binrw.Reader, l *PointLight) error {
	var err error
	if l.Position, err = readPoint3d(r); err != nil {
		return err
	}
	if l.Radius, err = r.F32(); err != nil {
		return err
	}
	if l.Colour, err = readColour(r); err != nil {
		return err
	}
	if l.ColourScale, err = r.F32(); err != nil {
		return err
	}
	if l.AnimationType, err = r.U8(); err != nil {
		return err
	}
	if err = readF32s(r, &l.ColourMin, &l.RandomOffset); err != nil {
		return err
	}
	if l.Params, err = readPoint2d(r); err != nil {
		return err
	}
	if l.FalloffType, err = r.SizedString(); err != nil {
		return err
	}
	if l.LFRelative, err = r.U8(); err != nil {
		return err
	}
	if l.HeightMode, err = r.SizedString(); err != nil {
		return err
	}
	if l.LightProbesOnly, err = r.Bool(); err != nil {
		return err
	}
	if l.PDLCMask, err = r.U64(); err != nil {
		return err
	}
	l.Flags, err = r.U8()
	return err
}

func encodePointLightV7(w *binrw.Writer, l *PointLight) error {
	writePoint3d(w, l.Position)
	w.WriteF32(l.Radius)
	writeColour(w, l.Colour)
	w.WriteF32(l.ColourScale)
	w.WriteU8(l.AnimationType)
	writeF32s(w, l.ColourMin, l.RandomOffset, l.Params.X, l.Params.Y)
	if err := w.WriteSizedString(l.FalloffType); err != nil {
		return err
	}
	w.WriteU8(l.LFRelative)
	if err := w.WriteSizedString(l.HeightMode); err != nil {
		return err
	}
	w.WriteBool(l.LightProbesOnly)
	w.WriteU64(l.PDLCMask)
	w.WriteU8(l.Flags)
	return nil
}

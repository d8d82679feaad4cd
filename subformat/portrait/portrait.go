// Package portrait decodes the portrait settings files that position the
// camera for each character portrait and list the textures of its variants.
//
// The format has no signature and a u32 version.
package portrait

import (
	"errors"
	"fmt"

	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/subformat"
)

// Extension is the file extension of portrait settings.
const Extension = ".bin"

// ErrBodyCamera is returned when encoding an entry with a body camera in a
// version that cannot store one.
var ErrBodyCamera = errors.New("body camera not supported by version")

// Settings is a decoded portrait settings file.
type Settings struct {
	Version uint32
	Entries []Entry
}

// Entry is the portrait setup of one art set.
type Entry struct {
	ID   string
	Head Camera

	// Body is nil when the art set has no body shot.
	Body     *Camera
	Variants []Variant

	// Trailer closes every version 1 entry.
	Trailer Trailer
}

// Camera places the portrait camera relative to a skeleton node.
type Camera struct {
	Z, Y         float32
	Yaw, Pitch   float32
	FOV          float32
	SkeletonNode string

	// Version 1 stores a spherical placement plus FOV instead.
	Distance, Theta, Phi float32
}

// Trailer holds the fields after a version 1 entry's variants. Their
// meaning is unknown; shipped files carry an empty name and zeros.
type Trailer struct {
	Name    string
	Values  [2]float32
	Unknown uint16
}

// Variant lists the textures of one portrait variant.
type Variant struct {
	Filename string
	Diffuse  string
	Mask1    string
	Mask2    string
	Mask3    string
}

const (
	entrySize   = 2 + cameraSize + 1 + 4
	entryV1Size = 2 + 4*4 + 4 + trailerSize
	cameraSize  = 5*4 + 2
	trailerSize = 2 + 2*4 + 2
	variantSize = 5 * 2
)

var handler = subformat.Handler[Settings]{
	Format: "PortraitSettings",
	Width:  subformat.U32,
	Versions: map[uint32]subformat.Codec[Settings]{
		1: {Decode: decodeV1, Encode: encodeV1},
		4: {Decode: decodeV4, Encode: encodeV4},
	},
}

// Decode decodes a portrait settings file.
func Decode(data []byte) (*Settings, error) {
	s := &Settings{}
	version, err := handler.Decode(data, s)
	if err != nil {
		return nil, err
	}
	s.Version = version
	return s, nil
}

// Encode encodes s with the layout of s.Version.
func (s *Settings) Encode() ([]byte, error) {
	return handler.Encode(s.Version, s)
}

// Entry returns the entry with the given art set id.
func (s *Settings) Entry(id string) (*Entry, bool) {
	for i := range s.Entries {
		if s.Entries[i].ID == id {
			return &s.Entries[i], true
		}
	}
	return nil, false
}

// Textures returns every texture path referenced by the file's variants,
// skipping empty ones, in file order.
func (s *Settings) Textures() []string {
	var out []string
	for _, e := range s.Entries {
		for _, v := range e.Variants {
			for _, p := range []string{v.Diffuse, v.Mask1, v.Mask2, v.Mask3} {
				if p != "" {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

func decodeV1(r *binrw.Reader, s *Settings) (err error) {
	s.Entries, err = subformat.ReadList(r, entryV1Size, readEntryV1)
	return err
}

func encodeV1(w *binrw.Writer, s *Settings) error {
	return subformat.WriteList(w, s.Entries, writeEntryV1)
}

func readEntryV1(r *binrw.Reader) (Entry, error) {
	var e Entry
	var err error
	if e.ID, err = r.SizedString(); err != nil {
		return e, err
	}
	c := &e.Head
	for _, f := range []*float32{&c.Distance, &c.Theta, &c.Phi, &c.FOV} {
		if *f, err = r.F32(); err != nil {
			return e, err
		}
	}
	if e.Variants, err = subformat.ReadList(r, variantSize, readVariant); err != nil {
		return e, err
	}
	t := &e.Trailer
	if t.Name, err = r.SizedString(); err != nil {
		return e, err
	}
	for i := range t.Values {
		if t.Values[i], err = r.F32(); err != nil {
			return e, err
		}
	}
	t.Unknown, err = r.U16()
	return e, err
}

func writeEntryV1(w *binrw.Writer, e Entry) error {
	if e.Body != nil {
		return fmt.Errorf("%w: entry %q", ErrBodyCamera, e.ID)
	}
	if err := w.WriteSizedString(e.ID); err != nil {
		return err
	}
	c := e.Head
	for _, v := range []float32{c.Distance, c.Theta, c.Phi, c.FOV} {
		w.WriteF32(v)
	}
	if err := subformat.WriteList(w, e.Variants, writeVariant); err != nil {
		return err
	}
	if err := w.WriteSizedString(e.Trailer.Name); err != nil {
		return err
	}
	for _, v := range e.Trailer.Values {
		w.WriteF32(v)
	}
	w.WriteU16(e.Trailer.Unknown)
	return nil
}

func decodeV4(r *binrw.Reader, s *Settings) (err error) {
	s.Entries, err = subformat.ReadList(r, entrySize, readEntryV4)
	return err
}

func encodeV4(w *binrw.Writer, s *Settings) error {
	return subformat.WriteList(w, s.Entries, writeEntryV4)
}

func readEntryV4(r *binrw.Reader) (Entry, error) {
	var e Entry
	var err error
	if e.ID, err = r.SizedString(); err != nil {
		return e, err
	}
	if e.Head, err = readCameraV4(r); err != nil {
		return e, err
	}
	hasBody, err := r.Bool()
	if err != nil {
		return e, err
	}
	if hasBody {
		body, err := readCameraV4(r)
		if err != nil {
			return e, err
		}
		e.Body = &body
	}
	e.Variants, err = subformat.ReadList(r, variantSize, readVariant)
	return e, err
}

func writeEntryV4(w *binrw.Writer, e Entry) error {
	if err := w.WriteSizedString(e.ID); err != nil {
		return err
	}
	if err := writeCameraV4(w, e.Head); err != nil {
		return err
	}
	w.WriteBool(e.Body != nil)
	if e.Body != nil {
		if err := writeCameraV4(w, *e.Body); err != nil {
			return err
		}
	}
	return subformat.WriteList(w, e.Variants, writeVariant)
}

func readCameraV4(r *binrw.Reader) (Camera, error) {
	var c Camera
	for _, f := range []*float32{&c.Z, &c.Y, &c.Yaw, &c.Pitch, &c.FOV} {
		v, err := r.F32()
		if err != nil {
			return c, err
		}
		*f = v
	}
	var err error
	c.SkeletonNode, err = r.SizedString()
	return c, err
}

func writeCameraV4(w *binrw.Writer, c Camera) error {
	for _, v := range []float32{c.Z, c.Y, c.Yaw, c.Pitch, c.FOV} {
		w.WriteF32(v)
	}
	return w.WriteSizedString(c.SkeletonNode)
}

func readVariant(r *binrw.Reader) (Variant, error) {
	var v Variant
	for _, f := range []*string{&v.Filename, &v.Diffuse, &v.Mask1, &v.Mask2, &v.Mask3} {
		s, err := r.SizedString()
		if err != nil {
			return v, err
		}
		*f = s
	}
	return v, nil
}

func writeVariant(w *binrw.Writer, v Variant) error {
	for _, s := range []string{v.Filename, v.Diffuse, v.Mask1, v.Mask2, v.Mask3} {
		if err := w.WriteSizedString(s); err != nil {
			return err
		}
	}
	return nil
}

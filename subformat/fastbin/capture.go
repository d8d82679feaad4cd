package fastbin

import (
	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/subformat"
)

// CaptureLocationSet holds the capture points of a battle map, one list
// per player-count configuration.
type CaptureLocationSet struct {
	Version uint16
	Lists   []CaptureLocationList
}

// CaptureLocationList is one configuration's capture points.
type CaptureLocationList struct {
	Locations []CaptureLocation
}

// CaptureLocation is one capture point. Fields marked v8 are not stored by
// version 2 and stay zero when decoding it.
type CaptureLocation struct {
	Location         Point2d
	Radius           float32
	MinPlayers       uint32
	MaxPlayers       uint32
	CapturePointType string
	RestoreType      string // v8
	Points           []Point2d
	DatabaseKey      string
	FlagFacing       Point2d

	DestroyBuildingOnCapture                    bool // v8
	DisableBuildingAbilitiesWhenNoOriginalOwner bool // v8
	AbilitiesAffectGlobally                     bool // v8

	BuildingLinks   []BuildingLink
	ToggleSlotLinks []uint32 // v8
	AIHintLinks     []uint8  // v8
	ScriptID        string   // v8
	TimeBased       bool     // v8
}

// BuildingLink ties a capture point to a building, either placed directly
// or through a prefab. An index of -1 means unset. Links are versioned
// records of their own.
type BuildingLink struct {
	Version           uint16
	BuildingIndex     int32
	PrefabIndex       int32
	PrefabBuildingKey string
}

const (
	locationListSize = 4
	locationV2Size   = 40
	locationV8Size   = 56
	buildingLinkSize = 12
)

var captureLocationSetHandler = subformat.Handler[CaptureLocationSet]{
	Format: "CaptureLocationSet",
	Versions: map[uint32]subformat.Codec[CaptureLocationSet]{
		2: {
			Decode: func(r *binrw.Reader, s *CaptureLocationSet) error { return decodeLocationSet(r, s, false) },
			Encode: func(w *binrw.Writer, s *CaptureLocationSet) error { return encodeLocationSet(w, s, false) },
		},
		8: {
			Decode: func(r *binrw.Reader, s *CaptureLocationSet) error { return decodeLocationSet(r, s, true) },
			Encode: func(w *binrw.Writer, s *CaptureLocationSet) error { return encodeLocationSet(w, s, true) },
		},
	},
}

var buildingLinkHandler = subformat.Handler[BuildingLink]{
	Format: "BuildingLink",
	Versions: map[uint32]subformat.Codec[BuildingLink]{
		1: {Decode: decodeBuildingLinkV1, Encode: encodeBuildingLinkV1},
	},
}

// DecodeCaptureLocationSet decodes a payload holding exactly one set.
func DecodeCaptureLocationSet(data []byte) (*CaptureLocationSet, error) {
	s := &CaptureLocationSet{}
	version, err := captureLocationSetHandler.Decode(data, s)
	if err != nil {
		return nil, err
	}
	s.Version = uint16(version)
	return s, nil
}

// ReadCaptureLocationSet decodes a set at the reader's cursor.
func ReadCaptureLocationSet(r *binrw.Reader) (*CaptureLocationSet, error) {
	s := &CaptureLocationSet{}
	version, err := captureLocationSetHandler.Read(r, s)
	if err != nil {
		return nil, err
	}
	s.Version = uint16(version)
	return s, nil
}

// Encode encodes s with the layout of s.Version.
func (s *CaptureLocationSet) Encode() ([]byte, error) {
	return captureLocationSetHandler.Encode(uint32(s.Version), s)
}

// Write appends s to w with the layout of s.Version.
func (s *CaptureLocationSet) Write(w *binrw.Writer) error {
	return captureLocationSetHandler.Write(w, uint32(s.Version), s)
}

func decodeLocationSet(r *binrw.Reader, s *CaptureLocationSet, v8 bool) (err error) {
	minSize := locationV2Size
	if v8 {
		minSize = locationV8Size
	}
	s.Lists, err = subformat.ReadList(r, locationListSize, func(r *binrw.Reader) (CaptureLocationList, error) {
		locs, err := subformat.ReadList(r, minSize, func(r *binrw.Reader) (CaptureLocation, error) {
			return readLocation(r, v8)
		})
		return CaptureLocationList{Locations: locs}, err
	})
	return err
}

func encodeLocationSet(w *binrw.Writer, s *CaptureLocationSet, v8 bool) error {
	return subformat.WriteList(w, s.Lists, func(w *binrw.Writer, l CaptureLocationList) error {
		return subformat.WriteList(w, l.Locations, func(w *binrw.Writer, c CaptureLocation) error {
			return writeLocation(w, c, v8)
		})
	})
}

func readLocation(r *binrw.Reader, v8 bool) (CaptureLocation, error) {
	var c CaptureLocation
	var err error
	if c.Location, err = readPoint2d(r); err != nil {
		return c, err
	}
	if c.Radius, err = r.F32(); err != nil {
		return c, err
	}
	if c.MinPlayers, err = r.U32(); err != nil {
		return c, err
	}
	if c.MaxPlayers, err = r.U32(); err != nil {
		return c, err
	}
	if c.CapturePointType, err = r.SizedString(); err != nil {
		return c, err
	}
	if v8 {
		if c.RestoreType, err = r.SizedString(); err != nil {
			return c, err
		}
	}
	if c.Points, err = subformat.ReadList(r, point2dSize, readPoint2d); err != nil {
		return c, err
	}
	if c.DatabaseKey, err = r.SizedString(); err != nil {
		return c, err
	}
	if c.FlagFacing, err = readPoint2d(r); err != nil {
		return c, err
	}
	if v8 {
		for _, b := range []*bool{
			&c.DestroyBuildingOnCapture,
			&c.DisableBuildingAbilitiesWhenNoOriginalOwner,
			&c.AbilitiesAffectGlobally,
		} {
			if *b, err = r.Bool(); err != nil {
				return c, err
			}
		}
	}
	if c.BuildingLinks, err = subformat.ReadList(r, buildingLinkSize, readBuildingLink); err != nil {
		return c, err
	}
	if !v8 {
		return c, nil
	}
	if c.ToggleSlotLinks, err = subformat.ReadList(r, 4, (*binrw.Reader).U32); err != nil {
		return c, err
	}
	if c.AIHintLinks, err = subformat.ReadList(r, 1, (*binrw.Reader).U8); err != nil {
		return c, err
	}
	if c.ScriptID, err = r.SizedString(); err != nil {
		return c, err
	}
	c.TimeBased, err = r.Bool()
	return c, err
}

func writeLocation(w *binrw.Writer, c CaptureLocation, v8 bool) error {
	writeF32s(w, c.Location.X, c.Location.Y, c.Radius)
	w.WriteU32(c.MinPlayers)
	w.WriteU32(c.MaxPlayers)
	if err := w.WriteSizedString(c.CapturePointType); err != nil {
		return err
	}
	if v8 {
		if err := w.WriteSizedString(c.RestoreType); err != nil {
			return err
		}
	}
	if err := subformat.WriteList(w, c.Points, writePoint2d); err != nil {
		return err
	}
	if err := w.WriteSizedString(c.DatabaseKey); err != nil {
		return err
	}
	writeF32s(w, c.FlagFacing.X, c.FlagFacing.Y)
	if v8 {
		w.WriteBool(c.DestroyBuildingOnCapture)
		w.WriteBool(c.DisableBuildingAbilitiesWhenNoOriginalOwner)
		w.WriteBool(c.AbilitiesAffectGlobally)
	}
	if err := subformat.WriteList(w, c.BuildingLinks, writeBuildingLink); err != nil {
		return err
	}
	if !v8 {
		return nil
	}
	if err := subformat.WriteList(w, c.ToggleSlotLinks, func(w *binrw.Writer, v uint32) error {
		w.WriteU32(v)
		return nil
	}); err != nil {
		return err
	}
	if err := subformat.WriteList(w, c.AIHintLinks, func(w *binrw.Writer, v uint8) error {
		w.WriteU8(v)
		return nil
	}); err != nil {
		return err
	}
	if err := w.WriteSizedString(c.ScriptID); err != nil {
		return err
	}
	w.WriteBool(c.TimeBased)
	return nil
}

func readBuildingLink(r *binrw.Reader) (BuildingLink, error) {
	var l BuildingLink
	version, err := buildingLinkHandler.Read(r, &l)
	l.Version = uint16(version)
	return l, err
}

func writeBuildingLink(w *binrw.Writer, l BuildingLink) error {
	return buildingLinkHandler.Write(w, uint32(l.Version), &l)
}

func decodeBuildingLinkV1(r *binrw.Reader, l *BuildingLink) error {
	var err error
	if l.BuildingIndex, err = r.I32(); err != nil {
		return err
	}
	if l.PrefabIndex, err = r.I32(); err != nil {
		return err
	}
	l.PrefabBuildingKey, err = r.SizedString()
	return err
}

func encodeBuildingLinkV1(w *binrw.Writer, l *BuildingLink) error {
	w.WriteI32(l.BuildingIndex)
	w.WriteI32(l.PrefabIndex)
	return w.WriteSizedString(l.PrefabBuildingKey)
}

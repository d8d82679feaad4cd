package fastbin

import (
	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/subformat"
)

// Vegetation is a battle map's tree and grass placement document.
type Vegetation struct {
	Version uint16
	Trees   TreeList
	Grass   GrassList
}

// TreeList groups placed trees by the model they instantiate.
type TreeList struct {
	Version uint16
	Vectors []TreeItemVector
}

// TreeItemVector holds every placement of one tree model.
type TreeItemVector struct {
	Key   string
	Items []TreeItem
}

// TreeItem is one placed tree.
type TreeItem struct {
	X, Y, Z float32

	// Rotation is around the Y axis in steps of RotationStep degrees.
	Rotation uint8
	Scale    float32
	Flags    uint8
}

// RotationStep is the angle in degrees of one unit of TreeItem.Rotation.
const RotationStep = 360.0 / 256

// Degrees returns the item's Y rotation in degrees.
func (t TreeItem) Degrees() float32 {
	return float32(t.Rotation) * RotationStep
}

// GrassList is the grass placement record that follows the tree list. No
// layout of it is known, so every version is unsupported and documents
// holding one fail to decode.
type GrassList struct {
	Version uint16
}

const (
	treeItemSize   = 18
	treeVectorSize = 6
)

var vegetationHandler = subformat.Handler[Vegetation]{
	Format:    "BmdVegetation",
	Signature: Signature,
	Versions: map[uint32]subformat.Codec[Vegetation]{
		2: {Decode: decodeVegetationV2, Encode: encodeVegetationV2},
	},
}

var treeListHandler = subformat.Handler[TreeList]{
	Format: "TreeList",
	Versions: map[uint32]subformat.Codec[TreeList]{
		4: {Decode: decodeTreeListV4, Encode: encodeTreeListV4},
	},
}

var grassListHandler = subformat.Handler[GrassList]{
	Format:   "GrassList",
	Versions: map[uint32]subformat.Codec[GrassList]{},
}

// DecodeVegetation decodes a whole vegetation document.
func DecodeVegetation(data []byte) (*Vegetation, error) {
	v := &Vegetation{}
	version, err := vegetationHandler.Decode(data, v)
	if err != nil {
		return nil, err
	}
	v.Version = uint16(version)
	return v, nil
}

// Encode encodes v with the layout of v.Version.
func (v *Vegetation) Encode() ([]byte, error) {
	return vegetationHandler.Encode(uint32(v.Version), v)
}

// DecodeTreeList decodes a payload holding exactly one tree list.
func DecodeTreeList(data []byte) (*TreeList, error) {
	t := &TreeList{}
	version, err := treeListHandler.Decode(data, t)
	if err != nil {
		return nil, err
	}
	t.Version = uint16(version)
	return t, nil
}

// Encode encodes t with the layout of t.Version.
func (t *TreeList) Encode() ([]byte, error) {
	return treeListHandler.Encode(uint32(t.Version), t)
}

func decodeVegetationV2(r *binrw.Reader, v *Vegetation) error {
	version, err := treeListHandler.Read(r, &v.Trees)
	if err != nil {
		return err
	}
	v.Trees.Version = uint16(version)

	version, err = grassListHandler.Read(r, &v.Grass)
	if err != nil {
		return err
	}
	v.Grass.Version = uint16(version)
	return nil
}

func encodeVegetationV2(w *binrw.Writer, v *Vegetation) error {
	if err := treeListHandler.Write(w, uint32(v.Trees.Version), &v.Trees); err != nil {
		return err
	}
	return grassListHandler.Write(w, uint32(v.Grass.Version), &v.Grass)
}

func decodeTreeListV4(r *binrw.Reader, t *TreeList) (err error) {
	t.Vectors, err = subformat.ReadList(r, treeVectorSize, readTreeItemVector)
	return err
}

func encodeTreeListV4(w *binrw.Writer, t *TreeList) error {
	return subformat.WriteList(w, t.Vectors, writeTreeItemVector)
}

func readTreeItemVector(r *binrw.Reader) (TreeItemVector, error) {
	var v TreeItemVector
	var err error
	if v.Key, err = r.SizedString(); err != nil {
		return v, err
	}
	v.Items, err = subformat.ReadList(r, treeItemSize, readTreeItem)
	return v, err
}

func writeTreeItemVector(w *binrw.Writer, v TreeItemVector) error {
	if err := w.WriteSizedString(v.Key); err != nil {
		return err
	}
	return subformat.WriteList(w, v.Items, writeTreeItem)
}

func readTreeItem(r *binrw.Reader) (TreeItem, error) {
	var t TreeItem
	var err error
	if err = readF32s(r, &t.X, &t.Y, &t.Z); err != nil {
		return t, err
	}
	if t.Rotation, err = r.U8(); err != nil {
		return t, err
	}
	if t.Scale, err = r.F32(); err != nil {
		return t, err
	}
	t.Flags, err = r.U8()
	return t, err
}

func writeTreeItem(w *binrw.Writer, t TreeItem) error {
	writeF32s(w, t.X, t.Y, t.Z)
	w.WriteU8(t.Rotation)
	w.WriteF32(t.Scale)
	w.WriteU8(t.Flags)
	return nil
}

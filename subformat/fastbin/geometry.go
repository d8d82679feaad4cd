package fastbin

import "github.com/Frodo45127/rpfm-sub014/binrw"

// Point2d is a position on the terrain plane.
type Point2d struct{ X, Y float32 }

// Point3d is a position in world space.
type Point3d struct{ X, Y, Z float32 }

// Colour is a linear RGB colour.
type Colour struct{ R, G, B float32 }

const point2dSize = 8

// readF32s fills dst in order.
func readF32s(r *binrw.Reader, dst ...*float32) error {
	for _, d := range dst {
		v, err := r.F32()
		if err != nil {
			return err
		}
		*d = v
	}
	return nil
}

func writeF32s(w *binrw.Writer, src ...float32) {
	for _, v := range src {
		w.WriteF32(v)
	}
}

func readPoint2d(r *binrw.Reader) (p Point2d, err error) {
	err = readF32s(r, &p.X, &p.Y)
	return p, err
}

func writePoint2d(w *binrw.Writer, p Point2d) error {
	writeF32s(w, p.X, p.Y)
	return nil
}

func readPoint3d(r *binrw.Reader) (p Point3d, err error) {
	err = readF32s(r, &p.X, &p.Y, &p.Z)
	return p, err
}

func writePoint3d(w *binrw.Writer, p Point3d) {
	writeF32s(w, p.X, p.Y, p.Z)
}

func readColour(r *binrw.Reader) (c Colour, err error) {
	err = readF32s(r, &c.R, &c.G, &c.B)
	return c, err
}

func writeColour(w *binrw.Writer, c Colour) {
	writeF32s(w, c.R, c.G, c.B)
}

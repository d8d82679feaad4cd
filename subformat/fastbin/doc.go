// Package fastbin decodes the FASTBIN0 family of battle map data.
//
// A document starts with the Signature and a u16 version. Each list it
// holds is a record with a u16 version of its own, so one document version
// can combine lists of different versions:
//
//	veg, err := fastbin.DecodeVegetation(data)
//	if err != nil {
//	    return err
//	}
//	for _, v := range veg.Trees.Vectors {
//	    fmt.Println(v.Key, len(v.Items))
//	}
//
// Capture location sets and point lights are records embedded in other
// documents; DecodeCaptureLocationSet and DecodePointLight read one on its
// own, and the Read functions read one at a cursor.
package fastbin

// Signature starts every FASTBIN0 document.
const Signature = "FASTBIN0"

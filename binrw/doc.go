// Package binrw reads and writes the little-endian primitives shared by the
// pack container and every embedded file format.
//
// A Reader walks a byte slice with an explicit cursor and a Writer appends
// to a buffer. Writers mirror readers exactly, so decoding and re-encoding a
// value always yields its canonical byte form.
package binrw

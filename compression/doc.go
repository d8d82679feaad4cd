// Package compression implements the per-file compression schemes of pack
// containers.
//
// Every scheme frames its output as a little-endian u32 holding the
// uncompressed length followed by the codec stream, so Decompress can pick
// the scheme from the bytes alone. Zstd and Lz4 wrap standard frames. Lzma1
// reproduces the headerless LZMA-alone layout the games load, which standard
// tooling does not produce directly: the raw stream comes from an
// LZMAEncoder and is re-framed with five fixed property bytes.
package compression

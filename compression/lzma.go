package compression

import (
	"bytes"
	"fmt"

	"github.com/ulikunitz/xz/lzma"
)

// lzmaProperties are the five property bytes the game expects after the
// length prefix: lc=3 lp=0 pb=2 and a 4 MiB dictionary.
var lzmaProperties = [5]byte{0x5D, 0x00, 0x00, 0x40, 0x00}

const (
	lzmaDictCap = 1 << 22

	// lzmaAloneHeaderLen is properties (1), dictionary size (4) and
	// uncompressed size (8).
	lzmaAloneHeaderLen = 13
)

// LZMAEncoder produces a raw LZMA1 stream (no header, no end marker) for
// data, using lc=3 lp=0 pb=2 and a dictionary no larger than 4 MiB.
type LZMAEncoder interface {
	EncodeLZMA(data []byte) ([]byte, error)
}

// compressLZMA frames the raw stream as
// u32 length | 5 property bytes | stream.
func compressLZMA(data []byte, enc LZMAEncoder) ([]byte, error) {
	if enc == nil {
		return nil, fmt.Errorf("%w: no lzma encoder configured", ErrCannotCompress)
	}
	raw, err := enc.EncodeLZMA(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotCompress, err)
	}
	out := lengthPrefix(len(data), len(lzmaProperties)+len(raw))
	out = append(out, lzmaProperties[:]...)
	return append(out, raw...), nil
}

// decompressLZMA decodes the game's framing through a rebuilt LZMA-alone
// stream and fails unless exactly size bytes come out.
func decompressLZMA(data []byte, size uint32) ([]byte, error) {
	zr, err := lzma.NewReader(bytes.NewReader(lzmaAlone(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: lzma: %v", ErrCannotDecompress, err)
	}
	return readExactly(zr, size)
}

// lzmaAlone rebuilds a standard LZMA-alone stream from the game's framing:
// properties and dictionary from bytes 4..8 with a zero high byte, then the
// declared u32 length widened to u64 as the uncompressed size. The size is
// never the unknown-size marker, so the decoder stops at the declared
// length without needing an end marker.
func lzmaAlone(data []byte) []byte {
	alone := make([]byte, 0, lzmaAloneHeaderLen+len(data)-minCompressedLen)
	alone = append(alone, data[4:8]...)
	alone = append(alone, 0)
	alone = append(alone, data[0:4]...)
	alone = append(alone, 0, 0, 0, 0)
	return append(alone, data[minCompressedLen:]...)
}

// InProcess encodes LZMA streams with github.com/ulikunitz/xz/lzma, with no
// external tool involved.
type InProcess struct{}

// EncodeLZMA implements LZMAEncoder.
func (InProcess) EncodeLZMA(data []byte) ([]byte, error) {
	cfg := lzma.WriterConfig{
		Properties:   &lzma.Properties{LC: 3, LP: 0, PB: 2},
		DictCap:      lzmaDictCap,
		SizeInHeader: true,
		Size:         int64(len(data)),
		EOSMarker:    false,
	}
	var buf bytes.Buffer
	zw, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("lzma write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lzma close: %w", err)
	}
	if buf.Len() < lzmaAloneHeaderLen {
		return nil, fmt.Errorf("lzma: short output of %d bytes", buf.Len())
	}
	return buf.Bytes()[lzmaAloneHeaderLen:], nil
}

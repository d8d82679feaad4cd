package compression

import (
	"fmt"
	"strings"
)

// Scheme identifies a compression algorithm.
type Scheme uint8

const (
	// None stores data as is.
	None Scheme = iota

	// Lzma1 is the headerless LZMA-alone framing older games expect.
	Lzma1

	// Lz4 is an lz4 frame.
	Lz4

	// Zstd is a zstd frame.
	Zstd
)

// Frame magics, as they appear on disk right after the length prefix.
var (
	zstdMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = [4]byte{0x04, 0x22, 0x4D, 0x18}
)

// String returns the lower-case name of the scheme.
func (s Scheme) String() string {
	switch s {
	case None:
		return "none"
	case Lzma1:
		return "lzma1"
	case Lz4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// ParseScheme parses the name returned by Scheme.String.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "lzma1", "lzma":
		return Lzma1, nil
	case "lz4":
		return Lz4, nil
	case "zstd":
		return Zstd, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(text []byte) error {
	v, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Detect reports the scheme of a compressed buffer. Anything that is not a
// zstd or lz4 frame is taken as LZMA, which carries no magic. Buffers too
// short to hold a length prefix and a magic report None.
func Detect(data []byte) Scheme {
	if len(data) < 8 {
		return None
	}
	switch [4]byte(data[4:8]) {
	case zstdMagic:
		return Zstd
	case lz4Magic:
		return Lz4
	default:
		return Lzma1
	}
}

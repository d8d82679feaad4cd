package compression

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	// ErrCannotCompress is returned when a buffer cannot be compressed.
	ErrCannotCompress = errors.New("compression: cannot compress")

	// ErrCannotDecompress is returned when a buffer is malformed or its
	// codec stream fails to decode.
	ErrCannotDecompress = errors.New("compression: cannot decompress")

	// ErrUnknownScheme is returned for scheme names or values this package
	// does not implement.
	ErrUnknownScheme = errors.New("compression: unknown scheme")
)

// minCompressedLen is the 4-byte length prefix plus the 5 LZMA property
// bytes, the shortest framing any scheme produces.
const minCompressedLen = 9

// Option configures Compress and Decompress.
type Option func(*config)

type config struct {
	lzma      LZMAEncoder
	zstdLevel zstd.EncoderLevel
	pool      *DecompressPool
}

// WithLZMAEncoder sets the encoder used for Lzma1. The default runs the
// external 7z archiver found on PATH.
func WithLZMAEncoder(enc LZMAEncoder) Option {
	return func(c *config) {
		c.lzma = enc
	}
}

// WithZstdLevel sets the zstd encoder level (default: SpeedDefault).
func WithZstdLevel(level zstd.EncoderLevel) Option {
	return func(c *config) {
		c.zstdLevel = level
	}
}

// WithDecompressPool sets the pool zstd decoders are taken from.
func WithDecompressPool(p *DecompressPool) Option {
	return func(c *config) {
		c.pool = p
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		lzma:      SevenZip{},
		zstdLevel: zstd.SpeedDefault,
		pool:      defaultPool,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultPool = NewDecompressPool(0)

// Compress frames data with scheme. Every framing starts with the
// uncompressed length as a little-endian u32.
//
// Empty input returns empty output for every scheme, and None returns
// data unchanged.
func Compress(data []byte, scheme Scheme, opts ...Option) ([]byte, error) {
	if len(data) == 0 || scheme == None {
		return data, nil
	}
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes exceed the u32 length prefix", ErrCannotCompress, len(data))
	}
	cfg := newConfig(opts)

	switch scheme {
	case Lzma1:
		return compressLZMA(data, cfg.lzma)
	case Lz4:
		return compressLz4(data)
	case Zstd:
		return compressZstd(data, cfg.zstdLevel)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}
}

// Decompress reverses Compress, detecting the scheme from the buffer.
func Decompress(data []byte, opts ...Option) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if len(data) < minCompressedLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than any framing", ErrCannotDecompress, len(data))
	}
	size := binary.LittleEndian.Uint32(data)
	cfg := newConfig(opts)

	switch Detect(data) {
	case Zstd:
		return decompressZstd(data[4:], size, cfg.pool)
	case Lz4:
		return readExactly(lz4.NewReader(bytes.NewReader(data[4:])), size)
	default:
		return decompressLZMA(data, size)
	}
}

func lengthPrefix(size int, capacity int) []byte {
	out := make([]byte, 4, 4+capacity)
	binary.LittleEndian.PutUint32(out, uint32(size)) //nolint:gosec // checked by Compress
	return out
}

func compressLz4(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(lengthPrefix(len(data), len(data)/2))
	zw := lz4.NewWriter(buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrCannotCompress, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrCannotCompress, err)
	}
	return buf.Bytes(), nil
}

var (
	zstdEncodersMu sync.Mutex
	zstdEncoders   = map[zstd.EncoderLevel]*zstd.Encoder{}
)

// zstdEncoder returns a shared encoder for level. zstd.Encoder.EncodeAll is
// safe for concurrent use.
func zstdEncoder(level zstd.EncoderLevel) (*zstd.Encoder, error) {
	zstdEncodersMu.Lock()
	defer zstdEncodersMu.Unlock()
	if enc, ok := zstdEncoders[level]; ok {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, err
	}
	zstdEncoders[level] = enc
	return enc, nil
}

func compressZstd(data []byte, level zstd.EncoderLevel) ([]byte, error) {
	enc, err := zstdEncoder(level)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCannotCompress, err)
	}
	return enc.EncodeAll(data, lengthPrefix(len(data), len(data)/2)), nil
}

func decompressZstd(payload []byte, size uint32, pool *DecompressPool) ([]byte, error) {
	dec, release, err := pool.Get(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCannotDecompress, err)
	}
	defer release()
	return readExactly(dec, size)
}

// readExactly reads size bytes from r and fails if the stream ends early or
// holds more. It grows its buffer as data arrives instead of trusting the
// declared size up front.
func readExactly(r io.Reader, size uint32) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotDecompress, err)
	}
	if n != int64(size) {
		return nil, fmt.Errorf("%w: decoded %d bytes, expected %d", ErrCannotDecompress, n, size)
	}
	return buf.Bytes(), nil
}

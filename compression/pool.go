package compression

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DecompressPool manages reusable zstd decoders to reduce allocation overhead
// when many pack files are decompressed in a row.
type DecompressPool struct {
	pool             *sync.Pool
	maxDecoderMemory uint64
	lowmem           bool
}

// PoolOption configures a DecompressPool.
type PoolOption func(*DecompressPool)

// WithDecoderLowmem enables or disables low-memory mode for decoders.
func WithDecoderLowmem(enabled bool) PoolOption {
	return func(p *DecompressPool) {
		p.lowmem = enabled
	}
}

// NewDecompressPool creates a pool of zstd decoders.
// If maxMemory is 0, no memory limit is applied to decoders.
func NewDecompressPool(maxMemory uint64, opts ...PoolOption) *DecompressPool {
	p := &DecompressPool{maxDecoderMemory: maxMemory}
	for _, opt := range opts {
		opt(p)
	}
	p.pool = &sync.Pool{
		New: func() any {
			dec, err := p.newDecoder(nil)
			if err != nil {
				return nil
			}
			return dec
		},
	}
	return p
}

// Get returns a decoder configured to read from r.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *DecompressPool) Get(r io.Reader) (*zstd.Decoder, func(), error) {
	if p == nil || p.pool == nil {
		dec, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	}

	dec, ok := p.pool.Get().(*zstd.Decoder)
	if !ok {
		// Pool's New function failed, try directly
		newDec, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return newDec, newDec.Close, nil
	}

	if err := dec.Reset(r); err != nil {
		dec.Close()
		newDec, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return newDec, newDec.Close, nil
	}

	return dec, func() {
		_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
		p.pool.Put(dec)
	}, nil
}

// newDecoder creates a zstd decoder with the configured limits. Decoding is
// single-threaded since pack saves already parallelize per file.
func (p *DecompressPool) newDecoder(r io.Reader) (*zstd.Decoder, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if p != nil {
		opts = append(opts, zstd.WithDecoderLowmem(p.lowmem))
		if p.maxDecoderMemory != 0 {
			opts = append(opts, zstd.WithDecoderMaxMemory(p.maxDecoderMemory))
		}
	}
	return zstd.NewReader(r, opts...)
}

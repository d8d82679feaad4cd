package pack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/compression"
	"github.com/Frodo45127/rpfm-sub014/pack/internal/file"
	"github.com/Frodo45127/rpfm-sub014/pack/internal/sizing"
)

// indexCounts are the four counters after the header word.
type indexCounts struct {
	deps     uint32
	depsLen  uint32
	files    uint32
	filesLen uint32
}

// decode reads the header and both indexes from src. Payloads are left in
// src as lazy references.
func decode(src *file.Source, cfg config) (*Pack, error) {
	size := uint64(src.Size()) //nolint:gosec // sizes are never negative
	if size < baseHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderNotComplete, size)
	}

	p := New(withConfig(cfg))
	p.source = src

	var start uint64
	head, err := src.ReadAt(0, baseHeaderLen)
	if err != nil {
		return nil, err
	}
	if string(head[:len(mfhPreamble)]) == mfhPreamble {
		start = mfhPreambleLen
		if size < start+baseHeaderLen {
			return nil, fmt.Errorf("%w: %d bytes", ErrHeaderNotComplete, size)
		}
		p.header.Preamble = head[:mfhPreambleLen]
		if head, err = src.ReadAt(start, baseHeaderLen); err != nil {
			return nil, err
		}
	}

	h := &p.header
	counts, err := readBaseHeader(binrw.NewReader(head), h)
	if err != nil {
		return nil, err
	}
	lay := layoutFor(h.Version)

	indexStart := start + baseHeaderLen
	blockLen := uint64(lay.extraLen(h)) + uint64(counts.depsLen) + uint64(counts.filesLen)
	if indexStart+blockLen > size {
		return nil, fmt.Errorf("%w: indexes end at %d, stream is %d bytes", ErrIndexesNotComplete, indexStart+blockLen, size)
	}
	block, err := src.ReadAt(indexStart, blockLen)
	if err != nil {
		return nil, err
	}

	r := binrw.NewReader(block)
	if err := lay.readExtra(r, h); err != nil {
		return nil, indexError(err)
	}
	for range counts.deps {
		name, err := r.StringZ()
		if err != nil {
			return nil, indexError(err)
		}
		p.deps = append(p.deps, Dependency{Name: name, Hard: true})
	}

	dataPos := indexStart + blockLen
	if h.padded() {
		dataPos = sizing.Align8(dataPos)
	}
	if dataPos > size {
		return nil, fmt.Errorf("%w: data starts at %d, stream is %d bytes", ErrIndexesNotComplete, dataPos, size)
	}

	encrypted := h.Flags.Has(FlagEncryptedData)
	var firstCompressed *entry
	for remaining := int64(counts.files) - 1; remaining >= 0; remaining-- {
		e, err := readIndexEntry(r, h, lay, p.cfg, uint32(remaining), dataPos, encrypted)
		if err != nil {
			return nil, indexError(err)
		}
		if e.stored.compressed && e.lazy.Length >= detectLen && firstCompressed == nil {
			firstCompressed = e
		}
		p.files[e.path] = e

		dataPos += e.lazy.Length
		if h.padded() {
			dataPos = sizing.Align8(dataPos)
		}
	}

	expected := dataPos
	if h.arena() {
		expected += arenaAppendixLen
	}
	if expected != size {
		return nil, &SizeMismatchError{Expected: expected, Actual: size}
	}
	if h.arena() {
		appendix, err := src.ReadAt(dataPos, arenaAppendixLen)
		if err != nil {
			return nil, err
		}
		copy(h.Appendix[:], appendix)
	}

	if !p.cfg.compressionSet && firstCompressed != nil {
		scheme, err := p.detectScheme(firstCompressed)
		if err != nil {
			return nil, err
		}
		p.compression = scheme
	}

	if err := p.takeReserved(); err != nil {
		return nil, err
	}

	p.log().Debug("decoded pack",
		"version", h.Version.String(),
		"type", h.Type.String(),
		"flags", h.Flags.String(),
		"files", len(p.files),
		"dependencies", len(p.deps),
		"source", src.ID().String())

	if p.cfg.eager {
		if err := p.Load(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func readBaseHeader(r *binrw.Reader, h *Header) (indexCounts, error) {
	var c indexCounts
	tag, err := r.Slice(4)
	if err != nil {
		return c, err
	}
	if h.Version, err = ParseVersion(string(tag)); err != nil {
		return c, err
	}
	word, err := r.U32()
	if err != nil {
		return c, err
	}
	h.Type, h.Flags = splitWord(word)
	for _, dst := range []*uint32{&c.deps, &c.depsLen, &c.files, &c.filesLen} {
		if *dst, err = r.U32(); err != nil {
			return c, err
		}
	}
	return c, nil
}

func readIndexEntry(r *binrw.Reader, h *Header, lay layout, cfg config, remaining uint32, dataPos uint64, encrypted bool) (*entry, error) {
	size, err := readIndexU32(r, h, cfg.keys, remaining)
	if err != nil {
		return nil, err
	}
	ts, err := lay.readEntryTimestamp(r, h, cfg.keys, remaining)
	if err != nil {
		return nil, err
	}
	var compressed bool
	if lay.compressedFlag(h) {
		if compressed, err = r.Bool(); err != nil {
			return nil, err
		}
	}

	var path string
	if h.Flags.Has(FlagEncryptedIndex) {
		rest, _ := r.Slice(r.Remaining())
		var n int
		path, n, err = cfg.keys.DecryptString(rest, uint8(size)) //nolint:gosec // the cipher keys on the low byte
		if err != nil {
			return nil, err
		}
		if err := r.Seek(r.Offset() - len(rest) + n); err != nil {
			return nil, err
		}
	} else if path, err = r.StringZ(); err != nil {
		return nil, err
	}
	path = NormalizePath(strings.ReplaceAll(path, `\`, "/"))

	return newLazyEntry(path, file.Lazy{Offset: dataPos, Length: uint64(size)}, storedForm{
		compressed: compressed,
		encrypted:  encrypted,
	}, ts), nil
}

// indexError marks a read that ran off the declared indexes.
func indexError(err error) error {
	if errors.Is(err, ErrSubHeaderMissing) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIndexesNotComplete, err)
}

// detectLen is how much of a compressed payload identifies its scheme.
const detectLen = 8

// detectScheme reads the framing of a compressed entry to learn which
// scheme the pack was saved with.
func (p *Pack) detectScheme(e *entry) (compression.Scheme, error) {
	raw, err := p.src().ReadAt(e.lazy.Offset, detectLen)
	if err != nil {
		return compression.None, err
	}
	if e.stored.encrypted {
		raw = p.cfg.keys.DecryptData(raw)
	}
	return compression.Detect(raw), nil
}

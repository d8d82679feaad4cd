package pack

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/compression"
	"github.com/Frodo45127/rpfm-sub014/pack/internal/batch"
	"github.com/Frodo45127/rpfm-sub014/pack/internal/sizing"
)

// encodedFile is one entry ready to be written.
type encodedFile struct {
	path       string
	timestamp  int64
	payload    []byte
	compressed bool
}

// Encode serializes the pack. Files are sorted case-insensitively and their
// payloads compressed and encrypted in parallel; header counts and lengths
// are recomputed from the current contents. Unless WithDeterministic is set
// the container timestamp is refreshed.
func (p *Pack) Encode() ([]byte, error) {
	return p.encode(context.Background())
}

func (p *Pack) encode(ctx context.Context) ([]byte, error) {
	entries := p.sortedEntries(FolderPath(""))

	p.mu.RLock()
	h := p.header
	scheme := p.compression
	deps := p.deps
	reserved, err := p.reservedEntries()
	p.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(reserved) > 0 {
		entries = append(entries, reserved...)
		sortEntries(entries)
	}

	lay := layoutFor(h.Version)
	if lay == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSignature, h.Version)
	}
	if !p.cfg.deterministic {
		h.Timestamp = time.Now().Unix()
	}
	if p.cfg.nullifyDates {
		h.Timestamp = 0
	}

	files, err := batch.Map(ctx, entries, p.cfg.workers, func(_ context.Context, _ int, e *entry) (encodedFile, error) {
		return p.encodeEntry(e, &h, lay, scheme)
	})
	if err != nil {
		return nil, err
	}

	depIndex := binrw.NewWriter(64)
	var depCount int
	for _, d := range deps {
		if d.Hard {
			depIndex.WriteStringZ(d.Name)
			depCount++
		}
	}

	fileIndex := binrw.NewWriter(len(files) * 48)
	for i, f := range files {
		remaining := uint32(len(files) - 1 - i) //nolint:gosec // file count is bounded below
		if err := writeIndexEntry(fileIndex, &h, lay, p.cfg, remaining, f); err != nil {
			return nil, err
		}
	}

	fileCount, err := sizing.ToUint32(len(files), tooBig("file count", len(files)))
	if err != nil {
		return nil, err
	}
	depsLen, err := sizing.ToUint32(depIndex.Len(), tooBig("dependency index", depIndex.Len()))
	if err != nil {
		return nil, err
	}
	filesLen, err := sizing.ToUint32(fileIndex.Len(), tooBig("file index", fileIndex.Len()))
	if err != nil {
		return nil, err
	}

	out := binrw.NewWriter(len(h.Preamble) + baseHeaderLen + lay.extraLen(&h) + depIndex.Len() + fileIndex.Len())
	_, _ = out.Write(h.Preamble)
	out.WriteStringRaw(h.Version.String())
	out.WriteU32(joinWord(h.Type, h.Flags))
	out.WriteU32(uint32(depCount)) //nolint:gosec // bounded by the dependency index length
	out.WriteU32(depsLen)
	out.WriteU32(fileCount)
	out.WriteU32(filesLen)
	lay.writeExtra(out, &h)
	_, _ = out.Write(depIndex.Bytes())
	_, _ = out.Write(fileIndex.Bytes())

	for _, f := range files {
		if h.padded() {
			pad(out)
		}
		_, _ = out.Write(f.payload)
	}
	if h.padded() {
		pad(out)
	}
	if h.arena() {
		_, _ = out.Write(h.Appendix[:])
	}

	p.mu.Lock()
	p.header.Timestamp = h.Timestamp
	p.mu.Unlock()

	p.log().Debug("encoded pack",
		"version", h.Version.String(),
		"files", len(files),
		"size", out.Len(),
		"compression", scheme.String())
	return out.Bytes(), nil
}

func pad(w *binrw.Writer) {
	if n := sizing.Align8(uint64(w.Len())) - uint64(w.Len()); n > 0 {
		_, _ = w.Write(make([]byte, n))
	}
}

func tooBig(what string, n int) error {
	return &DataTooBigError{Format: "Pack", Max: math.MaxUint32, Actual: uint64(n), Path: what} //nolint:gosec // n is a length
}

// encodeEntry produces the stored form of e. Lazy payloads already stored
// the way the pack will write them are copied without being decoded.
func (p *Pack) encodeEntry(e *entry, h *Header, lay layout, scheme compression.Scheme) (encodedFile, error) {
	compress := scheme != compression.None && lay.compressedFlag(h) && e.kind.Compressible()
	encrypt := h.Flags.Has(FlagEncryptedData)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Reserved files read from the source keep their stored form.
	if e.lazy != nil && isReserved(e.path) {
		compress = e.stored.compressed
	}

	f := encodedFile{path: e.path, timestamp: e.timestamp, compressed: compress}
	if p.cfg.nullifyDates {
		f.timestamp = 0
	}

	payload, reused, err := p.reuseStored(e, compress, encrypt, scheme)
	if err != nil {
		return f, fmt.Errorf("encode %s: %w", e.path, err)
	}
	if !reused {
		data, err := p.loadLocked(e)
		if err != nil {
			return f, fmt.Errorf("encode %s: %w", e.path, err)
		}
		payload = data
		if compress {
			if payload, err = compression.Compress(data, scheme, p.cfg.compressionOpts()...); err != nil {
				return f, fmt.Errorf("encode %s: %w", e.path, err)
			}
		}
		if encrypt {
			payload = p.cfg.keys.EncryptData(payload)
		}
	}

	if uint64(len(payload)) > math.MaxUint32 {
		return f, &DataTooBigError{Format: "Pack", Max: math.MaxUint32, Actual: uint64(len(payload)), Path: e.path}
	}
	f.payload = payload
	return f, nil
}

// reuseStored returns the stored bytes of a lazy entry when they already
// have the wanted form. Must be called with e.mu held. When the bytes are
// read but cannot be reused, e is promoted so they are not read twice.
func (p *Pack) reuseStored(e *entry, compress, encrypt bool, scheme compression.Scheme) ([]byte, bool, error) {
	if e.lazy == nil || e.stored.compressed != compress || e.stored.encrypted != encrypt {
		return nil, false, nil
	}
	raw, err := p.src().Materialize(*e.lazy)
	if err != nil {
		return nil, false, err
	}
	if !compress {
		return raw, true, nil
	}
	plain := raw
	if encrypt {
		plain = p.cfg.keys.DecryptData(raw)
	}
	if compression.Detect(plain) == scheme {
		return raw, true, nil
	}
	data, err := p.decodeStored(raw, e.stored)
	if err != nil {
		return nil, false, err
	}
	e.promote(data)
	return nil, false, nil
}

func writeIndexEntry(w *binrw.Writer, h *Header, lay layout, cfg config, remaining uint32, f encodedFile) error {
	size := uint32(len(f.payload)) //nolint:gosec // checked by encodeEntry
	writeIndexU32(w, h, cfg.keys, remaining, size)
	lay.writeEntryTimestamp(w, h, cfg.keys, remaining, f.timestamp)
	if lay.compressedFlag(h) {
		w.WriteBool(f.compressed)
	}
	path := strings.ReplaceAll(f.path, "/", `\`)
	if !h.Flags.Has(FlagEncryptedIndex) {
		w.WriteStringZ(path)
		return nil
	}
	enc, err := cfg.keys.EncryptString(path, uint8(size))
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	_, _ = w.Write(enc)
	return nil
}

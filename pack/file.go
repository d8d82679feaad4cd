package pack

import (
	"sync"

	"github.com/Frodo45127/rpfm-sub014/compression"
	"github.com/Frodo45127/rpfm-sub014/pack/internal/file"
)

// storedForm records how a lazy payload is stored in the backing source.
type storedForm struct {
	compressed bool
	encrypted  bool
}

// entry is one file of a pack. Its payload is either in memory (data) or
// still in the pack's source (lazy); lazy entries are promoted the first
// time their content is needed.
type entry struct {
	path string
	kind Kind

	mu        sync.Mutex
	timestamp int64
	data      []byte
	lazy      *file.Lazy
	stored    storedForm
}

func newEntry(path string, data []byte, timestamp int64) *entry {
	return &entry{
		path:      path,
		kind:      GuessKind(path),
		timestamp: timestamp,
		data:      data,
	}
}

func newLazyEntry(path string, ref file.Lazy, stored storedForm, timestamp int64) *entry {
	return &entry{
		path:      path,
		kind:      GuessKind(path),
		timestamp: timestamp,
		lazy:      &ref,
		stored:    stored,
	}
}

func (e *entry) info() FileInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	fi := FileInfo{
		Path:      e.path,
		Kind:      e.kind,
		Timestamp: e.timestamp,
		Loaded:    e.lazy == nil,
	}
	if e.lazy != nil {
		fi.Size = e.lazy.Length
	} else {
		fi.Size = uint64(len(e.data))
	}
	return fi
}

// promote replaces the lazy reference with decoded content. Must be called
// with e.mu held.
func (e *entry) promote(data []byte) {
	e.data = data
	e.lazy = nil
	e.stored = storedForm{}
}

func (p *Pack) src() *file.Source {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source
}

// decodeStored turns stored bytes into file content.
func (p *Pack) decodeStored(raw []byte, s storedForm) ([]byte, error) {
	if s.encrypted {
		raw = p.cfg.keys.DecryptData(raw)
	}
	if s.compressed {
		return compression.Decompress(raw)
	}
	return raw, nil
}

// peekLocked returns the content of e without promoting it, so its stored
// bytes stay reusable. Must be called with e.mu held.
func (p *Pack) peekLocked(e *entry) ([]byte, error) {
	if e.lazy == nil {
		return e.data, nil
	}
	raw, err := p.src().Materialize(*e.lazy)
	if err != nil {
		return nil, err
	}
	return p.decodeStored(raw, e.stored)
}

// loadLocked returns the content of e, promoting it if it is still lazy.
// Must be called with e.mu held.
func (p *Pack) loadLocked(e *entry) ([]byte, error) {
	if e.lazy == nil {
		return e.data, nil
	}
	raw, err := p.src().Materialize(*e.lazy)
	if err != nil {
		return nil, err
	}
	data, err := p.decodeStored(raw, e.stored)
	if err != nil {
		return nil, err
	}
	e.promote(data)
	p.log().Debug("materialized file", "path", e.path, "size", len(data))
	return data, nil
}

package pack

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Frodo45127/rpfm-sub014/compression"
	"github.com/Frodo45127/rpfm-sub014/games"
	"github.com/Frodo45127/rpfm-sub014/pack/internal/batch"
	"github.com/Frodo45127/rpfm-sub014/pack/internal/file"
)

// Dependency names another pack this one loads after. Soft dependencies are
// not written to the container's dependency index; they travel in the
// reserved settings file instead.
type Dependency struct {
	Name string
	Hard bool
}

// Pack is one archive in memory.
//
// The path map and the backing source are guarded by separate locks: files
// may be read concurrently with inserts and removals, and a read never holds
// the map lock while doing I/O. Pack methods are safe for concurrent use.
type Pack struct {
	cfg config

	mu          sync.RWMutex
	header      Header
	deps        []Dependency
	files       map[string]*entry
	compression compression.Scheme
	notes       Notes
	settings    Settings
	diskPath    string

	// reserved holds the reserved files as decoded. They are written back
	// as stored until their document is edited.
	reserved      map[string]*entry
	notesDirty    bool
	settingsDirty bool

	source *file.Source
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Pack) log() *slog.Logger {
	if p.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.cfg.logger
}

// New creates an empty mod pack. The version is PFH5 unless WithGame names
// a game that writes another one.
func New(opts ...Option) *Pack {
	cfg := newConfig(opts)
	p := &Pack{
		cfg:      cfg,
		files:    make(map[string]*entry),
		notes:    newNotes(),
		settings: newSettings(),
		header: Header{
			Version:          PFH5,
			Type:             TypeMod,
			SubheaderVersion: defaultSubheaderVersion,
		},
	}
	if cfg.game != nil {
		if tag, ok := cfg.game.PackVersion(games.TypeMod); ok {
			if v, err := ParseVersion(tag); err == nil {
				p.header.Version = v
			}
		}
	}
	if cfg.compressionSet {
		p.compression = cfg.compression
	}
	return p
}

// Open decodes the pack at path. Payloads stay on disk until first use
// unless WithEagerLoad is set; the file must not be modified while the pack
// is open. Close releases it.
func Open(path string, opts ...Option) (*Pack, error) {
	src, err := file.OpenSource(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	p, err := decode(src, newConfig(opts))
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	p.diskPath = path
	return p, nil
}

// Decode decodes a pack from memory. data must not be modified afterwards.
func Decode(data []byte, opts ...Option) (*Pack, error) {
	return decode(file.NewBytesSource(data), newConfig(opts))
}

// Close releases the backing file. Files that were never read become
// unreadable.
func (p *Pack) Close() error {
	src := p.src()
	if src == nil {
		return nil
	}
	return src.Close()
}

// DiskPath returns the path the pack was opened from or last saved to.
func (p *Pack) DiskPath() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.diskPath
}

// Header returns a copy of the container header.
func (p *Pack) Header() Header {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h := p.header
	h.Preamble = bytes.Clone(h.Preamble)
	return h
}

// SetHeader replaces the container header. Version changes take effect on
// the next save.
func (p *Pack) SetHeader(h Header) error {
	if layoutFor(h.Version) == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedSignature, h.Version)
	}
	h.Preamble = bytes.Clone(h.Preamble)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.header = h
	return nil
}

// Compression returns the scheme compressible files are saved with.
func (p *Pack) Compression() compression.Scheme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.compression
}

// SetCompression sets the scheme compressible files are saved with. The
// pack's version must store a per-file compression flag and, when WithGame
// was given, the game must load the scheme.
func (p *Pack) SetCompression(s compression.Scheme) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s != compression.None {
		if !layoutFor(p.header.Version).compressedFlag(&p.header) {
			return fmt.Errorf("pack: %s packs cannot hold compressed files", p.header.Version)
		}
		if p.cfg.game != nil && !p.cfg.game.SupportsCompression(s) {
			return fmt.Errorf("pack: %s does not load %s files", p.cfg.game.DisplayName, s)
		}
	}
	p.compression = s
	return nil
}

// Dependencies returns the packs this one depends on, in load order.
func (p *Pack) Dependencies() []Dependency {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.deps)
}

// SetDependencies replaces the dependency list.
func (p *Pack) SetDependencies(deps []Dependency) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deps = slices.Clone(deps)
}

// FileInfo describes one file of a pack.
type FileInfo struct {
	Path string

	// Size is the payload length: the stored length for files that have
	// not been read, the content length otherwise.
	Size uint64

	Kind Kind

	// Timestamp is the per-file time in Unix seconds, 0 when absent.
	Timestamp int64

	// Loaded reports whether the content is in memory.
	Loaded bool
}

// Len returns the number of files.
func (p *Pack) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.files)
}

// Files returns an iterator over every file, sorted case-insensitively by
// path. The iterator works on a snapshot taken when it starts.
func (p *Pack) Files() iter.Seq[FileInfo] {
	return func(yield func(FileInfo) bool) {
		for _, e := range p.sortedEntries(FolderPath("")) {
			if !yield(e.info()) {
				return
			}
		}
	}
}

// Stat returns information about the file at path.
func (p *Pack) Stat(path string) (FileInfo, error) {
	e, ok := p.lookup(path)
	if !ok {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return e.info(), nil
}

// ReadFile returns the content of the file at path, reading, decrypting and
// decompressing it on first use. The returned slice belongs to the caller.
func (p *Pack) ReadFile(path string) ([]byte, error) {
	e, ok := p.lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	data, err := p.loadLocked(e)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.path, err)
	}
	return bytes.Clone(data), nil
}

// Load reads every file that is still on disk into memory. Adjacent
// payloads are fetched with a single read.
func (p *Pack) Load() error {
	return p.loadEntries(p.sortedEntries(FolderPath("")))
}

func (p *Pack) loadEntries(entries []*entry) error {
	type pendingLoad struct {
		e      *entry
		stored storedForm
	}
	pending := make([]pendingLoad, 0, len(entries))
	refs := make([]file.Lazy, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.lazy != nil {
			pending = append(pending, pendingLoad{e: e, stored: e.stored})
			refs = append(refs, *e.lazy)
		}
		e.mu.Unlock()
	}
	if len(pending) == 0 {
		return nil
	}

	var gap uint64
	p.mu.RLock()
	if p.header.padded() {
		gap = 7
	}
	p.mu.RUnlock()

	raws, err := p.src().MaterializeAll(refs, gap)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	plains, err := batch.Map(context.Background(), pending, p.cfg.workers, func(_ context.Context, i int, pl pendingLoad) ([]byte, error) {
		data, err := p.decodeStored(raws[i], pl.stored)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", pl.e.path, err)
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	for i, pl := range pending {
		pl.e.mu.Lock()
		if pl.e.lazy != nil {
			pl.e.promote(plains[i])
		}
		pl.e.mu.Unlock()
	}
	p.log().Debug("loaded files", "count", len(pending))
	return nil
}

func (p *Pack) lookup(path string) (*entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.files[NormalizePath(path)]
	return e, ok
}

// sortedEntries returns the entries addressed by cp in index order.
func (p *Pack) sortedEntries(cp ContainerPath) []*entry {
	p.mu.RLock()
	out := make([]*entry, 0, len(p.files))
	for path, e := range p.files {
		if cp.Matches(path) {
			out = append(out, e)
		}
	}
	p.mu.RUnlock()
	sortEntries(out)
	return out
}

// sortEntries orders entries case-insensitively, the order the game
// expects in the index.
func sortEntries(entries []*entry) {
	slices.SortFunc(entries, func(a, b *entry) int {
		if c := strings.Compare(strings.ToLower(a.path), strings.ToLower(b.path)); c != 0 {
			return c
		}
		return strings.Compare(a.path, b.path)
	})
}

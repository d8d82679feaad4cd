package pack

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/tidwall/jsonc"
)

// Reserved files hold the pack's notes and settings. They are stored in Mod
// and Movie packs, hidden from Files and never inserted or extracted like
// ordinary files.
const (
	ReservedNotes    = "notes.rpfm_reserved"
	ReservedSettings = "settings.rpfm_reserved"

	// Names used by ExtractMetadata.
	ExtractedNotes    = "notes.md"
	ExtractedSettings = "settings.json"
)

// Note is a comment attached to the pack or to one of its paths.
type Note struct {
	ID      uint64 `json:"id"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
	Path    string `json:"path"`
}

// Notes are the pack's free-form notes plus the notes attached to paths.
type Notes struct {
	PackNotes string            `json:"pack_notes"`
	FileNotes map[string][]Note `json:"file_notes"`
}

func newNotes() Notes {
	return Notes{FileNotes: make(map[string][]Note)}
}

func (n Notes) clone() Notes {
	c := Notes{PackNotes: n.PackNotes, FileNotes: make(map[string][]Note, len(n.FileNotes))}
	for k, v := range n.FileNotes {
		c.FileNotes[k] = slices.Clone(v)
	}
	return c
}

// Settings are typed key/value settings read by tools and by the game
// launcher. Soft dependencies are kept here because the container's
// dependency index cannot mark them.
type Settings struct {
	Text             map[string]string `json:"settings_text"`
	String           map[string]string `json:"settings_string"`
	Bool             map[string]bool   `json:"settings_bool"`
	Number           map[string]int32  `json:"settings_number"`
	SoftDependencies []string          `json:"soft_dependencies,omitempty"`
}

func newSettings() Settings {
	return Settings{
		Text:   make(map[string]string),
		String: make(map[string]string),
		Bool:   make(map[string]bool),
		Number: make(map[string]int32),
	}
}

func (s Settings) clone() Settings {
	return Settings{
		Text:             maps.Clone(s.Text),
		String:           maps.Clone(s.String),
		Bool:             maps.Clone(s.Bool),
		Number:           maps.Clone(s.Number),
		SoftDependencies: slices.Clone(s.SoftDependencies),
	}
}

// fill replaces nil maps left by a partial settings document.
func (s *Settings) fill() {
	if s.Text == nil {
		s.Text = make(map[string]string)
	}
	if s.String == nil {
		s.String = make(map[string]string)
	}
	if s.Bool == nil {
		s.Bool = make(map[string]bool)
	}
	if s.Number == nil {
		s.Number = make(map[string]int32)
	}
}

func isReserved(path string) bool {
	return path == ReservedNotes || path == ReservedSettings
}

func (t Type) storesReserved() bool {
	return t == TypeMod || t == TypeMovie
}

// Notes returns a copy of the pack's notes.
func (p *Pack) Notes() Notes {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.notes.clone()
}

// SetNotes replaces the pack's notes.
func (p *Pack) SetNotes(n Notes) {
	n = n.clone()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = n
	p.notesDirty = true
}

// NotesByPath returns the notes attached to path.
func (p *Pack) NotesByPath(path string) []Note {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.notes.FileNotes[NormalizePath(path)])
}

// AddNote attaches a note to its path, or to the pack when the path is
// empty, and returns it with its assigned ID.
func (p *Pack) AddNote(n Note) Note {
	p.mu.Lock()
	defer p.mu.Unlock()
	n.Path = NormalizePath(n.Path)
	var next uint64
	for _, notes := range p.notes.FileNotes {
		for _, existing := range notes {
			next = max(next, existing.ID+1)
		}
	}
	n.ID = next
	p.notes.FileNotes[n.Path] = append(p.notes.FileNotes[n.Path], n)
	p.notesDirty = true
	return n
}

// DeleteNote removes the note with the given ID from path.
func (p *Pack) DeleteNote(path string, id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	path = NormalizePath(path)
	notes := slices.DeleteFunc(p.notes.FileNotes[path], func(n Note) bool { return n.ID == id })
	if len(notes) == 0 {
		delete(p.notes.FileNotes, path)
	} else {
		p.notes.FileNotes[path] = notes
	}
	p.notesDirty = true
}

// Settings returns a copy of the pack's settings.
func (p *Pack) Settings() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings.clone()
}

// SetSettings replaces the pack's settings. Soft dependencies are taken
// from the dependency list and are ignored here.
func (p *Pack) SetSettings(s Settings) {
	s = s.clone()
	s.fill()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
	p.settingsDirty = true
}

// SetSettingText sets a multi-line text setting.
func (p *Pack) SetSettingText(key, value string) {
	p.editSettings(func(s *Settings) { s.Text[key] = value })
}

// SetSettingString sets a single-line string setting.
func (p *Pack) SetSettingString(key, value string) {
	p.editSettings(func(s *Settings) { s.String[key] = value })
}

// SetSettingBool sets a boolean setting.
func (p *Pack) SetSettingBool(key string, value bool) {
	p.editSettings(func(s *Settings) { s.Bool[key] = value })
}

// SetSettingNumber sets a numeric setting.
func (p *Pack) SetSettingNumber(key string, value int32) {
	p.editSettings(func(s *Settings) { s.Number[key] = value })
}

func (p *Pack) editSettings(fn func(*Settings)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.settings)
	p.settingsDirty = true
}

// takeReserved moves the reserved files out of the path map into the notes
// and settings. The entries stay lazy so that an unedited file is written
// back byte for byte. Must be called before the pack is shared.
func (p *Pack) takeReserved() error {
	for _, name := range []string{ReservedNotes, ReservedSettings} {
		e, ok := p.files[name]
		if !ok {
			continue
		}
		delete(p.files, name)
		if p.reserved == nil {
			p.reserved = make(map[string]*entry, 2)
		}
		p.reserved[name] = e
		data, err := p.peekLocked(e)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if name == ReservedNotes {
			p.notes = parseNotes(data)
			continue
		}
		s, err := parseSettings(data)
		if err != nil {
			p.log().Warn("ignoring unreadable pack settings", "error", err)
			continue
		}
		p.settings = s
		for _, dep := range s.SoftDependencies {
			if !slices.ContainsFunc(p.deps, func(d Dependency) bool { return d.Name == dep }) {
				p.deps = append(p.deps, Dependency{Name: dep})
			}
		}
	}
	return nil
}

// parseNotes reads the notes document. Older packs store the pack notes as
// plain text.
func parseNotes(data []byte) Notes {
	var n Notes
	if err := json.Unmarshal(data, &n); err != nil {
		n = newNotes()
		n.PackNotes = string(data)
		return n
	}
	if n.FileNotes == nil {
		n.FileNotes = make(map[string][]Note)
	}
	return n
}

func parseSettings(data []byte) (Settings, error) {
	var s Settings
	if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
		return Settings{}, err
	}
	s.fill()
	return s, nil
}

// reservedEntries returns the reserved files to write. A file read from the
// source is returned as is; it is rendered again only when its document was
// edited, or for settings when the soft dependencies changed. No file is
// created for a document that was never stored or edited. Must be called
// with p.mu held.
func (p *Pack) reservedEntries() ([]*entry, error) {
	if !p.header.Type.storesReserved() {
		return nil, nil
	}
	var out []*entry
	if p.notesDirty {
		data, err := json.MarshalIndent(p.notes, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", ReservedNotes, err)
		}
		out = append(out, newEntry(ReservedNotes, data, p.reservedTimestamp()))
	} else if e, ok := p.reserved[ReservedNotes]; ok {
		out = append(out, e)
	}

	soft := p.softDependencies()
	if p.settingsDirty || !slices.Equal(soft, p.settings.SoftDependencies) {
		settings := p.settings.clone()
		settings.SoftDependencies = soft
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", ReservedSettings, err)
		}
		out = append(out, newEntry(ReservedSettings, data, p.reservedTimestamp()))
	} else if e, ok := p.reserved[ReservedSettings]; ok {
		out = append(out, e)
	}
	return out, nil
}

func (p *Pack) softDependencies() []string {
	var soft []string
	for _, d := range p.deps {
		if !d.Hard {
			soft = append(soft, d.Name)
		}
	}
	return soft
}

// reservedTimestamp is the per-file time of a rendered reserved file.
func (p *Pack) reservedTimestamp() int64 {
	switch {
	case p.cfg.nullifyDates:
		return 0
	case p.cfg.deterministic:
		return p.header.Timestamp
	default:
		return time.Now().Unix()
	}
}

// ExtractMetadata writes the notes and settings as notes.md and
// settings.json into dir and returns the written paths.
func (p *Pack) ExtractMetadata(dir string) ([]string, error) {
	p.mu.RLock()
	notes := p.notes.PackNotes
	settings, err := json.MarshalIndent(p.settings, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("extract metadata: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("extract metadata: %w", err)
	}
	var written []string
	var errs []error
	for name, data := range map[string][]byte{
		ExtractedNotes:    []byte(notes),
		ExtractedSettings: settings,
	} {
		path := filepath.Join(dir, name)
		if err := writeFileAtomic(path, data, 0o644); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, path)
	}
	slices.Sort(written)
	return written, errors.Join(errs...)
}

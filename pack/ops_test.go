package pack

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func filePaths(p *Pack) []string {
	var paths []string
	for fi := range p.Files() {
		paths = append(paths, fi.Path)
	}
	return paths
}

func TestInsertFolderSaveOpen(t *testing.T) {
	t.Parallel()

	src := writeTree(t, map[string]string{
		"script/mod.lua":       "print()",
		"db/units_tables/mod":  "table",
		"text/db/mod.loc":      "loc",
		ReservedNotes:          "ignored",
		"ui/skins/default.png": "png",
	})

	p := New(WithDeterministic(true))
	inserted, err := p.InsertFolder(src, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"script/mod.lua", "db/units_tables/mod", "text/db/mod.loc", "ui/skins/default.png"}, inserted)

	out := filepath.Join(t.TempDir(), "nested", "mod.pack")
	require.NoError(t, p.Save(out))
	assert.Equal(t, out, p.DiskPath())

	opened, err := Open(out)
	require.NoError(t, err)
	t.Cleanup(func() { opened.Close() })

	assert.Equal(t, []string{"db/units_tables/mod", "script/mod.lua", "text/db/mod.loc", "ui/skins/default.png"}, filePaths(opened))
	data, err := opened.ReadFile(`script\mod.lua`)
	require.NoError(t, err)
	assert.Equal(t, []byte("print()"), data)
	assert.Equal(t, out, opened.DiskPath())
}

func TestInsertFolderPrefixAndSymlinks(t *testing.T) {
	t.Parallel()

	src := writeTree(t, map[string]string{"a.txt": "a"})
	if runtime.GOOS != "windows" {
		outside := filepath.Join(t.TempDir(), "secret.txt")
		require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))
		require.NoError(t, os.Symlink(outside, filepath.Join(src, "link.txt")))
	}

	p := New()
	inserted, err := p.InsertFolder(src, `/mods\mine/`)
	require.NoError(t, err)
	assert.Equal(t, []string{"mods/mine/a.txt"}, inserted)
	assert.Equal(t, 1, p.Len())
}

func TestInsertRejectsBadPaths(t *testing.T) {
	t.Parallel()

	p := New()
	require.ErrorIs(t, p.InsertBytes("", []byte("x")), ErrInvalidPath)
	require.ErrorIs(t, p.InsertBytes("a/../b", []byte("x")), ErrInvalidPath)
	require.ErrorIs(t, p.InsertBytes(ReservedSettings, []byte("{}")), ErrReservedPath)

	require.NoError(t, p.InsertBytes("a.txt", []byte("one")))
	require.NoError(t, p.InsertBytes("/a.txt", []byte("two")))
	assert.Equal(t, 1, p.Len())
	data, err := p.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)

	_, err = p.ReadFile("missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = p.Stat("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInsertFileLimits(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{"big.bin": "0123456789"})
	path := filepath.Join(dir, "big.bin")
	mtime := time.Unix(1_650_000_000, 0)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	small := New(WithMaxFileSize(4))
	err := small.InsertFile(path, "big.bin")
	require.ErrorIs(t, err, ErrDataTooBig)
	var tooBig *DataTooBigError
	require.True(t, errors.As(err, &tooBig))
	assert.Equal(t, uint64(4), tooBig.Max)
	assert.Equal(t, uint64(10), tooBig.Actual)

	p := New()
	require.NoError(t, p.InsertFile(path, "data/big.bin"))
	fi, err := p.Stat("data/big.bin")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), fi.Size)
	assert.Equal(t, mtime.Unix(), fi.Timestamp)
	assert.True(t, fi.Loaded)

	require.Error(t, p.InsertFile(dir, "dir"))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	p := New()
	for _, path := range []string{"a/x.txt", "a/y/z.txt", "ab.txt", "b.txt"} {
		require.NoError(t, p.InsertBytes(path, []byte(path)))
	}
	assert.Equal(t, []string{"a/x.txt", "a/y/z.txt"}, p.Remove(FolderPath("a")))
	assert.Equal(t, []string{"b.txt"}, p.Remove(FilePath("b.txt")))
	assert.Empty(t, p.Remove(FilePath("nope")))
	assert.Equal(t, []string{"ab.txt"}, filePaths(p))
	assert.Equal(t, []string{"ab.txt"}, p.Remove(FolderPath("")))
	assert.Zero(t, p.Len())
}

func TestExtract(t *testing.T) {
	t.Parallel()

	p := New()
	for path, data := range map[string]string{
		"db/units_tables/data": "table",
		"db/land_units/data":   "land",
		"script/mod.lua":       "lua",
	} {
		require.NoError(t, p.InsertBytes(path, []byte(data)))
	}

	dest := t.TempDir()
	written, err := p.Extract(FolderPath("db"), dest, true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dest, "db", "land_units", "data"),
		filepath.Join(dest, "db", "units_tables", "data"),
	}, written)

	flat := t.TempDir()
	written, err = p.Extract(FolderPath("db"), flat, false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(flat, "land_units", "data"),
		filepath.Join(flat, "units_tables", "data"),
	}, written)

	written, err = p.Extract(FilePath("script/mod.lua"), flat, false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(flat, "mod.lua")}, written)
	got, err := os.ReadFile(filepath.Join(flat, "mod.lua"))
	require.NoError(t, err)
	assert.Equal(t, []byte("lua"), got)

	// Existing files are skipped unless overwrite is set.
	require.NoError(t, p.InsertBytes("script/mod.lua", []byte("new")))
	written, err = p.Extract(FilePath("script/mod.lua"), flat, false, false)
	require.NoError(t, err)
	assert.Empty(t, written)
	got, err = os.ReadFile(filepath.Join(flat, "mod.lua"))
	require.NoError(t, err)
	assert.Equal(t, []byte("lua"), got)

	written, err = p.Extract(FilePath("script/mod.lua"), flat, false, true)
	require.NoError(t, err)
	assert.Len(t, written, 1)
	got, err = os.ReadFile(filepath.Join(flat, "mod.lua"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	_, err = p.Extract(FolderPath("missing"), flat, true, true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExtractFromOpenedPackKeepsTimes(t *testing.T) {
	t.Parallel()

	p := New(WithDeterministic(true))
	require.NoError(t, p.SetHeader(Header{Version: PFH5, Type: TypeMod, Flags: FlagIndexTimestamps}))
	dir := writeTree(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	mtime := time.Unix(1_600_000_000, 0)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.txt"), mtime, mtime))
	require.NoError(t, p.InsertFile(filepath.Join(dir, "a.txt"), "a.txt"))
	require.NoError(t, p.InsertFile(filepath.Join(dir, "b.txt"), "b.txt"))
	path := filepath.Join(t.TempDir(), "a.pack")
	require.NoError(t, p.Save(path))

	opened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { opened.Close() })

	dest := t.TempDir()
	written, err := opened.Extract(FolderPath(""), dest, true, false, WithExtractTimes(true))
	require.NoError(t, err)
	require.Len(t, written, 2)
	info, err := os.Stat(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime))
}

func TestSourceChangedOnDisk(t *testing.T) {
	t.Parallel()

	p := New()
	require.NoError(t, p.InsertBytes("a.txt", []byte("first")))
	require.NoError(t, p.InsertBytes("b.txt", []byte("second")))
	path := filepath.Join(t.TempDir(), "a.pack")
	require.NoError(t, p.Save(path))

	opened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { opened.Close() })

	data, err := opened.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	// a.txt is in memory; b.txt still needs the file.
	_, err = opened.ReadFile("a.txt")
	require.NoError(t, err)
	_, err = opened.ReadFile("b.txt")
	require.ErrorIs(t, err, ErrSourceChanged)
	require.ErrorIs(t, opened.Load(), ErrSourceChanged)
}

func TestSaveInPlace(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, New().SaveInPlace(), ErrNoPath)

	p := New()
	require.NoError(t, p.InsertBytes("a.txt", []byte("a")))
	path := filepath.Join(t.TempDir(), "a.pack")
	require.NoError(t, p.Save(path))

	opened, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, opened.InsertBytes("b.txt", []byte("b")))
	require.NoError(t, opened.SaveInPlace())
	require.NoError(t, opened.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	assert.Equal(t, []string{"a.txt", "b.txt"}, filePaths(reopened))
	data, err := reopened.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)
}

func TestReservedFiles(t *testing.T) {
	t.Parallel()

	p := New()
	require.NoError(t, p.InsertBytes("a.txt", []byte("a")))
	p.SetNotes(Notes{PackNotes: "# My mod"})
	note := p.AddNote(Note{Message: "check this", Path: `db\units`})
	assert.Equal(t, "db/units", note.Path)
	second := p.AddNote(Note{Message: "and this", Path: "db/units"})
	assert.Equal(t, note.ID+1, second.ID)
	p.DeleteNote("db/units", note.ID)
	p.SetSettingBool("disable_autosaves", true)
	p.SetSettingString("name", "mine")
	p.SetSettingNumber("priority", 3)
	p.SetSettingText("description", "line one\nline two")
	p.SetDependencies([]Dependency{{Name: "hard.pack", Hard: true}, {Name: "soft.pack"}})

	raw, err := p.Encode()
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, filePaths(decoded))
	assert.Equal(t, 1, decoded.Len())
	_, err = decoded.ReadFile(ReservedNotes)
	require.ErrorIs(t, err, ErrNotFound)

	notes := decoded.Notes()
	assert.Equal(t, "# My mod", notes.PackNotes)
	require.Len(t, decoded.NotesByPath("db/units"), 1)
	assert.Equal(t, "and this", decoded.NotesByPath("db/units")[0].Message)

	s := decoded.Settings()
	assert.True(t, s.Bool["disable_autosaves"])
	assert.Equal(t, "mine", s.String["name"])
	assert.Equal(t, int32(3), s.Number["priority"])
	assert.Equal(t, "line one\nline two", s.Text["description"])
	assert.Equal(t, []Dependency{{Name: "hard.pack", Hard: true}, {Name: "soft.pack"}}, decoded.Dependencies())

	dir := t.TempDir()
	written, err := decoded.ExtractMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ExtractedNotes), filepath.Join(dir, ExtractedSettings)}, written)
	md, err := os.ReadFile(filepath.Join(dir, ExtractedNotes))
	require.NoError(t, err)
	assert.Equal(t, "# My mod", string(md))
}

func TestReservedFilesLegacyAndComments(t *testing.T) {
	t.Parallel()

	settings := `{
  // written by hand
  "settings_bool": {"x": true}
}`
	raw := buildPack("PFH0", uint32(TypeMod), nil, nil, []rawFile{
		{path: "a.txt", data: []byte("a")},
		{path: ReservedNotes, data: []byte("plain old notes")},
		{path: ReservedSettings, data: []byte(settings)},
	})

	p, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, "plain old notes", p.Notes().PackNotes)
	assert.True(t, p.Settings().Bool["x"])
	assert.NotNil(t, p.Settings().Text)

	broken := buildPack("PFH0", uint32(TypeMod), nil, nil, []rawFile{
		{path: ReservedSettings, data: []byte("{not json")},
	})
	p, err = Decode(broken)
	require.NoError(t, err)
	assert.Zero(t, p.Len())
	assert.Empty(t, p.Settings().Bool)
}

func TestReservedFilesOnlyInModPacks(t *testing.T) {
	t.Parallel()

	p := New()
	require.NoError(t, p.SetHeader(Header{Version: PFH5, Type: TypePatch}))
	p.SetNotes(Notes{PackNotes: "patch notes"})
	raw, err := p.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), ReservedNotes)

	m := New()
	raw, err = m.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), ReservedNotes)
	assert.NotContains(t, string(raw), ReservedSettings)

	m.SetNotes(Notes{PackNotes: "mod notes"})
	raw, err = m.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(raw), ReservedNotes)
	assert.NotContains(t, string(raw), ReservedSettings)
}

func TestReservedFilesRoundTripUnedited(t *testing.T) {
	t.Parallel()

	settings := `{"settings_bool":{"x":true},"soft_dependencies":["soft.pack"]}`
	tests := []struct {
		name  string
		files []rawFile
	}{
		{
			name: "settings only",
			files: []rawFile{
				{path: "a.txt", data: []byte("a")},
				{path: ReservedSettings, data: []byte(settings)},
			},
		},
		{
			name: "notes and settings",
			files: []rawFile{
				{path: "a.txt", data: []byte("a")},
				{path: ReservedNotes, data: []byte("plain old notes")},
				{path: ReservedSettings, data: []byte(settings)},
			},
		},
		{
			name: "unreadable settings",
			files: []rawFile{
				{path: ReservedSettings, data: []byte("{not json")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := buildPack("PFH0", uint32(TypeMod), nil, nil, tt.files)
			p, err := Decode(raw, WithDeterministic(true))
			require.NoError(t, err)

			out, err := p.Encode()
			require.NoError(t, err)
			assert.Equal(t, raw, out)
		})
	}
}

func TestReservedFilesRenderedOnlyWhenEdited(t *testing.T) {
	t.Parallel()

	settings := `{"settings_bool":{"x":true},"soft_dependencies":["soft.pack"]}`
	raw := buildPack("PFH0", uint32(TypeMod), nil, nil, []rawFile{
		{path: ReservedNotes, data: []byte("plain old notes")},
		{path: ReservedSettings, data: []byte(settings)},
	})

	p, err := Decode(raw, WithDeterministic(true))
	require.NoError(t, err)
	p.SetSettingBool("y", true)
	out, err := p.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(out), "plain old notes")
	assert.NotContains(t, string(out), settings)

	again, err := Decode(out)
	require.NoError(t, err)
	assert.True(t, again.Settings().Bool["x"])
	assert.True(t, again.Settings().Bool["y"])
	assert.Equal(t, []Dependency{{Name: "soft.pack"}}, again.Dependencies())

	// Dropping the soft dependency rewrites the settings too.
	p, err = Decode(raw, WithDeterministic(true))
	require.NoError(t, err)
	p.SetDependencies(nil)
	out, err = p.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(out), settings)
	again, err = Decode(out)
	require.NoError(t, err)
	assert.Empty(t, again.Dependencies())
	assert.Equal(t, "plain old notes", again.Notes().PackNotes)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	a := New()
	require.NoError(t, a.InsertBytes("shared.txt", []byte("a")))
	require.NoError(t, a.InsertBytes("a.txt", []byte("a")))
	a.SetDependencies([]Dependency{{Name: "base.pack", Hard: true}})

	bPack := New()
	require.NoError(t, bPack.InsertBytes("shared.txt", []byte("b")))
	require.NoError(t, bPack.InsertBytes("b.txt", []byte("b")))
	bPath := filepath.Join(t.TempDir(), "b.pack")
	require.NoError(t, bPack.Save(bPath))

	c := New()
	require.NoError(t, c.InsertBytes("c.txt", []byte("c")))
	c.SetDependencies([]Dependency{{Name: "base.pack", Hard: true}, {Name: "b.pack", Hard: true}, {Name: "extra.pack"}})

	b, err := Open(bPath)
	require.NoError(t, err)
	require.NoError(t, a.Merge(b, c))
	require.NoError(t, b.Close())

	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "shared.txt"}, filePaths(a))
	data, err := a.ReadFile("shared.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)
	assert.Equal(t, []Dependency{{Name: "base.pack", Hard: true}, {Name: "extra.pack"}}, a.Dependencies())
}

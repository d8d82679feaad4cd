package pack

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/Frodo45127/rpfm-sub014/pack/internal/platform"
	"github.com/Frodo45127/rpfm-sub014/pack/internal/sizing"
)

// InsertBytes adds data at virtualPath, replacing any file already there.
// The pack keeps data; the caller must not modify it afterwards.
func (p *Pack) InsertBytes(virtualPath string, data []byte) error {
	return p.insert(virtualPath, data, 0)
}

// InsertFile reads the file at diskPath and adds it at virtualPath. Its
// modification time becomes the file's timestamp.
func (p *Pack) InsertFile(diskPath, virtualPath string) error {
	f, err := os.Open(diskPath)
	if err != nil {
		return fmt.Errorf("insert %s: %w", diskPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("insert %s: %w", diskPath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("insert %s: not a regular file", diskPath)
	}
	limit := p.cfg.maxFileSize
	if limit == 0 {
		limit = uint64(info.Size()) //nolint:gosec // size of a regular file is never negative
	}
	data, err := sizing.ReadAllWithLimit(f, limit, p.tooLarge(diskPath, info.Size()))
	if err != nil {
		return fmt.Errorf("insert %s: %w", diskPath, err)
	}
	return p.insert(virtualPath, data, info.ModTime().Unix())
}

// InsertFolder adds every regular file beneath diskPath, keyed by its path
// relative to diskPath under virtualPrefix. Symbolic links are skipped. It
// returns the inserted paths.
func (p *Pack) InsertFolder(diskPath, virtualPrefix string) ([]string, error) {
	prefix := NormalizePath(virtualPrefix)
	root, err := os.OpenRoot(diskPath)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", diskPath, err)
	}
	defer root.Close()

	var inserted []string
	err = fs.WalkDir(root.FS(), ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			p.log().Debug("skipping symlink", "path", rel)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		virtual := NormalizePath(path.Join(prefix, rel))
		if isReserved(virtual) {
			p.log().Debug("skipping reserved file", "path", rel)
			return nil
		}
		data, mtime, err := platform.ReadFileNoFollow(root, rel, p.cfg.maxFileSize)
		if err != nil {
			return fmt.Errorf("insert %s: %w", filepath.Join(diskPath, rel), err)
		}
		if err := p.insert(virtual, data, mtime.Unix()); err != nil {
			return err
		}
		inserted = append(inserted, virtual)
		return nil
	})
	if err != nil {
		return inserted, err
	}
	p.log().Debug("inserted folder", "path", diskPath, "prefix", prefix, "files", len(inserted))
	return inserted, nil
}

func (p *Pack) tooLarge(path string, size int64) error {
	return &DataTooBigError{
		Format: "File",
		Max:    p.cfg.maxFileSize,
		Actual: uint64(max(size, 0)),
		Path:   path,
	}
}

func (p *Pack) insert(virtualPath string, data []byte, timestamp int64) error {
	key := NormalizePath(virtualPath)
	if !validPath(key) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, virtualPath)
	}
	if isReserved(key) {
		return fmt.Errorf("%w: %s", ErrReservedPath, key)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[key] = newEntry(key, data, timestamp)
	return nil
}

// Remove deletes every file addressed by cp and returns the removed paths,
// sorted.
func (p *Pack) Remove(cp ContainerPath) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var removed []string
	for key := range p.files {
		if cp.Matches(key) {
			delete(p.files, key)
			removed = append(removed, key)
		}
	}
	slices.Sort(removed)
	return removed
}

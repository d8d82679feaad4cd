package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Save encodes the pack and writes it to path.
//
// Uses atomic writes (temp file + rename) to prevent partial writes on failure.
// Parent directories are created as needed. Saving over the file the pack
// was opened from reads every remaining file into memory first.
func (p *Pack) Save(path string) error {
	return p.SaveContext(context.Background(), path)
}

// SaveContext is like Save but stops encoding when ctx is canceled.
func (p *Pack) SaveContext(ctx context.Context, path string) error {
	src := p.src()
	inPlace := src != nil && src.Path() != "" && samePath(src.Path(), path)
	if inPlace {
		if err := p.Load(); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
	}

	data, err := p.encode(ctx)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	if inPlace {
		// Everything is in memory; release the file before replacing it.
		p.mu.Lock()
		p.source = nil
		p.mu.Unlock()
		_ = src.Close() //nolint:errcheck // best-effort cleanup
	}

	// Create parent directories if needed
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create pack directory: %w", err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write pack file: %w", err)
	}

	p.mu.Lock()
	p.diskPath = path
	p.mu.Unlock()

	p.log().Debug("saved pack", "path", path, "size", len(data))
	return nil
}

// SaveInPlace saves the pack to the path it was opened from or last saved
// to. It fails with ErrNoPath for packs built in memory.
func (p *Pack) SaveInPlace() error {
	path := p.DiskPath()
	if path == "" {
		return ErrNoPath
	}
	return p.Save(path)
}

func samePath(a, b string) bool {
	if fa, err := os.Stat(a); err == nil {
		if fb, err := os.Stat(b); err == nil {
			return os.SameFile(fa, fb)
		}
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

// writeFileAtomic writes data to a temp file then renames to target,
// ensuring atomic replacement of the target file.
func writeFileAtomic(target string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".pack-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

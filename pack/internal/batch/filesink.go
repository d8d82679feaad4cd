package batch

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileSink writes extracted files below a destination directory.
//
// Files are written to a temporary file in the same directory and renamed
// to the final path, so partially written files are never visible. All
// writes go through an os.Root and cannot escape the destination.
type FileSink struct {
	destDir       string
	overwrite     bool
	preserveTimes bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithPreserveTimes sets the modification time of written files to the
// time passed to Write. Zero times are ignored.
func WithPreserveTimes(preserve bool) FileSinkOption {
	return func(s *FileSink) {
		s.preserveTimes = preserve
	}
}

// NewFileSink creates a FileSink that writes to destDir, creating it if
// needed.
func NewFileSink(destDir string, opts ...FileSinkOption) (*FileSink, error) {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}
	s := &FileSink{
		destDir: destDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ShouldWrite returns false if the file already exists and overwrite is disabled.
func (s *FileSink) ShouldWrite(rel string) bool {
	if s.overwrite {
		return true
	}
	if !fs.ValidPath(rel) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.destDir, filepath.FromSlash(rel)))
	return os.IsNotExist(err)
}

// Write stores data at the slash-separated path rel and returns the
// written path on disk.
func (s *FileSink) Write(rel string, data []byte, modTime time.Time) (string, error) {
	if !fs.ValidPath(rel) {
		return "", &fs.PathError{Op: "extract", Path: rel, Err: fs.ErrInvalid}
	}
	destPath := filepath.Join(s.destDir, filepath.FromSlash(rel))
	destRel := filepath.FromSlash(rel)

	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return "", fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	defer root.Close()

	if dir := filepath.Dir(destRel); dir != "." {
		if err := root.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create directory %s: %w", filepath.Dir(destPath), err)
		}
	}

	// Create temp file in same directory (for atomic rename)
	tempFile, tempRel, err := createTempFile(root, filepath.Dir(destRel), ".pack-")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()     //nolint:errcheck // best-effort cleanup
		_ = root.Remove(tempRel) //nolint:errcheck // best-effort cleanup
		return "", fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = root.Remove(tempRel) //nolint:errcheck // best-effort cleanup
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if s.preserveTimes && !modTime.IsZero() {
		if err := root.Chtimes(tempRel, modTime, modTime); err != nil {
			_ = root.Remove(tempRel) //nolint:errcheck // best-effort cleanup
			return "", fmt.Errorf("chtimes: %w", err)
		}
	}

	// Atomic rename to final path
	if err := root.Rename(tempRel, destRel); err != nil {
		_ = root.Remove(tempRel) //nolint:errcheck // best-effort cleanup
		return "", fmt.Errorf("rename to %s: %w", destPath, err)
	}
	return destPath, nil
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

package compression

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// 7z signature header layout: 6-byte signature, 2-byte version, u32 start
// header CRC, then the u64 next header offset. Packed streams begin right
// after the 32-byte signature header, and for a single-file archive the next
// header offset equals the length of the only packed stream.
const (
	sevenZipNextHeaderOffset = 12
	sevenZipStreamStart      = 32
)

// ErrSevenZipNotFound is returned when no 7z executable can be located.
var ErrSevenZipNotFound = errors.New("compression: 7z executable not found")

// SevenZip encodes LZMA streams by running the external 7z archiver and
// slicing the raw stream out of the single-file archive it produces.
//
// The extraction relies on the fixed layout of 7z signature headers and
// breaks if the archiver changes it.
type SevenZip struct {
	// Path is the 7z executable. Empty means look up "7z" on PATH.
	Path string
}

// Executable resolves the archiver path.
func (s SevenZip) Executable() (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}
	path, err := exec.LookPath("7z")
	if err != nil {
		return "", ErrSevenZipNotFound
	}
	return path, nil
}

// EncodeLZMA implements LZMAEncoder.
func (s SevenZip) EncodeLZMA(data []byte) ([]byte, error) {
	exe, err := s.Executable()
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "rpfm-lzma-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "data")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp input: %w", err)
	}
	archive := filepath.Join(dir, "data.7z")

	//nolint:gosec // executable is chosen by the caller or found on PATH
	cmd := exec.Command(exe, "a", "-m0=lzma", "-mx=3", archive, input)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("run 7z: %w: %s", err, output)
	}

	raw, err := os.ReadFile(archive)
	if err != nil {
		return nil, fmt.Errorf("read 7z archive: %w", err)
	}
	return extractSevenZipStream(raw)
}

func extractSevenZipStream(archive []byte) ([]byte, error) {
	if len(archive) < sevenZipStreamStart {
		return nil, fmt.Errorf("7z archive of %d bytes has no signature header", len(archive))
	}
	n := binary.LittleEndian.Uint32(archive[sevenZipNextHeaderOffset:])
	end := uint64(sevenZipStreamStart) + uint64(n)
	if end > uint64(len(archive)) {
		return nil, fmt.Errorf("7z stream of %d bytes overruns archive of %d bytes", n, len(archive))
	}
	return archive[sevenZipStreamStart:end], nil
}

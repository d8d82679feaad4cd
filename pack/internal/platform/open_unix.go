//go:build unix

package platform

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// openNoFollow refuses a final symlink. os.Root resolves links that stay
// inside the root on its own, so the entry is checked with Lstat before the
// O_NOFOLLOW open.
func openNoFollow(root *os.Root, name string) (*os.File, error) {
	info, err := root.Lstat(name)
	if err != nil {
		return nil, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return nil, ErrSymlink
	}
	f, err := root.OpenFile(name, os.O_RDONLY|syscall.O_NOFOLLOW, 0)
	if err != nil {
		if errors.Is(err, syscall.ELOOP) {
			return nil, ErrSymlink
		}
		return nil, err
	}
	return f, nil
}

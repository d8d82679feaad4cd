//go:build !unix

package platform

import (
	"io/fs"
	"os"
)

// openNoFollow checks the entry with Lstat before opening it. This leaves a
// window between the check and the open that O_NOFOLLOW closes on unix.
func openNoFollow(root *os.Root, name string) (*os.File, error) {
	info, err := root.Lstat(name)
	if err != nil {
		return nil, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return nil, ErrSymlink
	}
	return root.Open(name)
}

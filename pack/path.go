package pack

import (
	"slices"
	"strings"
)

// NormalizePath converts a user-provided path to the form used as a key
// inside a pack.
//
// It performs the following transformations:
//   - Converts backslashes to forward slashes: `db\units` → "db/units"
//   - Strips leading and trailing slashes: "/db/units/" → "db/units"
//   - Collapses consecutive slashes: "db//units" → "db/units"
//   - Converts the root to the empty string: "/" → ""
//
// Case is preserved. Elements such as "." and ".." are kept as is and
// rejected by the operations that store paths.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}

// validPath reports whether p can be stored as a file path.
func validPath(p string) bool {
	if p == "" || strings.ContainsRune(p, 0) {
		return false
	}
	for part := range strings.SplitSeq(p, "/") {
		if part == "." || part == ".." {
			return false
		}
	}
	return true
}

// ContainerPath addresses a file or a folder inside a pack. The zero value
// is the file with an empty path, which matches nothing; use FolderPath("")
// for the root.
type ContainerPath struct {
	path   string
	folder bool
}

// FilePath addresses a single file.
func FilePath(p string) ContainerPath {
	return ContainerPath{path: NormalizePath(p)}
}

// FolderPath addresses a folder and everything beneath it. The empty
// folder is the root of the pack.
func FolderPath(p string) ContainerPath {
	return ContainerPath{path: NormalizePath(p), folder: true}
}

// Path returns the normalized path.
func (c ContainerPath) Path() string { return c.path }

// IsFolder reports whether c addresses a folder.
func (c ContainerPath) IsFolder() bool { return c.folder }

// IsRoot reports whether c addresses the whole pack.
func (c ContainerPath) IsRoot() bool { return c.folder && c.path == "" }

func (c ContainerPath) String() string {
	if c.folder {
		return c.path + "/"
	}
	return c.path
}

// Matches reports whether the file at path is addressed by c.
func (c ContainerPath) Matches(path string) bool {
	if !c.folder {
		return path == c.path
	}
	return c.path == "" || strings.HasPrefix(path, c.path+"/")
}

// Contains reports whether other is c itself or lies beneath c.
func (c ContainerPath) Contains(other ContainerPath) bool {
	if c == other {
		return true
	}
	return c.folder && c.Matches(other.path)
}

// Dedup collapses paths so that no element lies beneath another: a folder
// absorbs every file and folder under it. Duplicates are removed and the
// result is sorted.
func Dedup(paths []ContainerPath) []ContainerPath {
	sorted := slices.Clone(paths)
	// Folders first, shortest first, so that outer folders are kept before
	// anything they absorb is considered.
	slices.SortFunc(sorted, func(a, b ContainerPath) int {
		if a.folder != b.folder {
			if a.folder {
				return -1
			}
			return 1
		}
		if d := len(a.path) - len(b.path); d != 0 {
			return d
		}
		return strings.Compare(a.path, b.path)
	})

	out := make([]ContainerPath, 0, len(sorted))
	for _, p := range sorted {
		absorbed := false
		for _, kept := range out {
			if kept.Contains(p) {
				absorbed = true
				break
			}
		}
		if !absorbed {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b ContainerPath) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

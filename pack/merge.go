package pack

import (
	"fmt"
	"path/filepath"
	"slices"
)

// Merge copies every file of others into p; on conflicting paths the last
// pack wins. Dependencies are merged in order without duplicates, leaving
// out the merged packs themselves. Files that have not been read are read
// from their pack first, so others may be closed afterwards.
func (p *Pack) Merge(others ...*Pack) error {
	var merged []string
	for _, o := range others {
		if o == p {
			continue
		}
		if err := o.Load(); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		if path := o.DiskPath(); path != "" {
			merged = append(merged, filepath.Base(path))
		}
	}

	for _, o := range others {
		if o == p {
			continue
		}
		entries := o.sortedEntries(FolderPath(""))
		deps := o.Dependencies()

		p.mu.Lock()
		for _, e := range entries {
			e.mu.Lock()
			p.files[e.path] = newEntry(e.path, e.data, e.timestamp)
			e.mu.Unlock()
		}
		for _, d := range deps {
			if slices.Contains(merged, d.Name) {
				continue
			}
			if !slices.ContainsFunc(p.deps, func(x Dependency) bool { return x.Name == d.Name }) {
				p.deps = append(p.deps, d)
			}
		}
		p.mu.Unlock()
	}
	p.log().Debug("merged packs", "count", len(others), "files", p.Len())
	return nil
}

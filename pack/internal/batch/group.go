// Package batch groups payload ranges for bulk reads and runs the per-file
// encode map used when saving a pack.
package batch

import (
	"cmp"
	"slices"
)

// Range is one payload inside the backing source. Index identifies the
// caller's entry so results can be routed back after sorting.
type Range struct {
	Index  int
	Offset uint64
	Length uint64
}

// End returns the exclusive end offset of the range.
func (r Range) End() uint64 {
	return r.Offset + r.Length
}

// Group is a contiguous span of the backing source covering one or more
// ranges. All ranges in a group can be served by a single read.
type Group struct {
	Start  uint64
	End    uint64
	Ranges []Range
}

// GroupAdjacent sorts ranges by offset and merges those that overlap, touch
// or are separated by at most gap bytes. A gap of zero only merges ranges where
// one ends exactly where the next begins; Arena packs pad payloads to 8
// bytes, so callers reading them pass a gap of 7.
func GroupAdjacent(ranges []Range, gap uint64) []Group {
	if len(ranges) == 0 {
		return nil
	}
	sorted := slices.Clone(ranges)
	slices.SortStableFunc(sorted, func(a, b Range) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	groups := make([]Group, 0, len(sorted))
	current := Group{
		Start:  sorted[0].Offset,
		End:    sorted[0].End(),
		Ranges: []Range{sorted[0]},
	}
	for _, r := range sorted[1:] {
		if r.Offset <= current.End || r.Offset-current.End <= gap {
			current.End = max(current.End, r.End())
			current.Ranges = append(current.Ranges, r)
			continue
		}
		groups = append(groups, current)
		current = Group{
			Start:  r.Offset,
			End:    r.End(),
			Ranges: []Range{r},
		}
	}
	return append(groups, current)
}

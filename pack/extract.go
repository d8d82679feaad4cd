package pack

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Frodo45127/rpfm-sub014/pack/internal/batch"
)

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	times bool
}

// WithExtractTimes sets the modification time of extracted files to their
// timestamp in the pack, when they have one.
func WithExtractTimes(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.times = enabled
	}
}

// Extract writes the files addressed by cp below dest and returns the
// written paths, sorted.
//
// With preserve, files keep their full path inside the pack. Otherwise the
// addressed folder is stripped from their paths; a single file is written
// under its base name. Existing files are skipped unless overwrite is set.
func (p *Pack) Extract(cp ContainerPath, dest string, preserve, overwrite bool, opts ...ExtractOption) ([]string, error) {
	var ec extractConfig
	for _, opt := range opts {
		opt(&ec)
	}

	entries := p.sortedEntries(cp)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cp)
	}

	sink, err := batch.NewFileSink(dest,
		batch.WithOverwrite(overwrite),
		batch.WithPreserveTimes(ec.times))
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	type target struct {
		e   *entry
		rel string
	}
	targets := make([]target, 0, len(entries))
	pending := make([]*entry, 0, len(entries))
	for _, e := range entries {
		rel := extractRel(cp, e.path, preserve)
		if !sink.ShouldWrite(rel) {
			p.log().Debug("skipping existing file", "path", rel)
			continue
		}
		targets = append(targets, target{e: e, rel: rel})
		pending = append(pending, e)
	}
	if err := p.loadEntries(pending); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	written, err := batch.Map(context.Background(), targets, p.cfg.workers, func(_ context.Context, _ int, t target) (string, error) {
		t.e.mu.Lock()
		data, err := p.loadLocked(t.e)
		ts := t.e.timestamp
		t.e.mu.Unlock()
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", t.e.path, err)
		}
		var mtime time.Time
		if ts > 0 {
			mtime = time.Unix(ts, 0)
		}
		return sink.Write(t.rel, data, mtime)
	})
	if err != nil {
		return nil, err
	}
	p.log().Debug("extracted files", "path", cp.String(), "dest", dest, "count", len(written))
	return written, nil
}

func extractRel(cp ContainerPath, p string, preserve bool) string {
	switch {
	case preserve || cp.IsRoot():
		return p
	case cp.IsFolder():
		return strings.TrimPrefix(p, cp.Path()+"/")
	default:
		return path.Base(p)
	}
}

package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Map runs fn over every item with at most workers goroutines and returns
// the results in input order. A workers value below 1 uses GOMAXPROCS.
//
// The first error cancels ctx for the remaining calls and is returned.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := fn(ctx, i, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

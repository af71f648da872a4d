// Package parallel runs independent tasks on a bounded worker pool and waits
// for all of them, giving each pipeline stage an explicit barrier.
package parallel

import (
	"context"

	"github.com/hupe1980/abruijn/internal/resource"
	"golang.org/x/sync/errgroup"
)

// Runner executes task sets with at most Workers concurrent tasks.
type Runner struct {
	workers int
	rc      *resource.Controller
}

// NewRunner returns a Runner. Workers below 1 are treated as 1. When rc is
// non-nil every task additionally holds one of its worker slots, which caps
// concurrency across runners sharing the controller.
func NewRunner(workers int, rc *resource.Controller) *Runner {
	return &Runner{workers: max(workers, 1), rc: rc}
}

// Workers returns the pool size.
func (r *Runner) Workers() int { return r.workers }

// Run calls fn(ctx, i) for i in [0, n) and returns after every started task
// finished. The first error cancels the context passed to the remaining
// tasks; tasks not yet started are skipped.
func (r *Runner) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer r.rc.ReleaseWorker()
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ForEach calls fn for every item of items on r.
func ForEach[T any](ctx context.Context, r *Runner, items []T, fn func(ctx context.Context, item T) error) error {
	return r.Run(ctx, len(items), func(ctx context.Context, i int) error {
		return fn(ctx, items[i])
	})
}

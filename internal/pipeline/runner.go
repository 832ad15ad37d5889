package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/idlab-discover/instiscore/internal/ingest"
)

// RunAll scores independent batches concurrently, at most limit at a time
// (limit <= 0 means one per batch). Results keep the order of batches.
func (e *Engine) RunAll(ctx context.Context, batches []*ingest.Batch, limit int) ([]*Result, error) {
	results := make([]*Result, len(batches))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, b := range batches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Run(b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunFiles loads each batch file with p and scores it. The first load
// error cancels the batches that have not started yet.
func (e *Engine) RunFiles(ctx context.Context, p *ingest.Parser, paths []string, format string, limit int) ([]*Result, error) {
	results := make([]*Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := p.Load(path, format)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = e.Run(b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score batches: %w", err)
	}
	return results, nil
}

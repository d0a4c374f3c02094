package ingest

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/park285/chess-insight/internal/domain"
)

// Run classifies games with at most workers in flight and returns the
// results in input order. workers <= 0 means runtime.NumCPU().
func Run(ctx context.Context, c *Classifier, games []domain.Game, workers int) ([]domain.Classification, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]domain.Classification, len(games))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range games {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = c.Classify(gctx, games[i].Moves)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

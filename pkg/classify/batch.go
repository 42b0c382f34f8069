package classify

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pair is one (port, node) symbolic-name input.
type Pair struct {
	PortSymb *string
	NodeSymb *string
}

// ClassifyAll classifies pairs with at most workers goroutines (0 means no limit). The
// result at index i belongs to pairs[i]. Cancelling ctx stops the remaining rows and
// returns the context error.
func (c *Cascade) ClassifyAll(ctx context.Context, pairs []Pair, workers int) ([]Result, error) {
	results := make([]Result, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, p := range pairs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.Classify(p.PortSymb, p.NodeSymb)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

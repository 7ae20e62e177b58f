package gridastar

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Query is one start/goal pair for FindPaths.
type Query struct {
	Start Cell `json:"start"`
	Goal  Cell `json:"goal"`
}

// FindPaths solves every query against the same grid using up to
// WithWorkers goroutines. Routes come back in query order. The first
// invalid query, or a cancelled context, aborts the batch.
func FindPaths(ctx context.Context, grid *Grid, queries []Query, options ...Option) ([]Route, error) {
	searchOptions := applyOptions(options)
	routes := make([]Route, len(queries))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(searchOptions.NumberOfWorkers)
	for i, query := range queries {
		group.Go(func() error {
			route, err := Solve(groupCtx, grid, query.Start, query.Goal, options...)
			if err != nil {
				return err
			}
			routes[i] = route
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return routes, nil
}

package gridastar

import (
	"context"
	"fmt"
)

// Route is the outcome of one grid search.
type Route struct {
	Start    Cell   `json:"start"`
	Goal     Cell   `json:"goal"`
	Path     []Cell `json:"path"`
	Cost     int    `json:"cost"`
	Expanded int    `json:"expanded"`
	Found    bool   `json:"found"`
}

// FindPath returns the cheapest 8-connected path from start to goal,
// inclusive of both. An unreachable goal yields an empty path and a nil
// error. Endpoints outside the grid or on blocked cells are rejected with an
// error matching ErrInvalidInput.
func FindPath(grid *Grid, start, goal Cell) ([]Cell, error) {
	route, err := Solve(context.Background(), grid, start, goal)
	if err != nil {
		return nil, err
	}
	return route.Path, nil
}

// Solve is FindPath with cost and expansion statistics. Options other than
// WithMaxExpansions are ignored.
func Solve(ctx context.Context, grid *Grid, start, goal Cell, options ...Option) (Route, error) {
	if err := grid.checkEndpoints(start, goal); err != nil {
		return Route{}, err
	}

	result, err := Search[Cell](ctx, grid, start, goal, Octile, options...)
	if err != nil {
		return Route{}, err
	}
	route := Route{
		Start:    start,
		Goal:     goal,
		Path:     result.Path,
		Cost:     result.TotalCost,
		Expanded: result.ExpandedNodes,
		Found:    result.Found,
	}
	if !result.Found {
		route.Path = []Cell{}
	}
	return route, nil
}

func (g *Grid) checkEndpoints(start, goal Cell) error {
	if g == nil || g.size == 0 {
		return invalidInput("grid is empty")
	}
	for _, endpoint := range []struct {
		name string
		cell Cell
	}{{"start", start}, {"goal", goal}} {
		if !g.InBounds(endpoint.cell) {
			return invalidInput("%s %v outside %dx%d grid", endpoint.name, endpoint.cell, g.size, g.size)
		}
		if g.Blocked(endpoint.cell) {
			return fmt.Errorf("%w: %s %v", ErrBlockedEndpoint, endpoint.name, endpoint.cell)
		}
	}
	return nil
}

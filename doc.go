// Package gridastar finds least-cost paths on square occupancy grids with
// eight-directional movement.
//
// Orthogonal moves cost 10 and diagonal moves 14; the octile distance guides
// the search. Entry points:
//
//   - FindPath / Solve: one search on a Grid.
//   - FindPaths: many searches on one Grid, run concurrently.
//   - Search: the underlying A* over any Graph.
//   - Stepper: iterate the search one selection at a time to drive UIs or debugging tools.
//
// Expanded nodes are not closed; a node whose cost improves after expansion
// is queued again. Frontier ties on f are broken by insertion order, so
// results are deterministic.
package gridastar

package gridastar

import (
	"fmt"
	"strings"
)

// Cell is a grid coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Grid is a square occupancy grid. It is immutable once built, so a single
// Grid may be searched from many goroutines at once.
type Grid struct {
	size    int
	blocked []bool
}

// NewGrid builds a grid from rows of markers, where 0 is free and any other
// value is blocked. The input must be non-empty and square.
func NewGrid(rows [][]int) (*Grid, error) {
	if err := checkSquare(len(rows), func(r int) int { return len(rows[r]) }); err != nil {
		return nil, err
	}
	g := &Grid{size: len(rows), blocked: make([]bool, len(rows)*len(rows))}
	for r, row := range rows {
		for c, v := range row {
			g.blocked[r*g.size+c] = v != 0
		}
	}
	return g, nil
}

// NewGridFromBlocked builds a grid where true marks a blocked cell.
func NewGridFromBlocked(rows [][]bool) (*Grid, error) {
	if err := checkSquare(len(rows), func(r int) int { return len(rows[r]) }); err != nil {
		return nil, err
	}
	g := &Grid{size: len(rows), blocked: make([]bool, len(rows)*len(rows))}
	for r, row := range rows {
		copy(g.blocked[r*g.size:], row)
	}
	return g, nil
}

func checkSquare(n int, rowLen func(int) int) error {
	if n == 0 {
		return invalidInput("grid is empty")
	}
	for r := 0; r < n; r++ {
		if l := rowLen(r); l != n {
			return invalidInput("grid is not square: row %d has %d cells, want %d", r, l, n)
		}
	}
	return nil
}

// Size returns N for an N×N grid.
func (g *Grid) Size() int { return g.size }

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.size && c.Col >= 0 && c.Col < g.size
}

// Blocked reports whether c is impassable. Cells outside the grid are
// reported as blocked.
func (g *Grid) Blocked(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.blocked[c.Row*g.size+c.Col]
}

// Neighbors returns the free cells one move away from c, in the fixed
// offset order, with their step costs. Diagonal moves are not restricted
// by the orthogonal cells they pass between.
func (g *Grid) Neighbors(c Cell) []Neighbor[Cell] {
	out := make([]Neighbor[Cell], 0, len(neighborOffsets))
	for _, d := range neighborOffsets {
		next := Cell{Row: c.Row + d.Row, Col: c.Col + d.Col}
		if g.Blocked(next) {
			continue
		}
		out = append(out, Neighbor[Cell]{ID: next, Cost: offsetCost(d)})
	}
	return out
}

// Rows returns a copy of the grid as 0/1 markers.
func (g *Grid) Rows() [][]int {
	rows := make([][]int, g.size)
	for r := range rows {
		rows[r] = make([]int, g.size)
		for c := range rows[r] {
			if g.blocked[r*g.size+c] {
				rows[r][c] = 1
			}
		}
	}
	return rows
}

// String renders the grid in the format read by ParseGrid.
func (g *Grid) String() string {
	return g.Render(nil)
}

// Render draws the grid with path overlaid: S start, G goal, * interior
// waypoints, # blocked, . free.
func (g *Grid) Render(path []Cell) string {
	marks := make(map[Cell]byte, len(path))
	for i, c := range path {
		switch {
		case i == 0:
			marks[c] = 'S'
		case i == len(path)-1:
			marks[c] = 'G'
		default:
			marks[c] = '*'
		}
	}

	var b strings.Builder
	b.Grow(g.size * (g.size + 1))
	for r := 0; r < g.size; r++ {
		for c := 0; c < g.size; c++ {
			cell := Cell{Row: r, Col: c}
			switch m, ok := marks[cell]; {
			case ok:
				b.WriteByte(m)
			case g.blocked[r*g.size+c]:
				b.WriteByte('#')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

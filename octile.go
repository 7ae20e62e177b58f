package gridastar

import "fmt"

// Step costs: orthogonal 10, diagonal 14 (≈10√2).
const (
	CostStraight = 10
	CostDiagonal = 14
)

// neighborOffsets is the expansion order. It decides which of several
// equal-cost paths is returned, so it must stay fixed.
var neighborOffsets = [8]Cell{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

func offsetCost(d Cell) int {
	if d.Row != 0 && d.Col != 0 {
		return CostDiagonal
	}
	return CostStraight
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Octile is the octile distance between two cells. It never overestimates
// the cost of a path under the 10/14 move costs.
func Octile(from, to Cell) int {
	dr, dc := abs(from.Row-to.Row), abs(from.Col-to.Col)
	return CostStraight*max(dr, dc) + (CostDiagonal-CostStraight)*min(dr, dc)
}

// StepCost returns the cost of moving between two adjacent cells. ok is
// false if the cells are equal or not one move apart.
func StepCost(from, to Cell) (cost int, ok bool) {
	d := Cell{Row: to.Row - from.Row, Col: to.Col - from.Col}
	if d == (Cell{}) || abs(d.Row) > 1 || abs(d.Col) > 1 {
		return 0, false
	}
	return offsetCost(d), true
}

// PathCost sums the step costs along path.
func PathCost(path []Cell) (int, error) {
	total := 0
	for i := 1; i < len(path); i++ {
		cost, ok := StepCost(path[i-1], path[i])
		if !ok {
			return 0, fmt.Errorf("gridastar: %v and %v are not adjacent", path[i-1], path[i])
		}
		total += cost
	}
	return total, nil
}

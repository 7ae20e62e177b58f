package server

import (
	"math/rand"

	"github.com/pdrpinto/gridastar"
)

// randomWalls grows clustered walls by random walks. Cells in keep stay
// free.
func randomWalls(r *rand.Rand, size, clusters, steps int, density float64, keep ...gridastar.Cell) [][]bool {
	walls := make([][]bool, size)
	for i := range walls {
		walls[i] = make([]bool, size)
	}
	dirs := [4]gridastar.Cell{{Row: 1}, {Row: -1}, {Col: 1}, {Col: -1}}
	for c := 0; c < clusters; c++ {
		p := gridastar.Cell{Row: r.Intn(size), Col: r.Intn(size)}
		for s := 0; s < steps; s++ {
			if r.Float64() < density {
				walls[p.Row][p.Col] = true
			}
			d := dirs[r.Intn(len(dirs))]
			np := gridastar.Cell{Row: p.Row + d.Row, Col: p.Col + d.Col}
			if np.Row >= 0 && np.Row < size && np.Col >= 0 && np.Col < size {
				p = np
			}
		}
	}
	for _, k := range keep {
		walls[k.Row][k.Col] = false
	}
	return walls
}

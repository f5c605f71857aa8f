package cluster

import "math"

type cellKey struct {
	X, Y int
}

// grid - хеш-сетка по спроецированным координатам уровня.
// Размер ячейки равен радиусу кластеризации, поэтому соседей
// достаточно искать в 3x3 ячейках.
type grid struct {
	cellSize float64
	cells    map[cellKey][]int
}

func newGrid(nodes []node, cellSize float64) *grid {
	g := &grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int, len(nodes)),
	}
	for i := range nodes {
		k := g.key(nodes[i].x, nodes[i].y)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *grid) key(x, y float64) cellKey {
	return cellKey{
		X: int(math.Floor(x / g.cellSize)),
		Y: int(math.Floor(y / g.cellSize)),
	}
}

// within возвращает индексы узлов на расстоянии не больше r от (x, y)
func (g *grid) within(nodes []node, x, y, r float64) []int {
	center := g.key(x, y)
	r2 := r * r

	var out []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, i := range g.cells[cellKey{X: center.X + dx, Y: center.Y + dy}] {
				ddx := nodes[i].x - x
				ddy := nodes[i].y - y
				if ddx*ddx+ddy*ddy <= r2 {
					out = append(out, i)
				}
			}
		}
	}
	return out
}

package life

import (
	"fmt"
	"math/rand"
	"sort"
)

// Pattern is a set of live-cell offsets relative to a stamp origin.
type Pattern struct {
	Name  string
	Cells []Point
}

var gliderGunRows = []string{
	"0000000000000000000000001",
	"0000000000000000000000101",
	"000000000000110000001100000000000011",
	"000000000001000100001100000000000011",
	"1100000000100000100011",
	"1100000000100010110000101",
	"0000000000100000100000001",
	"0000000000010001",
	"00000000000011",
}

var patterns = map[string]Pattern{
	"glider": {Name: "glider", Cells: []Point{
		{0, 1}, {1, 2}, {2, 0}, {2, 1}, {2, 2},
	}},
	"block": {Name: "block", Cells: []Point{
		{0, 0}, {1, 0}, {0, 1}, {1, 1},
	}},
	"blinker": {Name: "blinker", Cells: []Point{
		{0, 1}, {1, 1}, {2, 1},
	}},
	"pulsar": {Name: "pulsar", Cells: []Point{
		{0, 2}, {0, 3}, {0, 4}, {0, 5}, {0, 6},
		{1, 1}, {1, 7},
		{2, 0}, {2, 8},
		{3, 1}, {3, 7},
		{4, 2}, {4, 3}, {4, 4}, {4, 5}, {4, 6},
		{5, 1}, {5, 7},
		{6, 0}, {6, 8},
		{7, 1}, {7, 7},
		{8, 2}, {8, 3}, {8, 4}, {8, 5}, {8, 6},
	}},
	"glider-gun": {Name: "glider-gun", Cells: rowsToPoints(gliderGunRows)},
}

// rowsToPoints maps row r, column c of a bitmap to the offset (r, c).
func rowsToPoints(rows []string) []Point {
	var out []Point
	for r, row := range rows {
		for c, ch := range row {
			if ch == '1' {
				out = append(out, Point{X: r, Y: c})
			}
		}
	}
	return out
}

func LookupPattern(name string) (Pattern, error) {
	p, ok := patterns[name]
	if !ok {
		return Pattern{}, fmt.Errorf("unknown pattern: %s", name)
	}
	return p, nil
}

func PatternNames() []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stamp sets the pattern's cells live with origin (x, y). Cells that fall off
// the grid are dropped. It returns the number of cells written.
func Stamp(g *Grid, p Pattern, x, y int) int {
	written := 0
	for _, c := range p.Cells {
		if g.Set(x+c.X, y+c.Y, 1) {
			written++
		}
	}
	return written
}

// FillRandom sets each cell live with the given probability.
func FillRandom(g *Grid, rng *rand.Rand, density float64) {
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			var v uint8
			if rng.Float64() < density {
				v = 1
			}
			g.cur[y*g.w+x] = v
		}
	}
}

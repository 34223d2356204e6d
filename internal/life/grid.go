// Package life implements a bounded Conway Game of Life grid.
package life

import (
	"errors"
	"fmt"
)

var ErrInvalidSize = errors.New("invalid grid size")

// Point is a cell coordinate: X is the column, Y the row.
type Point struct {
	X int
	Y int
}

// Grid is a fixed-size W×H cell matrix. Neighbours outside the grid are never
// counted; the edges do not wrap.
type Grid struct {
	w, h int
	cur  []uint8
	nxt  []uint8
}

func NewGrid(w, h int) (*Grid, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	return &Grid{
		w:   w,
		h:   h,
		cur: make([]uint8, w*h),
		nxt: make([]uint8, w*h),
	}, nil
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

// InBounds reports whether (x, y) lies in [0,W)×[0,H).
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h
}

// At returns the cell value, or 0 for coordinates off the grid.
func (g *Grid) At(x, y int) uint8 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.cur[y*g.w+x]
}

// Set stores v (any non-zero value is stored as 1). It reports false and
// leaves the grid untouched when (x, y) is off the grid.
func (g *Grid) Set(x, y int, v uint8) bool {
	if !g.InBounds(x, y) {
		return false
	}
	if v != 0 {
		v = 1
	}
	g.cur[y*g.w+x] = v
	return true
}

// Cells exposes the current state in row-major order. Callers must not
// modify it.
func (g *Grid) Cells() []uint8 { return g.cur }

func (g *Grid) Population() int {
	total := 0
	for _, c := range g.cur {
		total += int(c)
	}
	return total
}

func (g *Grid) LiveCells() []Point {
	out := make([]Point, 0, g.Population())
	for y := 0; y < g.h; y++ {
		row := g.cur[y*g.w : (y+1)*g.w]
		for x, c := range row {
			if c == 1 {
				out = append(out, Point{X: x, Y: y})
			}
		}
	}
	return out
}

func (g *Grid) Clear() {
	for i := range g.cur {
		g.cur[i] = 0
	}
}

func (g *Grid) Clone() *Grid {
	out := &Grid{
		w:   g.w,
		h:   g.h,
		cur: make([]uint8, len(g.cur)),
		nxt: make([]uint8, len(g.nxt)),
	}
	copy(out.cur, g.cur)
	return out
}

func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.w != other.w || g.h != other.h {
		return false
	}
	for i := range g.cur {
		if g.cur[i] != other.cur[i] {
			return false
		}
	}
	return true
}

// Neighbors counts the live cells among the eight neighbours of (x, y) that
// lie on the grid.
func (g *Grid) Neighbors(x, y int) int {
	count := 0
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= g.h {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx := x + dx
			if nx < 0 || nx >= g.w {
				continue
			}
			count += int(g.cur[ny*g.w+nx])
		}
	}
	return count
}

// Step advances the grid by one generation. Every next-state value is
// computed from the current state before any cell is replaced.
func (g *Grid) Step() {
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			idx := y*g.w + x
			g.nxt[idx] = nextState(g.cur[idx] == 1, g.Neighbors(x, y))
		}
	}
	g.cur, g.nxt = g.nxt, g.cur
}

func nextState(alive bool, neighbors int) uint8 {
	if (alive && (neighbors == 2 || neighbors == 3)) || (!alive && neighbors == 3) {
		return 1
	}
	return 0
}

package genotype

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var ErrShape = errors.New("genome shape mismatch")

// Genome is a square L×L binary matrix. Cells[i][j] is seeded at grid
// column x0+i, row y0+j.
type Genome struct {
	Side  int
	Cells [][]uint8
}

func New(side int) (Genome, error) {
	if side <= 0 {
		return Genome{}, fmt.Errorf("%w: side must be > 0, got %d", ErrShape, side)
	}
	cells := make([][]uint8, side)
	for i := range cells {
		cells[i] = make([]uint8, side)
	}
	return Genome{Side: side, Cells: cells}, nil
}

// Random draws every cell independently with probability 1/2. A nil rng
// falls back to a time-seeded source.
func Random(rng *rand.Rand, side int) (Genome, error) {
	g, err := New(side)
	if err != nil {
		return Genome{}, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for i := range g.Cells {
		for j := range g.Cells[i] {
			g.Cells[i][j] = uint8(rng.Intn(2))
		}
	}
	return g, nil
}

// FromRows builds a genome from a dumped matrix.
func FromRows(rows [][]int) (Genome, error) {
	g, err := New(len(rows))
	if err != nil {
		return Genome{}, err
	}
	for i, row := range rows {
		if len(row) != g.Side {
			return Genome{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrShape, i, len(row), g.Side)
		}
		for j, v := range row {
			if v != 0 && v != 1 {
				return Genome{}, fmt.Errorf("%w: cell (%d,%d) = %d is not binary", ErrShape, i, j, v)
			}
			g.Cells[i][j] = uint8(v)
		}
	}
	return g, nil
}

func (g Genome) Clone() Genome {
	out := Genome{Side: g.Side, Cells: make([][]uint8, len(g.Cells))}
	for i, row := range g.Cells {
		out.Cells[i] = append([]uint8(nil), row...)
	}
	return out
}

func (g Genome) Rows() [][]int {
	out := make([][]int, len(g.Cells))
	for i, row := range g.Cells {
		out[i] = make([]int, len(row))
		for j, v := range row {
			out[i][j] = int(v)
		}
	}
	return out
}

func (g Genome) Validate() error {
	if g.Side <= 0 || len(g.Cells) != g.Side {
		return fmt.Errorf("%w: side=%d rows=%d", ErrShape, g.Side, len(g.Cells))
	}
	for i, row := range g.Cells {
		if len(row) != g.Side {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrShape, i, len(row), g.Side)
		}
		for j, v := range row {
			if v > 1 {
				return fmt.Errorf("%w: cell (%d,%d) = %d is not binary", ErrShape, i, j, v)
			}
		}
	}
	return nil
}

func (g Genome) Equal(other Genome) bool {
	if g.Side != other.Side || len(g.Cells) != len(other.Cells) {
		return false
	}
	for i := range g.Cells {
		if len(g.Cells[i]) != len(other.Cells[i]) {
			return false
		}
		for j := range g.Cells[i] {
			if g.Cells[i][j] != other.Cells[i][j] {
				return false
			}
		}
	}
	return true
}

func (g Genome) LiveCount() int {
	total := 0
	for _, row := range g.Cells {
		for _, v := range row {
			total += int(v)
		}
	}
	return total
}

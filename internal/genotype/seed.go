package genotype

import (
	"fmt"

	"lifeevo/internal/life"
)

// Placement decides where a genome of the given side lands on a W×H grid.
type Placement interface {
	Name() string
	Offset(side, w, h int) (x0, y0 int)
}

// LeftCentered places the pattern Left columns from the left edge and
// vertically centred.
type LeftCentered struct {
	Left int
}

func (LeftCentered) Name() string { return "left_centered" }

func (p LeftCentered) Offset(side, _, h int) (int, int) {
	return p.Left, (h - side) / 2
}

// Centered places the pattern in the middle of the grid.
type Centered struct{}

func (Centered) Name() string { return "centered" }

func (Centered) Offset(side, w, h int) (int, int) {
	return (w - side) / 2, (h - side) / 2
}

// DefaultPlacement is ten columns in, vertically centred.
func DefaultPlacement() Placement {
	return LeftCentered{Left: 10}
}

func PlacementFromName(name string) (Placement, error) {
	switch name {
	case "", "left_centered":
		return DefaultPlacement(), nil
	case "centered":
		return Centered{}, nil
	default:
		return nil, fmt.Errorf("unsupported placement: %s", name)
	}
}

// Seed copies the genome onto the grid at the placement offset. Cells whose
// destination lies outside the grid are skipped. It returns the number of
// cells that landed on the grid.
func Seed(g Genome, grid *life.Grid, placement Placement) int {
	if placement == nil {
		placement = DefaultPlacement()
	}
	x0, y0 := placement.Offset(g.Side, grid.Width(), grid.Height())
	placed := 0
	for i, row := range g.Cells {
		for j, v := range row {
			if grid.Set(x0+i, y0+j, v) {
				placed++
			}
		}
	}
	return placed
}

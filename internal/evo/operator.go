package evo

import (
	"fmt"
	"math/rand"

	"lifeevo/internal/genotype"
)

// CrossoverOperator combines two parent genomes into a newly allocated child.
type CrossoverOperator interface {
	Name() string
	Cross(a, b genotype.Genome) (genotype.Genome, error)
}

// MutationOperator returns a mutated copy of the genome and the number of
// cells it flipped. The input is never modified.
type MutationOperator interface {
	Name() string
	Mutate(rng *rand.Rand, g genotype.Genome) (genotype.Genome, int)
}

// RowSplitCrossover takes rows [0, L/2) from a and the remaining rows from b.
type RowSplitCrossover struct{}

func (RowSplitCrossover) Name() string { return "row_split" }

func (RowSplitCrossover) Cross(a, b genotype.Genome) (genotype.Genome, error) {
	if err := sameShape(a, b); err != nil {
		return genotype.Genome{}, err
	}
	child, err := genotype.New(a.Side)
	if err != nil {
		return genotype.Genome{}, err
	}
	half := a.Side / 2
	for i := 0; i < a.Side; i++ {
		src := b.Cells[i]
		if i < half {
			src = a.Cells[i]
		}
		copy(child.Cells[i], src)
	}
	return child, nil
}

// ColumnSplitCrossover takes columns [0, L/2) from a and the rest from b.
type ColumnSplitCrossover struct{}

func (ColumnSplitCrossover) Name() string { return "column_split" }

func (ColumnSplitCrossover) Cross(a, b genotype.Genome) (genotype.Genome, error) {
	if err := sameShape(a, b); err != nil {
		return genotype.Genome{}, err
	}
	child, err := genotype.New(a.Side)
	if err != nil {
		return genotype.Genome{}, err
	}
	half := a.Side / 2
	for i := 0; i < a.Side; i++ {
		copy(child.Cells[i][:half], a.Cells[i][:half])
		copy(child.Cells[i][half:], b.Cells[i][half:])
	}
	return child, nil
}

func sameShape(a, b genotype.Genome) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if a.Side != b.Side {
		return fmt.Errorf("%w: parents have sides %d and %d", genotype.ErrShape, a.Side, b.Side)
	}
	return nil
}

const (
	DefaultMutationTrials = 15
	DefaultMutationRate   = 0.10
)

// PointFlipMutation runs Trials independent trials; each flips one uniformly
// chosen cell with probability Rate. The same cell may flip more than once.
type PointFlipMutation struct {
	Trials int
	Rate   float64
}

func DefaultMutation() PointFlipMutation {
	return PointFlipMutation{Trials: DefaultMutationTrials, Rate: DefaultMutationRate}
}

func (PointFlipMutation) Name() string { return "point_flip" }

func (m PointFlipMutation) Mutate(rng *rand.Rand, g genotype.Genome) (genotype.Genome, int) {
	out := g.Clone()
	if out.Side == 0 {
		return out, 0
	}
	flips := 0
	for trial := 0; trial < m.Trials; trial++ {
		if rng.Float64() >= m.Rate {
			continue
		}
		row := rng.Intn(out.Side)
		col := rng.Intn(out.Side)
		out.Cells[row][col] ^= 1
		flips++
	}
	return out, flips
}

// NoMutation copies the genome unchanged.
type NoMutation struct{}

func (NoMutation) Name() string { return "none" }

func (NoMutation) Mutate(_ *rand.Rand, g genotype.Genome) (genotype.Genome, int) {
	return g.Clone(), 0
}

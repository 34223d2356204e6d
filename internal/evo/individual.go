package evo

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"

	"lifeevo/internal/genotype"
	"lifeevo/internal/life"
	"lifeevo/internal/model"
	"lifeevo/internal/scape"
)

// Individual pairs a genome with the grid it was seeded into. The grid is
// owned exclusively by the individual; parents are referenced by id only.
type Individual struct {
	ID        string
	Genome    genotype.Genome
	Grid      *life.Grid
	Fitness   float64
	Parents   []string
	Evaluated bool
	Trace     scape.Trace
}

// NewIndividual allocates a fresh w×h grid and seeds the genome into it.
func NewIndividual(id string, genome genotype.Genome, w, h int, placement genotype.Placement, parents []string) (*Individual, error) {
	if err := genome.Validate(); err != nil {
		return nil, err
	}
	if len(parents) != 0 && len(parents) != 2 {
		return nil, fmt.Errorf("individual %s: expected 0 or 2 parents, got %d", id, len(parents))
	}
	grid, err := life.NewGrid(w, h)
	if err != nil {
		return nil, err
	}
	genotype.Seed(genome, grid, placement)
	return &Individual{
		ID:      id,
		Genome:  genome,
		Grid:    grid,
		Parents: copyParents(parents),
	}, nil
}

func (ind *Individual) Dump() model.IndividualDump {
	return model.IndividualDump{
		ID:      ind.ID,
		DNA:     ind.Genome.Rows(),
		Score:   ind.Fitness,
		Parents: copyParents(ind.Parents),
	}
}

// copyParents never returns nil so founders encode as an empty list.
func copyParents(parents []string) []string {
	out := make([]string, len(parents))
	copy(out, parents)
	return out
}

// NewID returns a random UUIDv4 rendered as 32 hex characters. A nil source
// uses crypto randomness.
func NewID(src io.Reader) (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	if src == nil {
		id, err = uuid.NewRandom()
	} else {
		id, err = uuid.NewRandomFromReader(src)
	}
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return hex.EncodeToString(id[:]), nil
}

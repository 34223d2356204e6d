package evo

import (
	"math"
	"sort"
)

const (
	DefaultBreedFraction    = 0.5
	DefaultSurvivalFraction = 0.75
)

// Pair is one breeding couple; A contributes the leading half of the child.
type Pair struct {
	A *Individual
	B *Individual
}

// Rank sorts the population by fitness, best first. The relative order of
// equal scores is not part of the contract.
func Rank(population []*Individual) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Fitness > population[j].Fitness
	})
}

// prefix returns ranked[:floor(len*fraction)].
func prefix(ranked []*Individual, fraction float64) []*Individual {
	n := int(math.Floor(float64(len(ranked)) * fraction))
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// EligibleParents is the breeding pool: the leading fraction of a ranked
// population.
func EligibleParents(ranked []*Individual, fraction float64) []*Individual {
	return prefix(ranked, fraction)
}

// Survivors is the part of a ranked population carried into the next
// generation without being resimulated.
func Survivors(ranked []*Individual, fraction float64) []*Individual {
	return prefix(ranked, fraction)
}

// PairParents couples eligible[0] with eligible[1], eligible[2] with
// eligible[3], and so on. A trailing unpaired individual is left out, and
// fewer than two eligible individuals yield no pairs.
func PairParents(eligible []*Individual) []Pair {
	if len(eligible) < 2 {
		return nil
	}
	pairs := make([]Pair, 0, len(eligible)/2)
	for i := 0; i+1 < len(eligible); i += 2 {
		pairs = append(pairs, Pair{A: eligible[i], B: eligible[i+1]})
	}
	return pairs
}

// Replace builds the next population from the survivors of the ranked
// population followed by the offspring. The result is a new slice.
func Replace(ranked []*Individual, offspring []*Individual, survivalFraction float64) []*Individual {
	survivors := Survivors(ranked, survivalFraction)
	next := make([]*Individual, 0, len(survivors)+len(offspring))
	next = append(next, survivors...)
	next = append(next, offspring...)
	return next
}

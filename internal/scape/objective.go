package scape

import (
	"fmt"
	"math"
	"sort"

	"lifeevo/internal/life"
	"lifeevo/internal/objectiveid"
)

// Objective scores a grid state.
type Objective interface {
	Name() string
	Score(grid *life.Grid) float64
}

// PopulationObjective scores the number of live cells.
type PopulationObjective struct{}

func (PopulationObjective) Name() string { return "population" }

func (PopulationObjective) Score(grid *life.Grid) float64 {
	return float64(grid.Population())
}

// DisplacementObjective rewards patterns whose live-cell centroid sits close
// to a target point: 1/(1+d), or 0 when nothing is alive.
type DisplacementObjective struct {
	TargetX float64
	TargetY float64
}

// NewDisplacementObjective targets the vertical midpoint of the right edge.
func NewDisplacementObjective(w, h int) DisplacementObjective {
	return DisplacementObjective{TargetX: float64(w - 1), TargetY: float64(h / 2)}
}

func (DisplacementObjective) Name() string { return "displacement" }

func (o DisplacementObjective) Score(grid *life.Grid) float64 {
	cx, cy, ok := Centroid(grid)
	if !ok {
		return 0
	}
	d := math.Hypot(cx-o.TargetX, cy-o.TargetY)
	return 1 / (1 + d)
}

// Centroid returns the mean coordinate of the live cells.
func Centroid(grid *life.Grid) (float64, float64, bool) {
	var sumX, sumY, n int
	for _, p := range grid.LiveCells() {
		sumX += p.X
		sumY += p.Y
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return float64(sumX) / float64(n), float64(sumY) / float64(n), true
}

type objectiveFactory func(w, h int) Objective

var objectives = map[string]objectiveFactory{
	objectiveid.Population: func(int, int) Objective { return PopulationObjective{} },
	objectiveid.Displacement: func(w, h int) Objective {
		return NewDisplacementObjective(w, h)
	},
}

// ResolveObjective builds the objective for a grid of w by h cells. Names are
// canonicalized first, so aliases such as "live_count" or "centroid" work.
func ResolveObjective(name string, w, h int) (Objective, error) {
	key := objectiveid.Normalize(name)
	if key == "" {
		key = objectiveid.Population
	}
	factory, ok := objectives[key]
	if !ok {
		return nil, fmt.Errorf("unsupported objective: %s", name)
	}
	return factory(w, h), nil
}

func ObjectiveNames() []string {
	names := make([]string, 0, len(objectives))
	for name := range objectives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

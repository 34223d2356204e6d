package scape

import (
	"context"

	"lifeevo/internal/life"
)

type Fitness float64

type StopReason string

const (
	StopExhausted  StopReason = "exhausted"
	StopDeath      StopReason = "death"
	StopStagnation StopReason = "stagnation"
)

// Trace describes how a single evaluation finished.
type Trace struct {
	Steps      int        `json:"steps"`
	Stop       StopReason `json:"stop"`
	Population int        `json:"population"`
}

// Scape evaluates a seeded grid and returns its fitness. The grid is owned by
// the caller for the duration of the call and is left in its terminal state.
type Scape interface {
	Name() string
	Evaluate(ctx context.Context, grid *life.Grid) (Fitness, Trace, error)
}

package scape

import (
	"context"
	"fmt"

	"lifeevo/internal/life"
)

const DefaultCheckInterval = 10

// Simulator runs a grid for at most MaxSteps generations. After every
// CheckInterval steps it stops early when the grid is dead, or when the
// objective matches the value seen at the previous checkpoint.
type Simulator struct {
	Objective     Objective
	MaxSteps      int
	CheckInterval int
}

func NewSimulator(objective Objective, maxSteps, checkInterval int) (*Simulator, error) {
	if objective == nil {
		return nil, fmt.Errorf("objective is required")
	}
	if maxSteps < 0 {
		return nil, fmt.Errorf("max steps must be >= 0, got %d", maxSteps)
	}
	if checkInterval <= 0 {
		checkInterval = DefaultCheckInterval
	}
	return &Simulator{Objective: objective, MaxSteps: maxSteps, CheckInterval: checkInterval}, nil
}

func (s *Simulator) Name() string {
	return "life:" + s.Objective.Name()
}

func (s *Simulator) Evaluate(ctx context.Context, grid *life.Grid) (Fitness, Trace, error) {
	session, err := s.Start(grid)
	if err != nil {
		return 0, Trace{}, err
	}
	for {
		more := session.Step()
		if session.AtCheckpoint() {
			if err := ctx.Err(); err != nil {
				return 0, session.Trace(), err
			}
		}
		if !more {
			break
		}
	}
	return session.Fitness(), session.Trace(), nil
}

// Session steps one grid under a Simulator's stopping rules, one generation
// per Step call.
type Session struct {
	sim      *Simulator
	grid     *life.Grid
	interval int

	trace        Trace
	previous     float64
	havePrevious bool
	checkpoint   bool
	done         bool
}

func (s *Simulator) Start(grid *life.Grid) (*Session, error) {
	if grid == nil {
		return nil, fmt.Errorf("grid is required")
	}
	interval := s.CheckInterval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Session{
		sim:      s,
		grid:     grid,
		interval: interval,
		trace:    Trace{Stop: StopExhausted},
		done:     s.MaxSteps <= 0,
	}, nil
}

// Step advances the grid by one generation and reports whether another
// step may follow. It is a no-op once the session has stopped.
func (r *Session) Step() bool {
	r.checkpoint = false
	if r.done {
		return false
	}
	r.grid.Step()
	r.trace.Steps++
	if r.trace.Steps%r.interval == 0 {
		r.checkpoint = true
		if r.grid.Population() == 0 {
			r.trace.Stop = StopDeath
			r.done = true
			return false
		}
		current := r.sim.Objective.Score(r.grid)
		if r.havePrevious && current == r.previous {
			r.trace.Stop = StopStagnation
			r.done = true
			return false
		}
		r.previous = current
		r.havePrevious = true
	}
	if r.trace.Steps >= r.sim.MaxSteps {
		r.done = true
	}
	return !r.done
}

// AtCheckpoint reports whether the last Step landed on a check interval.
func (r *Session) AtCheckpoint() bool { return r.checkpoint }

func (r *Session) Done() bool { return r.done }

func (r *Session) Trace() Trace {
	t := r.trace
	t.Population = r.grid.Population()
	return t
}

func (r *Session) Fitness() Fitness {
	return Fitness(r.sim.Objective.Score(r.grid))
}

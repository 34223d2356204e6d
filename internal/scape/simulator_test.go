package scape

import (
	"context"
	"errors"
	"testing"

	"lifeevo/internal/life"
)

func gridWith(t *testing.T, w, h int, pattern string, x, y int) *life.Grid {
	t.Helper()
	g, err := life.NewGrid(w, h)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	if pattern != "" {
		p, err := life.LookupPattern(pattern)
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		life.Stamp(g, p, x, y)
	}
	return g
}

func TestSimulatorStopsOnDeath(t *testing.T) {
	g := gridWith(t, 10, 10, "", 0, 0)
	g.Set(4, 4, 1)
	sim, err := NewSimulator(PopulationObjective{}, 100, 10)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	fitness, trace, err := sim.Evaluate(context.Background(), g)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if fitness != 0 || trace.Stop != StopDeath || trace.Steps != 10 {
		t.Fatalf("unexpected result: fitness=%v trace=%+v", fitness, trace)
	}
}

func TestSimulatorStopsOnStagnation(t *testing.T) {
	g := gridWith(t, 10, 10, "block", 4, 4)
	sim, _ := NewSimulator(PopulationObjective{}, 500, 10)

	fitness, trace, err := sim.Evaluate(context.Background(), g)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if fitness != 4 || trace.Stop != StopStagnation || trace.Steps != 20 {
		t.Fatalf("unexpected result: fitness=%v trace=%+v", fitness, trace)
	}
}

func TestSimulatorOscillatorAliasesAsStagnant(t *testing.T) {
	// The blinker has period 2, which divides the check interval.
	g := gridWith(t, 10, 10, "blinker", 3, 3)
	sim, _ := NewSimulator(PopulationObjective{}, 500, 10)

	_, trace, err := sim.Evaluate(context.Background(), g)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if trace.Stop != StopStagnation || trace.Steps != 20 {
		t.Fatalf("unexpected trace: %+v", trace)
	}
}

func TestSimulatorEnforcesStepCap(t *testing.T) {
	g := gridWith(t, 60, 60, "glider", 2, 2)
	sim, _ := NewSimulator(NewDisplacementObjective(60, 60), 25, 10)

	fitness, trace, err := sim.Evaluate(context.Background(), g)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if trace.Stop != StopExhausted || trace.Steps != 25 {
		t.Fatalf("unexpected trace: %+v", trace)
	}
	if fitness <= 0 || fitness > 1 {
		t.Fatalf("displacement fitness out of range: %v", fitness)
	}
	if trace.Population != 5 {
		t.Fatalf("expected glider to remain intact, population=%d", trace.Population)
	}
}

func TestSimulatorZeroStepsScoresInitialState(t *testing.T) {
	g := gridWith(t, 10, 10, "glider", 2, 2)
	sim, _ := NewSimulator(PopulationObjective{}, 0, 10)

	fitness, trace, err := sim.Evaluate(context.Background(), g)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if fitness != 5 || trace.Steps != 0 || trace.Stop != StopExhausted {
		t.Fatalf("unexpected result: fitness=%v trace=%+v", fitness, trace)
	}
}

func TestSimulatorEmptyGridScoresZero(t *testing.T) {
	g := gridWith(t, 10, 10, "", 0, 0)
	sim, _ := NewSimulator(NewDisplacementObjective(10, 10), 50, 10)
	fitness, trace, err := sim.Evaluate(context.Background(), g)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if fitness != 0 || trace.Stop != StopDeath {
		t.Fatalf("unexpected result: fitness=%v trace=%+v", fitness, trace)
	}
}

func TestSimulatorHonorsCancellation(t *testing.T) {
	g := gridWith(t, 20, 20, "glider", 2, 2)
	sim, _ := NewSimulator(PopulationObjective{}, 100, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := sim.Evaluate(ctx, g); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewSimulatorValidation(t *testing.T) {
	if _, err := NewSimulator(nil, 10, 10); err == nil {
		t.Fatal("expected missing objective error")
	}
	if _, err := NewSimulator(PopulationObjective{}, -1, 10); err == nil {
		t.Fatal("expected negative step error")
	}
	sim, err := NewSimulator(PopulationObjective{}, 10, 0)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if sim.CheckInterval != DefaultCheckInterval {
		t.Fatalf("expected default check interval, got %d", sim.CheckInterval)
	}
	if sim.Name() != "life:population" {
		t.Fatalf("unexpected name: %s", sim.Name())
	}
}

func TestSessionMatchesEvaluate(t *testing.T) {
	sim, _ := NewSimulator(PopulationObjective{}, 300, 10)
	for _, pattern := range []string{"glider", "block", "blinker", "pulsar", "glider-gun"} {
		scored := gridWith(t, 60, 50, pattern, 5, 5)
		stepped := scored.Clone()

		fitness, want, err := sim.Evaluate(context.Background(), scored)
		if err != nil {
			t.Fatalf("%s: evaluate: %v", pattern, err)
		}
		session, err := sim.Start(stepped)
		if err != nil {
			t.Fatalf("%s: start: %v", pattern, err)
		}
		calls := 0
		for session.Step() {
			calls++
		}
		if session.Step() || !session.Done() {
			t.Fatalf("%s: session kept stepping after stopping", pattern)
		}
		if got := session.Trace(); got != want || session.Fitness() != fitness {
			t.Fatalf("%s: session=%+v/%v evaluate=%+v/%v", pattern, got, session.Fitness(), want, fitness)
		}
		if calls+1 != want.Steps || !stepped.Equal(scored) {
			t.Fatalf("%s: calls=%d steps=%d grids equal=%v", pattern, calls, want.Steps, stepped.Equal(scored))
		}
	}
}

func TestSessionZeroSteps(t *testing.T) {
	g := gridWith(t, 10, 10, "glider", 1, 1)
	sim, _ := NewSimulator(PopulationObjective{}, 0, 10)
	session, err := sim.Start(g)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.Step() || session.Trace().Steps != 0 || session.Trace().Population != 5 {
		t.Fatalf("unexpected zero-step session: %+v", session.Trace())
	}
	if _, err := sim.Start(nil); err == nil {
		t.Fatal("expected missing grid error")
	}
}

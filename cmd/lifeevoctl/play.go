package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"lifeevo/internal/life"
	"lifeevo/internal/render"
	"lifeevo/internal/scape"
	"lifeevo/pkg/lifeevo"
)

// stepper advances a free-running grid one generation per call until
// maxSteps is reached or the grid dies out.
func stepper(grid *life.Grid, maxSteps int) (advance func() (bool, error), steps func() int) {
	n := 0
	advance = func() (bool, error) {
		if n >= maxSteps || grid.Population() == 0 {
			return false, nil
		}
		grid.Step()
		n++
		return n < maxSteps && grid.Population() > 0, nil
	}
	return advance, func() int { return n }
}

func runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	pattern := fs.String("pattern", "glider", "pattern to seed: random or a named pattern")
	width := fs.Int("width", 250, "grid width")
	height := fs.Int("height", 200, "grid height")
	x := fs.Int("x", 1, "pattern origin column")
	y := fs.Int("y", 1, "pattern origin row")
	steps := fs.Int("steps", 500, "generations to run")
	density := fs.Float64("density", 0.3, "live cell probability for -pattern random")
	seed := fs.Int64("seed", 0, "rng seed for -pattern random (0 picks one from the clock)")
	display := fs.Bool("display", false, "show the grid in a window")
	cellSize := fs.Int("cell-size", render.DefaultCellSize, "window pixels per cell")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps <= 0 {
		return errors.New("steps must be > 0")
	}
	if *density < 0 || *density > 1 {
		return errors.New("density must be in [0, 1]")
	}
	if *display && !displaySupported {
		return errNoDisplay
	}

	grid, err := life.NewGrid(*width, *height)
	if err != nil {
		return err
	}
	if *pattern == "random" {
		s := *seed
		if s == 0 {
			s = time.Now().UnixNano()
		}
		life.FillRandom(grid, rand.New(rand.NewSource(s)), *density)
	} else {
		p, err := life.LookupPattern(*pattern)
		if err != nil {
			return err
		}
		life.Stamp(grid, p, *x, *y)
	}
	initial := grid.Population()

	advance, count := stepper(grid, *steps)
	if *display {
		if err := showGrid(grid, advance, "lifeevo "+*pattern, *cellSize); err != nil {
			return err
		}
	} else {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			more, err := advance()
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
	}

	fmt.Printf("play pattern=%s width=%d height=%d steps=%d initial=%d population=%d\n",
		*pattern, *width, *height, count(), initial, grid.Population())
	if cx, cy, ok := scape.Centroid(grid); ok {
		fmt.Printf("centroid=%.3f,%.3f\n", cx, cy)
	}
	return nil
}

func runReplay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "replay the most recent run from the run index")
	generation := fs.Int("generation", 0, "recorded generation whose champion to replay (0 uses the last)")
	display := fs.Bool("display", false, "show the champion in a window")
	cellSize := fs.Int("cell-size", render.DefaultCellSize, "window pixels per cell")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("replay requires --run-id or --latest")
	}
	if *generation < 0 {
		return errors.New("generation must be >= 0")
	}
	if *display && !displaySupported {
		return errNoDisplay
	}
	opts, err := cf.options()
	if err != nil {
		return err
	}
	client, done, err := openClient(opts)
	if err != nil {
		return err
	}
	defer done()

	req := lifeevo.ReplayRequest{RunID: *runID, Latest: *latest, Generation: *generation}
	if *display {
		champion, err := client.Champion(ctx, req)
		if err != nil {
			return err
		}
		return displayChampion(champion, *cellSize)
	}

	out, err := client.Replay(ctx, req)
	if err != nil {
		return err
	}
	ch := out.Champion
	fmt.Printf("replay run_id=%s generation=%d best_id=%s recorded=%.6f fitness=%.6f\n",
		ch.Run.RunID, ch.Generation, ch.Best.ID, ch.Best.Score, out.Fitness)
	fmt.Printf("steps=%d stop=%s population=%d\n", out.Trace.Steps, out.Trace.Stop, out.Trace.Population)
	return nil
}

// championStepper seeds the champion on a fresh grid and steps it under the
// run's simulator, so playback stops where scoring stopped.
func championStepper(ch lifeevo.Champion) (*life.Grid, *scape.Session, error) {
	grid, err := ch.Seed(nil)
	if err != nil {
		return nil, nil, err
	}
	sim, err := ch.Simulator()
	if err != nil {
		return nil, nil, err
	}
	session, err := sim.Start(grid)
	if err != nil {
		return nil, nil, err
	}
	return grid, session, nil
}

func displayChampion(ch lifeevo.Champion, cellSize int) error {
	grid, session, err := championStepper(ch)
	if err != nil {
		return err
	}
	advance := func() (bool, error) { return session.Step(), nil }
	title := fmt.Sprintf("lifeevo %s generation %d score %.0f", ch.Best.ID, ch.Generation, ch.Best.Score)
	return showGrid(grid, advance, title, cellSize)
}

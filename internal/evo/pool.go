package evo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lifeevo/internal/scape"
)

const DefaultWorkers = 8

// Pool runs scape evaluations for independent individuals on a fixed number
// of workers.
type Pool struct {
	Workers int
}

type evaluation struct {
	idx     int
	fitness scape.Fitness
	trace   scape.Trace
}

// Evaluate simulates every individual and blocks until all of them are done.
// The first failure cancels the outstanding work and is returned; in that
// case no individual is updated.
func (p Pool) Evaluate(ctx context.Context, sc scape.Scape, individuals []*Individual) error {
	if sc == nil {
		return fmt.Errorf("scape is required")
	}
	if len(individuals) == 0 {
		return nil
	}

	workerCount := p.Workers
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(individuals) {
		workerCount = len(individuals)
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	results := make(chan evaluation, len(individuals))

	g.Go(func() error {
		defer close(jobs)
		for i := range individuals {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workerCount; w++ {
		g.Go(func() error {
			for idx := range jobs {
				ind := individuals[idx]
				fitness, trace, err := evaluateOne(gctx, sc, ind)
				if err != nil {
					return fmt.Errorf("evaluate individual %s: %w", ind.ID, err)
				}
				results <- evaluation{idx: idx, fitness: fitness, trace: trace}
			}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	if err != nil {
		return err
	}

	ordered := make([]*evaluation, len(individuals))
	for res := range results {
		ordered[res.idx] = &res
	}
	for i, res := range ordered {
		if res == nil {
			return fmt.Errorf("missing evaluation for individual %s", individuals[i].ID)
		}
		individuals[i].Fitness = float64(res.fitness)
		individuals[i].Trace = res.trace
		individuals[i].Evaluated = true
	}
	return nil
}

func evaluateOne(ctx context.Context, sc scape.Scape, ind *Individual) (fitness scape.Fitness, trace scape.Trace, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simulation panic: %v", r)
		}
	}()
	if ind.Grid == nil {
		return 0, scape.Trace{}, fmt.Errorf("individual has no grid")
	}
	return sc.Evaluate(ctx, ind.Grid)
}

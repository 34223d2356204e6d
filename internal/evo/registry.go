package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

// MutationFactory builds a mutation operator from the run's trial count and
// per-trial rate.
type MutationFactory func(trials int, rate float64) MutationOperator

var operatorRegistry = struct {
	mu        sync.RWMutex
	crossover map[string]CrossoverOperator
	mutation  map[string]MutationFactory
}{
	crossover: map[string]CrossoverOperator{
		RowSplitCrossover{}.Name():    RowSplitCrossover{},
		ColumnSplitCrossover{}.Name(): ColumnSplitCrossover{},
	},
	mutation: map[string]MutationFactory{
		PointFlipMutation{}.Name(): func(trials int, rate float64) MutationOperator {
			return PointFlipMutation{Trials: trials, Rate: rate}
		},
		NoMutation{}.Name(): func(int, float64) MutationOperator { return NoMutation{} },
	},
}

func RegisterCrossover(op CrossoverOperator) error {
	if op == nil {
		return errors.New("operator is required")
	}
	name := op.Name()
	if name == "" {
		return errors.New("operator name is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	if _, exists := operatorRegistry.crossover[name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, name)
	}
	operatorRegistry.crossover[name] = op
	return nil
}

func RegisterMutation(name string, factory MutationFactory) error {
	if name == "" {
		return errors.New("operator name is required")
	}
	if factory == nil {
		return errors.New("mutation factory is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	if _, exists := operatorRegistry.mutation[name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, name)
	}
	operatorRegistry.mutation[name] = factory
	return nil
}

func ResolveCrossover(name string) (CrossoverOperator, error) {
	if name == "" {
		name = RowSplitCrossover{}.Name()
	}
	operatorRegistry.mu.RLock()
	op, ok := operatorRegistry.crossover[name]
	operatorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: crossover %s", ErrOperatorNotFound, name)
	}
	return op, nil
}

func ResolveMutation(name string, trials int, rate float64) (MutationOperator, error) {
	if name == "" {
		name = PointFlipMutation{}.Name()
	}
	if trials < 0 {
		return nil, fmt.Errorf("mutation trials must be >= 0, got %d", trials)
	}
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1], got %v", rate)
	}
	operatorRegistry.mu.RLock()
	factory, ok := operatorRegistry.mutation[name]
	operatorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: mutation %s", ErrOperatorNotFound, name)
	}
	return factory(trials, rate), nil
}

func ListCrossovers() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()
	names := make([]string, 0, len(operatorRegistry.crossover))
	for name := range operatorRegistry.crossover {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListMutations() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()
	names := make([]string, 0, len(operatorRegistry.mutation))
	for name := range operatorRegistry.mutation {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

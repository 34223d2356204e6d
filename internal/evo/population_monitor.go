package evo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"lifeevo/internal/genotype"
	"lifeevo/internal/model"
	"lifeevo/internal/scape"
)

var ErrInvalidConfig = errors.New("invalid evolution config")

// Recorder receives the summary of every ranked generation. Implementations
// persist or publish it; they never affect simulation state.
type Recorder interface {
	RecordGeneration(ctx context.Context, run model.RunRecord, summary model.GenerationSummary) error
}

type TerminalReason string

const (
	TerminalCompleted         TerminalReason = "completed"
	TerminalBreedingExhausted TerminalReason = "breeding_exhausted"
)

type MonitorConfig struct {
	Run              model.RunRecord
	Scape            scape.Scape
	PopulationSize   int
	Generations      int
	GenomeSide       int
	GridWidth        int
	GridHeight       int
	Workers          int
	Placement        genotype.Placement
	Crossover        CrossoverOperator
	Mutation         MutationOperator
	BreedFraction    float64
	SurvivalFraction float64
	Rand             *rand.Rand
	Recorder         Recorder
	Logger           *slog.Logger
}

type RunResult struct {
	RunID       string
	Generations []model.GenerationSummary
	Final       []*Individual
	Best        model.IndividualDump
	Stop        TerminalReason
	Evaluations int
	Offspring   int
}

// PopulationMonitor drives a population through evaluate, rank, record,
// breed and replace cycles.
type PopulationMonitor struct {
	cfg  MonitorConfig
	rng  *rand.Rand
	pool Pool
	log  *slog.Logger
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Scape == nil {
		return nil, fmt.Errorf("%w: scape is required", ErrInvalidConfig)
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0", ErrInvalidConfig)
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("%w: generations must be > 0", ErrInvalidConfig)
	}
	if cfg.GenomeSide <= 0 {
		return nil, fmt.Errorf("%w: genome side must be > 0", ErrInvalidConfig)
	}
	if cfg.GridWidth <= 0 || cfg.GridHeight <= 0 {
		return nil, fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidConfig, cfg.GridWidth, cfg.GridHeight)
	}
	if cfg.GenomeSide > cfg.GridWidth || cfg.GenomeSide > cfg.GridHeight {
		return nil, fmt.Errorf("%w: genome side %d exceeds grid %dx%d", ErrInvalidConfig, cfg.GenomeSide, cfg.GridWidth, cfg.GridHeight)
	}
	if cfg.BreedFraction == 0 {
		cfg.BreedFraction = DefaultBreedFraction
	}
	if cfg.SurvivalFraction == 0 {
		cfg.SurvivalFraction = DefaultSurvivalFraction
	}
	if cfg.BreedFraction < 0 || cfg.BreedFraction > 1 {
		return nil, fmt.Errorf("%w: breed fraction must be in (0, 1]", ErrInvalidConfig)
	}
	if cfg.SurvivalFraction < 0 || cfg.SurvivalFraction > 1 {
		return nil, fmt.Errorf("%w: survival fraction must be in (0, 1]", ErrInvalidConfig)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Placement == nil {
		cfg.Placement = genotype.DefaultPlacement()
	}
	if cfg.Crossover == nil {
		cfg.Crossover = RowSplitCrossover{}
	}
	if cfg.Mutation == nil {
		cfg.Mutation = DefaultMutation()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Run.RunID == "" {
		id, err := NewID(rng)
		if err != nil {
			return nil, err
		}
		cfg.Run.RunID = id
	}

	return &PopulationMonitor{
		cfg:  cfg,
		rng:  rng,
		pool: Pool{Workers: cfg.Workers},
		log:  logger.With("run_id", cfg.Run.RunID),
	}, nil
}

func (m *PopulationMonitor) RunID() string { return m.cfg.Run.RunID }

func (m *PopulationMonitor) Run(ctx context.Context) (RunResult, error) {
	result := RunResult{RunID: m.cfg.Run.RunID, Stop: TerminalCompleted}

	population, err := m.founders()
	if err != nil {
		return result, err
	}
	if err := m.evaluate(ctx, population, &result); err != nil {
		return m.abort(result, nil, err)
	}
	Rank(population)

	for gen := 1; gen <= m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return m.abort(result, population, err)
		}

		summary := Summarize(gen, population)
		result.Generations = append(result.Generations, summary)
		if m.cfg.Recorder != nil {
			if err := m.cfg.Recorder.RecordGeneration(ctx, m.cfg.Run, summary); err != nil {
				return m.abort(result, population, fmt.Errorf("record generation %d: %w", gen, err))
			}
		}
		m.log.Info("generation recorded",
			"generation", gen,
			"population", len(population),
			"best", summary.Best.Score,
			"worst", summary.Worst.Score,
		)

		offspring, err := m.breed(EligibleParents(population, m.cfg.BreedFraction))
		if err != nil {
			return m.abort(result, population, fmt.Errorf("breed generation %d: %w", gen, err))
		}
		if len(offspring) == 0 {
			m.log.Info("breeding exhausted", "generation", gen, "population", len(population))
			result.Stop = TerminalBreedingExhausted
			break
		}
		result.Offspring += len(offspring)

		population = Replace(population, offspring, m.cfg.SurvivalFraction)
		if err := m.evaluate(ctx, population, &result); err != nil {
			return m.abort(result, population, fmt.Errorf("evaluate generation %d: %w", gen+1, err))
		}
		Rank(population)
	}

	result.Final = population
	result.Best = population[0].Dump()
	m.log.Info("run finished",
		"stop", string(result.Stop),
		"generations", len(result.Generations),
		"best_id", result.Best.ID,
		"best", result.Best.Score,
	)
	return result, nil
}

// Summarize reports the first and last member of a ranked population.
func Summarize(generation int, ranked []*Individual) model.GenerationSummary {
	summary := model.GenerationSummary{Generation: generation, PopulationSize: len(ranked)}
	if len(ranked) == 0 {
		return summary
	}
	summary.Best = ranked[0].Dump()
	summary.Worst = ranked[len(ranked)-1].Dump()
	return summary
}

func (m *PopulationMonitor) founders() ([]*Individual, error) {
	population := make([]*Individual, 0, m.cfg.PopulationSize)
	for i := 0; i < m.cfg.PopulationSize; i++ {
		genome, err := genotype.Random(m.rng, m.cfg.GenomeSide)
		if err != nil {
			return nil, err
		}
		ind, err := m.newIndividual(genome, nil)
		if err != nil {
			return nil, err
		}
		population = append(population, ind)
	}
	return population, nil
}

func (m *PopulationMonitor) newIndividual(genome genotype.Genome, parents []string) (*Individual, error) {
	id, err := NewID(m.rng)
	if err != nil {
		return nil, err
	}
	return NewIndividual(id, genome, m.cfg.GridWidth, m.cfg.GridHeight, m.cfg.Placement, parents)
}

// evaluate simulates the members that have not been scored yet. Survivors
// keep their score; their grids already hold the terminal state.
func (m *PopulationMonitor) evaluate(ctx context.Context, population []*Individual, result *RunResult) error {
	pending := make([]*Individual, 0, len(population))
	for _, ind := range population {
		if !ind.Evaluated {
			pending = append(pending, ind)
		}
	}
	if err := m.pool.Evaluate(ctx, m.cfg.Scape, pending); err != nil {
		return err
	}
	result.Evaluations += len(pending)
	return nil
}

func (m *PopulationMonitor) breed(eligible []*Individual) ([]*Individual, error) {
	pairs := PairParents(eligible)
	offspring := make([]*Individual, 0, len(pairs))
	for _, pair := range pairs {
		child, err := m.cfg.Crossover.Cross(pair.A.Genome, pair.B.Genome)
		if err != nil {
			return nil, err
		}
		child, flips := m.cfg.Mutation.Mutate(m.rng, child)
		ind, err := m.newIndividual(child, []string{pair.A.ID, pair.B.ID})
		if err != nil {
			return nil, err
		}
		m.log.Debug("offspring bred", "id", ind.ID, "parents", ind.Parents, "flips", flips)
		offspring = append(offspring, ind)
	}
	return offspring, nil
}

func (m *PopulationMonitor) abort(result RunResult, ranked []*Individual, cause error) (RunResult, error) {
	result.Final = ranked
	if len(ranked) > 0 && ranked[0].Evaluated {
		result.Best = ranked[0].Dump()
		m.log.Error("run aborted", "error", cause, "best_id", result.Best.ID, "best", result.Best.Score)
	} else {
		m.log.Error("run aborted", "error", cause)
	}
	return result, cause
}

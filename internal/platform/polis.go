package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"lifeevo/internal/evo"
	"lifeevo/internal/genotype"
	"lifeevo/internal/model"
	"lifeevo/internal/scape"
	"lifeevo/internal/stats"
	"lifeevo/internal/storage"
)

type Config struct {
	Store          storage.Store
	SupportModules []SupportModule
	// Recorders receive every generation of every run after the store and
	// the run log.
	Recorders    []evo.Recorder
	ArtifactsDir string
	// ScapeDecorator wraps the simulator built for each run.
	ScapeDecorator func(scape.Scape) scape.Scape
	Logger         *slog.Logger
}

type SupportModule interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

type EvolutionConfig struct {
	RunID          string
	PopulationSize int
	Generations    int
	GenomeSide     int
	Iterations     int
	CheckInterval  int
	GridWidth      int
	GridHeight     int
	Objective      string
	Workers        int
	Seed           int64
	Placement      string
	Crossover      string
	Mutation       string
	MutationTrials int
	MutationRate   float64
	Recorders      []evo.Recorder
}

// DefaultEvolutionConfig is the reference run: 50 generations of 20
// individuals with 50×50 genomes on a 250×200 grid.
func DefaultEvolutionConfig() EvolutionConfig {
	return EvolutionConfig{
		PopulationSize: 20,
		Generations:    50,
		GenomeSide:     50,
		Iterations:     500,
		CheckInterval:  scape.DefaultCheckInterval,
		GridWidth:      250,
		GridHeight:     200,
		Objective:      "population",
		Workers:        evo.DefaultWorkers,
		Placement:      "left_centered",
		Crossover:      "row_split",
		Mutation:       "point_flip",
		MutationTrials: evo.DefaultMutationTrials,
		MutationRate:   evo.DefaultMutationRate,
	}
}

type EvolutionResult struct {
	Run        model.RunRecord
	Result     evo.RunResult
	RunLogPath string
}

type Polis struct {
	store storage.Store

	mu sync.RWMutex

	supportModules map[string]SupportModule
	started        bool
	lastStopReason StopReason
	runs           map[string]context.CancelFunc

	log    *slog.Logger
	config Config
}

func NewPolis(cfg Config) *Polis {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Polis{
		store:          cfg.Store,
		supportModules: make(map[string]SupportModule),
		runs:           make(map[string]context.CancelFunc),
		log:            logger,
		config:         cfg,
		lastStopReason: StopReasonNormal,
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}

	startedModules := make([]SupportModule, 0, len(p.config.SupportModules))
	fail := func(err error) error {
		stopSupportModules(ctx, startedModules)
		p.supportModules = make(map[string]SupportModule)
		return err
	}
	for i, module := range p.config.SupportModules {
		if module == nil {
			return fail(fmt.Errorf("support module is nil at index %d", i))
		}
		name := module.Name()
		if name == "" {
			return fail(fmt.Errorf("support module name is required at index %d", i))
		}
		if _, exists := p.supportModules[name]; exists {
			return fail(fmt.Errorf("duplicate support module: %s", name))
		}
		if err := module.Start(ctx); err != nil {
			return fail(fmt.Errorf("start support module %s: %w", name, err))
		}
		p.supportModules[name] = module
		startedModules = append(startedModules, module)
		p.log.Info("support module started", "module", name)
	}

	p.started = true
	return nil
}

func (p *Polis) Reset(ctx context.Context) error {
	_ = p.StopWithReason(StopReasonShutdown)
	if err := p.Init(ctx); err != nil {
		return err
	}
	if resetter, ok := p.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Polis) Stop() {
	_ = p.StopWithReason(StopReasonNormal)
}

func (p *Polis) Shutdown() {
	_ = p.StopWithReason(StopReasonShutdown)
}

// StopWithReason cancels every active run and stops the support modules in
// reverse start order.
func (p *Polis) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if !isValidStopReason(reason) {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cancel := range p.runs {
		cancel()
	}
	modules := make([]SupportModule, 0, len(p.config.SupportModules))
	for _, module := range p.config.SupportModules {
		if module == nil {
			continue
		}
		if _, ok := p.supportModules[module.Name()]; ok {
			modules = append(modules, module)
		}
	}
	stopSupportModules(context.Background(), modules)

	p.started = false
	p.lastStopReason = reason
	p.supportModules = make(map[string]SupportModule)
	p.runs = make(map[string]context.CancelFunc)
	return nil
}

// RunEvolution builds the simulator and operators named by cfg, runs the
// evolution driver to completion and records every generation to the store,
// the run log and the configured recorders.
func (p *Polis) RunEvolution(ctx context.Context, cfg EvolutionConfig) (EvolutionResult, error) {
	p.mu.RLock()
	started := p.started
	p.mu.RUnlock()
	if !started {
		return EvolutionResult{}, fmt.Errorf("polis is not initialized")
	}

	objective, err := scape.ResolveObjective(cfg.Objective, cfg.GridWidth, cfg.GridHeight)
	if err != nil {
		return EvolutionResult{}, fmt.Errorf("%w: %v", evo.ErrInvalidConfig, err)
	}
	sim, err := scape.NewSimulator(objective, cfg.Iterations, cfg.CheckInterval)
	if err != nil {
		return EvolutionResult{}, fmt.Errorf("%w: %v", evo.ErrInvalidConfig, err)
	}
	var sc scape.Scape = sim
	if p.config.ScapeDecorator != nil {
		sc = p.config.ScapeDecorator(sc)
	}
	placement, err := genotype.PlacementFromName(cfg.Placement)
	if err != nil {
		return EvolutionResult{}, fmt.Errorf("%w: %v", evo.ErrInvalidConfig, err)
	}
	crossover, err := evo.ResolveCrossover(cfg.Crossover)
	if err != nil {
		return EvolutionResult{}, fmt.Errorf("%w: %v", evo.ErrInvalidConfig, err)
	}
	trials, rate := cfg.MutationTrials, cfg.MutationRate
	if trials == 0 && rate == 0 {
		trials, rate = evo.DefaultMutationTrials, evo.DefaultMutationRate
	}
	mutation, err := evo.ResolveMutation(cfg.Mutation, trials, rate)
	if err != nil {
		return EvolutionResult{}, fmt.Errorf("%w: %v", evo.ErrInvalidConfig, err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	runID := cfg.RunID
	if runID == "" {
		runID, err = evo.NewID(rng)
		if err != nil {
			return EvolutionResult{}, err
		}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = evo.DefaultWorkers
	}

	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion, CodecVersion: storage.CurrentCodecVersion},
		RunID:           runID,
		GenerationCount: cfg.Generations,
		PopulationSize:  cfg.PopulationSize,
		DNALen:          cfg.GenomeSide,
		Iterations:      cfg.Iterations,
		CheckInterval:   sim.CheckInterval,
		GridWidth:       cfg.GridWidth,
		GridHeight:      cfg.GridHeight,
		Objective:       objective.Name(),
		Placement:       placement.Name(),
		Workers:         workers,
		Seed:            seed,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
	}

	recorders := MultiRecorder{storage.GenerationRecorder{Store: p.store}}
	var runLog *stats.RunLogWriter
	if p.config.ArtifactsDir != "" {
		runLog = stats.NewRunLogWriter(p.config.ArtifactsDir)
		recorders = append(recorders, runLog)
	}
	recorders = append(recorders, p.config.Recorders...)
	recorders = append(recorders, cfg.Recorders...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := p.registerRun(runID, cancel); err != nil {
		return EvolutionResult{}, err
	}
	defer p.unregisterRun(runID)

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Run:            run,
		Scape:          sc,
		PopulationSize: cfg.PopulationSize,
		Generations:    cfg.Generations,
		GenomeSide:     cfg.GenomeSide,
		GridWidth:      cfg.GridWidth,
		GridHeight:     cfg.GridHeight,
		Workers:        workers,
		Placement:      placement,
		Crossover:      crossover,
		Mutation:       mutation,
		Rand:           rng,
		Recorder:       recorders,
		Logger:         p.log,
	})
	if err != nil {
		return EvolutionResult{}, err
	}

	p.log.Info("run started",
		"run_id", runID,
		"objective", run.Objective,
		"population", cfg.PopulationSize,
		"generations", cfg.Generations,
		"seed", seed,
	)
	result, runErr := monitor.Run(runCtx)

	out := EvolutionResult{Run: run, Result: result}
	if runLog != nil {
		out.RunLogPath = runLog.Path(runID)
		stop := string(result.Stop)
		if runErr != nil {
			stop = "aborted"
		}
		entry := stats.RunIndexEntry{
			RunID:          runID,
			Objective:      run.Objective,
			PopulationSize: run.PopulationSize,
			Generations:    len(result.Generations),
			DNALen:         run.DNALen,
			Seed:           seed,
			Workers:        workers,
			Stop:           stop,
			BestScore:      result.Best.Score,
			BestID:         result.Best.ID,
			RunLog:         out.RunLogPath,
			CreatedAtUTC:   run.CreatedAtUTC,
		}
		if err := stats.AppendRunIndex(p.config.ArtifactsDir, entry); err != nil && runErr == nil {
			return out, fmt.Errorf("append run index: %w", err)
		}
	}
	if runErr != nil {
		return out, runErr
	}
	return out, nil
}

// StopRun cancels an active run. The run returns the cancellation error with
// its partial result.
func (p *Polis) StopRun(runID string) error {
	p.mu.RLock()
	cancel, ok := p.runs[runID]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run not active: %s", runID)
	}
	cancel()
	return nil
}

func (p *Polis) ActiveRuns() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.runs))
	for id := range p.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Polis) registerRun(runID string, cancel context.CancelFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.runs[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	p.runs[runID] = cancel
	return nil
}

func (p *Polis) unregisterRun(runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.runs, runID)
}

func (p *Polis) Store() storage.Store {
	return p.store
}

func (p *Polis) ActiveSupportModules() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.supportModules))
	for name := range p.supportModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *Polis) LastStopReason() StopReason {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastStopReason
}

func isValidStopReason(reason StopReason) bool {
	switch reason {
	case StopReasonNormal, StopReasonShutdown:
		return true
	default:
		return false
	}
}

func stopSupportModules(ctx context.Context, modules []SupportModule) {
	for i := len(modules) - 1; i >= 0; i-- {
		_ = modules[i].Stop(ctx)
	}
}

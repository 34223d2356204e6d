package lifeevo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"lifeevo/internal/evo"
	"lifeevo/internal/genotype"
	"lifeevo/internal/life"
	"lifeevo/internal/model"
	"lifeevo/internal/platform"
	"lifeevo/internal/scape"
	"lifeevo/internal/stats"
	"lifeevo/internal/storage"
)

const (
	defaultArtifactsDir = "animals"
	defaultExportsDir   = "exports"
	defaultDBPath       = "lifeevo.db"
)

type Options struct {
	StoreKind      string
	DBPath         string
	ArtifactsDir   string
	ExportsDir     string
	Logger         *slog.Logger
	SupportModules []platform.SupportModule
	Recorders      []evo.Recorder
	ScapeDecorator func(scape.Scape) scape.Scape
}

type Client struct {
	store storage.Store
	polis *platform.Polis
	opts  Options
}

type RunRequest struct {
	RunID          string
	Population     int
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

type RunSummary struct {
	RunID       string
	Seed        int64
	RunLogPath  string
	Stop        string
	Generations []model.GenerationSummary
	Best        model.IndividualDump
	Evaluations int
	Offspring   int
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Objective    string
	Seed         int64
	Population   int
	Generations  int
	Stop         string
	BestScore    float64
	RunLog       string
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID string
	Path  string
}

type ReplayRequest struct {
	RunID  string
	Latest bool
	// Generation selects the recorded generation; 0 means the last one.
	Generation int
}

// Champion is the best individual of one recorded generation together with
// the run it belongs to.
type Champion struct {
	Run        model.RunRecord
	Generation int
	Best       model.IndividualDump
}

type ReplaySummary struct {
	Champion Champion
	Fitness  float64
	Trace    scape.Trace
}

func New(opts Options) (*Client, error) {
	if opts.StoreKind == "" {
		opts.StoreKind = storage.DefaultStoreKind
	}
	if opts.DBPath == "" {
		opts.DBPath = defaultDBPath
	}
	if opts.ArtifactsDir == "" {
		opts.ArtifactsDir = defaultArtifactsDir
	}
	if opts.ExportsDir == "" {
		opts.ExportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, opts: opts}, nil
}

func (c *Client) Close() error {
	if c.polis != nil {
		c.polis.Stop()
	}
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

func (c *Client) Reset(ctx context.Context) error {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return err
	}
	return p.Reset(ctx)
}

// Polis exposes the run host, mainly for status reporting.
func (c *Client) Polis(ctx context.Context) (*platform.Polis, error) {
	return c.ensurePolis(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	cfg := platform.DefaultEvolutionConfig()
	cfg.RunID = req.RunID
	cfg.Seed = req.Seed
	cfg.Recorders = req.Recorders
	setInt(&cfg.PopulationSize, req.Population)
	setInt(&cfg.Generations, req.Generations)
	setInt(&cfg.GenomeSide, req.GenomeSide)
	setInt(&cfg.Iterations, req.Iterations)
	setInt(&cfg.CheckInterval, req.CheckInterval)
	setInt(&cfg.GridWidth, req.GridWidth)
	setInt(&cfg.GridHeight, req.GridHeight)
	setInt(&cfg.Workers, req.Workers)
	setInt(&cfg.MutationTrials, req.MutationTrials)
	setString(&cfg.Objective, req.Objective)
	setString(&cfg.Placement, req.Placement)
	setString(&cfg.Crossover, req.Crossover)
	setString(&cfg.Mutation, req.Mutation)
	if req.MutationRate > 0 {
		cfg.MutationRate = req.MutationRate
	}

	out, err := p.RunEvolution(ctx, cfg)
	summary := RunSummary{
		RunID:       out.Run.RunID,
		Seed:        out.Run.Seed,
		RunLogPath:  out.RunLogPath,
		Stop:        string(out.Result.Stop),
		Generations: out.Result.Generations,
		Best:        out.Result.Best,
		Evaluations: out.Result.Evaluations,
		Offspring:   out.Result.Offspring,
	}
	return summary, err
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.opts.ArtifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Objective:    e.Objective,
			Seed:         e.Seed,
			Population:   e.PopulationSize,
			Generations:  e.Generations,
			Stop:         e.Stop,
			BestScore:    e.BestScore,
			RunLog:       e.RunLog,
		})
	}
	return out, nil
}

// History returns the recorded generations of a run. The store is consulted
// first; runs recorded by another process with a memory store are read from
// their run log.
func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationSummary, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	_, history, err := c.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.opts.ExportsDir
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	path, err := stats.ExportRunLog(c.opts.ArtifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Path: filepath.Clean(path)}, nil
}

// Champion loads the best individual of a recorded generation.
func (c *Client) Champion(ctx context.Context, req ReplayRequest) (Champion, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return Champion{}, err
	}
	run, history, err := c.loadRun(ctx, runID)
	if err != nil {
		return Champion{}, err
	}
	if len(history) == 0 {
		return Champion{}, fmt.Errorf("run %s has no recorded generations", runID)
	}
	summary := history[len(history)-1]
	if req.Generation > 0 {
		found := false
		for _, s := range history {
			if s.Generation == req.Generation {
				summary, found = s, true
				break
			}
		}
		if !found {
			return Champion{}, fmt.Errorf("run %s has no generation %d", runID, req.Generation)
		}
	}
	return Champion{Run: run, Generation: summary.Generation, Best: summary.Best}, nil
}

// Seed rebuilds the grid a champion was evaluated on. A nil placement uses
// the one recorded with the run.
func (ch Champion) Seed(placement genotype.Placement) (*life.Grid, error) {
	genome, err := genotype.FromRows(ch.Best.DNA)
	if err != nil {
		return nil, err
	}
	grid, err := life.NewGrid(ch.Run.GridWidth, ch.Run.GridHeight)
	if err != nil {
		return nil, err
	}
	if placement == nil {
		placement, err = genotype.PlacementFromName(ch.Run.Placement)
		if err != nil {
			return nil, err
		}
	}
	genotype.Seed(genome, grid, placement)
	return grid, nil
}

// Simulator rebuilds the simulator the champion's run used.
func (ch Champion) Simulator() (*scape.Simulator, error) {
	objective, err := scape.ResolveObjective(ch.Run.Objective, ch.Run.GridWidth, ch.Run.GridHeight)
	if err != nil {
		return nil, err
	}
	return scape.NewSimulator(objective, ch.Run.Iterations, ch.Run.CheckInterval)
}

// Replay re-simulates a champion headless. The simulation is deterministic,
// so the fitness matches the recorded score.
func (c *Client) Replay(ctx context.Context, req ReplayRequest) (ReplaySummary, error) {
	champion, err := c.Champion(ctx, req)
	if err != nil {
		return ReplaySummary{}, err
	}
	grid, err := champion.Seed(nil)
	if err != nil {
		return ReplaySummary{}, err
	}
	sim, err := champion.Simulator()
	if err != nil {
		return ReplaySummary{}, err
	}
	fitness, trace, err := sim.Evaluate(ctx, grid)
	if err != nil {
		return ReplaySummary{}, err
	}
	return ReplaySummary{Champion: champion, Fitness: float64(fitness), Trace: trace}, nil
}

func (c *Client) loadRun(ctx context.Context, runID string) (model.RunRecord, []model.GenerationSummary, error) {
	if _, err := c.ensurePolis(ctx); err != nil {
		return model.RunRecord{}, nil, err
	}
	run, okRun, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	history, okHistory, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	if okRun && okHistory {
		return run, history, nil
	}

	log, ok, err := stats.FindRunLog(c.opts.ArtifactsDir, runID)
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	if !ok {
		return model.RunRecord{}, nil, fmt.Errorf("run not found: %s", runID)
	}
	return log.RunRecord, log.Generations, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	entries, err := stats.ListRunIndex(c.opts.ArtifactsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{
		Store:          c.store,
		SupportModules: c.opts.SupportModules,
		Recorders:      c.opts.Recorders,
		ArtifactsDir:   c.opts.ArtifactsDir,
		ScapeDecorator: c.opts.ScapeDecorator,
		Logger:         c.opts.Logger,
	})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"lifeevo/internal/events"
	"lifeevo/internal/platform"
	"lifeevo/internal/stats"
	"lifeevo/internal/storage"
	"lifeevo/internal/telemetry"
	"lifeevo/pkg/lifeevo"
)

const (
	artifactsDir = "animals"
	exportsDir   = "exports"
	defaultDB    = "lifeevo.db"
)

var errNoDisplay = errors.New("display support is not built in; rebuild with -tags display")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "play":
		return runPlay(ctx, args[1:])
	case "replay":
		return runReplay(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// clientFlags are shared by every command that opens a client.
type clientFlags struct {
	storeKind *string
	dbPath    *string
	artifacts *string
	logFormat *string
	logLevel  *string
}

func registerClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		storeKind: fs.String("store", storage.DefaultStoreKind, "store backend: "+strings.Join(storage.StoreKinds(), "|")),
		dbPath:    fs.String("db-path", defaultDB, "sqlite database path"),
		artifacts: fs.String("artifacts", artifactsDir, "run log and run index directory"),
		logFormat: fs.String("log-format", "text", "log format: text|json"),
		logLevel:  fs.String("log-level", "info", "log level: debug|info|warn|error"),
	}
}

func (f clientFlags) options() (lifeevo.Options, error) {
	logger, err := newLogger(*f.logFormat, *f.logLevel, os.Stderr)
	if err != nil {
		return lifeevo.Options{}, err
	}
	return lifeevo.Options{
		StoreKind:    *f.storeKind,
		DBPath:       *f.dbPath,
		ArtifactsDir: *f.artifacts,
		ExportsDir:   exportsDir,
		Logger:       logger,
	}, nil
}

func newLogger(format, level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

func openClient(opts lifeevo.Options) (*lifeevo.Client, func(), error) {
	client, err := lifeevo.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
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

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *cf.storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
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

	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *cf.storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	defaults := defaultRunConfig()
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	configPath := fs.String("config", "", "optional run config JSON path")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	population := fs.Int("pop", defaults.Request.Population, "population size")
	generations := fs.Int("gens", defaults.Request.Generations, "generation count")
	side := fs.Int("side", defaults.Request.GenomeSide, "genome side length")
	iterations := fs.Int("iterations", defaults.Request.Iterations, "maximum simulation steps per evaluation")
	check := fs.Int("check", defaults.Request.CheckInterval, "stagnation check interval in steps")
	width := fs.Int("width", defaults.Request.GridWidth, "grid width")
	height := fs.Int("height", defaults.Request.GridHeight, "grid height")
	objective := fs.String("objective", defaults.Request.Objective, "objective: population|displacement")
	workers := fs.Int("workers", defaults.Request.Workers, "evaluation worker count")
	seed := fs.Int64("seed", 0, "rng seed (0 picks one from the clock)")
	placement := fs.String("placement", defaults.Request.Placement, "genome placement: left_centered|centered")
	crossover := fs.String("crossover", defaults.Request.Crossover, "crossover operator: row_split|column_split")
	mutation := fs.String("mutation", defaults.Request.Mutation, "mutation operator: point_flip|none")
	mutationTrials := fs.Int("mutation-trials", defaults.Request.MutationTrials, "point mutation trials per child")
	mutationRate := fs.Float64("mutation-rate", defaults.Request.MutationRate, "probability that a mutation trial flips its cell")
	display := fs.Bool("display", false, "show the champion in a window after the run")
	cellSize := fs.Int("cell-size", defaults.CellSize, "window pixels per cell")
	metricsAddr := fs.String("metrics-addr", "", "serve /metrics, /healthz and /status on this address (empty disables)")
	natsURL := fs.String("nats-url", "", "publish generation events to this NATS server (empty disables)")
	natsSubject := fs.String("nats-subject", events.DefaultSubject, "NATS subject for generation events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadOrDefaultRunConfig(*configPath)
	if err != nil {
		return err
	}
	err = overrideFromFlags(&cfg, setFlags, map[string]any{
		"run-id":          *runID,
		"pop":             *population,
		"gens":            *generations,
		"side":            *side,
		"iterations":      *iterations,
		"check":           *check,
		"width":           *width,
		"height":          *height,
		"objective":       *objective,
		"workers":         *workers,
		"seed":            *seed,
		"placement":       *placement,
		"crossover":       *crossover,
		"mutation":        *mutation,
		"mutation-trials": *mutationTrials,
		"mutation-rate":   *mutationRate,
		"display":         *display,
		"cell-size":       *cellSize,
	})
	if err != nil {
		return err
	}
	if cfg.Display && !displaySupported {
		return errNoDisplay
	}

	opts, err := cf.options()
	if err != nil {
		return err
	}
	var polis atomic.Pointer[platform.Polis]
	var server *telemetry.Server
	if *metricsAddr != "" {
		metrics := telemetry.NewMetrics()
		server = telemetry.NewServer(*metricsAddr, metrics, func() any {
			return runStatus(polis.Load())
		}, opts.Logger)
		opts.SupportModules = append(opts.SupportModules, server)
		opts.Recorders = append(opts.Recorders, metrics)
		opts.ScapeDecorator = metrics.InstrumentScape
	}
	if *natsURL != "" {
		module := &events.Module{URL: *natsURL, Subject: *natsSubject}
		opts.SupportModules = append(opts.SupportModules, module)
		opts.Recorders = append(opts.Recorders, module)
	}

	client, done, err := openClient(opts)
	if err != nil {
		return err
	}
	defer done()

	p, err := client.Polis(ctx)
	if err != nil {
		return err
	}
	polis.Store(p)
	if server != nil {
		fmt.Printf("metrics_addr=%s\n", server.Addr())
	}

	req := cfg.Request
	summary, err := client.Run(ctx, req)
	if err != nil {
		if summary.RunID != "" {
			fmt.Printf("run aborted run_id=%s generations=%d\n", summary.RunID, len(summary.Generations))
		}
		return err
	}
	fmt.Printf("run completed run_id=%s objective=%s pop=%d gens=%d seed=%d stop=%s\n",
		summary.RunID, req.Objective, req.Population, req.Generations, summary.Seed, summary.Stop)
	for _, g := range summary.Generations {
		fmt.Printf("generation=%d population=%d best=%.6f worst=%.6f best_id=%s\n",
			g.Generation, g.PopulationSize, g.Best.Score, g.Worst.Score, g.Best.ID)
	}
	fmt.Printf("final_best=%.6f best_id=%s evaluations=%d offspring=%d\n",
		summary.Best.Score, summary.Best.ID, summary.Evaluations, summary.Offspring)
	if summary.RunLogPath != "" {
		fmt.Printf("run_log=%s\n", summary.RunLogPath)
	}

	if !cfg.Display {
		return nil
	}
	champion, err := client.Champion(ctx, lifeevo.ReplayRequest{RunID: summary.RunID})
	if err != nil {
		return err
	}
	return displayChampion(champion, cfg.CellSize)
}

type statusReport struct {
	Started        bool     `json:"started"`
	ActiveRuns     []string `json:"active_runs"`
	SupportModules []string `json:"support_modules"`
}

func runStatus(p *platform.Polis) statusReport {
	if p == nil {
		return statusReport{}
	}
	return statusReport{
		Started:        p.Started(),
		ActiveRuns:     p.ActiveRuns(),
		SupportModules: p.ActiveSupportModules(),
	}
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
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

	items, err := client.Runs(ctx, lifeevo.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		type runsItem struct {
			RunID        string  `json:"run_id"`
			CreatedAtUTC string  `json:"created_at_utc"`
			Objective    string  `json:"objective"`
			Seed         int64   `json:"seed"`
			Population   int     `json:"population_size"`
			Generations  int     `json:"generations"`
			Stop         string  `json:"stop"`
			BestScore    float64 `json:"best_score"`
			RunLog       string  `json:"run_log"`
		}
		out := make([]runsItem, 0, len(items))
		for _, it := range items {
			out = append(out, runsItem(it))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, it := range items {
		fmt.Printf("run_id=%s created_at=%s objective=%s seed=%d pop=%d gens=%d stop=%s best=%.6f\n",
			it.RunID, it.CreatedAtUTC, it.Objective, it.Seed, it.Population, it.Generations, it.Stop, it.BestScore)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run from the run index")
	limit := fs.Int("limit", 0, "max generations to print (0 prints all)")
	jsonOut := fs.Bool("json", false, "emit the best/worst series as JSON")
	csvOut := fs.Bool("csv", false, "emit the best/worst series as CSV")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("history requires --run-id or --latest")
	}
	if *jsonOut && *csvOut {
		return errors.New("use either --json or --csv, not both")
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

	history, err := client.History(ctx, lifeevo.HistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats.BuildSeries(history))
	}
	if *csvOut {
		return stats.WriteSeriesCSV(os.Stdout, history)
	}
	for _, g := range history {
		fmt.Printf("generation=%d population=%d best=%.6f best_id=%s worst=%.6f worst_id=%s\n",
			g.Generation, g.PopulationSize, g.Best.Score, g.Best.ID, g.Worst.Score, g.Worst.ID)
	}
	if peak, ok := stats.PeakBest(history); ok {
		fmt.Printf("improvement=%.6f peak_generation=%d peak_best=%.6f\n",
			stats.Improvement(history), peak.Generation, peak.Best.Score)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
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

	exported, err := client.Export(ctx, lifeevo.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Path)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: lifeevoctl <init|reset|run|play|replay|runs|history|export> [flags]", msg)
}

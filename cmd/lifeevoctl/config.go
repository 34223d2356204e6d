package main

import (
	"encoding/json"
	"fmt"
	"os"

	"lifeevo/internal/platform"
	"lifeevo/internal/render"
	"lifeevo/pkg/lifeevo"
)

// runConfig is everything the run command needs: the evolution request plus
// the presentation settings that never reach the driver.
type runConfig struct {
	Request  lifeevo.RunRequest
	Display  bool
	CellSize int
}

func defaultRunConfig() runConfig {
	d := platform.DefaultEvolutionConfig()
	return runConfig{
		Request: lifeevo.RunRequest{
			Population:     d.PopulationSize,
			Generations:    d.Generations,
			GenomeSide:     d.GenomeSide,
			Iterations:     d.Iterations,
			CheckInterval:  d.CheckInterval,
			GridWidth:      d.GridWidth,
			GridHeight:     d.GridHeight,
			Objective:      d.Objective,
			Workers:        d.Workers,
			Placement:      d.Placement,
			Crossover:      d.Crossover,
			Mutation:       d.Mutation,
			MutationTrials: d.MutationTrials,
			MutationRate:   d.MutationRate,
		},
		CellSize: render.DefaultCellSize,
	}
}

// loadRunConfig decodes a JSON config file onto the defaults. Keys that are
// absent keep their default value.
func loadRunConfig(path string) (runConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runConfig{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return runConfig{}, err
	}

	cfg := defaultRunConfig()
	req := &cfg.Request
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt(raw["genome_side"]); ok {
		req.GenomeSide = v
	}
	// dna_len is the run log's name for the genome side.
	if v, ok := asInt(raw["dna_len"]); ok {
		req.GenomeSide = v
	}
	if v, ok := asInt(raw["iterations"]); ok {
		req.Iterations = v
	}
	if v, ok := asInt(raw["check_interval"]); ok {
		req.CheckInterval = v
	}
	if v, ok := asInt(raw["grid_width"]); ok {
		req.GridWidth = v
	}
	if v, ok := asInt(raw["grid_height"]); ok {
		req.GridHeight = v
	}
	if v, ok := asString(raw["objective"]); ok {
		req.Objective = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asString(raw["placement"]); ok {
		req.Placement = v
	}
	if v, ok := asString(raw["crossover"]); ok {
		req.Crossover = v
	}
	if v, ok := asString(raw["mutation"]); ok {
		req.Mutation = v
	}
	if v, ok := asInt(raw["mutation_trials"]); ok {
		req.MutationTrials = v
	}
	if v, ok := asFloat64(raw["mutation_rate"]); ok {
		req.MutationRate = v
	}
	if v, ok := asBool(raw["display"]); ok {
		cfg.Display = v
	}
	if v, ok := asInt(raw["cell_size"]); ok {
		cfg.CellSize = v
	}
	return cfg, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// overrideFromFlags applies the flags that were set explicitly on the
// command line.
func overrideFromFlags(cfg *runConfig, set map[string]bool, flagValue map[string]any) error {
	req := &cfg.Request
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "pop":
			req.Population = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "side":
			req.GenomeSide = v.(int)
		case "iterations":
			req.Iterations = v.(int)
		case "check":
			req.CheckInterval = v.(int)
		case "width":
			req.GridWidth = v.(int)
		case "height":
			req.GridHeight = v.(int)
		case "objective":
			req.Objective = v.(string)
		case "workers":
			req.Workers = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "placement":
			req.Placement = v.(string)
		case "crossover":
			req.Crossover = v.(string)
		case "mutation":
			req.Mutation = v.(string)
		case "mutation-trials":
			req.MutationTrials = v.(int)
		case "mutation-rate":
			req.MutationRate = v.(float64)
		case "display":
			cfg.Display = v.(bool)
		case "cell-size":
			cfg.CellSize = v.(int)
		}
	}
	return validateRunConfig(*cfg)
}

func validateRunConfig(cfg runConfig) error {
	req := cfg.Request
	switch {
	case req.Population <= 0:
		return fmt.Errorf("pop must be > 0")
	case req.Generations <= 0:
		return fmt.Errorf("gens must be > 0")
	case req.GenomeSide <= 0:
		return fmt.Errorf("side must be > 0")
	case req.Iterations <= 0:
		return fmt.Errorf("iterations must be > 0")
	case req.CheckInterval <= 0:
		return fmt.Errorf("check must be > 0")
	case req.GridWidth <= 0 || req.GridHeight <= 0:
		return fmt.Errorf("grid must be at least 1x1, got %dx%d", req.GridWidth, req.GridHeight)
	case req.Workers <= 0:
		return fmt.Errorf("workers must be > 0")
	case req.MutationRate < 0 || req.MutationRate > 1:
		return fmt.Errorf("mutation-rate must be in [0, 1]")
	case cfg.CellSize <= 0:
		return fmt.Errorf("cell-size must be > 0")
	}
	return nil
}

func loadOrDefaultRunConfig(configPath string) (runConfig, error) {
	if configPath == "" {
		return defaultRunConfig(), nil
	}
	cfg, err := loadRunConfig(configPath)
	if err != nil {
		return runConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

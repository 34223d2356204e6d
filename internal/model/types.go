package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// IndividualDump is the persisted view of one scored individual.
type IndividualDump struct {
	ID      string   `json:"id"`
	DNA     [][]int  `json:"dna"`
	Score   float64  `json:"score"`
	Parents []string `json:"parents"`
}

// GenerationSummary records the best and worst individual of a ranked
// generation.
type GenerationSummary struct {
	Generation     int            `json:"generation"`
	PopulationSize int            `json:"population_size"`
	Best           IndividualDump `json:"best"`
	Worst          IndividualDump `json:"worst"`
}

// RunRecord is the run metadata written alongside the generation summaries.
type RunRecord struct {
	VersionedRecord
	RunID           string `json:"run_id"`
	GenerationCount int    `json:"generation_count"`
	PopulationSize  int    `json:"population_size"`
	DNALen          int    `json:"dna_len"`
	Iterations      int    `json:"iterations"`
	CheckInterval   int    `json:"check_interval"`
	GridWidth       int    `json:"grid_width"`
	GridHeight      int    `json:"grid_height"`
	Objective       string `json:"objective"`
	Placement       string `json:"placement,omitempty"`
	Workers         int    `json:"workers"`
	Seed            int64  `json:"seed"`
	CreatedAtUTC    string `json:"created_at_utc,omitempty"`
}

// RunLog is the full accumulated structure rewritten after every generation.
type RunLog struct {
	RunRecord
	Generations []GenerationSummary `json:"generations"`
}

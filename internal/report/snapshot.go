package report

import "time"

// Snapshot is a read-only view of a run's counters.
type Snapshot struct {
	RunID string `json:"run_id"`

	TotalRows    int64         `json:"total_rows"`
	TotalKnown   bool          `json:"total_known"`
	ProbeMethod  string        `json:"probe_method"`
	ProbeElapsed time.Duration `json:"probe_elapsed"`

	RowsRead      int64 `json:"rows_read"`
	Chunks        int   `json:"chunks"`
	ChunkRetained int64 `json:"chunk_retained"`
	RowsRetained  int64 `json:"rows_retained"`

	InputBytes     int64 `json:"input_bytes"`
	OutputBaseline int64 `json:"output_baseline"`
	OutputBytes    int64 `json:"output_bytes"`

	Elapsed time.Duration `json:"elapsed"`
	Stages  []Stage       `json:"stages"`
	Final   bool          `json:"final"`
}

// RowsDropped is RowsRead - RowsRetained, so read == retained + dropped
// always holds.
func (s Snapshot) RowsDropped() int64 { return s.RowsRead - s.RowsRetained }

// DropPercent is the share of read rows that were dropped. ok is false when
// no rows were read.
func (s Snapshot) DropPercent() (pct float64, ok bool) {
	return percent(s.RowsDropped(), s.RowsRead)
}

// Progress is the share of the expected total processed so far, capped at
// 100. ok is false when the total is unknown or zero.
func (s Snapshot) Progress() (pct float64, ok bool) {
	if !s.TotalKnown {
		return 0, false
	}
	p, ok := percent(s.RowsRead, s.TotalRows)
	if p > 100 {
		p = 100
	}
	return p, ok
}

// SizeReduction is InputBytes - OutputBytes; negative when the output grew.
func (s Snapshot) SizeReduction() int64 { return s.InputBytes - s.OutputBytes }

// SizePercent is SizeReduction relative to InputBytes. ok is false for an
// empty input.
func (s Snapshot) SizePercent() (pct float64, ok bool) {
	return percent(s.SizeReduction(), s.InputBytes)
}

// Stage returns the duration of the named stage.
func (s Snapshot) Stage(name string) (time.Duration, bool) {
	for _, st := range s.Stages {
		if st.Name == name {
			return st.Duration, true
		}
	}
	return 0, false
}

func percent(part, whole int64) (float64, bool) {
	if whole <= 0 {
		return 0, false
	}
	return float64(part) / float64(whole) * 100, true
}

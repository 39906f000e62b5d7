// Package report accumulates the counters of one deduplication run and
// exposes them as immutable snapshots. It performs no I/O and no
// formatting; presentation belongs to the caller.
//
// A Stats value has a single owner (the pipeline) and is updated at fixed
// points: after the row-count probe, after each chunk, and once at the end.
// Observers only ever see Snapshot copies.
package report

import "time"

// Stage is the wall time spent in one named pipeline stage.
type Stage struct {
	Name     string
	Duration time.Duration
}

// Stats is the mutable accumulator. It is not safe for concurrent use.
type Stats struct {
	now func() time.Time

	runID   string
	started time.Time

	total       int64
	totalKnown  bool
	probeMethod string
	probeTime   time.Duration

	read          int64
	chunks        int
	chunkRetained int64
	retained      int64

	inputBytes     int64
	outputBaseline int64
	outputBytes    int64

	stages   []Stage
	elapsed  time.Duration
	finished bool
}

// New returns an accumulator for the run identified by runID.
func New(runID string) *Stats {
	return &Stats{runID: runID, now: time.Now}
}

// WithClock replaces the time source; for tests.
func (s *Stats) WithClock(now func() time.Time) *Stats {
	s.now = now
	return s
}

// SetExpected records the probe outcome. known=false means the total is
// unknown and progress is reported as processed-count only.
func (s *Stats) SetExpected(rows int64, known bool, method string, took time.Duration) {
	s.total, s.totalKnown = rows, known
	if !known {
		s.total = 0
	}
	s.probeMethod, s.probeTime = method, took
}

// SetSizes records the input size and the output baseline measured right
// after the output file was created.
func (s *Stats) SetSizes(input, outputBaseline int64) {
	s.inputBytes, s.outputBaseline = input, outputBaseline
}

// Start marks the beginning of processing. Probe time is excluded from the
// processing duration by calling Start after SetExpected.
func (s *Stats) Start() { s.started = s.now() }

// ChunkDone records one chunk: rows read from it, rows it kept after
// in-chunk deduplication, and the running count of distinct keys.
func (s *Stats) ChunkDone(read, kept, retainedSoFar int) {
	s.chunks++
	s.read += int64(read)
	s.chunkRetained += int64(kept)
	s.retained = int64(retainedSoFar)
}

// AddStage records the duration of a named stage.
func (s *Stats) AddStage(name string, d time.Duration) {
	s.stages = append(s.stages, Stage{Name: name, Duration: d})
}

// Finish records the final retained count and output size and freezes the
// elapsed time. Later calls are ignored.
func (s *Stats) Finish(retained int64, outputBytes int64) {
	if s.finished {
		return
	}
	s.retained = retained
	s.outputBytes = outputBytes
	s.elapsed = s.now().Sub(s.started)
	s.finished = true
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	elapsed := s.elapsed
	if !s.finished && !s.started.IsZero() {
		elapsed = s.now().Sub(s.started)
	}
	stages := make([]Stage, len(s.stages))
	copy(stages, s.stages)
	return Snapshot{
		RunID:          s.runID,
		TotalRows:      s.total,
		TotalKnown:     s.totalKnown,
		ProbeMethod:    s.probeMethod,
		ProbeElapsed:   s.probeTime,
		RowsRead:       s.read,
		Chunks:         s.chunks,
		ChunkRetained:  s.chunkRetained,
		RowsRetained:   s.retained,
		InputBytes:     s.inputBytes,
		OutputBaseline: s.outputBaseline,
		OutputBytes:    s.outputBytes,
		Elapsed:        elapsed,
		Stages:         stages,
		Final:          s.finished,
	}
}

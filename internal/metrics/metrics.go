// Package metrics is a backend-agnostic facade for run instrumentation.
//
// Callers record stage timings and row counts through package functions.
// The default backend is a no-op, so instrumentation is always safe to call;
// a concrete backend (Pushgateway, DogStatsD) is installed once at startup
// with SetBackend and flushed at exit.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StageTotal    = "csvdedupe_stage_total"
	StageDuration = "csvdedupe_stage_duration_seconds"
	RowsTotal     = "csvdedupe_rows_total"
	BytesTotal    = "csvdedupe_bytes_total"
	ChunksTotal   = "csvdedupe_chunks_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style observation.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes buffered metrics.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs b. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStep counts one execution of a pipeline stage and observes its
// duration, labelled with success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter(StageTotal, 1, lbls)
	backend.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRow adds delta rows of the given kind ("read", "retained",
// "dropped", "exported"). Non-positive deltas are ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordBytes adds n bytes for direction "in" or "out".
func RecordBytes(job, direction string, n int64) {
	if n <= 0 {
		return
	}
	backend.IncCounter(BytesTotal, float64(n), Labels{"job": job, "direction": direction})
}

// RecordChunks adds delta processed chunks.
func RecordChunks(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(ChunksTotal, float64(delta), Labels{"job": job})
}

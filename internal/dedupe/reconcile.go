package dedupe

import "csvdedupe/internal/record"

// Reconciler performs the global pass over per-chunk results. Chunks must be
// added in their original read order. Feeding the chunks one after another
// into a single Index is the same computation as deduplicating their
// concatenation, so duplicates spanning chunk boundaries are resolved while
// only the distinct keys are held in memory.
type Reconciler struct {
	ix     *Index
	chunks int
	in     int64
}

// NewReconciler returns a Reconciler using the run's key and policy.
func NewReconciler(k record.KeySpec, p Policy) *Reconciler {
	return &Reconciler{ix: NewIndex(k, p, 0)}
}

// Add merges one deduplicated chunk.
func (rc *Reconciler) Add(chunk []record.Record) {
	rc.chunks++
	rc.in += int64(len(chunk))
	for _, r := range chunk {
		rc.ix.Add(r)
	}
}

// Chunks is the number of chunks merged so far.
func (rc *Reconciler) Chunks() int { return rc.chunks }

// Retained is the number of distinct keys retained so far.
func (rc *Reconciler) Retained() int { return rc.ix.Len() }

// Candidates is the total number of per-chunk representatives merged.
func (rc *Reconciler) Candidates() int64 { return rc.in }

// Rows finishes the pass and returns the globally deduplicated rows.
func (rc *Reconciler) Rows() []record.Record { return rc.ix.Rows() }

// Reconcile concatenates chunks in order and deduplicates the result.
func Reconcile(chunks [][]record.Record, k record.KeySpec, p Policy) []record.Record {
	rc := NewReconciler(k, p)
	for _, c := range chunks {
		rc.Add(c)
	}
	return rc.Rows()
}

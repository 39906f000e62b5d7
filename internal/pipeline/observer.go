package pipeline

import (
	"time"

	"csvdedupe/internal/report"
)

// Progress is reported after every chunk has been merged.
type Progress struct {
	Chunk      int
	Processed  int64
	Retained   int64
	Total      int64
	TotalKnown bool
	Elapsed    time.Duration
}

// Percent is Processed relative to Total; ok is false when the total is
// unknown or zero.
func (p Progress) Percent() (pct float64, ok bool) {
	snap := report.Snapshot{TotalRows: p.Total, TotalKnown: p.TotalKnown, RowsRead: p.Processed}
	return snap.Progress()
}

// Observer receives progress and non-fatal warnings. Calls come from a
// single goroutine, in order.
type Observer interface {
	Progress(Progress)
	Warning(error)
}

// Funcs adapts plain functions to Observer; nil fields are skipped.
type Funcs struct {
	OnProgress func(Progress)
	OnWarning  func(error)
}

func (f Funcs) Progress(p Progress) {
	if f.OnProgress != nil {
		f.OnProgress(p)
	}
}

func (f Funcs) Warning(err error) {
	if f.OnWarning != nil {
		f.OnWarning(err)
	}
}

func progressOf(s report.Snapshot) Progress {
	return Progress{
		Chunk:      s.Chunks,
		Processed:  s.RowsRead,
		Retained:   s.RowsRetained,
		Total:      s.TotalRows,
		TotalKnown: s.TotalKnown,
		Elapsed:    s.Elapsed,
	}
}

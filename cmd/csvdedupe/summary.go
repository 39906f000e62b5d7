package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"csvdedupe/internal/config"
	"csvdedupe/internal/pipeline"
)

func printSummary(w io.Writer, plan config.Plan, res pipeline.Result) {
	s := res.Snapshot
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	line := func(label, format string, args ...any) {
		fmt.Fprintf(tw, "%s:\t%s\n", label, fmt.Sprintf(format, args...))
	}

	line("Input", "%s (%s rows, %s)", plan.Input, humanize.Comma(s.RowsRead), humanBytes(s.InputBytes))
	if len(res.KeyColumns) == 0 {
		line("Criteria", "all columns")
	} else {
		line("Criteria", "%s", strings.Join(res.KeyColumns, ", "))
	}
	line("Retention", "keep %s", res.Policy)
	if res.Sort != nil {
		line("Sort", "%s %s", res.Sort.Column, res.Sort.Direction)
	} else {
		line("Sort", "none")
	}
	line("Output", "%s (%s rows, %s)", res.Output, humanize.Comma(s.RowsRetained), humanBytes(s.OutputBytes))
	line("Dropped", "%s rows%s", humanize.Comma(s.RowsDropped()), pct(s.DropPercent()))

	red := s.SizeReduction()
	if red >= 0 {
		line("Size reduced", "%s%s", humanBytes(red), pct(s.SizePercent()))
	} else {
		line("Size grew", "%s", humanBytes(-red))
	}

	line("Processing", "%s", duration(s.Elapsed))
	if s.ProbeMethod != "" {
		line("Row count", "%s in %s", s.ProbeMethod, duration(s.ProbeElapsed))
	}
	if plan.ChunkDefault {
		line("Chunk size", "%s (default)", humanize.Comma(int64(plan.ChunkSize)))
	} else {
		line("Chunk size", "%s", humanize.Comma(int64(plan.ChunkSize)))
	}
	if plan.Workers > 1 {
		line("Workers", "%d", plan.Workers)
	}
	if plan.Export != nil {
		line("Exported", "%s rows to %s table %s",
			humanize.Comma(res.Exported), plan.Export.Storage.Kind, plan.Export.Storage.Table)
	}
	tw.Flush()
}

func printProgress(w io.Writer, p pipeline.Progress) {
	if pc, ok := p.Percent(); ok {
		fmt.Fprintf(w, "progress: chunk=%d processed=%s/%s (%.1f%%) retained=%s elapsed=%s\n",
			p.Chunk, humanize.Comma(p.Processed), humanize.Comma(p.Total), pc,
			humanize.Comma(p.Retained), duration(p.Elapsed))
		return
	}
	fmt.Fprintf(w, "progress: chunk=%d processed=%s retained=%s elapsed=%s\n",
		p.Chunk, humanize.Comma(p.Processed), humanize.Comma(p.Retained), duration(p.Elapsed))
}

func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// pct renders " (12.5%)", or nothing when the percentage is undefined.
func pct(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return fmt.Sprintf(" (%.1f%%)", v)
}

// duration prints milliseconds below one second.
func duration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}

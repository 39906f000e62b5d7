// Package pipeline runs one deduplication job end to end:
//
//	stat input -> probe row count -> read header and resolve columns ->
//	create output -> chunked dedupe + reconcile -> sort -> write -> export
//
// Configuration errors surface before the output file is touched. Source
// errors abort the run and leave the output created but empty. Sink errors
// surface after all rows have been computed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"csvdedupe/internal/config"
	"csvdedupe/internal/datasource"
	"csvdedupe/internal/datasource/file"
	"csvdedupe/internal/dderr"
	"csvdedupe/internal/dedupe"
	"csvdedupe/internal/metrics"
	"csvdedupe/internal/parser/csv"
	"csvdedupe/internal/probe"
	"csvdedupe/internal/record"
	"csvdedupe/internal/report"
	"csvdedupe/internal/sink"
)

// Stage names used for timings and metrics.
const (
	StageProbe     = "probe"
	StageDedupe    = "dedupe"
	StageReconcile = "reconcile"
	StageSort      = "sort"
	StageWrite     = "write"
	StageExport    = "export"
)

// Result describes a finished run.
type Result struct {
	RunID  string
	Output string
	Header []string
	// KeyColumns is nil when the whole row was the key.
	KeyColumns []string
	Policy     dedupe.Policy
	// Sort is nil when the output kept first-occurrence order.
	Sort     *dedupe.SortSpec
	Exported int64
	Snapshot report.Snapshot
}

// Test seams.
var (
	newRunID  = uuid.NewString
	probeRows = probe.Rows
)

// Run executes plan. obs may be nil. On error the returned Result carries
// whatever was known when the run stopped.
func Run(ctx context.Context, plan config.Plan, obs Observer) (Result, error) {
	if obs == nil {
		obs = Funcs{}
	}
	r := &runner{
		plan:  plan,
		obs:   obs,
		job:   filepath.Base(plan.Input),
		stats: report.New(newRunID()),
	}
	if plan.Verbose {
		r.logf = log.Printf
	} else {
		r.logf = func(string, ...any) {}
	}
	res, err := r.run(ctx)
	res.Snapshot = r.stats.Snapshot()
	res.RunID = res.Snapshot.RunID
	return res, err
}

type runner struct {
	plan  config.Plan
	obs   Observer
	job   string
	stats *report.Stats
	logf  func(string, ...any)
}

func (r *runner) run(ctx context.Context) (Result, error) {
	plan := r.plan
	res := Result{Output: plan.Output, Policy: plan.Policy}

	if plan.ChunkSize < 1 || plan.ChunkSize > config.MaxChunkSize {
		return res, dderr.Config(dderr.CodeChunkSize,
			"chunk size must be between 1 and %d, got %d", config.MaxChunkSize, plan.ChunkSize)
	}
	r.surfaceWarnings()
	r.logf("run: id=%s input=%s output=%s chunk_size=%d workers=%d policy=%s",
		r.stats.Snapshot().RunID, plan.Input, plan.Output, plan.ChunkSize, plan.Workers, plan.Policy)

	src := file.NewLocal(plan.Input)
	inSize, err := src.Size()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, dderr.Source(dderr.CodeNotFound, err, "input %s does not exist", plan.Input)
		}
		return res, dderr.Source(dderr.CodeUnreadable, err, "input %s", plan.Input)
	}

	// Probe first; its time is reported but not counted as processing.
	t0 := time.Now()
	est, warn := probeRows(ctx, src)
	metrics.RecordStep(r.job, StageProbe, warn, time.Since(t0))
	if warn != nil {
		r.obs.Warning(warn)
	}
	r.stats.SetExpected(est.Rows, est.Known, est.Method, est.Elapsed)
	r.logf("probe: method=%s rows=%d known=%v took=%s", est.Method, est.Rows, est.Known, est.Elapsed)

	cr, err := openChunks(ctx, src, plan.ChunkSize, plan.Parser)
	if err != nil {
		return res, err
	}
	defer cr.Close()

	schema := cr.Schema()
	res.Header = schema.Names()
	key, sortSpec, err := r.resolveColumns(schema)
	if err != nil {
		return res, err
	}
	res.KeyColumns = key.Names()
	res.Sort = sortSpec

	out := sink.NewFile(plan.Output, plan.Parser.Comma)
	baseline, err := out.Create()
	if err != nil {
		return res, err
	}
	r.stats.SetSizes(inSize, baseline)
	metrics.RecordBytes(r.job, "in", inSize)

	r.stats.Start()
	rows, err := r.dedupe(ctx, cr, key)
	if err != nil {
		return res, err
	}

	if sortSpec != nil {
		t0 := time.Now()
		rows = dedupe.Sort(rows, sortSpec)
		d := time.Since(t0)
		r.stats.AddStage(StageSort, d)
		metrics.RecordStep(r.job, StageSort, nil, d)
		r.logf("sort: column=%q direction=%s rows=%d took=%s", sortSpec.Column, sortSpec.Direction, len(rows), d)
	}

	t0 = time.Now()
	outBytes, err := out.Write(ctx, res.Header, rows)
	d := time.Since(t0)
	metrics.RecordStep(r.job, StageWrite, err, d)
	if err != nil {
		return res, err
	}
	r.stats.AddStage(StageWrite, d)
	r.stats.Finish(int64(len(rows)), outBytes)
	r.logf("write: path=%s rows=%d bytes=%d took=%s", plan.Output, len(rows), outBytes, d)

	snap := r.stats.Snapshot()
	metrics.RecordRow(r.job, "read", snap.RowsRead)
	metrics.RecordRow(r.job, "retained", snap.RowsRetained)
	metrics.RecordRow(r.job, "dropped", snap.RowsDropped())
	metrics.RecordBytes(r.job, "out", outBytes)

	if plan.Export != nil {
		t0 := time.Now()
		n, err := sink.NewTable(plan.Export.Storage, plan.Export.CreateTable, plan.Export.BatchSize).
			Export(ctx, res.Header, rows)
		d := time.Since(t0)
		metrics.RecordStep(r.job, StageExport, err, d)
		res.Exported = n
		if err != nil {
			return res, err
		}
		r.stats.AddStage(StageExport, d)
		metrics.RecordRow(r.job, "exported", n)
		r.logf("export: kind=%s table=%s rows=%d took=%s", plan.Export.Storage.Kind, plan.Export.Storage.Table, n, d)
	}
	return res, nil
}

// surfaceWarnings forwards resolve-time warnings. A sort direction without a
// column is reported as a config-kind warning so callers can match it.
func (r *runner) surfaceWarnings() {
	for _, iss := range r.plan.Warnings {
		if iss.Path == "sort.order" && r.plan.SortSkipped {
			r.obs.Warning(dderr.Config(dderr.CodeSortNoColumn, "%s", iss.Message))
			continue
		}
		r.obs.Warning(iss)
	}
}

// openChunks opens src and reads its header.
func openChunks(ctx context.Context, src datasource.Source, size int, opt csv.Options) (*csv.ChunkReader, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, dderr.Source(dderr.CodeUnreadable, err, "open input")
	}
	return csv.NewChunkReader(rc, size, opt)
}

// resolveColumns checks key and sort columns against the header.
func (r *runner) resolveColumns(schema *record.Schema) (record.KeySpec, *dedupe.SortSpec, error) {
	key := record.AllFields()
	if len(r.plan.KeyColumns) > 0 {
		k, err := record.Fields(schema, r.plan.KeyColumns...)
		if err != nil {
			return key, nil, err
		}
		key = k
	}
	if r.plan.SortColumn == "" {
		return key, nil, nil
	}
	idx, ok := schema.Index(r.plan.SortColumn)
	if !ok {
		return key, nil, dderr.Config(dderr.CodeUnknownColumn, "sort column %q not in header", r.plan.SortColumn)
	}
	return key, &dedupe.SortSpec{Column: r.plan.SortColumn, Index: idx, Direction: r.plan.SortDirection}, nil
}

// dedupe runs phase one and the reconciler and returns the retained rows in
// first-occurrence order.
func (r *runner) dedupe(ctx context.Context, cr *csv.ChunkReader, key record.KeySpec) ([]record.Record, error) {
	start := time.Now()
	rec := &merger{rc: dedupe.NewReconciler(key, r.plan.Policy), r: r}

	var err error
	if r.plan.Workers > 1 {
		err = r.parallel(ctx, cr, key, rec)
	} else {
		err = r.sequential(ctx, cr, key, rec)
	}
	phase := time.Since(start)
	metrics.RecordStep(r.job, StageDedupe, err, phase-rec.took)
	if err != nil {
		return nil, err
	}

	t0 := time.Now()
	rows := rec.rc.Rows()
	rec.took += time.Since(t0)
	r.stats.AddStage(StageDedupe, phase-rec.took)
	r.stats.AddStage(StageReconcile, rec.took)
	metrics.RecordStep(r.job, StageReconcile, nil, rec.took)
	metrics.RecordChunks(r.job, int64(rec.rc.Chunks()))
	r.logf("reconcile: chunks=%d candidates=%d retained=%d took=%s",
		rec.rc.Chunks(), rec.rc.Candidates(), len(rows), rec.took)
	return rows, nil
}

// merger feeds deduplicated chunks to the reconciler in read order and
// reports progress. It is used from one goroutine only.
type merger struct {
	rc   *dedupe.Reconciler
	r    *runner
	took time.Duration
}

func (m *merger) add(read int, kept []record.Record) {
	t0 := time.Now()
	m.rc.Add(kept)
	m.took += time.Since(t0)
	m.r.stats.ChunkDone(read, len(kept), m.rc.Retained())
	snap := m.r.stats.Snapshot()
	m.r.logf("reader: chunk=%d rows=%d kept=%d retained=%d", snap.Chunks, read, len(kept), snap.RowsRetained)
	m.r.obs.Progress(progressOf(snap))
}

func (r *runner) sequential(ctx context.Context, cr *csv.ChunkReader, key record.KeySpec, m *merger) error {
	for {
		chunk, err := cr.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		m.add(len(chunk), dedupe.Dedupe(chunk, key, r.plan.Policy))
	}
}

// checkCtx converts a bare cancellation into an error that names the stage.
func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("dedupe canceled: %w", err)
	}
	return nil
}

package sink

import (
	"context"

	"golang.org/x/sync/errgroup"

	"csvdedupe/internal/dderr"
	"csvdedupe/internal/record"
	"csvdedupe/internal/storage"
)

// DefaultBatchSize is the export batch size when none is configured.
const DefaultBatchSize = 5000

// Table exports rows into a database table through a registered storage
// backend. Every column is text; empty fields are stored as NULL.
type Table struct {
	cfg         storage.Config
	createTable bool
	batchSize   int
}

// NewTable returns an exporter for cfg. cfg.Columns may be empty, in which
// case the CSV header names the columns.
func NewTable(cfg storage.Config, createTable bool, batchSize int) *Table {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Table{cfg: cfg, createTable: createTable, batchSize: batchSize}
}

// Export writes rows and returns the number the backend accepted.
func (t *Table) Export(ctx context.Context, header []string, rows []record.Record) (int64, error) {
	cfg := t.cfg
	if len(cfg.Columns) == 0 {
		cfg.Columns = header
	}
	if len(cfg.Columns) != len(header) {
		return 0, dderr.Sink(dderr.CodeExport, nil,
			"export has %d columns but the header has %d", len(cfg.Columns), len(header))
	}

	repo, err := storage.New(ctx, cfg)
	if err != nil {
		return 0, dderr.Sink(dderr.CodeExport, err, "open %s backend", cfg.Kind)
	}
	defer repo.Close()

	if t.createTable {
		if err := storage.EnsureTable(ctx, cfg, repo); err != nil {
			return 0, dderr.Sink(dderr.CodeExport, err, "create table %s", cfg.Table)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	in := make(chan []any, t.batchSize)

	g.Go(func() error {
		defer close(in)
		for _, r := range rows {
			select {
			case in <- toValues(r):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var n int64
	g.Go(func() error {
		var err error
		n, err = storage.LoadBatches(gctx, cfg.Columns, in, t.batchSize, repo.CopyFrom)
		return err
	})

	if err := g.Wait(); err != nil {
		return n, dderr.Sink(dderr.CodeExport, err, "export to %s", cfg.Table)
	}
	return n, nil
}

func toValues(r record.Record) []any {
	out := make([]any, len(r))
	for i, v := range r {
		if v == "" {
			continue
		}
		out[i] = v
	}
	return out
}

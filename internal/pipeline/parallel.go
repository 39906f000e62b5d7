package pipeline

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"csvdedupe/internal/dedupe"
	"csvdedupe/internal/parser/csv"
	"csvdedupe/internal/record"
)

type chunkJob struct {
	rows []record.Record
	out  chan<- chunkResult
}

type chunkResult struct {
	read int
	kept []record.Record
}

// parallel deduplicates chunks on plan.Workers goroutines. Results are merged
// strictly in read order, so the output matches the sequential path.
func (r *runner) parallel(ctx context.Context, cr *csv.ChunkReader, key record.KeySpec, m *merger) error {
	workers := r.plan.Workers
	g, gctx := errgroup.WithContext(ctx)

	jobs := make(chan chunkJob, workers)
	order := make(chan chan chunkResult, workers*2)

	// reader
	g.Go(func() error {
		defer close(jobs)
		defer close(order)
		for {
			chunk, err := cr.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			res := make(chan chunkResult, 1)
			select {
			case order <- res:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- chunkJob{rows: chunk, out: res}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := range jobs {
				j.out <- chunkResult{read: len(j.rows), kept: dedupe.Dedupe(j.rows, key, r.plan.Policy)}
			}
			return nil
		})
	}

	// merge, in read order
	g.Go(func() error {
		for res := range order {
			select {
			case out := <-res:
				m.add(out.read, out.kept)
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return checkCtx(gctx)
	})

	return g.Wait()
}

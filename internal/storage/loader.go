package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn is a backend's bulk-insert primitive, usually Repository.CopyFrom.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains in, groups rows into batches of batchSize and hands each
// non-empty batch to copyFn. It returns the number of rows copyFn reported
// and the first error. A closed channel flushes the final partial batch.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total   int64
		batches int
		batch   = make([][]any, 0, batchSize)
		start   = time.Now()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		t0 := time.Now()
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Printf("export: batch=%d failed inserted=%d total=%d err=%v", batches+1, n, total, err)
			return err
		}
		batches++
		log.Printf("export: batch=%d inserted=%d total=%d took=%s elapsed=%s",
			batches, n, total,
			time.Since(t0).Truncate(time.Millisecond),
			time.Since(start).Truncate(time.Millisecond))
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

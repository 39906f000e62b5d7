// Package probe estimates how many data rows an input holds before the
// run starts, so progress can be reported against a total.
//
// The estimate counts record terminators (newline bytes) and subtracts the
// header. It does not decode fields, so quoted cells containing newlines
// and blank lines inflate it; callers treat it as approximate.
//
// Two strategies are tried in order:
//
//   - "mmap": map the file read-only and count in memory (unix only,
//     uncompressed inputs only)
//   - "scan": one streaming pass over the (decompressed) bytes in fixed
//     64 KiB blocks, independent of the chunk size
//
// A fallback to the scan is logged only. If both fail the Estimate is
// marked unknown and a probe warning is returned; a failed probe never
// aborts a run.
package probe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"time"

	"csvdedupe/internal/datasource/file"
	"csvdedupe/internal/dderr"
)

// Method names reported in Estimate.Method.
const (
	MethodMmap = "mmap"
	MethodScan = "scan"
	MethodNone = "none"
)

const scanBlock = 64 << 10

// Estimate is the outcome of a row-count probe.
type Estimate struct {
	Rows    int64
	Known   bool
	Method  string
	Elapsed time.Duration
}

// errUnsupported is returned by the fast path on platforms or inputs it
// cannot handle.
var errUnsupported = errors.New("fast row count unsupported")

// fastCount is swapped by tests.
var fastCount = mmapCount

// Rows probes src. The returned error, when non-nil, is always a
// dderr.KindProbe warning; the Estimate is still usable.
func Rows(ctx context.Context, src *file.Local) (Estimate, error) {
	start := time.Now()
	est := Estimate{Method: MethodNone}

	if src.Codec() == file.CodecNone {
		lines, last, err := fastCount(ctx, src.Path())
		if err == nil {
			est.Rows, est.Known, est.Method = dataRows(lines, last), true, MethodMmap
			est.Elapsed = time.Since(start)
			return est, nil
		}
		log.Printf("probe: mmap count failed, scanning instead: path=%s err=%v", src.Path(), err)
	}

	lines, last, err := scanCount(ctx, src)
	if err != nil {
		est.Elapsed = time.Since(start)
		return est, dderr.Probe(dderr.CodeCount, err, "could not estimate total rows")
	}
	est.Rows, est.Known, est.Method = dataRows(lines, last), true, MethodScan
	est.Elapsed = time.Since(start)
	return est, nil
}

// dataRows converts a newline count into a data-row count: a final line
// without a terminator still counts, and the header is excluded.
func dataRows(newlines int64, last byte) int64 {
	n := newlines
	if last != 0 && last != '\n' {
		n++
	}
	n-- // header
	if n < 0 {
		return 0
	}
	return n
}

// scanCount streams the decompressed input once.
func scanCount(ctx context.Context, src *file.Local) (int64, byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer rc.Close()
	return countReader(ctx, rc)
}

func countReader(ctx context.Context, r io.Reader) (int64, byte, error) {
	buf := make([]byte, scanBlock)
	var (
		n    int64
		last byte
	)
	for {
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		default:
		}
		k, err := r.Read(buf)
		if k > 0 {
			n += int64(bytes.Count(buf[:k], []byte{'\n'}))
			last = buf[k-1]
		}
		if errors.Is(err, io.EOF) {
			return n, last, nil
		}
		if err != nil {
			return 0, 0, err
		}
	}
}

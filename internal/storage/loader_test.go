package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func feed(rows ...[]any) <-chan []any {
	in := make(chan []any, len(rows))
	for _, r := range rows {
		in <- r
	}
	close(in)
	return in
}

func textRows(n int) [][]any {
	out := make([][]any, n)
	for i := range out {
		out[i] = []any{"k", nil}
	}
	return out
}

func TestLoadBatches_Sizes(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		batchSize int
		want      []int
	}{
		{"empty input copies nothing", 0, 3, nil},
		{"exact multiple", 6, 3, []int{3, 3}},
		{"partial tail flushed on close", 7, 3, []int{3, 3, 1}},
		{"batch larger than input", 2, 5000, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sizes []int
			copyFn := func(_ context.Context, cols []string, rows [][]any) (int64, error) {
				if !reflect.DeepEqual(cols, []string{"id", "note"}) {
					t.Errorf("columns=%v", cols)
				}
				sizes = append(sizes, len(rows))
				return int64(len(rows)), nil
			}
			total, err := LoadBatches(context.Background(), []string{"id", "note"},
				feed(textRows(tt.rows)...), tt.batchSize, copyFn)
			if err != nil {
				t.Fatalf("LoadBatches: %v", err)
			}
			if total != int64(tt.rows) {
				t.Fatalf("total=%d; want %d", total, tt.rows)
			}
			if !reflect.DeepEqual(sizes, tt.want) {
				t.Fatalf("batch sizes=%v; want %v", sizes, tt.want)
			}
		})
	}
}

func TestLoadBatches_BadArguments(t *testing.T) {
	ok := func(context.Context, []string, [][]any) (int64, error) { return 0, nil }
	if _, err := LoadBatches(context.Background(), nil, feed(), 0, ok); err == nil {
		t.Fatalf("batch size 0 must be rejected")
	}
	if _, err := LoadBatches(context.Background(), nil, feed(), 10, nil); err == nil {
		t.Fatalf("nil copy function must be rejected")
	}
}

// A failing batch stops the load; the total counts only what the backend
// reported.
func TestLoadBatches_StopsOnFirstFailure(t *testing.T) {
	boom := errors.New("constraint violated")
	var calls int
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(context.Background(), []string{"id", "note"}, feed(textRows(9)...), 2, copyFn)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v; want %v", err, boom)
	}
	if total != 2 || calls != 2 {
		t.Fatalf("total=%d calls=%d; want 2 rows over 2 calls", total, calls)
	}
}

func TestLoadBatches_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []any) // never closed: only cancellation ends the load
	done := make(chan error, 1)
	go func() {
		_, err := LoadBatches(ctx, []string{"id"}, in, 10,
			func(context.Context, []string, [][]any) (int64, error) { return 0, nil })
		done <- err
	}()
	in <- []any{"a"}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v; want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("LoadBatches did not return after cancel")
	}
}

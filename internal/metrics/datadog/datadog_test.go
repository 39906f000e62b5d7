package datadog

import (
	"reflect"
	"testing"

	"csvdedupe/internal/metrics"
)

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	got := labelsToTags(metrics.Labels{"step": "sort", "job": "a.csv", "status": "success"})
	want := []string{"job:a.csv", "status:success", "step:sort"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tags=%v; want %v", got, want)
	}
	if labelsToTags(nil) != nil {
		t.Fatal("nil labels must give nil tags")
	}
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("empty Addr must fail")
	}

	// UDP needs no listening agent.
	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "csvdedupe.", Tags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "read"})
	b.ObserveHistogram(metrics.StageDuration, 0.25, metrics.Labels{"step": "write"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	var b Backend
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBackend struct {
	mu         sync.Mutex
	counters   []counterCall
	histograms []histCall
	flushCount int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func withFake(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := withFake(t)

	RecordStep("people.csv", "dedupe", nil, 2*time.Second)
	RecordStep("people.csv", "write", errors.New("disk full"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("counters=%d histograms=%d; want 2 each", len(fb.counters), len(fb.histograms))
	}

	c0 := fb.counters[0]
	if c0.name != StageTotal || c0.delta != 1 {
		t.Fatalf("counter[0]=%#v", c0)
	}
	if c0.labels["job"] != "people.csv" || c0.labels["step"] != "dedupe" || c0.labels["status"] != "success" {
		t.Fatalf("counter[0] labels=%v", c0.labels)
	}
	if h := fb.histograms[0]; h.name != StageDuration || h.value < 1.999 || h.value > 2.001 {
		t.Fatalf("hist[0]=%#v; want ~2s", h)
	}

	if got := fb.counters[1].labels["status"]; got != "failure" {
		t.Fatalf("counter[1] status=%q; want failure", got)
	}
	if h := fb.histograms[1]; h.value < 1.499 || h.value > 1.501 {
		t.Fatalf("hist[1].value=%v; want ~1.5", h.value)
	}
}

func TestRecordCounters(t *testing.T) {
	fb := withFake(t)

	RecordRow("j", "read", 10)
	RecordRow("j", "dropped", 0)
	RecordRow("j", "retained", -1)
	RecordBytes("j", "in", 2048)
	RecordBytes("j", "out", 0)
	RecordChunks("j", 3)

	want := []counterCall{
		{RowsTotal, 10, Labels{"job": "j", "kind": "read"}},
		{BytesTotal, 2048, Labels{"job": "j", "direction": "in"}},
		{ChunksTotal, 3, Labels{"job": "j"}},
	}
	if len(fb.counters) != len(want) {
		t.Fatalf("counters=%#v", fb.counters)
	}
	for i, w := range want {
		got := fb.counters[i]
		if got.name != w.name || got.delta != w.delta {
			t.Errorf("counter[%d]=%s/%v; want %s/%v", i, got.name, got.delta, w.name, w.delta)
		}
		for k, v := range w.labels {
			if got.labels[k] != v {
				t.Errorf("counter[%d] label %s=%q; want %q", i, k, got.labels[k], v)
			}
		}
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}
	if err := Flush(); err != nil || fb.flushCount != 1 {
		t.Fatalf("Flush err=%v count=%d", err, fb.flushCount)
	}

	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}

func TestNopBackendIsDefault(t *testing.T) {
	if _, ok := backend.(nopBackend); !ok {
		t.Skip("another test installed a backend")
	}
	RecordStep("j", "s", nil, time.Second)
	if err := Flush(); err != nil {
		t.Fatalf("nop Flush: %v", err)
	}
}

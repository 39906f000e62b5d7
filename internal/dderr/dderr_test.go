package dderr

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestIs_MatchesKindAndCode(t *testing.T) {
	err := Source(CodeNotFound, os.ErrNotExist, "open %s", "x.csv")
	wrapped := fmt.Errorf("run: %w", err)

	if !errors.Is(wrapped, ErrSource) {
		t.Fatalf("expected wrapped error to match ErrSource")
	}
	if !errors.Is(wrapped, &Error{Kind: KindSource, Code: CodeNotFound}) {
		t.Fatalf("expected kind+code match")
	}
	if errors.Is(wrapped, &Error{Kind: KindSource, Code: CodeWidth}) {
		t.Fatalf("did not expect a different code to match")
	}
	if errors.Is(wrapped, ErrSink) {
		t.Fatalf("did not expect sink kind to match")
	}
	if !errors.Is(wrapped, os.ErrNotExist) {
		t.Fatalf("expected cause to be reachable via Unwrap")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"config", Config(CodeChunkSize, "bad"), KindConfig},
		{"wrapped sink", fmt.Errorf("x: %w", Sink(CodeWrite, nil, "flush")), KindSink},
		{"probe", Probe(CodeUnsupported, nil, "nope"), KindProbe},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf=%q; want %q", got, tt.want)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	e := Config(CodeChunkSize, "chunk size must be between %d and %d", 1, 10)
	want := "config error [CHUNK_SIZE]: chunk size must be between 1 and 10"
	if e.Error() != want {
		t.Fatalf("Error()=%q; want %q", e.Error(), want)
	}
}

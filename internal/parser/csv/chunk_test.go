package csv

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"csvdedupe/internal/dderr"
	"csvdedupe/internal/record"
)

type fakeRC struct {
	*bytes.Reader
	closed bool
}

func newFakeRC(s string) *fakeRC { return &fakeRC{Reader: bytes.NewReader([]byte(s))} }
func (f *fakeRC) Close() error   { f.closed = true; return nil }

func drain(t *testing.T, r *ChunkReader) [][]record.Record {
	t.Helper()
	var out [][]record.Record
	for {
		c, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, c)
	}
}

func TestChunkReader_SplitsInReadOrder(t *testing.T) {
	src := newFakeRC("id,name\n1,a\n2,b\n3,c\n4,d\n5,e\n")
	r, err := NewChunkReader(src, 2, Options{})
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer r.Close()

	if got := r.Schema().Names(); len(got) != 2 || got[0] != "id" || got[1] != "name" {
		t.Fatalf("schema=%v", got)
	}
	chunks := drain(t, r)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks; want 3", len(chunks))
	}
	if len(chunks[0]) != 2 || len(chunks[1]) != 2 || len(chunks[2]) != 1 {
		t.Fatalf("chunk sizes=[%d %d %d]; want [2 2 1]", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if chunks[2][0][0] != "5" {
		t.Fatalf("last record=%v", chunks[2][0])
	}
	if r.Rows() != 5 || r.Chunks() != 3 {
		t.Fatalf("rows=%d chunks=%d", r.Rows(), r.Chunks())
	}
	// Exhausted readers keep returning EOF.
	if _, err := r.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after exhaustion, got %v", err)
	}
}

func TestChunkReader_StripsBOMAndHonoursComma(t *testing.T) {
	src := newFakeRC("\uFEFFid;name\n1;a\n")
	r, err := NewChunkReader(src, 10, Options{Comma: ';'})
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer r.Close()
	if _, ok := r.Schema().Index("id"); !ok {
		t.Fatalf("BOM must be stripped from the first header cell: %q", r.Schema().Names()[0])
	}
	chunks := drain(t, r)
	if len(chunks) != 1 || chunks[0][0][1] != "a" {
		t.Fatalf("chunks=%v", chunks)
	}
}

func TestChunkReader_WidthMismatchIsFatal(t *testing.T) {
	src := newFakeRC("id,name\n1,a\n2\n3,c\n")
	r, err := NewChunkReader(src, 10, Options{})
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer r.Close()
	_, err = r.Next(context.Background())
	if !errors.Is(err, &dderr.Error{Kind: dderr.KindSource, Code: dderr.CodeWidth}) {
		t.Fatalf("expected FIELD_COUNT source error, got %v", err)
	}
	if _, err := r.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("reader must stop after a fatal row, got %v", err)
	}
}

func TestChunkReader_EmptyInputHasNoHeader(t *testing.T) {
	src := newFakeRC("")
	_, err := NewChunkReader(src, 10, Options{})
	if !errors.Is(err, &dderr.Error{Kind: dderr.KindSource, Code: dderr.CodeNoHeader}) {
		t.Fatalf("expected NO_HEADER, got %v", err)
	}
	if !src.closed {
		t.Fatalf("source must be closed on constructor failure")
	}
}

func TestChunkReader_HeaderOnly(t *testing.T) {
	r, err := NewChunkReader(newFakeRC("a,b\n"), 3, Options{})
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	if chunks := drain(t, r); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %v", chunks)
	}
}

func TestChunkReader_QuotedFieldsAndTrim(t *testing.T) {
	src := newFakeRC("id,note\n1,\"a, b\"\n2,  padded  \n")
	r, err := NewChunkReader(src, 10, Options{TrimSpace: true})
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	chunks := drain(t, r)
	if got := chunks[0][0][1]; got != "a, b" {
		t.Fatalf("quoted cell=%q", got)
	}
	if got := chunks[0][1][1]; got != "padded" {
		t.Fatalf("trimmed cell=%q", got)
	}
}

func TestChunkReader_CanceledContext(t *testing.T) {
	r, err := NewChunkReader(newFakeRC("a\n1\n"), 1, Options{})
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewChunkReader_RejectsZeroChunk(t *testing.T) {
	src := newFakeRC("a\n1\n")
	if _, err := NewChunkReader(src, 0, Options{}); !dderr.IsKind(err, dderr.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !src.closed {
		t.Fatalf("source must be closed")
	}
}

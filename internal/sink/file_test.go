package sink

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"csvdedupe/internal/dderr"
	"csvdedupe/internal/parser/csv"
	"csvdedupe/internal/record"
)

func TestFile_CreateTruncates(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(p, []byte("stale contents"), 0o644); err != nil {
		t.Fatal(err)
	}
	base, err := NewFile(p, ',').Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if base != 0 {
		t.Fatalf("baseline=%d; want 0 after truncate", base)
	}
}

func TestFile_WritePlain(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.csv")
	rows := []record.Record{{"1", "a,b"}, {"2", ""}}
	n, err := NewFile(p, ',').Write(context.Background(), []string{"id", "v"}, rows)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := os.ReadFile(p)
	want := "id,v\n1,\"a,b\"\n2,\n"
	if string(got) != want {
		t.Fatalf("content=%q; want %q", got, want)
	}
	if n != int64(len(want)) {
		t.Fatalf("size=%d; want %d", n, len(want))
	}
}

// readBack decodes path with the input reader and returns header and rows.
func readBack(t *testing.T, path string) ([]string, []record.Record) {
	t.Helper()
	fh, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	cr, err := csv.NewChunkReader(fh, 100, csv.Options{})
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer cr.Close()
	var rows []record.Record
	for {
		chunk, err := cr.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		rows = append(rows, chunk...)
	}
	return cr.Schema().Names(), rows
}

func TestFile_LoneEmptyFieldSurvivesRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		rows   []record.Record
		want   string
	}{
		{"empty rows", []string{"a"}, []record.Record{{""}, {"x"}, {""}}, "a\n\"\"\nx\n\"\"\n"},
		{"empty header", []string{""}, []record.Record{{"v"}}, "\"\"\nv\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "out.csv")
			if _, err := NewFile(p, ',').Write(context.Background(), tt.header, tt.rows); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got, _ := os.ReadFile(p)
			if string(got) != tt.want {
				t.Fatalf("content=%q; want %q", got, tt.want)
			}
			header, rows := readBack(t, p)
			if len(header) != 1 || header[0] != tt.header[0] {
				t.Fatalf("header=%q; want %q", header, tt.header)
			}
			if len(rows) != len(tt.rows) {
				t.Fatalf("read back %d rows; wrote %d", len(rows), len(tt.rows))
			}
		})
	}
}

func TestFile_WriteSemicolon(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.csv")
	if _, err := NewFile(p, ';').Write(context.Background(), []string{"a", "b"}, []record.Record{{"x", "y"}}); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(p)
	if string(got) != "a;b\nx;y\n" {
		t.Fatalf("content=%q", got)
	}
}

func TestFile_WriteGzipByExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.csv.gz")
	if _, err := NewFile(p, ',').Write(context.Background(), []string{"id"}, []record.Record{{"1"}}); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("output is not gzip: %v", err)
	}
	got, _ := io.ReadAll(zr)
	if string(got) != "id\n1\n" {
		t.Fatalf("content=%q", got)
	}
}

func TestFile_CreateFailureIsSinkError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing-dir", "out.csv")
	_, err := NewFile(p, ',').Create()
	if !errors.Is(err, &dderr.Error{Kind: dderr.KindSink, Code: dderr.CodeCreate}) {
		t.Fatalf("err=%v; want sink CREATE", err)
	}
}

func TestFile_WriteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := filepath.Join(t.TempDir(), "out.csv")
	_, err := NewFile(p, ',').Write(ctx, []string{"id"}, []record.Record{{"1"}})
	if !errors.Is(err, context.Canceled) || !dderr.IsKind(err, dderr.KindSink) {
		t.Fatalf("err=%v; want sink error wrapping context.Canceled", err)
	}
}

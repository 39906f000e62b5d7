package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"csvdedupe/internal/dderr"
)

const people = "id,name\n1,ann\n2,bob\n3,cid\n2,bea\n5,eve\n"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// runCLI executes the command with an empty dotenv path so the working
// directory never leaks into the job.
func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errb bytes.Buffer
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...)
	code = execute(context.Background(), args, &out, &errb)
	return code, out.String(), errb.String()
}

// summaryValue returns the value printed for label, or "" if absent.
func summaryValue(stdout, label string) string {
	for _, l := range strings.Split(stdout, "\n") {
		if v, ok := strings.CutPrefix(l, label+":"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func TestExecute_DedupesAndPrintsSummary(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "people.csv", people)

	code, stdout, stderr := runCLI(t, in, "-c", "id", "-k", "last", "--chunksize", "2")
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	got, err := os.ReadFile(filepath.Join(dir, "people_deduped.csv"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if want := "id,name\n1,ann\n2,bea\n3,cid\n5,eve\n"; string(got) != want {
		t.Fatalf("output:\n%s\nwant:\n%s", got, want)
	}
	want := map[string]string{
		"Criteria":   "id",
		"Retention":  "keep last",
		"Sort":       "none",
		"Dropped":    "1 rows (20.0%)",
		"Chunk size": "2",
	}
	for label, v := range want {
		if got := summaryValue(stdout, label); got != v {
			t.Errorf("%s=%q; want %q\n%s", label, got, v, stdout)
		}
	}
}

func TestExecute_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "people.csv", people)
	ragged := writeFile(t, dir, "ragged.csv", "a,b\n1\n")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"chunk size zero", []string{in, "--chunksize", "0"}, exitConfig},
		{"chunk size too big", []string{in, "--chunksize", "500001"}, exitConfig},
		{"unknown key column", []string{in, "-c", "email"}, exitConfig},
		{"unknown sort column", []string{in, "--sortcolumn", "age"}, exitConfig},
		{"bad keep", []string{in, "-k", "middle"}, exitConfig},
		{"no input", nil, exitConfig},
		{"unknown flag", []string{in, "--nope"}, exitConfig},
		{"too many args", []string{in, in}, exitConfig},
		{"missing input", []string{filepath.Join(dir, "nope.csv")}, exitSource},
		{"ragged row", []string{ragged}, exitSource},
		{"output is a directory", []string{in, "-o", t.TempDir()}, exitSink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != tt.want {
				t.Fatalf("exit=%d; want %d (stderr=%s)", code, tt.want, stderr)
			}
			if !strings.HasPrefix(stderr, "csvdedupe: ") && !strings.Contains(stderr, "\ncsvdedupe: ") {
				t.Fatalf("error not reported on stderr: %q", stderr)
			}
		})
	}
}

func TestExecute_ChunkSizeErrorLeavesOutputAlone(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "people.csv", people)
	out := writeFile(t, dir, "people_deduped.csv", "previous")

	if code, _, _ := runCLI(t, in, "--chunksize", "0"); code != exitConfig {
		t.Fatalf("exit=%d; want %d", code, exitConfig)
	}
	if b, _ := os.ReadFile(out); string(b) != "previous" {
		t.Fatalf("output modified: %q", b)
	}
}

func TestExecute_Validate(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "people.csv", people)

	code, stdout, stderr := runCLI(t, in, "--validate", "--sortorder", "desc")
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	if !strings.Contains(stdout, "configuration is valid") {
		t.Fatalf("stdout=%q", stdout)
	}
	if !strings.Contains(stderr, "warning: sort.order") {
		t.Fatalf("expected sort warning, stderr=%q", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "people_deduped.csv")); !os.IsNotExist(err) {
		t.Fatalf("validate must not create output")
	}
}

func TestExecute_Precedence(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "people.csv", people)
	job := writeFile(t, dir, "job.yaml", fmt.Sprintf("input: %s\ncolumns: [name]\nkeep: first\nchunk_size: 3\n", in))
	envFile := writeFile(t, dir, "test.env", "CSVDEDUPE_COLUMNS=id\n")
	t.Setenv("CSVDEDUPE_KEEP", "last")
	// the dotenv loader sets process variables directly
	t.Cleanup(func() { os.Unsetenv("CSVDEDUPE_COLUMNS") })
	t.Setenv("CSVDEDUPE_CHUNK_SIZE", "4")

	var out, errb bytes.Buffer
	code := execute(context.Background(),
		[]string{"--config", job, "--env-file", envFile, "--chunksize", "2"}, &out, &errb)
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, errb.String())
	}
	stdout := out.String()
	// columns and keep from the environment, chunk size from the flag
	want := map[string]string{"Criteria": "id", "Retention": "keep last", "Chunk size": "2"}
	for label, v := range want {
		if got := summaryValue(stdout, label); got != v {
			t.Errorf("%s=%q; want %q\n%s", label, got, v, stdout)
		}
	}
	got, _ := os.ReadFile(filepath.Join(dir, "people_deduped.csv"))
	if want := "id,name\n1,ann\n2,bea\n3,cid\n5,eve\n"; string(got) != want {
		t.Fatalf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestExecute_BadJobFile(t *testing.T) {
	job := writeFile(t, t.TempDir(), "job.yaml", "inptu: x.csv\n")
	if code, _, _ := runCLI(t, "--config", job); code != exitConfig {
		t.Fatalf("exit=%d; want %d", code, exitConfig)
	}
}

func TestExecute_ProgressAndNoPercentWithoutRows(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "h.csv", "a,b\n1,2\n")

	code, stdout, stderr := runCLI(t, in, "--progress")
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	if !strings.Contains(stderr, "progress: chunk=1 processed=1") {
		t.Fatalf("progress not printed: %q", stderr)
	}
	if got := summaryValue(stdout, "Chunk size"); got != "10,000 (default)" {
		t.Fatalf("chunk size=%q; want default noted", got)
	}

	empty := writeFile(t, dir, "e.csv", "a,b\n")
	code, stdout, _ = runCLI(t, empty)
	if code != exitOK {
		t.Fatalf("exit=%d", code)
	}
	if got := summaryValue(stdout, "Dropped"); got != "0 rows" {
		t.Fatalf("Dropped=%q; want no percentage", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{dderr.Config(dderr.CodeChunkSize, "x"), exitConfig},
		{fmt.Errorf("wrapped: %w", dderr.Source(dderr.CodeWidth, nil, "x")), exitSource},
		{dderr.Sink(dderr.CodeWrite, nil, "x"), exitSink},
		{&usageError{errors.New("bad flag")}, exitConfig},
		{errors.New("boom"), exitOther},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v)=%d; want %d", tt.err, got, tt.want)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                       "0 ms",
		350 * time.Millisecond:  "350 ms",
		1234 * time.Millisecond: "1.23s",
	}
	for d, want := range tests {
		if got := duration(d); got != want {
			t.Errorf("duration(%v)=%q; want %q", d, got, want)
		}
	}
}

package config

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"csvdedupe/internal/dedupe"
	"csvdedupe/internal/record"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but the run continues.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the job
// (e.g. "sort.order").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate lints job without touching the filesystem. Column names are
// checked against the header later, once it has been read.
func Validate(j Job) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(j.Input) == "" {
		add(SeverityError, "input", "input path must not be empty")
	}
	if j.Output != "" && j.Input != "" && samePath(j.Output, j.Input) {
		add(SeverityError, "output_path", "output path must differ from the input path")
	}

	if j.ChunkSize < 1 || j.ChunkSize > MaxChunkSize {
		add(SeverityError, "chunk_size", "chunk size must be between 1 and %d, got %d", MaxChunkSize, j.ChunkSize)
	}
	if j.Workers < 1 {
		add(SeverityError, "workers", "workers must be >= 1, got %d", j.Workers)
	}

	if _, err := dedupe.ParsePolicy(j.Keep); err != nil {
		add(SeverityError, "keep", "%v", err)
	}

	issues = append(issues, validateColumns(j.Columns)...)
	issues = append(issues, validateSort(j.Sort)...)
	issues = append(issues, validateParser(j.Parser)...)
	issues = append(issues, validateExport(j.Export)...)
	issues = append(issues, validateMetrics(j.Metrics)...)
	return issues
}

func validateColumns(cols []string) []Issue {
	var issues []Issue
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		name := record.CanonicalName(c)
		if name == "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("columns[%d]", i), "column name must not be empty"})
			continue
		}
		if _, dup := seen[name]; dup {
			issues = append(issues, Issue{SeverityWarning, fmt.Sprintf("columns[%d]", i),
				fmt.Sprintf("column %q is listed more than once", c)})
		}
		seen[name] = struct{}{}
	}
	return issues
}

func validateSort(s Sort) []Issue {
	var issues []Issue
	if _, err := dedupe.ParseDirection(s.Order); err != nil {
		issues = append(issues, Issue{SeverityError, "sort.order", err.Error()})
	}
	if strings.TrimSpace(s.Column) == "" && strings.TrimSpace(s.Order) != "" {
		issues = append(issues, Issue{SeverityWarning, "sort.order",
			"sort order given without a sort column; output will not be sorted"})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	if p.Comma == "" {
		return nil
	}
	r, size := utf8.DecodeRuneInString(p.Comma)
	switch {
	case size != len(p.Comma):
		return []Issue{{SeverityError, "parser.comma", fmt.Sprintf("delimiter must be a single character, got %q", p.Comma)}}
	case r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError:
		return []Issue{{SeverityError, "parser.comma", fmt.Sprintf("invalid delimiter %q", p.Comma)}}
	}
	return nil
}

func validateExport(e Export) []Issue {
	if e.Kind == "" {
		if e.DSN != "" || e.Table != "" {
			return []Issue{{SeverityWarning, "export.kind", "export settings given without export.kind; export disabled"}}
		}
		return nil
	}
	var issues []Issue
	if !slices.Contains(ExportKinds, e.Kind) {
		issues = append(issues, Issue{SeverityError, "export.kind",
			fmt.Sprintf("unknown export kind %q (want one of %s)", e.Kind, strings.Join(ExportKinds, ", "))})
	}
	if strings.TrimSpace(e.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "export.dsn", "export requires a DSN"})
	}
	if strings.TrimSpace(e.Table) == "" {
		issues = append(issues, Issue{SeverityError, "export.table", "export requires a table name"})
	}
	if e.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "export.batch_size", "batch size must not be negative"})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			return []Issue{{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires a URL"}}
		}
	case "datadog":
		if m.DatadogAddr == "" {
			return []Issue{{SeverityError, "metrics.datadog_addr", "datadog backend requires an agent address"}}
		}
	default:
		return []Issue{{SeverityError, "metrics.backend", fmt.Sprintf("unknown metrics backend %q", m.Backend)}}
	}
	return nil
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

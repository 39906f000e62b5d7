package config

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"csvdedupe/internal/datasource/file"
	"csvdedupe/internal/dderr"
	"csvdedupe/internal/dedupe"
	"csvdedupe/internal/parser/csv"
	"csvdedupe/internal/storage"
)

// Plan is a validated Job with parsed enums and derived paths.
type Plan struct {
	Input  string
	Output string

	// KeyColumns is empty when every column forms the key.
	KeyColumns []string
	Policy     dedupe.Policy

	// SortColumn is empty when no sort was requested or the sort was
	// skipped; see SortSkipped.
	SortColumn    string
	SortDirection dedupe.Direction
	// SortSkipped is set when a direction was given without a column.
	SortSkipped bool

	ChunkSize int
	// ChunkDefault is set when ChunkSize is the built-in default.
	ChunkDefault bool
	Workers      int

	Parser csv.Options

	// Export is nil when no table export is configured.
	Export *ExportPlan

	Metrics Metrics
	Verbose bool

	// Warnings are the non-fatal issues found while resolving.
	Warnings []Issue
}

// ExportPlan is the resolved table export.
type ExportPlan struct {
	Storage     storage.Config
	CreateTable bool
	BatchSize   int
}

// Resolve validates j and builds a Plan. Error-severity issues become a
// dderr config error; warnings are carried in Plan.Warnings.
func Resolve(j Job) (Plan, error) {
	issues := Validate(j)
	var errs []error
	var warnings []Issue
	for _, iss := range issues {
		if iss.Severity != SeverityError {
			warnings = append(warnings, iss)
			continue
		}
		code := dderr.CodeInvalidOption
		if iss.Path == "chunk_size" {
			code = dderr.CodeChunkSize
		}
		errs = append(errs, dderr.Config(code, "%s: %s", iss.Path, iss.Message))
	}
	if len(errs) == 1 {
		return Plan{}, errs[0]
	}
	if len(errs) > 1 {
		return Plan{}, errors.Join(errs...)
	}

	policy, _ := dedupe.ParsePolicy(j.Keep)
	dir, _ := dedupe.ParseDirection(j.Sort.Order)

	p := Plan{
		Input:         j.Input,
		Output:        j.Output,
		Policy:        policy,
		SortDirection: dir,
		ChunkSize:     j.ChunkSize,
		ChunkDefault:  j.ChunkSize == DefaultChunkSize,
		Workers:       j.Workers,
		Parser: csv.Options{
			TrimSpace:  j.Parser.TrimSpace,
			LazyQuotes: j.Parser.LazyQuotes,
		},
		Metrics:  j.Metrics,
		Verbose:  j.Verbose,
		Warnings: warnings,
	}
	if p.Output == "" {
		p.Output = OutputPath(j.Input)
	}
	if j.Parser.Comma != "" {
		p.Parser.Comma, _ = utf8.DecodeRuneInString(j.Parser.Comma)
	}
	for _, c := range j.Columns {
		p.KeyColumns = append(p.KeyColumns, Unquote(c))
	}

	col := Unquote(j.Sort.Column)
	switch {
	case col != "":
		p.SortColumn = col
	case strings.TrimSpace(j.Sort.Order) != "":
		p.SortSkipped = true
	}

	if j.Export.Kind != "" {
		p.Export = &ExportPlan{
			Storage: storage.Config{
				Kind:    j.Export.Kind,
				DSN:     j.Export.DSN,
				Table:   j.Export.Table,
				Columns: j.Export.Columns,
			},
			CreateTable: j.Export.CreateTable,
			BatchSize:   j.Export.BatchSize,
		}
	}
	return p, nil
}

// OutputPath derives the output file name from input by inserting
// OutputSuffix before the extension. A compression suffix is kept when the
// output will be written with the same codec:
//
//	data/people.csv     -> data/people_deduped.csv
//	data/people.csv.gz  -> data/people_deduped.csv.gz
//	data/people.csv.bz2 -> data/people_deduped.csv
func OutputPath(input string) string {
	stem, ext := file.SplitExt(input)
	in := file.CodecFor(input)
	if file.OutputCodec(in) != in {
		ext = strings.TrimSuffix(ext, filepath.Ext(input))
	}
	return stem + OutputSuffix + ext
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}

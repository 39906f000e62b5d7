// Package config defines the job model for a deduplication run and turns it
// into a validated, typed Plan.
//
// A Job is assembled from, lowest precedence first: Defaults, an optional
// JSON or YAML job file, CSVDEDUPE_* environment variables (optionally
// loaded from a .env file) and finally command-line flags.
//
// Example job file (YAML):
//
//	input: data/people.csv
//	columns: [email]
//	keep: last
//	sort: { column: signup_date, order: desc }
//	chunk_size: 50000
//	export:
//	  kind: sqlite
//	  dsn: people.db
//	  table: people
//	  create_table: true
package config

const (
	// DefaultChunkSize is the number of rows per chunk when none is given.
	DefaultChunkSize = 10000
	// MaxChunkSize is the largest accepted chunk size.
	MaxChunkSize = 500000
	// DefaultWorkers runs phase one sequentially.
	DefaultWorkers = 1
	// OutputSuffix is inserted before the input's extension to name the
	// output file.
	OutputSuffix = "_deduped"
)

// Job is the user-facing configuration of one run.
type Job struct {
	// Input is the delimited file to deduplicate. Required.
	Input string `json:"input" yaml:"input"`
	// Output overrides the derived "<stem>_deduped<ext>" path.
	Output string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	// Columns is the ordered key; empty means every column.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	// Keep is "first" or "last".
	Keep string `json:"keep" yaml:"keep"`

	Sort Sort `json:"sort" yaml:"sort"`

	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`
	// Workers > 1 deduplicates chunks concurrently.
	Workers int `json:"workers" yaml:"workers"`

	Parser  Parser  `json:"parser" yaml:"parser"`
	Export  Export  `json:"export" yaml:"export"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`

	Verbose bool `json:"verbose" yaml:"verbose"`
}

// Sort selects the optional output ordering.
type Sort struct {
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
	// Order is "asc" or "desc"; empty means ascending when Column is set.
	Order string `json:"order,omitempty" yaml:"order,omitempty"`
}

// Parser holds delimited-text decoding options.
type Parser struct {
	// Comma is the single-character field delimiter.
	Comma      string `json:"comma" yaml:"comma"`
	TrimSpace  bool   `json:"trim_space" yaml:"trim_space"`
	LazyQuotes bool   `json:"lazy_quotes" yaml:"lazy_quotes"`
}

// Export optionally copies the result into a database table.
type Export struct {
	// Kind is one of ExportKinds; empty disables export.
	Kind        string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	DSN         string   `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Table       string   `json:"table,omitempty" yaml:"table,omitempty"`
	Columns     []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	CreateTable bool     `json:"create_table,omitempty" yaml:"create_table,omitempty"`
	BatchSize   int      `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
}

// ExportKinds lists the supported export backends.
var ExportKinds = []string{"postgres", "sqlite", "mysql", "sqlserver"}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string   `json:"backend,omitempty" yaml:"backend,omitempty"`
	PushgatewayURL string   `json:"pushgateway_url,omitempty" yaml:"pushgateway_url,omitempty"`
	DatadogAddr    string   `json:"datadog_addr,omitempty" yaml:"datadog_addr,omitempty"`
	Namespace      string   `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Defaults returns a Job with every optional field at its default.
func Defaults() Job {
	return Job{
		Keep:      "first",
		ChunkSize: DefaultChunkSize,
		Workers:   DefaultWorkers,
		Parser:    Parser{Comma: ","},
		Metrics:   Metrics{Backend: "none"},
	}
}

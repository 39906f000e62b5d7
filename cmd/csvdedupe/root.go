package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"csvdedupe/internal/config"
	"csvdedupe/internal/pipeline"
)

type options struct {
	configPath string
	envFile    string
	validate   bool
	progress   bool

	columns   string
	keep      string
	sortCol   string
	sortOrder string
	chunkSize int
	workers   int
	output    string

	comma      string
	trimSpace  bool
	lazyQuotes bool

	exportKind   string
	exportDSN    string
	exportTable  string
	exportCreate bool
	exportBatch  int

	metricsBackend string
	pushgatewayURL string
	datadogAddr    string

	verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "csvdedupe [flags] <input>",
		Short: "Remove duplicate rows from a CSV file",
		Long: `csvdedupe reads a delimited file in bounded chunks, removes rows whose key
repeats (the whole row by default, or the columns given with --columns) and
writes the survivors, optionally sorted by one column, to <stem>_deduped<ext>.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := o.job(cmd, args)
			if err != nil {
				return err
			}
			return run(cmd, job, o, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return &usageError{err} })

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "job file (.json, .yaml)")
	f.StringVar(&o.envFile, "env-file", ".env", "dotenv file with CSVDEDUPE_* variables")
	f.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	f.BoolVar(&o.progress, "progress", false, "print progress to stderr after every chunk")

	f.StringVarP(&o.columns, "columns", "c", "", `key columns, e.g. "email,name" (default: all columns)`)
	f.StringVarP(&o.keep, "keep", "k", "first", "which duplicate to keep: first or last")
	f.StringVar(&o.sortCol, "sortcolumn", "", "column to sort the output by")
	f.StringVar(&o.sortOrder, "sortorder", "", "sort order: asc or desc (default asc)")
	f.IntVar(&o.chunkSize, "chunksize", config.DefaultChunkSize, fmt.Sprintf("rows per chunk (1..%d)", config.MaxChunkSize))
	f.IntVar(&o.workers, "workers", config.DefaultWorkers, "goroutines deduplicating chunks")
	f.StringVarP(&o.output, "output", "o", "", "output path (default <stem>_deduped<ext>)")

	f.StringVar(&o.comma, "comma", ",", "field delimiter")
	f.BoolVar(&o.trimSpace, "trim-space", false, "trim surrounding whitespace from fields")
	f.BoolVar(&o.lazyQuotes, "lazy-quotes", false, "accept bare quotes inside fields")

	f.StringVar(&o.exportKind, "export-kind", "", "also load the result into a table: postgres, sqlite, mysql, sqlserver")
	f.StringVar(&o.exportDSN, "export-dsn", "", "export connection string")
	f.StringVar(&o.exportTable, "export-table", "", "export table name")
	f.BoolVar(&o.exportCreate, "export-create-table", false, "create the export table if it does not exist")
	f.IntVar(&o.exportBatch, "export-batch-size", 0, "rows per export batch (default 5000)")

	f.StringVar(&o.metricsBackend, "metrics", "none", "metrics backend: none, pushgateway, datadog")
	f.StringVar(&o.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL")
	f.StringVar(&o.datadogAddr, "datadog-addr", "", "DogStatsD address")

	f.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose logs")
	return cmd
}

// job assembles the Job: defaults, then the job file, then the
// environment, then any flag given explicitly.
func (o *options) job(cmd *cobra.Command, args []string) (config.Job, error) {
	job := config.Defaults()
	if o.configPath != "" {
		if err := config.LoadFile(o.configPath, &job); err != nil {
			return job, &usageError{err}
		}
	}
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return job, &usageError{err}
	}
	if err := config.ApplyEnv(&job, os.LookupEnv); err != nil {
		return job, &usageError{err}
	}

	if len(args) == 1 {
		job.Input = args[0]
	}
	set := cmd.Flags().Changed
	if set("columns") {
		job.Columns = config.ParseColumns(o.columns)
	}
	if set("keep") {
		job.Keep = o.keep
	}
	if set("sortcolumn") {
		job.Sort.Column = o.sortCol
	}
	if set("sortorder") {
		job.Sort.Order = o.sortOrder
	}
	if set("chunksize") {
		job.ChunkSize = o.chunkSize
	}
	if set("workers") {
		job.Workers = o.workers
	}
	if set("output") {
		job.Output = o.output
	}
	if set("comma") {
		job.Parser.Comma = o.comma
	}
	if set("trim-space") {
		job.Parser.TrimSpace = o.trimSpace
	}
	if set("lazy-quotes") {
		job.Parser.LazyQuotes = o.lazyQuotes
	}
	if set("export-kind") {
		job.Export.Kind = o.exportKind
	}
	if set("export-dsn") {
		job.Export.DSN = o.exportDSN
	}
	if set("export-table") {
		job.Export.Table = o.exportTable
	}
	if set("export-create-table") {
		job.Export.CreateTable = o.exportCreate
	}
	if set("export-batch-size") {
		job.Export.BatchSize = o.exportBatch
	}
	if set("metrics") {
		job.Metrics.Backend = o.metricsBackend
	}
	if set("pushgateway-url") {
		job.Metrics.PushgatewayURL = o.pushgatewayURL
	}
	if set("datadog-addr") {
		job.Metrics.DatadogAddr = o.datadogAddr
	}
	if set("verbose") {
		job.Verbose = o.verbose
	}
	return job, nil
}

func run(cmd *cobra.Command, job config.Job, o options, stdout, stderr io.Writer) error {
	if job.Verbose {
		log.SetOutput(stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	plan, err := config.Resolve(job)
	if o.validate {
		for _, iss := range config.Validate(job) {
			fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "configuration is valid\n")
		return nil
	}
	if err != nil {
		return err
	}

	flush := setupMetrics(plan.Metrics, plan.Input, stderr)
	defer flush()

	obs := pipeline.Funcs{
		OnWarning: func(err error) { fmt.Fprintf(stderr, "warning: %v\n", err) },
	}
	if o.progress {
		obs.OnProgress = func(p pipeline.Progress) { printProgress(stderr, p) }
	}

	res, err := pipeline.Run(cmd.Context(), plan, obs)
	if err != nil {
		log.Printf("run: id=%s err=%v", res.RunID, err)
		return err
	}
	printSummary(stdout, plan, res)
	return nil
}

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "CSVDEDUPE_"

// LoadFile decodes a job file over job. The format follows the extension:
// .yaml/.yml for YAML, anything else JSON. Unknown fields are rejected.
func LoadFile(path string, job *Job) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read job file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(job); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(job); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays CSVDEDUPE_* variables onto job. lookup is usually
// os.LookupEnv.
func ApplyEnv(job *Job, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	flag := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("INPUT", &job.Input)
	str("OUTPUT", &job.Output)
	if v, ok := lookup(EnvPrefix + "COLUMNS"); ok {
		job.Columns = ParseColumns(v)
	}
	str("KEEP", &job.Keep)
	str("SORT_COLUMN", &job.Sort.Column)
	str("SORT_ORDER", &job.Sort.Order)
	str("COMMA", &job.Parser.Comma)
	str("EXPORT_KIND", &job.Export.Kind)
	str("EXPORT_DSN", &job.Export.DSN)
	str("EXPORT_TABLE", &job.Export.Table)
	str("METRICS_BACKEND", &job.Metrics.Backend)
	str("PUSHGATEWAY_URL", &job.Metrics.PushgatewayURL)
	str("DATADOG_ADDR", &job.Metrics.DatadogAddr)

	return errors.Join(
		num("CHUNK_SIZE", &job.ChunkSize),
		num("WORKERS", &job.Workers),
		num("EXPORT_BATCH_SIZE", &job.Export.BatchSize),
		flag("EXPORT_CREATE_TABLE", &job.Export.CreateTable),
		flag("VERBOSE", &job.Verbose),
	)
}

// ParseColumns splits a comma-separated column list. Each name is trimmed
// of surrounding quotes and whitespace; empty names are dropped.
func ParseColumns(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := Unquote(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Unquote trims surrounding quotes and whitespace from a single value.
func Unquote(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
}

// Package csv decodes header-delimited text into fixed-width records and
// hands them out in bounded-size chunks.
//
// ChunkReader never buffers more than one chunk of raw rows: Next decodes at
// most chunkSize records and returns them. The header row defines the schema
// for the whole run; a data row with a different field count is fatal.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"csvdedupe/internal/dderr"
	"csvdedupe/internal/record"
)

// Options tune the tabular decoding rules.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// LazyQuotes relaxes quote handling (encoding/csv LazyQuotes).
	LazyQuotes bool
	// TrimSpace trims leading/trailing whitespace from data cells.
	TrimSpace bool
}

func (o Options) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

// ChunkReader yields the records of one input stream in read order.
type ChunkReader struct {
	src    io.Closer
	cr     *csv.Reader
	schema *record.Schema
	size   int
	trim   bool

	rows   int64
	chunks int
	done   bool
}

// NewChunkReader reads the header from src and prepares chunked reads of at
// most chunkSize records. A UTF-8 byte-order mark in front of the header is
// dropped. The reader takes ownership of src.
func NewChunkReader(src io.ReadCloser, chunkSize int, opt Options) (*ChunkReader, error) {
	if chunkSize < 1 {
		src.Close()
		return nil, dderr.Config(dderr.CodeChunkSize, "chunk size must be >= 1, got %d", chunkSize)
	}

	// BOMOverride consumes a BOM when present and otherwise passes bytes through.
	r := transform.NewReader(src, unicode.BOMOverride(transform.Nop))

	cr := csv.NewReader(r)
	cr.Comma = opt.comma()
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1 // width is enforced against the header below

	header, err := cr.Read()
	if err != nil {
		src.Close()
		if errors.Is(err, io.EOF) {
			return nil, dderr.Source(dderr.CodeNoHeader, nil, "input has no header row")
		}
		return nil, dderr.Source(dderr.CodeMalformed, err, "read header")
	}

	return &ChunkReader{
		src:    src,
		cr:     cr,
		schema: record.NewSchema(header),
		size:   chunkSize,
		trim:   opt.TrimSpace,
	}, nil
}

// Schema returns the header-derived schema.
func (r *ChunkReader) Schema() *record.Schema { return r.schema }

// Rows is the number of data records returned so far.
func (r *ChunkReader) Rows() int64 { return r.rows }

// Chunks is the number of non-empty chunks returned so far.
func (r *ChunkReader) Chunks() int { return r.chunks }

// Next returns the next chunk of 1..chunkSize records, or io.EOF once the
// input is exhausted. Any other error is a source error and ends the
// sequence; the reader is not restartable.
func (r *ChunkReader) Next(ctx context.Context) ([]record.Record, error) {
	if r.done {
		return nil, io.EOF
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	want := r.schema.Len()
	chunk := make([]record.Record, 0, r.size)
	for len(chunk) < r.size {
		fields, err := r.cr.Read()
		if errors.Is(err, io.EOF) {
			r.done = true
			break
		}
		if err != nil {
			r.done = true
			return nil, dderr.Source(dderr.CodeMalformed, err, "decode row %d", r.rows+int64(len(chunk))+1)
		}
		if len(fields) != want {
			r.done = true
			line, _ := r.cr.FieldPos(0)
			return nil, dderr.Source(dderr.CodeWidth, nil,
				"line %d: expected %d fields, got %d", line, want, len(fields))
		}
		if r.trim {
			for i, v := range fields {
				fields[i] = strings.TrimSpace(v)
			}
		}
		chunk = append(chunk, record.Record(fields))
	}

	if len(chunk) == 0 {
		return nil, io.EOF
	}
	r.rows += int64(len(chunk))
	r.chunks++
	return chunk, nil
}

// Close releases the underlying stream.
func (r *ChunkReader) Close() error {
	if r.src == nil {
		return nil
	}
	err := r.src.Close()
	r.src = nil
	if err != nil {
		return fmt.Errorf("close source: %w", err)
	}
	return nil
}

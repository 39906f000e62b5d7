// Package sink writes the final row set: to a delimited file, and optionally
// into a database table through the storage backends.
package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"os"

	"csvdedupe/internal/datasource/file"
	"csvdedupe/internal/dderr"
	"csvdedupe/internal/record"
)

// ctxCheckEvery is how many rows are written between context checks.
const ctxCheckEvery = 4096

// File is a delimited-text destination. The codec follows the extension, so
// "out.csv.gz" is written gzip-compressed.
type File struct {
	path  string
	codec file.Codec
	comma rune
}

// NewFile returns a sink for path using comma as the field delimiter.
func NewFile(path string, comma rune) *File {
	if comma == 0 {
		comma = ','
	}
	return &File{path: path, codec: file.OutputCodec(file.CodecFor(path)), comma: comma}
}

// Path is the destination path.
func (f *File) Path() string { return f.path }

// Create creates or truncates the destination and returns its size
// afterwards, which is the baseline for the size report.
func (f *File) Create() (int64, error) {
	fh, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, dderr.Sink(dderr.CodeCreate, err, "create %s", f.path)
	}
	fi, err := fh.Stat()
	cerr := fh.Close()
	if err != nil {
		return 0, dderr.Sink(dderr.CodeCreate, err, "stat %s", f.path)
	}
	if cerr != nil {
		return 0, dderr.Sink(dderr.CodeCreate, cerr, "close %s", f.path)
	}
	return fi.Size(), nil
}

// Write replaces the destination's contents with header followed by rows
// and returns the resulting file size. Empty fields are written as empty
// values.
func (f *File) Write(ctx context.Context, header []string, rows []record.Record) (int64, error) {
	fh, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, dderr.Sink(dderr.CodeCreate, err, "open %s", f.path)
	}
	wc, err := file.NewWriter(f.codec, fh)
	if err != nil {
		fh.Close()
		return 0, dderr.Sink(dderr.CodeWrite, err, "encoder for %s", f.path)
	}

	bw := bufio.NewWriterSize(wc, 256<<10)
	cw := csv.NewWriter(bw)
	cw.Comma = f.comma

	fail := func(err error) (int64, error) {
		wc.Close()
		return 0, dderr.Sink(dderr.CodeWrite, err, "write %s", f.path)
	}

	// encoding/csv writes a lone empty field as a blank line, which readers
	// skip; quote it so the record survives.
	write := func(r []string) error {
		if len(r) != 1 || r[0] != "" {
			return cw.Write(r)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		_, err := bw.WriteString("\"\"\n")
		return err
	}

	if err := write(header); err != nil {
		return fail(err)
	}
	for i, r := range rows {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return fail(err)
			}
		}
		if err := write(r); err != nil {
			return fail(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := wc.Close(); err != nil {
		return 0, dderr.Sink(dderr.CodeWrite, err, "close %s", f.path)
	}

	fi, err := os.Stat(f.path)
	if err != nil {
		return 0, dderr.Sink(dderr.CodeWrite, err, "stat %s", f.path)
	}
	return fi.Size(), nil
}

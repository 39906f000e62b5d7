// Package file implements the local filesystem source for delimited input,
// with transparent decompression chosen by file extension.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local reads one file from the local disk.
type Local struct{ path string }

// NewLocal returns a source for path. Nothing is opened until Open.
func NewLocal(path string) *Local { return &Local{path: path} }

func (l *Local) Path() string { return l.path }

// Codec is the compression codec implied by the path's extension.
func (l *Local) Codec() Codec { return CodecFor(l.path) }

// Open returns the decompressed contents. A context that is already done
// fails before the filesystem is touched. Filesystem errors keep their
// cause, so errors.Is(err, fs.ErrNotExist) works.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := l.OpenRaw(ctx)
	if err != nil {
		return nil, err
	}
	rc, err := NewReader(l.Codec(), f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s (%s): %w", l.path, l.Codec(), err)
	}
	return rc, nil
}

// OpenRaw opens the file as stored, without decompression. The row-count
// probe maps this file directly.
func (l *Local) OpenRaw(ctx context.Context) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Size is the stored (possibly compressed) size in bytes.
func (l *Local) Size() (int64, error) {
	fi, err := os.Stat(l.path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if fi.IsDir() {
		return 0, fmt.Errorf("stat %s: is a directory", l.path)
	}
	return fi.Size(), nil
}

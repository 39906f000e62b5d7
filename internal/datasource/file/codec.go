package file

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Codec identifies the compression wrapped around a delimited file.
type Codec string

const (
	CodecNone   Codec = ""
	CodecGzip   Codec = "gzip"
	CodecBzip2  Codec = "bzip2"
	CodecZstd   Codec = "zstd"
	CodecXZ     Codec = "xz"
	CodecSnappy Codec = "snappy"
)

var codecExt = map[string]Codec{
	".gz":   CodecGzip,
	".gzip": CodecGzip,
	".bz2":  CodecBzip2,
	".zst":  CodecZstd,
	".zstd": CodecZstd,
	".xz":   CodecXZ,
	".sz":   CodecSnappy,
}

// CodecFor picks the codec from path's final extension. Unknown extensions
// are treated as uncompressed.
func CodecFor(path string) Codec {
	return codecExt[strings.ToLower(filepath.Ext(path))]
}

// SplitExt splits path into stem and extension, where the extension keeps a
// compression suffix together with the format extension:
//
//	data.csv     -> data, .csv
//	data.csv.gz  -> data, .csv.gz
//	data         -> data, ""
func SplitExt(path string) (stem, ext string) {
	ext = filepath.Ext(path)
	stem = strings.TrimSuffix(path, ext)
	if _, ok := codecExt[strings.ToLower(ext)]; ok {
		inner := filepath.Ext(stem)
		stem = strings.TrimSuffix(stem, inner)
		ext = inner + ext
	}
	return stem, ext
}

// readCloser pairs a decoding reader with the close chain of its source.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewReader wraps src in a decompressor for c. Closing the result closes
// the decompressor (when it has a Close) and then src.
func NewReader(c Codec, src io.ReadCloser) (io.ReadCloser, error) {
	switch c {
	case CodecNone:
		return src, nil
	case CodecGzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &readCloser{Reader: zr, closers: []func() error{zr.Close, src.Close}}, nil
	case CodecBzip2:
		return &readCloser{Reader: bzip2.NewReader(src), closers: []func() error{src.Close}}, nil
	case CodecZstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return &readCloser{Reader: zr, closers: []func() error{
			func() error { zr.Close(); return nil },
			src.Close,
		}}, nil
	case CodecXZ:
		xr, err := xz.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return &readCloser{Reader: xr, closers: []func() error{src.Close}}, nil
	case CodecSnappy:
		return &readCloser{Reader: snappy.NewReader(src), closers: []func() error{src.Close}}, nil
	}
	return nil, fmt.Errorf("unsupported codec %q", c)
}

// writeCloser flushes/closes the encoder before closing the destination.
type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewWriter wraps dst in a compressor for c. bzip2 has no encoder in the
// standard library and is written uncompressed; callers choose the output
// name accordingly (see OutputCodec).
func NewWriter(c Codec, dst io.WriteCloser) (io.WriteCloser, error) {
	switch c {
	case CodecNone, CodecBzip2:
		return dst, nil
	case CodecGzip:
		zw := gzip.NewWriter(dst)
		return &writeCloser{Writer: zw, closers: []func() error{zw.Close, dst.Close}}, nil
	case CodecZstd:
		zw, err := zstd.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return &writeCloser{Writer: zw, closers: []func() error{zw.Close, dst.Close}}, nil
	case CodecXZ:
		xw, err := xz.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		return &writeCloser{Writer: xw, closers: []func() error{xw.Close, dst.Close}}, nil
	case CodecSnappy:
		sw := snappy.NewBufferedWriter(dst)
		return &writeCloser{Writer: sw, closers: []func() error{sw.Close, dst.Close}}, nil
	}
	return nil, fmt.Errorf("unsupported codec %q", c)
}

// OutputCodec is the codec used when writing a file derived from an input
// compressed with c.
func OutputCodec(c Codec) Codec {
	if c == CodecBzip2 {
		return CodecNone
	}
	return c
}

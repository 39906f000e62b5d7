// Package datasource defines where input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a decoded (decompressed) input stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

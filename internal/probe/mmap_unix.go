//go:build linux || darwin || freebsd || netbsd || openbsd

package probe

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// mmapCount maps path read-only and counts newline bytes.
func mmapCount(ctx context.Context, path string) (int64, byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return 0, 0, err
	}
	size := fi.Size()
	if size == 0 {
		return 0, 0, nil
	}
	if !fi.Mode().IsRegular() || size > math.MaxInt {
		return 0, 0, errUnsupported
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return 0, 0, fmt.Errorf("mmap: %w", err)
	}
	defer unix.Munmap(data)
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	var n int64
	for off := 0; off < len(data); off += scanBlock {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		end := min(off+scanBlock, len(data))
		n += int64(bytes.Count(data[off:end], []byte{'\n'}))
	}
	return n, data[len(data)-1], nil
}

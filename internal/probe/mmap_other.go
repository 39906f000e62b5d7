//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package probe

import "context"

func mmapCount(context.Context, string) (int64, byte, error) {
	return 0, 0, errUnsupported
}

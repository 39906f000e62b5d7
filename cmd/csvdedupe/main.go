// Command csvdedupe removes duplicate rows from a delimited file.
//
//	csvdedupe people.csv -c email -k last --sortcolumn signup --sortorder desc
//
// The result is written next to the input as <stem>_deduped<ext>.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"csvdedupe/internal/dderr"

	// register all backends with the storage factory.
	_ "csvdedupe/internal/storage/all"
)

// Exit codes by error kind.
const (
	exitOK     = 0
	exitOther  = 1
	exitConfig = 2
	exitSource = 3
	exitSink   = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the root command and maps its error to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "csvdedupe: %v\n", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		return exitConfig
	}
	switch dderr.KindOf(err) {
	case dderr.KindConfig:
		return exitConfig
	case dderr.KindSource:
		return exitSource
	case dderr.KindSink:
		return exitSink
	default:
		return exitOther
	}
}

// usageError marks command-line mistakes cobra reports before RunE.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// Package dderr defines the error taxonomy for deduplication runs.
//
// Every error that crosses a package boundary carries a Kind so the CLI can
// decide whether a run failed before touching any file (config), while
// reading (source), while writing (sink), or merely degraded (probe).
package dderr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the stage that raised it.
type Kind string

const (
	KindConfig Kind = "config"
	KindSource Kind = "source"
	KindSink   Kind = "sink"
	KindProbe  Kind = "probe"
)

// Error codes, grouped by kind.
const (
	// config
	CodeChunkSize     = "CHUNK_SIZE"
	CodeUnknownColumn = "UNKNOWN_COLUMN"
	CodeInvalidOption = "INVALID_OPTION"
	CodeSortNoColumn  = "SORT_WITHOUT_COLUMN"

	// source
	CodeNotFound   = "NOT_FOUND"
	CodeUnreadable = "UNREADABLE"
	CodeNoHeader   = "NO_HEADER"
	CodeWidth      = "FIELD_COUNT"
	CodeMalformed  = "MALFORMED"

	// sink
	CodeCreate = "CREATE"
	CodeWrite  = "WRITE"
	CodeExport = "EXPORT"

	// probe
	CodeUnsupported = "UNSUPPORTED"
	CodeCount       = "COUNT_FAILED"
)

// Error is the structured error type returned by the dedupe packages.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error [%s]: %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error [%s]: %s", e.Kind, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same Kind and Code. A target with an
// empty Code matches any error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func newf(kind Kind, code string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Config returns a configuration error.
func Config(code, format string, args ...any) *Error {
	return newf(KindConfig, code, nil, format, args...)
}

// Source returns an input error wrapping cause (which may be nil).
func Source(code string, cause error, format string, args ...any) *Error {
	return newf(KindSource, code, cause, format, args...)
}

// Sink returns an output error wrapping cause (which may be nil).
func Sink(code string, cause error, format string, args ...any) *Error {
	return newf(KindSink, code, cause, format, args...)
}

// Probe returns a non-fatal row-count estimation warning.
func Probe(code string, cause error, format string, args ...any) *Error {
	return newf(KindProbe, code, cause, format, args...)
}

// KindOf reports the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// Sentinels usable with errors.Is to match any error of a kind.
var (
	ErrConfig = &Error{Kind: KindConfig}
	ErrSource = &Error{Kind: KindSource}
	ErrSink   = &Error{Kind: KindSink}
	ErrProbe  = &Error{Kind: KindProbe}
)

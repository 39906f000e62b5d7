// Package storage holds the backend-agnostic side of table export: the
// Repository contract, a registry of backend factories keyed by kind, a
// registry of DDL bootstrappers and the batched loader that feeds rows into
// a backend's bulk-insert primitive.
//
// Concrete backends live in sub-packages and register themselves from
// init(); import csvdedupe/internal/storage/all to enable every one of them.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal surface a backend exposes to the exporter.
type Repository interface {
	// CopyFrom bulk-inserts rows aligned to columns and reports how many
	// rows the backend accepted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind    string   // registered backend kind, e.g. "postgres"
	DSN     string   // driver-specific connection string
	Table   string   // target table, optionally schema-qualified
	Columns []string // ordered destination columns
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds in sorted order. The slice is a
// fresh copy on every call.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Registered reports whether a factory exists for kind.
func Registered(kind string) bool {
	regMu.RLock()
	defer regMu.RUnlock()
	_, ok := factories[kind]
	return ok
}

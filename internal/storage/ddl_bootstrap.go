package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper creates the export table for a backend when it does not
// exist yet. Every column is created as the backend's unbounded text type
// since CSV values carry no type information.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string, columns []string) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the bootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the bootstrapper registered for cfg.Kind against repo.
func EnsureTable(ctx context.Context, cfg Config, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", cfg.Kind)
	}
	return fn(ctx, repo, cfg.Table, cfg.Columns)
}

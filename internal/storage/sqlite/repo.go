// Package sqlite registers the "sqlite" export backend, a pure-Go SQLite
// driven through database/sql.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"csvdedupe/internal/ddl"
	"csvdedupe/internal/storage"
	"csvdedupe/internal/storage/sqldb"
)

// Dialect renders SQLite DDL.
var Dialect = ddl.Dialect{Quote: ident, TextType: "TEXT", IfNotExists: true}

// newRepository is a test hook.
var newRepository = func(ctx context.Context, cfg storage.Config) (*sqldb.Repository, func(), error) {
	r, closeFn, err := sqldb.Open(ctx, sqldb.Config{
		Driver:  "sqlite",
		DSN:     cfg.DSN,
		Table:   cfg.Table,
		Columns: cfg.Columns,
		Quote:   ident,
	})
	if err != nil {
		return nil, nil, err
	}
	// Batches arrive sequentially on one file; WAL keeps readers unblocked.
	_ = r.Exec(ctx, "PRAGMA journal_mode = WAL")
	return r, closeFn, nil
}

type wrappedRepo struct {
	*sqldb.Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("sqlite", func(ctx context.Context, repo storage.Repository, table string, columns []string) error {
		stmt, err := ddl.BuildCreateTableSQL(ddl.TextTable(table, columns, Dialect), Dialect)
		if err != nil {
			return fmt.Errorf("sqlite: build DDL: %w", err)
		}
		return repo.Exec(ctx, stmt)
	})
}

func ident(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

package postgres

import (
	"context"
	"fmt"

	"csvdedupe/internal/ddl"
	"csvdedupe/internal/storage"
)

// newRepository is a test hook; tests replace it to avoid a live database.
var newRepository = NewRepository

// wrappedRepo adds the close func returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table, Columns: cfg.Columns})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("postgres", bootstrap)
}

func bootstrap(ctx context.Context, repo storage.Repository, table string, columns []string) error {
	stmt, err := ddl.BuildCreateTableSQL(ddl.TextTable(table, columns, Dialect), Dialect)
	if err != nil {
		return fmt.Errorf("postgres: build DDL: %w", err)
	}
	return repo.Exec(ctx, stmt)
}

// Package mssql registers the "sqlserver" export backend. Rows are loaded
// with the go-mssqldb bulk copy API.
package mssql

import (
	"context"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"csvdedupe/internal/ddl"
	"csvdedupe/internal/storage"
	"csvdedupe/internal/storage/sqldb"
)

// Dialect renders SQL Server DDL. There is no CREATE TABLE IF NOT EXISTS, so
// the statement is guarded with OBJECT_ID.
var Dialect = ddl.Dialect{
	Quote:    msIdent,
	TextType: "NVARCHAR(MAX)",
	Guard: func(fqn, quoted, stmt string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", strings.ReplaceAll(quoted, "'", "''"), stmt)
	},
}

// Repository bulk-copies into SQL Server.
type Repository struct {
	*sqldb.Repository
	table string
}

// NewRepository validates the DSN, connects and returns a close func.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, func(), error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	r, closeFn, err := sqldb.Open(ctx, sqldb.Config{
		Driver:  "sqlserver",
		DSN:     cfg.DSN,
		Table:   cfg.Table,
		Columns: cfg.Columns,
		Quote:   msIdent,
	})
	if err != nil {
		return nil, nil, err
	}
	return &Repository{Repository: r, table: cfg.Table}, closeFn, nil
}

// CopyFrom bulk-inserts rows into the target table in one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(r.table, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// newRepository is a test hook.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("sqlserver", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("sqlserver", func(ctx context.Context, repo storage.Repository, table string, columns []string) error {
		stmt, err := ddl.BuildCreateTableSQL(ddl.TextTable(table, columns, Dialect), Dialect)
		if err != nil {
			return fmt.Errorf("mssql: build DDL: %w", err)
		}
		return repo.Exec(ctx, stmt)
	})
}

// msIdent quotes a SQL Server identifier with brackets, escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

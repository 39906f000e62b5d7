// Package mysql registers the "mysql" export backend on go-sql-driver/mysql.
package mysql

import (
	"context"
	"fmt"
	"strings"

	drv "github.com/go-sql-driver/mysql"

	"csvdedupe/internal/ddl"
	"csvdedupe/internal/storage"
	"csvdedupe/internal/storage/sqldb"
)

// Dialect renders MySQL DDL. LONGTEXT holds any CSV field.
var Dialect = ddl.Dialect{Quote: ident, TextType: "LONGTEXT", IfNotExists: true}

// newRepository is a test hook.
var newRepository = func(ctx context.Context, cfg storage.Config) (*sqldb.Repository, func(), error) {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return sqldb.Open(ctx, sqldb.Config{
		Driver:  "mysql",
		DSN:     dsn,
		Table:   cfg.Table,
		Columns: cfg.Columns,
		Quote:   ident,
	})
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
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("mysql", func(ctx context.Context, repo storage.Repository, table string, columns []string) error {
		stmt, err := ddl.BuildCreateTableSQL(ddl.TextTable(table, columns, Dialect), Dialect)
		if err != nil {
			return fmt.Errorf("mysql: build DDL: %w", err)
		}
		return repo.Exec(ctx, stmt+" CHARACTER SET utf8mb4")
	})
}

// normalizeDSN validates dsn and forces a utf8mb4 connection so multi-byte
// CSV values survive the round trip.
func normalizeDSN(dsn string) (string, error) {
	c, err := drv.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	if c.Params == nil {
		c.Params = map[string]string{}
	}
	if _, ok := c.Params["charset"]; !ok {
		c.Params["charset"] = "utf8mb4"
	}
	return c.FormatDSN(), nil
}

func ident(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// Package postgres implements storage.Repository on pgx v5, loading rows
// with the COPY protocol.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"csvdedupe/internal/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN     string   // connection string for pgxpool
	Table   string   // target table, e.g. "public.people"
	Columns []string // ordered columns for COPY
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// Dialect renders Postgres DDL.
var Dialect = ddl.Dialect{Quote: pgIdent, TextType: "TEXT", IfNotExists: true}

// NewRepository opens a pool and returns the Repository plus its close func.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

// CopyFrom streams rows into the configured table with COPY FROM STDIN.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s)", r.cfg.Table, pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("copy into %s: %w", r.cfg.Table, err)
	}
	return n, nil
}

// Exec runs a single statement on the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// pgIdent quotes an identifier for Postgres, doubling embedded quotes.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// splitFQN turns "schema.table" into a pgx.Identifier for CopyFrom.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

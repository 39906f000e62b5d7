// Package sqldb is the database/sql plumbing shared by the SQL backends that
// have no dedicated bulk-load protocol. Rows are written with a prepared
// INSERT inside one transaction per batch.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// pingTimeout bounds the connectivity check in Open.
const pingTimeout = 5 * time.Second

// Config describes one export target.
type Config struct {
	Driver  string // database/sql driver name
	DSN     string
	Table   string
	Columns []string
	// Quote escapes one identifier part. Nil leaves names as-is.
	Quote func(string) string
	// Placeholder renders the i-th (0-based) bind parameter. Nil means "?".
	Placeholder func(i int) string
}

// Repository writes rows through database/sql.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// Open connects and pings. The returned func closes the pool.
func Open(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("%s: DSN must not be empty", cfg.Driver)
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: open: %w", cfg.Driver, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%s: ping: %w", cfg.Driver, err)
	}
	return New(db, cfg), func() { _ = db.Close() }, nil
}

// New wraps an existing pool.
func New(db *sql.DB, cfg Config) *Repository { return &Repository{db: db, cfg: cfg} }

// DB exposes the pool for backends that need driver-specific statements.
func (r *Repository) DB() *sql.DB { return r.db }

// InsertSQL renders the INSERT statement used by CopyFrom.
func (r *Repository) InsertSQL(columns []string) string {
	cols := make([]string, len(columns))
	ph := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = r.quote(c)
		if r.cfg.Placeholder != nil {
			ph[i] = r.cfg.Placeholder(i)
		} else {
			ph[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.quoteFQN(r.cfg.Table), strings.Join(cols, ", "), strings.Join(ph, ", "))
}

// CopyFrom inserts rows in one transaction and returns the count inserted.
// Nothing is committed when any row fails.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: CopyFrom: columns must not be empty", r.cfg.Driver)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", r.cfg.Driver, err)
	}
	stmt, err := tx.PrepareContext(ctx, r.InsertSQL(columns))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%s: prepare insert: %w", r.cfg.Driver, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: row %d has %d values for %d columns", r.cfg.Driver, i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: insert row %d: %w", r.cfg.Driver, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", r.cfg.Driver, err)
	}
	return int64(len(rows)), nil
}

// Exec runs one statement; blank statements are ignored.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("%s: exec: %w", r.cfg.Driver, err)
	}
	return nil
}

// Count returns the number of rows in the configured table.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+r.quoteFQN(r.cfg.Table)).Scan(&n)
	return n, err
}

func (r *Repository) quote(s string) string {
	if r.cfg.Quote == nil {
		return s
	}
	return r.cfg.Quote(s)
}

func (r *Repository) quoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = r.quote(p)
	}
	return strings.Join(parts, ".")
}

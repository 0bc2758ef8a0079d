// Package postgres implements a Postgres sink using pgx v5. Batches are
// written with the COPY protocol, which is the fastest bulk path pgx offers.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres sink configuration.
type Config struct {
	// DSN is the connection string for pgxpool.
	DSN string

	// Table is the possibly schema-qualified target name, e.g. "public.merged".
	Table string

	// AutoCreateTable, when set, issues CREATE TABLE IF NOT EXISTS with all
	// columns typed text before the first batch.
	AutoCreateTable bool
}

// Repository is a Postgres-backed sink. CopyFrom matches storage.CopyFn.
type Repository struct {
	pool    *pgxpool.Pool
	cfg     Config
	created bool
}

// NewRepository constructs a Repository and returns a close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, fmt.Errorf("postgres: table must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

// CopyFrom streams the batch into the target table via COPY. Column names
// are passed through pgx.Identifier so they arrive quoted.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: acquire: %w", err)
	}
	defer conn.Release()

	if r.cfg.AutoCreateTable && !r.created {
		if _, err := conn.Exec(ctx, createTableSQL(r.cfg.Table, columns)); err != nil {
			return 0, fmt.Errorf("postgres: create table: %w", err)
		}
		r.created = true
	}

	n, err := conn.CopyFrom(ctx, tableIdentifier(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("postgres: copy: %w", err)
	}
	return n, nil
}

// tableIdentifier splits a possibly schema-qualified name into a
// pgx.Identifier so each part gets quoted independently.
func tableIdentifier(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}

// createTableSQL builds CREATE TABLE IF NOT EXISTS with every column typed
// text, matching the stringly nature of merged output.
func createTableSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgIdent(c) + " text"
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		pgFQN(table),
		strings.Join(defs, ", "),
	)
}

func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.merged" to
// "public"."merged". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := insertSQL("merged", []string{"id", "name", "values"})
	want := `INSERT INTO "merged" ("id", "name", "values") VALUES (?, ?, ?)`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got := createTableSQL("merged", []string{"id", "values"})
	want := `CREATE TABLE IF NOT EXISTS "merged" ("id" TEXT, "values" TEXT)`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestQuoteIdentEscapesQuotes(t *testing.T) {
	t.Parallel()

	if got := quoteIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("got %q", got)
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "merged.db")

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, Table: "merged", AutoCreateTable: true})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()

	cols := []string{"id", "name", "values"}
	n, err := repo.CopyFrom(ctx, cols, [][]any{
		{"1", "alice", "[a,b]"},
		{"2", nil, "[]"},
	})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted %d, want 2", n)
	}

	var count int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "merged"`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("table holds %d rows, want 2", count)
	}

	var name any
	if err := repo.db.QueryRowContext(ctx, `SELECT "name" FROM "merged" WHERE "id" = '2'`).Scan(&name); err != nil {
		t.Fatalf("select: %v", err)
	}
	if name != nil {
		t.Fatalf("blank scalar stored as %v, want NULL", name)
	}
}

func TestRepositoryRowWidthMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, closeFn, err := NewRepository(ctx, Config{DSN: filepath.Join(t.TempDir(), "m.db"), Table: "merged", AutoCreateTable: true})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()

	_, err = repo.CopyFrom(ctx, []string{"a", "b"}, [][]any{{"just one"}})
	if err == nil {
		t.Fatal("want error for row width mismatch")
	}
}

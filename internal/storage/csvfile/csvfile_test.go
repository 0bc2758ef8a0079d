package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriterHeaderOnceAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	w, closeFn, err := NewWriter(Config{Path: path})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	cols := []string{"id", "name", "values"}
	n, err := w.CopyFrom(context.Background(), cols, [][]any{
		{"1", "alice", "[a,b]"},
		{"2", nil, "[]"},
	})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("written %d, want 2", n)
	}
	if _, err := w.CopyFrom(context.Background(), cols, [][]any{{"3", "carol", "[x]"}}); err != nil {
		t.Fatalf("second CopyFrom: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "id,name,values\n1,alice,\"[a,b]\"\n2,,[]\n3,carol,[x]\n"
	if string(got) != want {
		t.Fatalf("file content:\n%q\nwant:\n%q", got, want)
	}
	if w.RowsWritten() != 3 {
		t.Fatalf("RowsWritten %d, want 3", w.RowsWritten())
	}
}

func TestWriterDigestStableForSameContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cols := []string{"a", "b"}
	rows := [][]any{{"1", "x"}, {"2", "y"}}

	writeOnce := func(name string) uint64 {
		w, closeFn, err := NewWriter(Config{Path: filepath.Join(dir, name)})
		if err != nil {
			t.Fatalf("NewWriter: %v", err)
		}
		if _, err := w.CopyFrom(context.Background(), cols, rows); err != nil {
			t.Fatalf("CopyFrom: %v", err)
		}
		if err := closeFn(); err != nil {
			t.Fatalf("close: %v", err)
		}
		return w.Digest()
	}

	d1 := writeOnce("one.csv")
	d2 := writeOnce("two.csv")
	if d1 != d2 {
		t.Fatalf("digests differ for identical content: %x vs %x", d1, d2)
	}

	w, closeFn, err := NewWriter(Config{Path: filepath.Join(dir, "three.csv")})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.CopyFrom(context.Background(), cols, [][]any{{"1", "x"}, {"2", "z"}}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	closeFn()
	if w.Digest() == d1 {
		t.Fatal("digest should differ for different content")
	}
}

func TestWriterRowWidthMismatch(t *testing.T) {
	t.Parallel()

	w, closeFn, err := NewWriter(Config{Path: filepath.Join(t.TempDir(), "out.csv")})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer closeFn()

	_, err = w.CopyFrom(context.Background(), []string{"a", "b"}, [][]any{{"only one"}})
	if err == nil {
		t.Fatal("want error for row width mismatch")
	}
}

func TestWriterCustomDelimiter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	w, closeFn, err := NewWriter(Config{Path: path, Comma: ';'})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.CopyFrom(context.Background(), []string{"a", "b"}, [][]any{{"1", "2"}}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "a;b\n1;2\n" {
		t.Fatalf("content %q, want %q", got, "a;b\n1;2\n")
	}
}

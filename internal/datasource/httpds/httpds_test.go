package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRemoteOpenSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "id,name\n1,a\n")
	}))
	defer srv.Close()

	rc, err := NewRemote(Config{URL: srv.URL}).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "id,name\n1,a\n" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestRemoteOpenRetriesOn500(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	r := NewRemote(Config{
		URL:            srv.URL,
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	rc, err := r.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rc.Close()
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("want 3 attempts, got %d", n)
	}
}

func TestRemoteOpenDoesNotRetry404(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewRemote(Config{URL: srv.URL, MaxRetries: 3, InitialBackoff: time.Millisecond}).Open(context.Background())
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("want status 404 error, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("want single attempt, got %d", n)
	}
}

func TestRemoteOpenEmptyURL(t *testing.T) {
	t.Parallel()

	_, err := NewRemote(Config{}).Open(context.Background())
	if err == nil {
		t.Fatal("want error for empty url")
	}
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	initial := 100 * time.Millisecond
	max := 500 * time.Millisecond
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 500 * time.Millisecond},
	}
	for _, c := range cases {
		if got := backoffDuration(initial, c.attempt, max); got != c.want {
			t.Errorf("attempt %d: got %v want %v", c.attempt, got, c.want)
		}
	}
}

package prompush

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"groupmerge/internal/metrics"
)

func TestNewBackendValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("job", ""); err == nil {
		t.Fatal("want error for missing gateway URL")
	}

	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.jobName != "groupmerge" {
		t.Fatalf("default job name = %q, want groupmerge", b.jobName)
	}
}

func TestIncCounterRouting(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("job", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter("merge_step_total", 1, metrics.Labels{"step": "parse", "status": "success"})
	b.IncCounter("merge_records_total", 5, metrics.Labels{"kind": "parsed"})
	b.IncCounter("merge_batches_total", 2, nil)
	b.IncCounter("unknown_metric", 9, nil)

	if got := testutil.ToFloat64(b.stepCounter.WithLabelValues("parse", "success")); got != 1 {
		t.Fatalf("step counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.recordCounter.WithLabelValues("parsed")); got != 5 {
		t.Fatalf("record counter = %v, want 5", got)
	}
	if got := testutil.ToFloat64(b.batchCounter); got != 2 {
		t.Fatalf("batch counter = %v, want 2", got)
	}
}

func TestBackendThroughMetricsPackage(t *testing.T) {
	b, err := NewBackend("job", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	metrics.SetBackend(b)

	metrics.RecordStep("job", "merge", nil, 50*time.Millisecond)
	metrics.RecordStep("job", "merge", errors.New("boom"), time.Millisecond)

	if got := testutil.ToFloat64(b.stepCounter.WithLabelValues("merge", "success")); got != 1 {
		t.Fatalf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.stepCounter.WithLabelValues("merge", "failure")); got != 1 {
		t.Fatalf("failure count = %v, want 1", got)
	}
}

func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("job", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter("merge_batches_total", 1, nil)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if atomic.LoadInt32(&hits) == 0 {
		t.Fatal("gateway was never contacted")
	}
}

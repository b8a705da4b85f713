package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_ObserveCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	r.ObserveCall(true, 20*time.Millisecond)
	r.ObserveCall(true, 30*time.Millisecond)
	r.ObserveCall(false, time.Second)

	if got := testutil.ToFloat64(r.calls.WithLabelValues("success")); got != 2 {
		t.Errorf("success calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.calls.WithLabelValues("error")); got != 1 {
		t.Errorf("error calls = %v, want 1", got)
	}
	if samples := testutil.CollectAndCount(r.latency); samples != 1 {
		t.Errorf("latency histogram series = %d, want 1", samples)
	}
}

func TestRecorder_SetRunning(t *testing.T) {
	r, err := NewRecorder(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	r.SetRunning(true)
	if got := testutil.ToFloat64(r.running); got != 1 {
		t.Errorf("running = %v, want 1", got)
	}
	r.SetRunning(false)
	if got := testutil.ToFloat64(r.running); got != 0 {
		t.Errorf("running = %v, want 0", got)
	}
}

func TestRecorder_ObservePush(t *testing.T) {
	r, err := NewRecorder(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	for i := 1; i <= 12; i++ {
		buffered := i
		if buffered > 10 {
			buffered = 10
		}
		r.ObservePush(buffered)
	}

	if got := testutil.ToFloat64(r.received); got != 12 {
		t.Errorf("received = %v, want 12", got)
	}
	if got := testutil.ToFloat64(r.buffered); got != 10 {
		t.Errorf("buffered = %v, want 10", got)
	}
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatalf("first NewRecorder() error = %v", err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Error("second NewRecorder() on same registry expected error, got nil")
	}
}

func TestRecorder_BothOutcomesExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	n, err := testutil.GatherAndCount(reg, "healthmonitor_verification_calls_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("verification_calls_total series = %d, want 2", n)
	}
}

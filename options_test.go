package healthmonitor

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_Defaults(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if m.PeerURL() != "http://localhost:5002" {
		t.Errorf("PeerURL() = %v, want %v", m.PeerURL(), "http://localhost:5002")
	}
	if m.CallInterval() != 45*time.Second {
		t.Errorf("CallInterval() = %v, want %v", m.CallInterval(), 45*time.Second)
	}
	if m.CallTimeout() != 10*time.Second {
		t.Errorf("CallTimeout() = %v, want %v", m.CallTimeout(), 10*time.Second)
	}
	if m.WarmupDelay() != 15*time.Second {
		t.Errorf("WarmupDelay() = %v, want %v", m.WarmupDelay(), 15*time.Second)
	}
	if m.Port() != 5001 {
		t.Errorf("Port() = %v, want %v", m.Port(), 5001)
	}
	if m.Title() != "Health Monitor" {
		t.Errorf("Title() = %q, want %q", m.Title(), "Health Monitor")
	}
}

func TestNew_StartsStopped(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stats := m.Stats()
	if stats.Running {
		t.Error("Running = true before any start")
	}
	if stats.TotalCalls != 0 || stats.SuccessRate != 0 {
		t.Errorf("Stats() = %+v, want zero counters", stats)
	}
}

func TestWithPeerURL(t *testing.T) {
	m, err := New(WithPeerURL("http://app2:5002"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.PeerURL() != "http://app2:5002" {
		t.Errorf("PeerURL() = %v, want %v", m.PeerURL(), "http://app2:5002")
	}
}

func TestWithPeerURL_Invalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "app2:5002"},
		{"ftp scheme", "ftp://app2"},
		{"no host", "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(WithPeerURL(tt.url)); err == nil {
				t.Errorf("New() expected error for peer url %q, got nil", tt.url)
			}
		})
	}
}

func TestWithCallInterval(t *testing.T) {
	m, err := New(WithCallInterval(30 * time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.CallInterval() != 30*time.Second {
		t.Errorf("CallInterval() = %v, want %v", m.CallInterval(), 30*time.Second)
	}
}

func TestDurationOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero interval", WithCallInterval(0)},
		{"negative interval", WithCallInterval(-time.Second)},
		{"zero timeout", WithCallTimeout(0)},
		{"negative timeout", WithCallTimeout(-time.Second)},
		{"negative warmup", WithWarmupDelay(-time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opt); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}

func TestWithWarmupDelay_Zero(t *testing.T) {
	m, err := New(WithWarmupDelay(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.WarmupDelay() != 0 {
		t.Errorf("WarmupDelay() = %v, want 0", m.WarmupDelay())
	}
}

func TestWithPort_Invalid(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too high", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(WithPort(tt.port)); err == nil {
				t.Errorf("New() expected error for port %v, got nil", tt.port)
			}
		})
	}
}

func TestWithPort_ValidEdgeCases(t *testing.T) {
	for _, port := range []int{1, 5001, 65535} {
		m, err := New(WithPort(port))
		if err != nil {
			t.Errorf("New() unexpected error for port %v: %v", port, err)
			continue
		}
		if m.Port() != port {
			t.Errorf("Port() = %v, want %v", m.Port(), port)
		}
	}
}

func TestWithTitle(t *testing.T) {
	m, err := New(WithTitle("App1 Health Monitor"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.Title() != "App1 Health Monitor" {
		t.Errorf("Title() = %q, want %q", m.Title(), "App1 Health Monitor")
	}

	m, err = New(WithTitle(""))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.Title() != "Health Monitor" {
		t.Errorf("Title() = %q, want default", m.Title())
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	m, err := New(WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.StartVerifier()
	m.StopVerifier()
	<-m.VerifierDone()

	if !strings.Contains(buf.String(), "verifier started") {
		t.Errorf("custom logger not used, got output: %q", buf.String())
	}
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := New(WithLogger(nil))
	if err == nil {
		t.Error("New() expected error for nil logger, got nil")
	}
}

func TestWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	if _, err := New(WithRegistry(reg)); err != nil {
		t.Fatalf("New() error = %v", err)
	}

	count, err := testutil.GatherAndCount(reg, "healthmonitor_verification_calls_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("calls series = %d, want 2", count)
	}

	// a second monitor on the same registry collides
	if _, err := New(WithRegistry(reg)); err == nil {
		t.Error("New() expected error for duplicate registration, got nil")
	}
}

func TestWithRegistry_Nil(t *testing.T) {
	if _, err := New(WithRegistry(nil)); err == nil {
		t.Error("New() expected error for nil registry, got nil")
	}
}

func TestNew_PrivateRegistries(t *testing.T) {
	// monitors without WithRegistry never collide
	for i := 0; i < 3; i++ {
		if _, err := New(); err != nil {
			t.Fatalf("New() #%d error = %v", i, err)
		}
	}
}

package healthmonitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ghpascon/healthmonitor/dashboard"
	"github.com/ghpascon/healthmonitor/internal/ingress"
	"github.com/ghpascon/healthmonitor/internal/metrics"
	"github.com/ghpascon/healthmonitor/internal/server"
	"github.com/ghpascon/healthmonitor/internal/verifier"
)

const (
	defaultPeerURL     = "http://localhost:5002"
	defaultPort        = 5001
	defaultWarmupDelay = 15 * time.Second
	defaultTitle       = "Health Monitor"
)

// Monitor owns one periodic verifier and one ingress buffer and serves them
// over HTTP.
//
// Monitor is created using [New] with functional options and started with
// [Monitor.Start]. The typical lifecycle is:
//
//	m, err := healthmonitor.New(healthmonitor.WithPeerURL("http://app2:5002"))
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	m.Start(ctx) // blocks until context cancelled
//
// The verifier can also be driven directly with [Monitor.StartVerifier] and
// [Monitor.StopVerifier], with or without the HTTP server running.
type Monitor struct {
	title       string
	port        int
	warmupDelay time.Duration
	logger      *slog.Logger

	verifier *verifier.Verifier
	buffer   *ingress.Buffer
	gatherer prometheus.Gatherer
}

// New creates a new [Monitor] with the given options.
//
// Defaults:
//   - Peer URL: http://localhost:5002
//   - Call interval: 45 seconds
//   - Call timeout: 10 seconds
//   - Warm-up delay: 15 seconds
//   - Port: 5001
//
// Metrics are registered with a private registry unless [WithRegistry] is
// given. Returns an error if any option is invalid or the collectors cannot
// be registered.
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		peerURL:      defaultPeerURL,
		callInterval: verifier.DefaultCallInterval,
		callTimeout:  verifier.DefaultCallTimeout,
		warmupDelay:  defaultWarmupDelay,
		port:         defaultPort,
		title:        defaultTitle,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := cfg.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	callbacks := make([]func(verifier.TickResult), 0, len(cfg.tickCallbacks))
	for _, cb := range cfg.tickCallbacks {
		callbacks = append(callbacks, func(r verifier.TickResult) {
			cb(toPublicTickResult(r))
		})
	}

	v, err := verifier.New(verifier.Config{
		PeerURL:   cfg.peerURL,
		Interval:  cfg.callInterval,
		Timeout:   cfg.callTimeout,
		Logger:    logger,
		Observer:  recorder,
		Callbacks: callbacks,
	})
	if err != nil {
		return nil, err
	}

	return &Monitor{
		title:       cfg.title,
		port:        cfg.port,
		warmupDelay: cfg.warmupDelay,
		logger:      logger,
		verifier:    v,
		buffer:      ingress.NewBuffer(ingress.DefaultCapacity, recorder),
		gatherer:    reg,
	}, nil
}

// Start serves HTTP and starts the verifier once the warm-up delay elapses.
//
// Start is a blocking call that runs until the provided context is cancelled.
// On cancellation the verifier is stopped, Start waits for an in-flight call
// to finish, and the HTTP server shuts down gracefully.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("health monitor starting",
		"peer_url", m.verifier.PeerURL(),
		"call_interval", m.verifier.Interval().String(),
		"warmup_delay", m.warmupDelay.String(),
	)

	if ctx.Err() != nil {
		return nil
	}

	httpServer := server.NewServer(m.verifier, m.buffer, m.gatherer, m.port, dashboard.Assets, m.title, m.logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	m.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", m.port))

	if m.warmup(ctx) {
		m.verifier.Start()
	}

	<-ctx.Done()
	m.verifier.Stop()
	<-m.verifier.Done()
	m.verifier.Close()

	m.logger.Info("health monitor stopped")
	return nil
}

// warmup waits for the warm-up delay and reports whether ctx is still live.
func (m *Monitor) warmup(ctx context.Context) bool {
	if m.warmupDelay <= 0 {
		return ctx.Err() == nil
	}

	m.logger.Info("waiting before first verification", "delay", m.warmupDelay.String())
	timer := time.NewTimer(m.warmupDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// StartVerifier starts the verification loop if it is not already running.
// The returned channel is closed when the loop exits.
func (m *Monitor) StartVerifier() <-chan struct{} {
	return m.verifier.Start()
}

// StopVerifier asks the verification loop to exit after any in-flight call.
func (m *Monitor) StopVerifier() {
	m.verifier.Stop()
}

// VerifierDone returns a channel closed once the verification loop has exited.
func (m *Monitor) VerifierDone() <-chan struct{} {
	return m.verifier.Done()
}

// Stats returns a snapshot of the verifier statistics.
func (m *Monitor) Stats() Stats {
	return toPublicStats(m.verifier.Stats())
}

// Push records payload as received from the data producer.
func (m *Monitor) Push(payload json.RawMessage) Record {
	return toPublicRecord(m.buffer.Push(payload))
}

// Recent returns up to k of the newest received records, oldest first.
func (m *Monitor) Recent(k int) []Record {
	records := m.buffer.Recent(k)
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = toPublicRecord(r)
	}
	return out
}

// PeerURL returns the base URL of the verified peer.
func (m *Monitor) PeerURL() string {
	return m.verifier.PeerURL()
}

// CallInterval returns the pause between verification calls.
func (m *Monitor) CallInterval() time.Duration {
	return m.verifier.Interval()
}

// CallTimeout returns the per-call timeout.
func (m *Monitor) CallTimeout() time.Duration {
	return m.verifier.Timeout()
}

// WarmupDelay returns the delay before [Monitor.Start] starts the verifier.
func (m *Monitor) WarmupDelay() time.Duration {
	return m.warmupDelay
}

// Port returns the configured HTTP port.
func (m *Monitor) Port() int {
	return m.port
}

// Title returns the service name shown on the status page and in /health.
func (m *Monitor) Title() string {
	return m.title
}

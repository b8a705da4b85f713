package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultCallInterval is the pause between the end of one call and the
	// start of the next.
	DefaultCallInterval = 45 * time.Second

	// DefaultCallTimeout bounds a single verification call.
	DefaultCallTimeout = 10 * time.Second

	verificationPath = "/verification"
)

// Stats is an immutable snapshot of a [Verifier]'s call statistics.
//
// TotalCalls always equals SuccessfulCalls + ErrorCalls.
type Stats struct {
	Running         bool            `json:"running"`
	TotalCalls      uint64          `json:"total_calls"`
	SuccessfulCalls uint64          `json:"successful_calls"`
	ErrorCalls      uint64          `json:"errors"`
	LastCalledAt    *time.Time      `json:"last_called"`
	LastResponse    json.RawMessage `json:"last_response"`
}

// SuccessRate returns the percentage of successful calls rounded to two
// decimals, or 0 when no call has completed yet.
func (s Stats) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	rate := float64(s.SuccessfulCalls) / float64(s.TotalCalls) * 100
	return math.Round(rate*100) / 100
}

// TickResult describes the outcome of one verification call.
type TickResult struct {
	URL        string
	Success    bool
	StatusCode int
	Latency    time.Duration
	CheckedAt  time.Time

	// Response is the JSON body of a successful call, nil otherwise.
	Response json.RawMessage

	// Err is a *TransportError or *RemoteError when Success is false.
	Err error
}

// Observer receives call outcomes and lifecycle changes, typically to feed
// metrics. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveCall(success bool, latency time.Duration)
	SetRunning(running bool)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(bool, time.Duration) {}
func (nopObserver) SetRunning(bool)                 {}

// Config holds the construction parameters for a [Verifier].
type Config struct {
	// PeerURL is the base URL of the verified peer; "/verification" is appended.
	PeerURL string

	// Interval defaults to DefaultCallInterval when zero.
	Interval time.Duration

	// Timeout defaults to DefaultCallTimeout when zero.
	Timeout time.Duration

	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger

	// Observer is optional.
	Observer Observer

	// Callbacks run after every tick, after the stats are updated.
	Callbacks []func(TickResult)
}

// Verifier periodically calls a peer's verification endpoint and keeps
// statistics about the outcomes.
//
// A Verifier starts in the stopped state. [Verifier.Start] launches the
// polling loop in its own goroutine and [Verifier.Stop] asks it to exit.
// Stop is cooperative: a call already in flight runs to completion (bounded
// by the call timeout) and is counted, then the loop exits without issuing
// another call. A stopped Verifier can be started again.
//
// Call failures never stop the loop; they are counted and logged.
type Verifier struct {
	peerURL   string
	url       string
	interval  time.Duration
	timeout   time.Duration
	client    *Client
	logger    *slog.Logger
	observer  Observer
	callbacks []func(TickResult)

	// mu guards the lifecycle fields. Each loop owns its stop channel so a
	// restart never revives a loop that is still finishing its last call,
	// and a new loop waits for the previous done before its first call.
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}

	statsMu sync.RWMutex
	stats   Stats
}

// New creates a stopped [Verifier].
//
// Returns an error if the peer URL is missing or not an absolute http(s)
// URL, or if the interval or timeout is negative.
func New(cfg Config) (*Verifier, error) {
	if cfg.PeerURL == "" {
		return nil, errors.New("peer url is required")
	}
	parsed, err := url.Parse(cfg.PeerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid peer url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("peer url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("peer url %q has no host", cfg.PeerURL)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("call interval cannot be negative, got %s", cfg.Interval)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("call timeout cannot be negative, got %s", cfg.Timeout)
	}

	v := &Verifier{
		peerURL:   cfg.PeerURL,
		url:       strings.TrimRight(cfg.PeerURL, "/") + verificationPath,
		interval:  cfg.Interval,
		timeout:   cfg.Timeout,
		client:    NewClient(),
		logger:    cfg.Logger,
		observer:  cfg.Observer,
		callbacks: cfg.Callbacks,
		done:      make(chan struct{}),
	}
	// never started: Done reports a finished loop
	close(v.done)

	if v.interval == 0 {
		v.interval = DefaultCallInterval
	}
	if v.timeout == 0 {
		v.timeout = DefaultCallTimeout
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	if v.observer == nil {
		v.observer = nopObserver{}
	}
	return v, nil
}

// PeerURL returns the configured peer base URL.
func (v *Verifier) PeerURL() string { return v.peerURL }

// URL returns the full verification URL that is called on every tick.
func (v *Verifier) URL() string { return v.url }

// Interval returns the pause between calls.
func (v *Verifier) Interval() time.Duration { return v.interval }

// Timeout returns the per-call timeout.
func (v *Verifier) Timeout() time.Duration { return v.timeout }

// Start launches the polling loop if it is not already running.
//
// Start does not block. The first call is made immediately, or as soon as a
// previous loop has finished its in-flight call, so at most one loop ever
// talks to the peer. The returned channel is closed when the loop exits;
// calling Start on a running Verifier is a no-op that returns the running
// loop's channel.
func (v *Verifier) Start() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stop != nil {
		return v.done
	}

	prev := v.done
	stop := make(chan struct{})
	done := make(chan struct{})
	v.stop = stop
	v.done = done

	v.observer.SetRunning(true)
	v.logger.Info("verifier started",
		"url", v.url,
		"interval", v.interval.String(),
		"timeout", v.timeout.String(),
	)

	go v.run(prev, stop, done)
	return done
}

// Stop asks the polling loop to exit. It returns immediately; use
// [Verifier.Done] to wait for the loop to finish. Stopping a stopped
// Verifier is a no-op.
func (v *Verifier) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stop == nil {
		return
	}
	close(v.stop)
	v.stop = nil

	v.observer.SetRunning(false)
	v.logger.Info("verifier stopped", "url", v.url)
}

// Running reports whether the loop has been started and not stopped.
func (v *Verifier) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stop != nil
}

// Done returns a channel that is closed once the most recently started loop
// has exited. Loops exit in start order, so every earlier loop has exited
// too. For a Verifier that was never started the channel is already
// closed.
func (v *Verifier) Done() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.done
}

// Stats returns a snapshot of the call statistics.
func (v *Verifier) Stats() Stats {
	running := v.Running()

	v.statsMu.RLock()
	s := v.stats
	v.statsMu.RUnlock()

	s.Running = running
	if s.LastCalledAt != nil {
		t := *s.LastCalledAt
		s.LastCalledAt = &t
	}
	if s.LastResponse != nil {
		s.LastResponse = append(json.RawMessage(nil), s.LastResponse...)
	}
	return s
}

// Close releases idle connections. The Verifier should be stopped first.
func (v *Verifier) Close() {
	v.client.Close()
}

func (v *Verifier) run(prev, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	select {
	case <-prev:
	case <-stop:
		<-prev
		return
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		// the call is not tied to stop: an in-flight call always completes
		v.tick(context.Background())

		wait := time.NewTimer(v.interval)
		select {
		case <-stop:
			wait.Stop()
			return
		case <-wait.C:
		}
	}
}

// tick performs one verification call and records its outcome.
func (v *Verifier) tick(ctx context.Context) TickResult {
	resp := v.client.Get(ctx, v.url, v.timeout)

	result := TickResult{
		URL:        v.url,
		StatusCode: resp.StatusCode,
		Latency:    resp.Latency,
		CheckedAt:  time.Now(),
		Err:        classify(v.url, resp),
	}
	if result.Err == nil {
		result.Success = true
		result.Response = json.RawMessage(resp.Body)
	}

	v.record(result)
	v.observer.ObserveCall(result.Success, result.Latency)

	if result.Success {
		v.logger.Debug("verification succeeded",
			"url", v.url,
			"status_code", result.StatusCode,
			"latency_ms", result.Latency.Milliseconds(),
		)
	} else {
		v.logger.Warn("verification failed",
			"url", v.url,
			"kind", errorKind(result.Err),
			"status_code", result.StatusCode,
			"latency_ms", result.Latency.Milliseconds(),
			"error", result.Err.Error(),
		)
	}

	for _, cb := range v.callbacks {
		v.invokeCallbackSafe(cb, result)
	}
	return result
}

func (v *Verifier) record(result TickResult) {
	v.statsMu.Lock()
	defer v.statsMu.Unlock()

	v.stats.TotalCalls++
	if !result.Success {
		v.stats.ErrorCalls++
		return
	}
	v.stats.SuccessfulCalls++
	v.stats.LastResponse = result.Response
	checkedAt := result.CheckedAt
	v.stats.LastCalledAt = &checkedAt
}

// invokeCallbackSafe calls a tick callback with panic recovery.
func (v *Verifier) invokeCallbackSafe(cb func(TickResult), result TickResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("tick callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"url", result.URL,
			)
		}
	}()
	cb(result)
}

// classify turns a raw response into nil, a *TransportError or a *RemoteError.
func classify(target string, resp Response) error {
	if resp.Error != nil {
		return resp.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{URL: target, StatusCode: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}
	if resp.Truncated {
		return &RemoteError{URL: target, StatusCode: resp.StatusCode, Reason: "response body exceeds 1MB"}
	}
	if !json.Valid(resp.Body) {
		return &RemoteError{URL: target, StatusCode: resp.StatusCode, Reason: "response body is not valid JSON"}
	}
	return nil
}

func errorKind(err error) string {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return "transport"
	}
	return "remote"
}

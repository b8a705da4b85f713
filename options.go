package healthmonitor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	peerURL       string
	callInterval  time.Duration
	callTimeout   time.Duration
	warmupDelay   time.Duration
	port          int
	title         string
	logger        *slog.Logger
	registry      *prometheus.Registry
	tickCallbacks []func(TickResult)
}

// Option is a function that configures a [Monitor] instance during construction.
//
// Options return an error if validation fails.
type Option func(*monitorConfig) error

// WithPeerURL sets the base URL of the peer whose /verification endpoint is
// called. Defaults to http://localhost:5002.
//
// The URL itself is validated by [New].
func WithPeerURL(url string) Option {
	return func(cfg *monitorConfig) error {
		if url == "" {
			return errors.New("peer url cannot be empty")
		}
		cfg.peerURL = url
		return nil
	}
}

// WithCallInterval sets the pause between the end of one verification call
// and the start of the next. Defaults to 45 seconds.
//
// Returns an error if the duration is zero or negative.
func WithCallInterval(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("call interval must be positive")
		}
		cfg.callInterval = d
		return nil
	}
}

// WithCallTimeout bounds each verification call. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithCallTimeout(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("call timeout must be positive")
		}
		cfg.callTimeout = d
		return nil
	}
}

// WithWarmupDelay sets how long [Monitor.Start] waits before starting the
// verifier, giving the peer time to come up. Defaults to 15 seconds; zero
// starts the verifier immediately.
//
// Returns an error if the duration is negative.
func WithWarmupDelay(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d < 0 {
			return fmt.Errorf("warmup delay cannot be negative, got %s", d)
		}
		cfg.warmupDelay = d
		return nil
	}
}

// WithPort sets the HTTP port. Defaults to 5001.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *monitorConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the service name shown on the status page and reported by
// /health. Empty titles are ignored.
func WithTitle(title string) Option {
	return func(cfg *monitorConfig) error {
		if title != "" {
			cfg.title = title
		}
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithRegistry registers the monitor's metrics with reg and serves reg on
// /metrics instead of a private registry.
//
// Returns an error if the registry is nil.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(cfg *monitorConfig) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		cfg.registry = reg
		return nil
	}
}

// WithTickCallback registers a function to be called after every
// verification call, once the statistics have been updated.
//
// Callbacks run synchronously on the verifier goroutine and delay the next
// call while they run, so they must not block. Panics are recovered and
// logged. Multiple callbacks run in registration order.
//
// Example:
//
//	m, err := healthmonitor.New(
//	    healthmonitor.WithTickCallback(func(r healthmonitor.TickResult) {
//	        if !r.Success {
//	            log.Printf("peer check failed: %v", r.Err)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithTickCallback(cb func(TickResult)) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.tickCallbacks = append(cfg.tickCallbacks, cb)
		return nil
	}
}

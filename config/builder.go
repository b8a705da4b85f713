package config

import (
	"log/slog"

	"github.com/ghpascon/healthmonitor"
)

// BuildOptions converts a validated configuration into monitor options.
//
// logger may be nil, in which case the monitor falls back to slog.Default.
func BuildOptions(cfg *Config, logger *slog.Logger) []healthmonitor.Option {
	opts := []healthmonitor.Option{
		healthmonitor.WithTitle(cfg.Title),
		healthmonitor.WithPort(cfg.Port),
		healthmonitor.WithPeerURL(cfg.PeerURL),
		healthmonitor.WithCallInterval(cfg.CallInterval.Duration()),
		healthmonitor.WithCallTimeout(cfg.CallTimeout.Duration()),
		healthmonitor.WithWarmupDelay(cfg.WarmupDelay.Duration()),
	}
	if logger != nil {
		opts = append(opts, healthmonitor.WithLogger(logger))
	}
	return opts
}

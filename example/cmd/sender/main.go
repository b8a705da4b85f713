// Standalone data producer that pushes random sensor readings to a running
// monitor.
//
// Usage:
//
//	MONITOR_URL=http://localhost:5001 SEND_INTERVAL=5 go run ./example/cmd/sender
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ghpascon/healthmonitor/example/demo"
)

type senderEnv struct {
	MonitorURL   string `env:"MONITOR_URL"   envDefault:"http://localhost:5001"`
	SendInterval int    `env:"SEND_INTERVAL" envDefault:"30"`
	WarmupDelay  int    `env:"WARMUP_DELAY"  envDefault:"10"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	var cfg senderEnv
	if err := env.Parse(&cfg); err != nil {
		logger.Error("parse env", "error", err)
		os.Exit(1)
	}
	if cfg.SendInterval <= 0 {
		logger.Error("SEND_INTERVAL must be positive", "value", cfg.SendInterval)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("sender starting",
		"target", cfg.MonitorURL,
		"interval_seconds", cfg.SendInterval,
		"warmup_seconds", cfg.WarmupDelay,
	)

	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(cfg.WarmupDelay) * time.Second):
	}

	sender := demo.NewSender(cfg.MonitorURL, 10*time.Second, logger)
	sent, failed := sender.Run(ctx, time.Duration(cfg.SendInterval)*time.Second)
	logger.Info("sender stopped", "sent", sent, "failed", failed)
}

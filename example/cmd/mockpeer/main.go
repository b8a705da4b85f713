// Standalone verification peer for running the monitor locally.
//
// Usage:
//
//	go run ./example/cmd/mockpeer
//
// Then in another terminal:
//
//	PEER_URL=http://localhost:5002 go run ./cmd/healthmonitor serve
package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ghpascon/healthmonitor/example/demo"
)

type peerEnv struct {
	Port        int           `env:"PORT"         envDefault:"5002"`
	FailureRate float64       `env:"FAILURE_RATE" envDefault:"0.05"`
	MinDelay    time.Duration `env:"MIN_DELAY"    envDefault:"100ms"`
	MaxDelay    time.Duration `env:"MAX_DELAY"    envDefault:"500ms"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	var cfg peerEnv
	if err := env.Parse(&cfg); err != nil {
		logger.Error("parse env", "error", err)
		os.Exit(1)
	}

	peer := &demo.Peer{
		Name:        "mockpeer",
		FailureRate: cfg.FailureRate,
		MinDelay:    cfg.MinDelay,
		MaxDelay:    cfg.MaxDelay,
		Logger:      logger,
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           peer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("mock peer starting", "port", cfg.Port, "failure_rate", cfg.FailureRate)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

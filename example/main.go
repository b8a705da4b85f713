// All-in-one demo: a mock peer, the monitor and a data sender in one process.
//
// Usage:
//
//	go run ./example
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghpascon/healthmonitor"
	"github.com/ghpascon/healthmonitor/example/demo"
)

const (
	peerAddr    = "127.0.0.1:5002"
	monitorPort = 5001
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	peer := &demo.Peer{
		Name:        "mockpeer",
		FailureRate: 0.05,
		MinDelay:    100 * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
		Logger:      logger.With("component", "peer"),
	}
	peerServer := &http.Server{Addr: peerAddr, Handler: peer.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := peerServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("peer server error", "error", err)
		}
	}()
	defer func() { _ = peerServer.Close() }()

	m, err := healthmonitor.New(
		healthmonitor.WithPeerURL("http://"+peerAddr),
		healthmonitor.WithCallInterval(5*time.Second),
		healthmonitor.WithWarmupDelay(2*time.Second),
		healthmonitor.WithPort(monitorPort),
		healthmonitor.WithTitle("Health Monitor Demo"),
		healthmonitor.WithLogger(logger),
		healthmonitor.WithTickCallback(func(r healthmonitor.TickResult) {
			if !r.Success {
				logger.Warn("peer check failed", "error", r.Err)
			}
		}),
	)
	if err != nil {
		logger.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
		sender := demo.NewSender(fmt.Sprintf("http://127.0.0.1:%d", monitorPort), 10*time.Second, logger.With("component", "sender"))
		sender.Run(ctx, 3*time.Second)
	}()

	fmt.Println()
	fmt.Printf("  Health monitor demo: open http://localhost:%d\n", monitorPort)
	fmt.Println("  Peer checks every 5s, sensor data every 3s. Press Ctrl+C to stop.")
	fmt.Println()

	if err := m.Start(ctx); err != nil {
		logger.Error("monitor error", "error", err)
		os.Exit(1)
	}
}

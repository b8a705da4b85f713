// Package healthmonitor watches a peer service by calling its /verification
// endpoint on a fixed interval, and keeps the last few records pushed to it by
// a data producer.
//
// # Quick Start
//
//	m, _ := healthmonitor.New(healthmonitor.WithPeerURL("http://app2:5002"))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	m.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// Monitor uses the functional options pattern:
//
//	m, err := healthmonitor.New(
//	    healthmonitor.WithPeerURL("http://app2:5002"),
//	    healthmonitor.WithCallInterval(30 * time.Second),
//	    healthmonitor.WithCallTimeout(5 * time.Second),
//	    healthmonitor.WithWarmupDelay(15 * time.Second),
//	    healthmonitor.WithPort(5001),
//	)
//
// The config package loads the same settings from YAML and the environment
// for the healthmonitor binary.
//
// # Verification
//
// Each tick issues GET {peer}/verification. A 2xx response with a JSON body
// counts as a success and becomes the last response; anything else counts as
// an error. Failures never stop the loop. The pause between calls is measured
// from the end of one call to the start of the next.
//
// # HTTP API
//
//   - GET /health, GET /api/stats: verifier statistics
//   - POST /data: accepts any JSON object from the producer
//   - GET /api/received: recent records (?limit=N, default 5)
//   - POST /api/verifier/start, POST /api/verifier/stop
//   - GET /api/sse: live stream of received records
//   - GET /metrics: Prometheus metrics
//
// # Architecture
//
//   - internal/verifier: periodic caller and statistics
//   - internal/ingress: bounded buffer of received records with pub/sub
//   - internal/metrics: Prometheus collectors
//   - internal/server: HTTP routes and Server-Sent Events
//   - dashboard: embedded status page
package healthmonitor

// Package server provides the HTTP surface of the health monitor.
//
// It exposes the verifier's statistics and manual start/stop control, accepts
// pushes from the data producer into the ingress buffer, streams new records
// over Server-Sent Events, serves the embedded status page and, when
// configured, Prometheus metrics.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server

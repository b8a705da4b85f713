package healthmonitor

import (
	"encoding/json"
	"time"

	"github.com/ghpascon/healthmonitor/internal/ingress"
	"github.com/ghpascon/healthmonitor/internal/verifier"
)

// Stats is a snapshot of the verifier's call statistics.
//
// TotalCalls always equals SuccessfulCalls + ErrorCalls.
type Stats struct {
	// Running reports whether the verification loop is active.
	Running bool

	TotalCalls      uint64
	SuccessfulCalls uint64
	ErrorCalls      uint64

	// LastCalledAt is the time of the last successful call, nil before the
	// first success.
	LastCalledAt *time.Time

	// LastResponse is the JSON body of the last successful call.
	LastResponse json.RawMessage

	// SuccessRate is SuccessfulCalls/TotalCalls as a percentage rounded to
	// two decimals, or 0 when no call has been made.
	SuccessRate float64
}

// Record is a payload received from the data producer.
type Record struct {
	ID         string
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// TickResult holds the outcome of one verification call.
type TickResult struct {
	// URL is the full verification URL that was called.
	URL string

	// Success is true when the peer answered 2xx with a JSON body.
	Success bool

	// StatusCode is zero if the call failed before a response was received.
	StatusCode int

	Latency   time.Duration
	CheckedAt time.Time

	// Response is the JSON body of a successful call.
	Response json.RawMessage

	// Err is nil on success. Use errors.As with [TransportError] or
	// [RemoteError] to tell the failure kinds apart.
	Err error
}

// TransportError reports that the peer could not be reached.
type TransportError = verifier.TransportError

// RemoteError reports that the peer answered with an unusable result.
type RemoteError = verifier.RemoteError

func toPublicStats(s verifier.Stats) Stats {
	return Stats{
		Running:         s.Running,
		TotalCalls:      s.TotalCalls,
		SuccessfulCalls: s.SuccessfulCalls,
		ErrorCalls:      s.ErrorCalls,
		LastCalledAt:    s.LastCalledAt,
		LastResponse:    s.LastResponse,
		SuccessRate:     s.SuccessRate(),
	}
}

func toPublicRecord(r ingress.Record) Record {
	return Record{
		ID:         r.ID,
		Payload:    r.Payload,
		ReceivedAt: r.ReceivedAt,
	}
}

// toPublicTickResult copies mutable fields so callbacks cannot alter the
// verifier's stored response.
func toPublicTickResult(r verifier.TickResult) TickResult {
	return TickResult{
		URL:        r.URL,
		Success:    r.Success,
		StatusCode: r.StatusCode,
		Latency:    r.Latency,
		CheckedAt:  r.CheckedAt,
		Response:   copyBytes(r.Response),
		Err:        r.Err,
	}
}

// copyBytes returns a copy of the byte slice, or nil if input is nil.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

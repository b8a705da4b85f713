package ingress

import (
	"encoding/json"
	"time"
)

// Record is a payload received from the producer.
type Record struct {
	// ID is assigned on push and is unique per record.
	ID string `json:"id"`

	// Payload is the JSON value exactly as received.
	Payload json.RawMessage `json:"data"`

	// ReceivedAt is the time the record was pushed.
	ReceivedAt time.Time `json:"timestamp"`
}

// Store defines the operations the HTTP layer needs from the ingress window.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Push appends a record for payload and evicts the oldest records beyond
	// capacity. It returns the stored record.
	Push(payload json.RawMessage) Record

	// Recent returns up to k of the newest records, oldest first.
	Recent(k int) []Record

	// Subscribe returns a channel that receives every pushed record.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Record

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Record)
}

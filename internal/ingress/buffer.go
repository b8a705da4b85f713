package ingress

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultCapacity is the number of records retained by a [Buffer].
	DefaultCapacity = 10

	subscriberBuffer = 16
)

// PushObserver is notified after each push with the number of records
// retained. Implementations must be safe for concurrent use.
type PushObserver interface {
	ObservePush(buffered int)
}

// Buffer is an in-memory [Store] that keeps the most recent records in
// insertion order, evicting the oldest once capacity is exceeded.
type Buffer struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
	observer PushObserver
	now      func() time.Time

	subMu       sync.RWMutex
	subscribers map[chan Record]struct{}
}

// NewBuffer creates an empty [Buffer]. A capacity of zero or less selects
// DefaultCapacity. observer may be nil.
func NewBuffer(capacity int, observer PushObserver) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		records:     make([]Record, 0, capacity+1),
		capacity:    capacity,
		observer:    observer,
		now:         time.Now,
		subscribers: make(map[chan Record]struct{}),
	}
}

// Capacity returns the maximum number of records retained.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Push stores payload as a new record and notifies subscribers.
//
// The payload is not validated; it is copied so later changes to the
// caller's slice do not affect the stored record.
func (b *Buffer) Push(payload json.RawMessage) Record {
	rec := Record{
		ID:         uuid.NewString(),
		Payload:    append(json.RawMessage(nil), payload...),
		ReceivedAt: b.now(),
	}

	b.mu.Lock()
	b.records = append(b.records, rec)
	if over := len(b.records) - b.capacity; over > 0 {
		// shift in place so the backing array does not grow without bound
		n := copy(b.records, b.records[over:])
		clear(b.records[n:])
		b.records = b.records[:n]
	}
	buffered := len(b.records)
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.ObservePush(buffered)
	}
	b.notifySubscribers(rec)
	return rec
}

// Recent returns the newest k records, oldest first. If fewer than k records
// are stored, all of them are returned. k <= 0 returns an empty slice.
//
// The returned slice is a copy; modifications do not affect the buffer.
func (b *Buffer) Recent(k int) []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if k <= 0 {
		return []Record{}
	}
	if k > len(b.records) {
		k = len(b.records)
	}

	out := make([]Record, k)
	copy(out, b.records[len(b.records)-k:])
	return out
}

// All returns every retained record, oldest first.
func (b *Buffer) All() []Record {
	return b.Recent(b.capacity)
}

// Len returns the number of records currently retained.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Subscribe creates a new subscription and returns a channel for receiving
// pushed records. If the channel buffer fills, records are dropped for this
// subscriber.
func (b *Buffer) Subscribe() <-chan Record {
	ch := make(chan Record, subscriberBuffer)

	b.subMu.Lock()
	b.subscribers[ch] = struct{}{}
	b.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Buffer) Unsubscribe(ch <-chan Record) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	for subCh := range b.subscribers {
		if subCh == ch {
			delete(b.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (b *Buffer) notifySubscribers(rec Record) {
	b.subMu.RLock()
	defer b.subMu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- rec:
		default:
			// slow subscriber, drop
		}
	}
}

var _ Store = (*Buffer)(nil)

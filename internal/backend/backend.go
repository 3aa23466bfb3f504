package backend

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"sync"
	"time"
)

// Reader executes declarative read queries. dest must be a pointer to a
// slice of row structs.
type Reader interface {
	Select(ctx context.Context, q Query, dest any) error
}

// Writer performs keyed mutations. Insert and Upsert decode the stored row
// back into dest when dest is non-nil.
type Writer interface {
	Insert(ctx context.Context, table string, record, dest any) error
	Upsert(ctx context.Context, table string, record, dest any) error
	Update(ctx context.Context, table string, set any, filters ...Filter) error
	Delete(ctx context.Context, table string, filters ...Filter) error
}

// Store is the combined read/write surface most services depend on.
type Store interface {
	Reader
	Writer
}

// EventKind classifies a row-level change.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// ChangeEvent is one row-level change delivered by the feed.
type ChangeEvent struct {
	Kind   EventKind       `json:"kind"`
	Table  string          `json:"table"`
	Record jsontext.Value `json:"record"`
	At     time.Time       `json:"at,omitzero"`
}

// DecodeRecord unmarshals the changed row into dest.
func (e ChangeEvent) DecodeRecord(dest any) error {
	return json.Unmarshal(e.Record, dest)
}

// Feed delivers row-level change notifications. A nil filter subscribes to
// every change of the table; otherwise only rows matching the filter are
// delivered.
type Feed interface {
	Subscribe(ctx context.Context, table string, filter *Filter) (*Subscription, error)
}

// Subscription is a live handle onto a change stream. Events is closed when
// the subscription ends, whether by Close or by context cancellation.
type Subscription struct {
	mu     sync.Mutex
	closed bool
	events chan ChangeEvent
	done   chan struct{}
	cancel context.CancelFunc
}

// NewSubscription builds a subscription whose producer publishes through
// Publish. cancel may be nil.
func NewSubscription(buffer int, cancel context.CancelFunc) *Subscription {
	return &Subscription{
		events: make(chan ChangeEvent, buffer),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Events returns the delivery channel.
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.events
}

// Publish delivers an event unless the subscription has closed. Slow
// consumers drop events rather than block the producer.
func (s *Subscription) Publish(e ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- e:
	default:
	}
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	if s.cancel != nil {
		s.cancel()
	}
	close(s.events)
}

// Done reports subscription teardown to the producer goroutine.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Uploader stores binary objects and returns a publicly served URL.
type Uploader interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
}

package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

// PublishedEvent is one event captured by RecordingPublisher.
type PublishedEvent struct {
	RoutingKey string
	RawJSON    []byte
}

// RecordingPublisher satisfies messaging.PublisherInterface and keeps every
// event in memory. Set Fail to make Publish return an error.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	Fail   bool
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	if p.Fail {
		return errors.New("broker unavailable")
	}
	raw, err := json.Marshal(eventData)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{RoutingKey: routingKey, RawJSON: raw})
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Keys returns the routing keys in publish order.
func (p *RecordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.RoutingKey
	}
	return keys
}

// Count returns how many events were published with routingKey.
func (p *RecordingPublisher) Count(routingKey string) int {
	n := 0
	for _, k := range p.Keys() {
		if k == routingKey {
			n++
		}
	}
	return n
}

// DecodeLast unmarshals the newest event with routingKey into out.
func (p *RecordingPublisher) DecodeLast(t *testing.T, routingKey string, out interface{}) {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].RoutingKey != routingKey {
			continue
		}
		if err := json.Unmarshal(p.events[i].RawJSON, out); err != nil {
			t.Fatalf("decode %s event: %v", routingKey, err)
		}
		return
	}
	t.Fatalf("no %s event published", routingKey)
}

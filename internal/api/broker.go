package api

import (
	"sync"
)

// Event is one mission progress notification fanned out to subscribers.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Broker is the in-memory event broker keyed by mission id.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(missionID string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[missionID] == nil {
		b.subs[missionID] = map[chan Event]struct{}{}
	}
	b.subs[missionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(missionID string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[missionID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, missionID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// Publish drops events for slow subscribers rather than blocking the planner.
func (b *Broker) Publish(missionID string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[missionID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}

package api

import (
	"sync"
)

// SSEEvent is one message on a plan's event stream: solve.progress frames
// while the search runs, then a terminal plan.completed or plan.failed.
type SSEEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Broker is the single-process EventBroker. Subscribers are grouped per
// plan; a slow consumer loses events rather than stalling the solver.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan SSEEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan SSEEvent]struct{}{}}
}

func (b *Broker) Subscribe(planID string) chan SSEEvent {
	ch := make(chan SSEEvent, 8)
	b.mu.Lock()
	if b.subs[planID] == nil {
		b.subs[planID] = map[chan SSEEvent]struct{}{}
	}
	b.subs[planID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes ch under the lock before closing it; Publish only
// sends to registered channels, so no send can race the close.
func (b *Broker) Unsubscribe(planID string, ch chan SSEEvent) {
	b.mu.Lock()
	if m := b.subs[planID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, planID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(planID string, evt SSEEvent) {
	b.mu.Lock()
	for ch := range b.subs[planID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}

package api

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// EventBroker fans plan lifecycle events out to stream subscribers. The
// in-memory Broker covers a single process; RedisBroker spans replicas.
type EventBroker interface {
	Subscribe(planID string) chan SSEEvent
	Unsubscribe(planID string, ch chan SSEEvent)
	Publish(planID string, evt SSEEvent)
}

// RedisBroker relays events through Redis Pub/Sub, one channel per plan.
// Each subscriber channel is backed by its own *redis.PubSub so it can be
// torn down independently.
type RedisBroker struct {
	rdb  *redis.Client
	mu   sync.Mutex
	subs map[chan SSEEvent]*redis.PubSub
}

func NewRedisBroker() (*RedisBroker, error) {
	url := os.Getenv("REDIS_URL")
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{
		rdb:  redis.NewClient(opt),
		subs: make(map[chan SSEEvent]*redis.PubSub),
	}, nil
}

func (b *RedisBroker) Subscribe(planID string) chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(planID))
	// block until the subscription is confirmed so a Publish that follows
	// Subscribe is not lost
	_, _ = ps.Receive(ctx)

	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()

	// only this goroutine closes ch, after ps.Channel() is drained, so a
	// concurrent send can never hit a closed channel
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt SSEEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(planID string, ch chan SSEEvent) {
	b.mu.Lock()
	ps, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if !ok {
		return
	}
	// closing the PubSub ends the fanout goroutine, which then closes ch
	_ = ps.Close()
}

func (b *RedisBroker) Publish(planID string, evt SSEEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	_ = b.rdb.Publish(ctx, b.chanName(planID), data).Err()
}

func (b *RedisBroker) chanName(planID string) string { return "plan:" + planID }

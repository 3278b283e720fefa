// Package realtime fans change events out to connected clients. Services
// publish through the event dispatcher; the Hub forwards each change to a
// per-team pub/sub channel and the SSE endpoint relays it to browsers.
package realtime

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Subscription delivers raw messages for one channel until closed.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// Bus is a minimal pub/sub transport.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// RedisBus implements Bus on Redis PUBLISH/SUBSCRIBE.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus wraps a connected client.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe waits for the subscription to be confirmed before returning so
// messages published right after are not lost.
func (b *RedisBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub:   pubsub,
		messages: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
	go relay(pubsub.Channel(), sub.messages, sub.done)
	return sub, nil
}

// relay copies payloads from src to out until src closes or done is closed.
// A reader that stops draining out cannot pin the goroutine once done closes.
func relay(src <-chan *redis.Message, out chan<- []byte, done <-chan struct{}) {
	defer close(out)
	for {
		select {
		case <-done:
			return
		case msg, ok := <-src:
			if !ok {
				return
			}
			select {
			case out <- []byte(msg.Payload):
			case <-done:
				return
			}
		}
	}
}

type redisSubscription struct {
	pubsub   *redis.PubSub
	messages chan []byte
	done     chan struct{}
	once     sync.Once
}

func (s *redisSubscription) Messages() <-chan []byte { return s.messages }

func (s *redisSubscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.pubsub.Close()
}

// MemoryBus is a process-local Bus. Slow subscribers drop messages rather
// than block publishers.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string]map[*memorySubscription]struct{}
}

// NewMemoryBus constructs an empty MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[channel] {
		select {
		case sub.messages <- payload:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, channel string) (Subscription, error) {
	sub := &memorySubscription{bus: b, channel: channel, messages: make(chan []byte, 16)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySubscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	return sub, nil
}

type memorySubscription struct {
	bus      *MemoryBus
	channel  string
	messages chan []byte
	once     sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte { return s.messages }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.channel], s)
		s.bus.mu.Unlock()
		close(s.messages)
	})
	return nil
}

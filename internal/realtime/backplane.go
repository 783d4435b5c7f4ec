package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Envelope is one room-addressed event crossing the backplane.
type Envelope struct {
	Room    uuid.UUID       `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Backplane bridges room delivery across server processes: every
// process publishes its outbound events and every process delivers the
// events it receives to whatever room members it holds locally. This is
// the only cross-process coordination; there is no shared lock.
type Backplane interface {
	Publish(ctx context.Context, envelope Envelope) error
	Subscribe(ctx context.Context, handler func(Envelope))
}

// RedisBackplane implements Backplane over a redis pub/sub channel.
type RedisBackplane struct {
	client  *redis.Client
	channel string
	log     logr.Logger
}

func NewRedisBackplane(client *redis.Client, channel string, log logr.Logger) *RedisBackplane {
	return &RedisBackplane{client: client, channel: channel, log: log}
}

func (b *RedisBackplane) Publish(ctx context.Context, envelope Envelope) error {
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, encoded).Err()
}

func (b *RedisBackplane) Subscribe(ctx context.Context, handler func(Envelope)) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var envelope Envelope
				if err := json.Unmarshal([]byte(message.Payload), &envelope); err != nil {
					b.log.Error(err, "malformed backplane envelope")
					continue
				}
				handler(envelope)
			}
		}
	}()
}

// LoopbackBackplane delivers within the process only. Useful for tests
// and single-process deployments.
type LoopbackBackplane struct {
	mu       sync.RWMutex
	handlers []func(Envelope)
}

func NewLoopbackBackplane() *LoopbackBackplane {
	return &LoopbackBackplane{}
}

func (b *LoopbackBackplane) Publish(_ context.Context, envelope Envelope) error {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()
	for _, handler := range handlers {
		handler(envelope)
	}
	return nil
}

func (b *LoopbackBackplane) Subscribe(_ context.Context, handler func(Envelope)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

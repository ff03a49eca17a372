package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/classcast/classcast/pkg/log"
)

// subscriberBuffer is the depth of each delivered event channel. The
// pump blocks when a consumer falls this far behind rather than drop
// events, so per-channel publish order survives slow consumers.
const subscriberBuffer = 100

// RedisPubSub is the redis-backed event bus driver.
type RedisPubSub struct {
	client *redis.Client

	mu   sync.Mutex
	subs map[string]*redis.PubSub // keyed by channel or pattern
}

// NewRedisPubSub connects to redis and verifies the connection before
// returning the bus.
func NewRedisPubSub(cfg RedisConfig) (*RedisPubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPubSub{
		client: client,
		subs:   make(map[string]*redis.PubSub),
	}, nil
}

// Publish publishes an event to the specified channel.
func (r *RedisPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe delivers events published to one channel.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	return r.track(ctx, channel, r.client.Subscribe(ctx, channel))
}

// SubscribePattern delivers events from every channel matching a redis
// glob pattern.
func (r *RedisPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	return r.track(ctx, pattern, r.client.PSubscribe(ctx, pattern))
}

// Unsubscribe tears down the subscription for a channel or pattern.
// Unknown keys are a no-op.
func (r *RedisPubSub) Unsubscribe(ctx context.Context, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[channel]
	if !ok {
		return nil
	}
	delete(r.subs, channel)
	return sub.Close()
}

// Close tears down every subscription and the client.
func (r *RedisPubSub) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subs {
		sub.Close()
	}
	r.subs = make(map[string]*redis.PubSub)
	return r.client.Close()
}

func (r *RedisPubSub) track(ctx context.Context, key string, sub *redis.PubSub) (<-chan *Event, error) {
	r.mu.Lock()
	if old, ok := r.subs[key]; ok {
		old.Close()
	}
	r.subs[key] = sub
	r.mu.Unlock()

	out := make(chan *Event, subscriberBuffer)
	go r.pump(ctx, sub, out)
	return out, nil
}

// pump decodes raw redis messages and forwards them until the
// subscription closes or ctx is cancelled. Forwarding blocks on a full
// consumer channel; dropping here would silently break per-channel
// ordering for the consumer.
func (r *RedisPubSub) pump(ctx context.Context, sub *redis.PubSub, out chan<- *Event) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.L().Warn().Err(err).Str("channel", msg.Channel).Msg("discarding undecodable bus message")
				continue
			}

			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}
}

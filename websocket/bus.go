// websocket/bus.go
package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// Bus carries events between service instances
type Bus interface {
	Publish(ctx context.Context, event Event) error
	// StartForwarder subscribes and calls onEvent for every received event until ctx is done
	StartForwarder(ctx context.Context, onEvent func(Event)) error
}

// RedisBus is a Bus over Redis pub/sub
type RedisBus struct {
	redis   *redis.Client
	channel string
	logger  *utils.ETLLogger
}

// NewRedisBus creates a RedisBus on channel, DefaultChannel when empty
func NewRedisBus(client *redis.Client, channel string, logger *utils.ETLLogger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &RedisBus{redis: client, channel: channel, logger: logger}
}

// Publish implements Bus
func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder implements Bus
func (b *RedisBus) StartForwarder(ctx context.Context, onEvent func(Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					b.logger.Warn("Bad event payload on %s: %v", b.channel, err)
					continue
				}
				onEvent(event)
			}
		}
	}()
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/campaign-dialer/internal/service/campaign"
)

// ControlBus carries campaign control signals between instances over redis
// pub/sub. Delivery is at most once; a signal published while no instance
// runs the campaign is dropped.
type ControlBus struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewControlBus creates a bus on ControlChannel
func NewControlBus(client *redis.Client, logger *zap.Logger) *ControlBus {
	return &ControlBus{client: client, channel: ControlChannel, logger: logger}
}

// Publish broadcasts sig to every subscribed instance
func (b *ControlBus) Publish(ctx context.Context, sig campaign.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Subscribe delivers signals to handler until ctx is done. It returns an
// error only when the subscription cannot be established.
func (b *ControlBus) Subscribe(ctx context.Context, handler func(campaign.Signal)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// first reply is the subscription confirmation
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe failed: %w", err)
	}

	b.logger.Info("Listening for campaign control signals", zap.String("channel", b.channel))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var sig campaign.Signal
			if err := json.Unmarshal([]byte(msg.Payload), &sig); err != nil {
				b.logger.Warn("Ignoring malformed control signal", zap.Error(err))
				continue
			}
			handler(sig)
		}
	}
}

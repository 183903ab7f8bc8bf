package hub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TriggerChannel is the Redis channel other services publish Envelopes on.
const TriggerChannel = "trigger:events"

// PubSubSource consumes JSON envelopes from a Redis Pub/Sub channel.
// Delivery is at-most-once: a message published while the source is
// disconnected is lost.
type PubSubSource struct {
	Redis   *redis.Client
	Channel string
	Log     *zap.SugaredLogger
}

// NewPubSubSource subscribes to TriggerChannel.
func NewPubSubSource(rdb *redis.Client, log *zap.SugaredLogger) *PubSubSource {
	return &PubSubSource{Redis: rdb, Channel: TriggerChannel, Log: log}
}

func (s *PubSubSource) Name() string { return "pubsub" }

func (s *PubSubSource) Run(ctx context.Context, d *Dispatcher) error {
	pubsub := s.Redis.Subscribe(ctx, s.Channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed so connection errors surface.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	s.Log.Infow("Listening for trigger events", "channel", s.Channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				s.Log.Warnw("Malformed trigger envelope", "channel", msg.Channel, "error", err)
				continue
			}
			if !d.Handles(env.Kind) {
				s.Log.Warnw("Unknown trigger kind", "kind", env.Kind, "event_id", env.ID)
				continue
			}
			d.Go(ctx, env.Event())
		}
	}
}

// Publish sends an envelope to the trigger channel.
func Publish(ctx context.Context, rdb *redis.Client, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, TriggerChannel, payload).Err()
}

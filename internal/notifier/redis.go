package notifier

import (
	"context"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes events on a Redis pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

var _ port.Notifier = (*RedisNotifier)(nil)

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, channel: Channel}
}

func (n *RedisNotifier) Publish(ctx context.Context, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		logger.Errorf(ctx, "❌  could not encode %s event: %v", event, err)
		return
	}
	receivers, err := n.client.Publish(ctx, n.channel, data).Result()
	if err != nil {
		logger.Errorf(ctx, "❌  could not publish %s event: %v", event, err)
		return
	}
	logger.Debugf(ctx, "published %s event to %d subscribers", event, receivers)
}
